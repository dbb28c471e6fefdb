package route

import (
	"fmt"

	"callaudio/internal/audio"
)

type Kind int

const (
	ConnectWiredHeadset Kind = iota + 1
	DisconnectWiredHeadset
	ConnectBluetooth
	DisconnectBluetooth
	BluetoothAudioConnected
	BluetoothAudioDisconnected
	SwitchEarpiece
	SwitchSpeaker
	SwitchBluetooth
	SwitchHeadset
	SwitchBaselineRoute
	MuteOn
	MuteOff
	ToggleMute
	FocusChanged
	ResendAudioState

	// posted by the connect timer, never by callers
	bluetoothConnectTimeout
)

var kindNames = map[Kind]string{
	ConnectWiredHeadset:        "connect_wired_headset",
	DisconnectWiredHeadset:     "disconnect_wired_headset",
	ConnectBluetooth:           "connect_bluetooth",
	DisconnectBluetooth:        "disconnect_bluetooth",
	BluetoothAudioConnected:    "bluetooth_audio_connected",
	BluetoothAudioDisconnected: "bluetooth_audio_disconnected",
	SwitchEarpiece:             "switch_earpiece",
	SwitchSpeaker:              "switch_speaker",
	SwitchBluetooth:            "switch_bluetooth",
	SwitchHeadset:              "switch_headset",
	SwitchBaselineRoute:        "switch_baseline_route",
	MuteOn:                     "mute_on",
	MuteOff:                    "mute_off",
	ToggleMute:                 "toggle_mute",
	FocusChanged:               "focus_changed",
	ResendAudioState:           "resend_audio_state",
	bluetoothConnectTimeout:    "bluetooth_connect_timeout",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseKind maps a message name to its Kind. Internal kinds are rejected.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s && k != bluetoothConnectTimeout {
			return k, nil
		}
	}
	return 0, fmt.Errorf("route: unknown message %q", s)
}

// SwitchFor returns the user switch message targeting r.
func SwitchFor(r audio.Route) (Kind, error) {
	switch r {
	case audio.RouteEarpiece:
		return SwitchEarpiece, nil
	case audio.RouteSpeaker:
		return SwitchSpeaker, nil
	case audio.RouteBluetooth:
		return SwitchBluetooth, nil
	case audio.RouteWiredHeadset:
		return SwitchHeadset, nil
	}
	return 0, fmt.Errorf("route: no switch for %s", r)
}

// changesRoute reports whether the message must wait for a pending
// Bluetooth connect to resolve.
func (k Kind) changesRoute() bool {
	switch k {
	case ConnectWiredHeadset, DisconnectWiredHeadset, ConnectBluetooth,
		SwitchEarpiece, SwitchSpeaker, SwitchBluetooth, SwitchHeadset, SwitchBaselineRoute:
		return true
	}
	return false
}

// Message is one input to the route coordinator. Token names the wireless
// audio link for BluetoothAudioConnected and BluetoothAudioDisconnected;
// Focus is set for FocusChanged.
type Message struct {
	Kind  Kind            `json:"kind" yaml:"kind"`
	Token uint64          `json:"token,omitempty" yaml:"token,omitempty"`
	Focus audio.FocusKind `json:"focus,omitempty" yaml:"-"`
}

// Listener receives call-audio-state changes, at most once per change.
type Listener interface {
	OnCallAudioStateChanged(prev, next audio.CallAudioState)
}

type ListenerFunc func(prev, next audio.CallAudioState)

func (f ListenerFunc) OnCallAudioStateChanged(prev, next audio.CallAudioState) { f(prev, next) }

// Status is a point-in-time view of the coordinator, read inside its loop.
type Status struct {
	Name              string               `json:"name"`
	Audio             audio.CallAudioState `json:"audio"`
	Focused           bool                 `json:"focused"`
	PendingBluetooth  bool                 `json:"pending_bluetooth"`
	UserLeftBluetooth bool                 `json:"user_left_bluetooth"`
}
