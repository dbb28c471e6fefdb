package mode

import (
	"fmt"

	"callaudio/internal/audio"
	"callaudio/internal/calls"
)

// Kind identifies a mode message.
type Kind int

const (
	NewActiveOrDialingCall Kind = iota + 1
	NewRingingCall
	NewHoldingCall
	NoMoreActiveOrDialingCalls
	NoMoreRingingCalls
	NoMoreHoldingCalls
	TonePlaybackStarted
	TonePlaybackStopped
	ForegroundSoftphoneModeChanged
	AbandonFocus
)

var kindNames = map[Kind]string{
	NewActiveOrDialingCall:         "new_active_or_dialing_call",
	NewRingingCall:                 "new_ringing_call",
	NewHoldingCall:                 "new_holding_call",
	NoMoreActiveOrDialingCalls:     "no_more_active_or_dialing_calls",
	NoMoreRingingCalls:             "no_more_ringing_calls",
	NoMoreHoldingCalls:             "no_more_holding_calls",
	TonePlaybackStarted:            "tone_playback_started",
	TonePlaybackStopped:            "tone_playback_stopped",
	ForegroundSoftphoneModeChanged: "foreground_softphone_mode_changed",
	AbandonFocus:                   "abandon_focus",
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

func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("mode: unknown message %q", s)
}

// Message is one input to the coordinator. Snapshot is the aggregate call
// state at the moment the message was produced.
type Message struct {
	Kind     Kind           `json:"kind" yaml:"kind"`
	Snapshot calls.Snapshot `json:"snapshot" yaml:"snapshot"`
}

// State is the coordinator's focus state.
type State int

const (
	Unfocused State = iota
	Ringing
	InCall
	InCommunication
	ToneOrHold
)

func (s State) String() string {
	switch s {
	case Unfocused:
		return "unfocused"
	case Ringing:
		return "ringing"
	case InCall:
		return "in_call"
	case InCommunication:
		return "in_communication"
	case ToneOrHold:
		return "tone_or_hold"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Status is a point-in-time view of the coordinator, read inside its loop.
type Status struct {
	State       State           `json:"state"`
	Focus       audio.FocusKind `json:"focus"`
	Mode        audio.Mode      `json:"mode"`
	CallWaiting bool            `json:"call_waiting"`
}

// Transition describes one state change, reported to an Observer.
type Transition struct {
	From             State           `json:"from"`
	To               State           `json:"to"`
	Trigger          Kind            `json:"trigger"`
	Focus            audio.FocusKind `json:"focus"`
	Mode             audio.Mode      `json:"mode"`
	CorrelationToken string          `json:"correlation_token,omitempty"`
}

// Signals receives ringtone and call-waiting requests produced by transitions.
type Signals interface {
	StartRinging()
	StopRinging()
	StartCallWaiting()
	StopCallWaiting()
}

// FocusListener is told whenever the held focus kind changes.
type FocusListener interface {
	OnFocusChanged(kind audio.FocusKind)
}

type Observer interface {
	OnTransition(t Transition)
}

type ObserverFunc func(t Transition)

func (f ObserverFunc) OnTransition(t Transition) { f(t) }
