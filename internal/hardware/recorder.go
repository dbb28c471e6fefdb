package hardware

import (
	"fmt"
	"sync"

	"callaudio/internal/audio"
)

type CmdKind string

const (
	CmdAcquireFocus      CmdKind = "acquire_focus"
	CmdReleaseFocus      CmdKind = "release_focus"
	CmdSetMode           CmdKind = "set_mode"
	CmdSetRoute          CmdKind = "set_route"
	CmdSetSpeakerphone   CmdKind = "set_speakerphone"
	CmdSetMicrophoneMute CmdKind = "set_microphone_mute"
	CmdConnectAudio      CmdKind = "connect_wireless_audio"
	CmdDisconnectAudio   CmdKind = "disconnect_wireless_audio"
	CmdStartRingtone     CmdKind = "start_ringtone"
	CmdStopRingtone      CmdKind = "stop_ringtone"
	CmdStartCallWaiting  CmdKind = "start_call_waiting"
	CmdStopCallWaiting   CmdKind = "stop_call_waiting"
)

// Command is one recorded hardware call. Only the field relevant to Kind is set.
type Command struct {
	Kind  CmdKind         `json:"kind" yaml:"kind"`
	Focus audio.FocusKind `json:"focus,omitempty" yaml:"focus,omitempty"`
	Mode  audio.Mode      `json:"mode,omitempty" yaml:"mode,omitempty"`
	Route audio.Route     `json:"route,omitempty" yaml:"route,omitempty"`
	On    bool            `json:"on,omitempty" yaml:"on,omitempty"`
	Token uint64          `json:"token,omitempty" yaml:"token,omitempty"`
}

func (c Command) String() string {
	switch c.Kind {
	case CmdAcquireFocus:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Focus)
	case CmdSetMode:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Mode)
	case CmdSetRoute:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Route)
	case CmdSetSpeakerphone, CmdSetMicrophoneMute:
		return fmt.Sprintf("%s(%t)", c.Kind, c.On)
	case CmdConnectAudio:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Token)
	default:
		return string(c.Kind)
	}
}

// Recorder is an in-memory implementation of every hardware interface.
// It records each command in order and exposes presence flags that tests
// and the replay command set directly.
type Recorder struct {
	mu       sync.Mutex
	cmds     []Command
	wireless bool
	wired    bool
}

func NewRecorder() *Recorder { return &Recorder{} }

var (
	_ AudioDriver          = (*Recorder)(nil)
	_ WirelessHeadsetProxy = (*Recorder)(nil)
	_ WiredHeadsetSensor   = (*Recorder)(nil)
	_ TonePlayer           = (*Recorder)(nil)
)

func (r *Recorder) record(c Command) {
	r.mu.Lock()
	r.cmds = append(r.cmds, c)
	r.mu.Unlock()
}

func (r *Recorder) AcquireFocus(kind audio.FocusKind) {
	r.record(Command{Kind: CmdAcquireFocus, Focus: kind})
}
func (r *Recorder) ReleaseFocus()              { r.record(Command{Kind: CmdReleaseFocus}) }
func (r *Recorder) SetMode(mode audio.Mode)    { r.record(Command{Kind: CmdSetMode, Mode: mode}) }
func (r *Recorder) SetRoute(route audio.Route) { r.record(Command{Kind: CmdSetRoute, Route: route}) }
func (r *Recorder) SetSpeakerphone(on bool)    { r.record(Command{Kind: CmdSetSpeakerphone, On: on}) }
func (r *Recorder) SetMicrophoneMute(on bool) {
	r.record(Command{Kind: CmdSetMicrophoneMute, On: on})
}

func (r *Recorder) ConnectAudio(token uint64) {
	r.record(Command{Kind: CmdConnectAudio, Token: token})
}
func (r *Recorder) DisconnectAudio() { r.record(Command{Kind: CmdDisconnectAudio}) }

func (r *Recorder) StartRingtone()    { r.record(Command{Kind: CmdStartRingtone}) }
func (r *Recorder) StopRingtone()     { r.record(Command{Kind: CmdStopRingtone}) }
func (r *Recorder) StartCallWaiting() { r.record(Command{Kind: CmdStartCallWaiting}) }
func (r *Recorder) StopCallWaiting()  { r.record(Command{Kind: CmdStopCallWaiting}) }

func (r *Recorder) IsAvailable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wireless
}

func (r *Recorder) IsPluggedIn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wired
}

func (r *Recorder) SetWirelessAvailable(v bool) {
	r.mu.Lock()
	r.wireless = v
	r.mu.Unlock()
}

func (r *Recorder) SetWiredPluggedIn(v bool) {
	r.mu.Lock()
	r.wired = v
	r.mu.Unlock()
}

// Commands returns a copy of the recorded commands.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.cmds))
	copy(out, r.cmds)
	return out
}

// Count returns how many commands of kind were recorded.
func (r *Recorder) Count(kind CmdKind) int {
	return r.CountWhere(func(c Command) bool { return c.Kind == kind })
}

// CountOf returns how many recorded commands equal want exactly.
func (r *Recorder) CountOf(want Command) int {
	return r.CountWhere(func(c Command) bool { return c == want })
}

func (r *Recorder) CountWhere(match func(Command) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.cmds {
		if match(c) {
			n++
		}
	}
	return n
}

// Reset clears the command log. Presence flags are kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.cmds = nil
	r.mu.Unlock()
}
