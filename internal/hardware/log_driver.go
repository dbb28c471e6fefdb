package hardware

import (
	"log/slog"
	"sync"

	"callaudio/internal/audio"
)

// LogDriver is the daemon's audio driver and tone player. It logs every
// command and keeps the physical state it was asked to apply.
type LogDriver struct {
	log *slog.Logger

	mu        sync.Mutex
	focus     audio.FocusKind
	mode      audio.Mode
	route     audio.Route
	speaker   bool
	micMuted  bool
	ringing   bool
	cwPlaying bool
}

// DriverState is a point-in-time view of a LogDriver.
type DriverState struct {
	Focus           audio.FocusKind `json:"focus"`
	Mode            audio.Mode      `json:"mode"`
	Route           audio.Route     `json:"route"`
	Speakerphone    bool            `json:"speakerphone"`
	MicrophoneMuted bool            `json:"microphone_muted"`
	Ringing         bool            `json:"ringing"`
	CallWaiting     bool            `json:"call_waiting"`
}

func NewLogDriver(log *slog.Logger) *LogDriver {
	if log == nil {
		log = slog.Default()
	}
	return &LogDriver{log: log.With("subsystem", "audio_driver"), route: audio.RouteEarpiece}
}

func (d *LogDriver) AcquireFocus(kind audio.FocusKind) {
	d.mu.Lock()
	d.focus = kind
	d.mu.Unlock()
	d.log.Info("acquire focus", "kind", kind.String())
}

func (d *LogDriver) ReleaseFocus() {
	d.mu.Lock()
	d.focus = audio.FocusNone
	d.mu.Unlock()
	d.log.Info("release focus")
}

func (d *LogDriver) SetMode(mode audio.Mode) {
	d.mu.Lock()
	d.mode = mode
	d.mu.Unlock()
	d.log.Info("set mode", "mode", mode.String())
}

func (d *LogDriver) SetRoute(route audio.Route) {
	d.mu.Lock()
	d.route = route
	d.mu.Unlock()
	d.log.Info("set route", "route", route.String())
}

func (d *LogDriver) SetSpeakerphone(on bool) {
	d.mu.Lock()
	d.speaker = on
	d.mu.Unlock()
	d.log.Info("set speakerphone", "on", on)
}

func (d *LogDriver) SetMicrophoneMute(on bool) {
	d.mu.Lock()
	d.micMuted = on
	d.mu.Unlock()
	d.log.Info("set microphone mute", "on", on)
}

func (d *LogDriver) StartRingtone()    { d.setTone(&d.ringing, true, "ringtone") }
func (d *LogDriver) StopRingtone()     { d.setTone(&d.ringing, false, "ringtone") }
func (d *LogDriver) StartCallWaiting() { d.setTone(&d.cwPlaying, true, "call_waiting") }
func (d *LogDriver) StopCallWaiting()  { d.setTone(&d.cwPlaying, false, "call_waiting") }

func (d *LogDriver) setTone(flag *bool, on bool, tone string) {
	d.mu.Lock()
	*flag = on
	d.mu.Unlock()
	d.log.Debug("tone", "tone", tone, "playing", on)
}

func (d *LogDriver) State() DriverState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DriverState{
		Focus:           d.focus,
		Mode:            d.mode,
		Route:           d.route,
		Speakerphone:    d.speaker,
		MicrophoneMuted: d.micMuted,
		Ringing:         d.ringing,
		CallWaiting:     d.cwPlaying,
	}
}
