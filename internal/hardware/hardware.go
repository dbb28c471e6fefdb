package hardware

import "callaudio/internal/audio"

// AudioDriver executes focus, mode and route changes on the audio subsystem.
// Calls are fire-and-forget; implementations must not block the caller.
type AudioDriver interface {
	AcquireFocus(kind audio.FocusKind)
	ReleaseFocus()
	SetMode(mode audio.Mode)
	SetRoute(route audio.Route)
	SetSpeakerphone(on bool)
	SetMicrophoneMute(on bool)
}

// WirelessHeadsetProxy controls wireless (Bluetooth) audio.
// ConnectAudio confirms asynchronously; the confirmation must echo token.
// A link that goes down, including after DisconnectAudio, is reported with
// the token it was connected with.
type WirelessHeadsetProxy interface {
	IsAvailable() bool
	ConnectAudio(token uint64)
	DisconnectAudio()
}

// WiredHeadsetSensor reports wired headset presence.
type WiredHeadsetSensor interface {
	IsPluggedIn() bool
}

// TonePlayer plays the ringtone and the call-waiting tone.
type TonePlayer interface {
	StartRingtone()
	StopRingtone()
	StartCallWaiting()
	StopCallWaiting()
}
