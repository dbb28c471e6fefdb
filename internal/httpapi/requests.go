package httpapi

// Request bodies. Validation uses go-playground/validator tags.

// --- Call engine ---

type addCallRequest struct {
	ID        string `json:"id" validate:"required,max=128"`
	State     string `json:"state" validate:"required,oneof=new connecting dialing ringing active on_hold disconnecting disconnected aborted"`
	Softphone bool   `json:"softphone"`
}

type callStateRequest struct {
	From  string `json:"from" validate:"omitempty,oneof=new connecting dialing ringing active on_hold disconnecting disconnected aborted"`
	State string `json:"state" validate:"required,oneof=new connecting dialing ringing active on_hold disconnecting disconnected aborted"`
}

// foregroundRequest with an empty id clears the foreground call.
type foregroundRequest struct {
	ID string `json:"id" validate:"max=128"`
}

type toneRequest struct {
	Playing *bool `json:"playing" validate:"required"`
}

// --- Hardware ---

type presenceRequest struct {
	Present *bool `json:"present" validate:"required"`
}

// wirelessAudioRequest reports a wireless audio link going up or down. Token
// is the one passed to ConnectAudio for that link.
type wirelessAudioRequest struct {
	Connected *bool  `json:"connected" validate:"required"`
	Token     uint64 `json:"token" validate:"required"`
}

// --- User ---

type routeRequest struct {
	Route string `json:"route" validate:"required,oneof=earpiece speaker bluetooth wired_headset baseline"`
}

type muteRequest struct {
	Action string `json:"action" validate:"required,oneof=on off toggle"`
}

// --- Auth ---

type tokenRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
	Role   string `json:"role" validate:"required,oneof=call_engine hardware user admin"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	Role         string `json:"role" validate:"required,oneof=call_engine hardware user admin"`
}
