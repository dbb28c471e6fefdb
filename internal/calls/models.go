package calls

import "github.com/google/uuid"

// Call is a live call as seen by the audio session.
//
// Invariant: a call contributes to at most one bucket, derived from State.
type Call struct {
	ID    string `json:"id" yaml:"id"`
	State State  `json:"state" yaml:"state"`

	// Softphone marks calls whose audio runs through an app-level codec path.
	Softphone  bool `json:"softphone,omitempty" yaml:"softphone,omitempty"`
	Foreground bool `json:"foreground,omitempty" yaml:"foreground,omitempty"`
}

type State string

const (
	StateNew           State = "new"
	StateConnecting    State = "connecting"
	StateDialing       State = "dialing"
	StateRinging       State = "ringing"
	StateActive        State = "active"
	StateOnHold        State = "on_hold"
	StateDisconnecting State = "disconnecting"
	StateDisconnected  State = "disconnected"
	StateAborted       State = "aborted"
)

func (s State) Valid() bool {
	switch s {
	case StateNew, StateConnecting, StateDialing, StateRinging, StateActive,
		StateOnHold, StateDisconnecting, StateDisconnected, StateAborted:
		return true
	default:
		return false
	}
}

// Bucket groups call states by their effect on audio.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketRinging
	BucketActiveOrDialing
	BucketHolding
)

func (b Bucket) String() string {
	switch b {
	case BucketRinging:
		return "ringing"
	case BucketActiveOrDialing:
		return "active_or_dialing"
	case BucketHolding:
		return "holding"
	default:
		return "none"
	}
}

// BucketOf maps a state to its bucket. Unknown and terminal states map to
// BucketNone and do not contribute to the aggregate.
func BucketOf(s State) Bucket {
	switch s {
	case StateRinging:
		return BucketRinging
	case StateDialing, StateActive, StateConnecting:
		return BucketActiveOrDialing
	case StateOnHold:
		return BucketHolding
	default:
		return BucketNone
	}
}

// Snapshot is the aggregate call-audio view delivered with every mode message.
// It is built fresh for each event and never mutated afterwards.
type Snapshot struct {
	HasActiveOrDialing    bool   `json:"has_active_or_dialing" yaml:"active"`
	HasRinging            bool   `json:"has_ringing" yaml:"ringing"`
	HasHolding            bool   `json:"has_holding" yaml:"holding"`
	TonePlaying           bool   `json:"tone_playing" yaml:"tone"`
	ForegroundIsSoftphone bool   `json:"foreground_is_softphone" yaml:"softphone"`
	CorrelationToken      string `json:"correlation_token,omitempty" yaml:"-"`
}

// NewSnapshot stamps a fresh correlation token on s.
func NewSnapshot(s Snapshot) Snapshot {
	s.CorrelationToken = uuid.NewString()
	return s
}

// Idle reports whether no call keeps the session busy.
func (s Snapshot) Idle() bool {
	return !s.HasActiveOrDialing && !s.HasRinging && !s.HasHolding
}
