package audit

import "time"

// Event is an immutable, append-only journal record of a coordinator
// decision.
//
// Invariants:
// - Events are never updated or deleted.
// - subsystem is required (mode or route).
// - journaling is best-effort; coordinators never wait on it.
//
// Storage (Postgres): table audio_events, INSERT only, see schema.

type Event struct {
	ID        string    `json:"id" db:"id"`
	Type      EventType `json:"type" db:"type"`
	Subsystem string    `json:"subsystem" db:"subsystem"`

	// Mode transitions.
	FromState string `json:"from_state,omitempty" db:"from_state"`
	ToState   string `json:"to_state,omitempty" db:"to_state"`
	Trigger   string `json:"trigger,omitempty" db:"trigger"`
	Focus     string `json:"focus,omitempty" db:"focus"`
	Mode      string `json:"mode,omitempty" db:"mode"`

	// Call audio state changes.
	Route     string `json:"route,omitempty" db:"route"`
	Available string `json:"available,omitempty" db:"available"`
	Muted     bool   `json:"muted,omitempty" db:"muted"`

	CorrelationToken string `json:"correlation_token,omitempty" db:"correlation_token"`

	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON with the full before/after values.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeTransition EventType = "mode_transition"
	EventTypeAudioState EventType = "audio_state_changed"
)
