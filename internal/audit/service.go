package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"callaudio/internal/audio"
	"callaudio/internal/mode"

	"github.com/google/uuid"
)

// Repository is the persistence contract for journal events.
//
// It MUST be append-only.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Reader lists recent events for the control API.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// Service validates and stamps journal events before they reach storage.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var (
	ErrInvalidEvent = errors.New("audit: invalid event")
	ErrNoRepository = errors.New("audit: repository not configured")
)

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return ErrNoRepository
	}
	if e.Subsystem == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogTransition records a mode coordinator state change.
func (s *Service) LogTransition(ctx context.Context, t mode.Transition) error {
	return s.Append(ctx, TransitionEvent(t))
}

// LogAudioState records a published call audio state change.
func (s *Service) LogAudioState(ctx context.Context, prev, next audio.CallAudioState) error {
	return s.Append(ctx, AudioStateEvent(prev, next))
}

func TransitionEvent(t mode.Transition) Event {
	return Event{
		Type:             EventTypeTransition,
		Subsystem:        "mode",
		FromState:        t.From.String(),
		ToState:          t.To.String(),
		Trigger:          t.Trigger.String(),
		Focus:            t.Focus.String(),
		Mode:             t.Mode.String(),
		CorrelationToken: t.CorrelationToken,
		Message:          t.From.String() + " -> " + t.To.String(),
	}
}

func AudioStateEvent(prev, next audio.CallAudioState) Event {
	meta, _ := json.Marshal(struct {
		Prev audio.CallAudioState `json:"prev"`
		Next audio.CallAudioState `json:"next"`
	}{prev, next})
	return Event{
		Type:      EventTypeAudioState,
		Subsystem: "route",
		Route:     next.Route.String(),
		Available: next.Available.String(),
		Muted:     next.Muted,
		Message:   prev.Route.String() + " -> " + next.Route.String(),
		Metadata:  string(meta),
	}
}
