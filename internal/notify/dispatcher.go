package notify

import (
	"context"
	"log/slog"
	"time"

	"callaudio/internal/audio"
	"callaudio/internal/mode"
	"callaudio/pkg/mailbox"
)

type EventType string

const (
	EventAudioState     EventType = "audio_state"
	EventModeTransition EventType = "mode_transition"
)

type AudioChange struct {
	Prev audio.CallAudioState `json:"prev"`
	Next audio.CallAudioState `json:"next"`
}

// Event is what subscribers receive. Exactly one of Audio and Transition is
// set, matching Type.
type Event struct {
	Type       EventType        `json:"type"`
	Audio      *AudioChange     `json:"audio,omitempty"`
	Transition *mode.Transition `json:"transition,omitempty"`
	At         time.Time        `json:"at"`
}

// Publisher delivers one event to an external audience.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Dispatcher receives coordinator callbacks and fans them out to publishers
// from its own goroutine.
type Dispatcher struct {
	log     *slog.Logger
	pubs    []Publisher
	timeout time.Duration
	inbox   *mailbox.Mailbox[Event]
	clock   func() time.Time
}

var _ mode.Observer = (*Dispatcher)(nil)

func NewDispatcher(log *slog.Logger, timeout time.Duration, pubs ...Publisher) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Dispatcher{
		log:     log.With("subsystem", "notify"),
		pubs:    pubs,
		timeout: timeout,
		inbox:   mailbox.New[Event](),
		clock:   time.Now,
	}
}

func (d *Dispatcher) OnCallAudioStateChanged(prev, next audio.CallAudioState) {
	d.put(Event{Type: EventAudioState, Audio: &AudioChange{Prev: prev, Next: next}})
}

func (d *Dispatcher) OnTransition(t mode.Transition) {
	d.put(Event{Type: EventModeTransition, Transition: &t})
}

func (d *Dispatcher) put(e Event) {
	e.At = d.clock().UTC()
	if !d.inbox.Put(e) {
		d.log.Debug("dispatcher closed, event dropped", "type", string(e.Type))
	}
}

func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.inbox.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.inbox.C():
			for _, e := range d.inbox.Drain() {
				d.deliver(ctx, e)
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, e Event) {
	for _, p := range d.pubs {
		pctx, cancel := context.WithTimeout(ctx, d.timeout)
		if err := p.Publish(pctx, e); err != nil {
			d.log.Warn("publish failed", "type", string(e.Type), "err", err)
		}
		cancel()
	}
}
