package audit

import (
	"context"
	"log/slog"
	"time"

	"callaudio/internal/audio"
	"callaudio/internal/mode"
	"callaudio/pkg/mailbox"
)

// Journal adapts Service to the coordinator callbacks. Callbacks only queue;
// Run writes events in order on its own goroutine so storage latency never
// reaches a coordinator loop.
type Journal struct {
	svc   *Service
	log   *slog.Logger
	inbox *mailbox.Mailbox[Event]
	clock func() time.Time
}

var (
	_ mode.Observer = (*Journal)(nil)
)

func NewJournal(svc *Service, log *slog.Logger) *Journal {
	if log == nil {
		log = slog.Default()
	}
	return &Journal{
		svc:   svc,
		log:   log.With("subsystem", "audit"),
		inbox: mailbox.New[Event](),
		clock: time.Now,
	}
}

func (j *Journal) OnTransition(t mode.Transition) {
	j.enqueue(TransitionEvent(t))
}

func (j *Journal) OnCallAudioStateChanged(prev, next audio.CallAudioState) {
	j.enqueue(AudioStateEvent(prev, next))
}

func (j *Journal) enqueue(e Event) {
	e.CreatedAt = j.clock().UTC()
	if !j.inbox.Put(e) {
		j.log.Debug("journal closed, event dropped", "type", string(e.Type))
	}
}

// Run writes queued events until ctx is done, then writes whatever is left
// with a short grace period.
func (j *Journal) Run(ctx context.Context) error {
	defer j.inbox.Close()
	for {
		select {
		case <-ctx.Done():
			j.inbox.Close()
			flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			j.write(flushCtx, j.inbox.Drain())
			cancel()
			return nil
		case <-j.inbox.C():
			j.write(ctx, j.inbox.Drain())
		}
	}
}

func (j *Journal) write(ctx context.Context, events []Event) {
	for _, e := range events {
		if err := j.svc.Append(ctx, e); err != nil {
			j.log.Warn("journal append failed", "type", string(e.Type), "err", err)
		}
	}
}
