package mode

import (
	"context"
	"errors"
	"log/slog"

	"callaudio/internal/audio"
	"callaudio/internal/hardware"
	"callaudio/pkg/mailbox"
)

var (
	ErrStopped      = errors.New("mode: coordinator stopped")
	ErrMissingInput = errors.New("mode: driver and signals are required")
)

type Config struct {
	Driver   hardware.AudioDriver
	Signals  Signals
	Focus    FocusListener
	Observer Observer
	Logger   *slog.Logger
}

// Coordinator owns audio focus and the driver mode. All state is confined to
// the goroutine executing Run.
type Coordinator struct {
	log      *slog.Logger
	driver   hardware.AudioDriver
	signals  Signals
	focusL   FocusListener
	observer Observer

	inbox *mailbox.Mailbox[envelope]
	done  chan struct{}

	state       State
	focus       audio.FocusKind
	lastMode    audio.Mode
	callWaiting bool
}

type envelope struct {
	msg Message
	fn  func()
}

func New(cfg Config) (*Coordinator, error) {
	if cfg.Driver == nil || cfg.Signals == nil {
		return nil, ErrMissingInput
	}
	l := cfg.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Coordinator{
		log:      l.With("subsystem", "mode"),
		driver:   cfg.Driver,
		signals:  cfg.Signals,
		focusL:   cfg.Focus,
		observer: cfg.Observer,
		inbox:    mailbox.New[envelope](),
		done:     make(chan struct{}),
		state:    Unfocused,
		lastMode: audio.ModeNormal,
	}, nil
}

// Send queues msg. It never blocks.
func (c *Coordinator) Send(msg Message) {
	if !c.inbox.Put(envelope{msg: msg}) {
		c.log.Debug("message dropped after stop", "message", msg.Kind.String())
	}
}

// Run processes messages in arrival order until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.inbox.Close()
	c.log.Info("mode coordinator started")
	for {
		select {
		case <-ctx.Done():
			c.log.Info("mode coordinator stopped", "state", c.state.String())
			return nil
		case <-c.inbox.C():
			for _, env := range c.inbox.Drain() {
				if env.fn != nil {
					env.fn()
					continue
				}
				c.handle(env.msg)
			}
		}
	}
}

// Flush returns once every message sent before the call has been handled.
func (c *Coordinator) Flush(ctx context.Context) error {
	return c.exec(ctx, func() {})
}

// State reads the coordinator status from inside its loop.
func (c *Coordinator) State(ctx context.Context) (Status, error) {
	var st Status
	err := c.exec(ctx, func() {
		st = Status{State: c.state, Focus: c.focus, Mode: c.lastMode, CallWaiting: c.callWaiting}
	})
	return st, err
}

func (c *Coordinator) exec(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	if !c.inbox.Put(envelope{fn: func() { fn(); close(ran) }}) {
		return ErrStopped
	}
	select {
	case <-ran:
		return nil
	case <-c.done:
		select {
		case <-ran:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) handle(msg Message) {
	from := c.state
	handled := c.transition(msg)
	if !handled {
		c.log.Warn("unexpected message dropped",
			"state", from.String(),
			"message", msg.Kind.String(),
			"correlation_token", msg.Snapshot.CorrelationToken,
		)
		return
	}
	if from == c.state {
		c.log.Debug("message handled", "state", from.String(), "message", msg.Kind.String())
		return
	}
	c.log.Info("mode transition",
		"from", from.String(),
		"to", c.state.String(),
		"message", msg.Kind.String(),
		"focus", c.focus.String(),
		"mode", c.lastMode.String(),
		"correlation_token", msg.Snapshot.CorrelationToken,
	)
	if c.observer != nil {
		c.observer.OnTransition(Transition{
			From:             from,
			To:               c.state,
			Trigger:          msg.Kind,
			Focus:            c.focus,
			Mode:             c.lastMode,
			CorrelationToken: msg.Snapshot.CorrelationToken,
		})
	}
}

// acquireFocus always issues the driver command; callers only use it on
// transition edges.
func (c *Coordinator) acquireFocus(kind audio.FocusKind) {
	c.driver.AcquireFocus(kind)
	c.setFocus(kind)
}

func (c *Coordinator) releaseFocus() {
	if !c.focus.Held() {
		return
	}
	c.driver.ReleaseFocus()
	c.setFocus(audio.FocusNone)
}

func (c *Coordinator) setFocus(kind audio.FocusKind) {
	if c.focus == kind {
		return
	}
	c.focus = kind
	if c.focusL != nil {
		c.focusL.OnFocusChanged(kind)
	}
}

func (c *Coordinator) setMode(m audio.Mode) {
	if m == c.lastMode {
		return
	}
	c.driver.SetMode(m)
	c.lastMode = m
}

func (c *Coordinator) startCallWaiting() {
	if c.callWaiting {
		return
	}
	c.callWaiting = true
	c.signals.StartCallWaiting()
}

func (c *Coordinator) stopCallWaiting() {
	if !c.callWaiting {
		return
	}
	c.callWaiting = false
	c.signals.StopCallWaiting()
}
