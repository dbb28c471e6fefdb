// Package engine assembles the session tracker and both coordinators into
// one running unit.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"callaudio/internal/audio"
	"callaudio/internal/hardware"
	"callaudio/internal/mode"
	"callaudio/internal/route"
	"callaudio/internal/session"

	"golang.org/x/sync/errgroup"
)

type Options struct {
	Driver   hardware.AudioDriver
	Tones    hardware.TonePlayer
	Wireless hardware.WirelessHeadsetProxy
	Wired    hardware.WiredHeadsetSensor

	HasEarpiece    bool
	ConnectTimeout time.Duration

	// Observers see every mode transition; Listeners every published call
	// audio state.
	Observers []mode.Observer
	Listeners []route.Listener

	Logger *slog.Logger
}

type Engine struct {
	Tracker *session.Tracker
	Mode    *mode.Coordinator
	Route   *route.Coordinator

	log *slog.Logger
}

func New(opts Options) (*Engine, error) {
	if opts.Tones == nil {
		return nil, errors.New("engine: tone player is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{log: log}

	e.Tracker = session.NewTracker(log, opts.Tones)

	var err error
	e.Route, err = route.New(route.Config{
		Driver:         opts.Driver,
		Wireless:       opts.Wireless,
		Wired:          opts.Wired,
		Listener:       listeners(opts.Listeners),
		Connection:     route.ListenerFunc(e.onConnectionAudio),
		HasEarpiece:    opts.HasEarpiece,
		ConnectTimeout: opts.ConnectTimeout,
		Logger:         log,
	})
	if err != nil {
		return nil, err
	}

	e.Mode, err = mode.New(mode.Config{
		Driver:   opts.Driver,
		Signals:  e.Tracker,
		Focus:    e.Route,
		Observer: observers(opts.Observers),
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}
	e.Tracker.Attach(e.Mode)
	return e, nil
}

// Run runs both coordinator loops until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.Mode.Run(ctx) })
	g.Go(func() error { return e.Route.Run(ctx) })
	return g.Wait()
}

// Settle returns once every message queued so far, including the focus
// changes they cause, has been handled by both coordinators.
func (e *Engine) Settle(ctx context.Context) error {
	if err := e.Mode.Flush(ctx); err != nil {
		return err
	}
	return e.Route.Flush(ctx)
}

// Release abandons focus and waits for the hardware to be reset. Call it
// before cancelling Run.
func (e *Engine) Release(ctx context.Context) error {
	e.Mode.Send(mode.Message{Kind: mode.AbandonFocus, Snapshot: e.Tracker.Snapshot()})
	return e.Settle(ctx)
}

type Status struct {
	Mode  mode.Status  `json:"mode"`
	Route route.Status `json:"route"`
}

func (e *Engine) Status(ctx context.Context) (Status, error) {
	ms, err := e.Mode.State(ctx)
	if err != nil {
		return Status{}, err
	}
	rs, err := e.Route.State(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{Mode: ms, Route: rs}, nil
}

func (e *Engine) onConnectionAudio(_, next audio.CallAudioState) {
	e.log.Info("foreground connection audio state",
		"subsystem", "connection",
		"call_id", e.Tracker.ForegroundCallID(),
		"route", next.Route.String(),
		"muted", next.Muted,
	)
}

type observerList []mode.Observer

func (l observerList) OnTransition(t mode.Transition) {
	for _, o := range l {
		o.OnTransition(t)
	}
}

func observers(list []mode.Observer) mode.Observer {
	if len(list) == 0 {
		return nil
	}
	return observerList(list)
}

func listeners(list []route.Listener) route.Listener {
	if len(list) == 0 {
		return nil
	}
	return route.ListenerFunc(func(prev, next audio.CallAudioState) {
		for _, l := range list {
			l.OnCallAudioStateChanged(prev, next)
		}
	})
}
