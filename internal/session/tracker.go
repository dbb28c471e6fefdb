package session

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"callaudio/internal/calls"
	"callaudio/internal/hardware"
	"callaudio/internal/mode"
)

var (
	ErrInvalidCall   = errors.New("session: invalid call")
	ErrDuplicateCall = errors.New("session: call already tracked")
	ErrUnknownCall   = errors.New("session: unknown call")
)

// Sink receives derived mode messages. Send must not block.
type Sink interface {
	Send(msg mode.Message)
}

// Tracker keeps the aggregate view of live calls and turns call events into
// at most one mode message each. It also implements mode.Signals by driving
// a TonePlayer.
type Tracker struct {
	log    *slog.Logger
	player hardware.TonePlayer

	mu          sync.Mutex
	sink        Sink
	calls       map[string]calls.Call
	foreground  string
	tonePlaying bool
	last        aggregate

	ringtoneOn    bool
	callWaitingOn bool
}

var _ mode.Signals = (*Tracker)(nil)

type aggregate struct {
	active    bool
	ringing   bool
	holding   bool
	tone      bool
	softphone bool
}

func NewTracker(log *slog.Logger, player hardware.TonePlayer) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		log:    log.With("subsystem", "session"),
		player: player,
		calls:  make(map[string]calls.Call),
	}
}

// Attach sets the destination for derived messages. Messages derived while
// detached are dropped.
func (t *Tracker) Attach(sink Sink) {
	t.mu.Lock()
	t.sink = sink
	t.mu.Unlock()
}

func (t *Tracker) OnCallAdded(c calls.Call) error {
	if c.ID == "" || !c.State.Valid() {
		return ErrInvalidCall
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.calls[c.ID]; ok {
		return ErrDuplicateCall
	}
	c.Foreground = false
	t.calls[c.ID] = c
	t.log.Debug("call added", "call_id", c.ID, "state", string(c.State), "bucket", calls.BucketOf(c.State).String())
	t.publishLocked(0)
	return nil
}

func (t *Tracker) OnCallRemoved(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.calls[id]; !ok {
		return ErrUnknownCall
	}
	delete(t.calls, id)
	if t.foreground == id {
		t.foreground = ""
	}
	t.log.Debug("call removed", "call_id", id)
	t.publishLocked(0)
	return nil
}

// OnCallStateChanged moves a call between buckets. A mismatching old state
// is logged and the new state is applied anyway.
func (t *Tracker) OnCallStateChanged(id string, oldState, newState calls.State) error {
	if !newState.Valid() {
		return ErrInvalidCall
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.calls[id]
	if !ok {
		return ErrUnknownCall
	}
	if oldState != "" && c.State != oldState {
		t.log.Warn("call state out of sync", "call_id", id, "tracked", string(c.State), "reported_old", string(oldState))
	}
	c.State = newState
	t.calls[id] = c
	t.log.Debug("call state changed", "call_id", id, "state", string(newState), "bucket", calls.BucketOf(newState).String())
	t.publishLocked(0)
	return nil
}

// OnForegroundCallChanged marks id as the foreground call. An empty id
// clears the foreground call.
func (t *Tracker) OnForegroundCallChanged(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id != "" {
		if _, ok := t.calls[id]; !ok {
			return ErrUnknownCall
		}
	}
	t.foreground = id
	t.publishLocked(0)
	return nil
}

func (t *Tracker) OnTonePlaybackStarted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tonePlaying = true
	t.publishLocked(mode.TonePlaybackStarted)
}

func (t *Tracker) OnTonePlaybackStopped() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tonePlaying = false
	t.publishLocked(mode.TonePlaybackStopped)
}

// Snapshot builds a snapshot of the current aggregate.
func (t *Tracker) Snapshot() calls.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aggregateLocked().snapshot()
}

func (t *Tracker) ForegroundCallID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.foreground
}

// Calls lists tracked calls ordered by id.
func (t *Tracker) Calls() []calls.Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]calls.Call, 0, len(t.calls))
	for id, c := range t.calls {
		c.Foreground = id == t.foreground
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *Tracker) aggregateLocked() aggregate {
	var a aggregate
	for _, c := range t.calls {
		switch calls.BucketOf(c.State) {
		case calls.BucketActiveOrDialing:
			a.active = true
		case calls.BucketRinging:
			a.ringing = true
		case calls.BucketHolding:
			a.holding = true
		}
	}
	a.tone = t.tonePlaying
	if fg, ok := t.calls[t.foreground]; ok {
		a.softphone = fg.Softphone
	}
	return a
}

func (a aggregate) snapshot() calls.Snapshot {
	return calls.NewSnapshot(calls.Snapshot{
		HasActiveOrDialing:    a.active,
		HasRinging:            a.ringing,
		HasHolding:            a.holding,
		TonePlaying:           a.tone,
		ForegroundIsSoftphone: a.softphone,
	})
}

// publishLocked recomputes the aggregate and sends the derived message.
// explicit, when non-zero, is sent if the tone flag changed.
func (t *Tracker) publishLocked(explicit mode.Kind) {
	next := t.aggregateLocked()
	prev := t.last
	t.last = next

	kind, ok := derive(prev, next)
	if explicit != 0 {
		kind, ok = explicit, prev.tone != next.tone
	}
	if !ok {
		return
	}
	msg := mode.Message{Kind: kind, Snapshot: next.snapshot()}
	if t.sink == nil {
		t.log.Warn("mode message dropped, no sink attached", "message", kind.String())
		return
	}
	t.log.Debug("mode message", "message", kind.String(), "correlation_token", msg.Snapshot.CorrelationToken)
	t.sink.Send(msg)
}

// derive picks the single message describing the change from prev to next.
func derive(prev, next aggregate) (mode.Kind, bool) {
	switch {
	case !prev.active && next.active:
		return mode.NewActiveOrDialingCall, true
	case prev.active && !next.active:
		return mode.NoMoreActiveOrDialingCalls, true
	case prev.ringing && !next.ringing:
		return mode.NoMoreRingingCalls, true
	case prev.holding && !next.holding:
		return mode.NoMoreHoldingCalls, true
	case !prev.ringing && next.ringing:
		return mode.NewRingingCall, true
	case !prev.holding && next.holding:
		return mode.NewHoldingCall, true
	case prev.softphone != next.softphone:
		return mode.ForegroundSoftphoneModeChanged, true
	}
	return 0, false
}
