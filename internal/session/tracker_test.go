package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"callaudio/internal/calls"
	"callaudio/internal/hardware"
	"callaudio/internal/mode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkSpy struct {
	mu   sync.Mutex
	msgs []mode.Message
}

func (s *sinkSpy) Send(m mode.Message) {
	s.mu.Lock()
	s.msgs = append(s.msgs, m)
	s.mu.Unlock()
}

func (s *sinkSpy) kinds() []mode.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mode.Kind, len(s.msgs))
	for i, m := range s.msgs {
		out[i] = m.Kind
	}
	return out
}

func (s *sinkSpy) lastSnapshot() calls.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msgs[len(s.msgs)-1].Snapshot
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTracker() (*Tracker, *sinkSpy, *hardware.Recorder) {
	rec := hardware.NewRecorder()
	tr := NewTracker(quiet(), rec)
	spy := &sinkSpy{}
	tr.Attach(spy)
	return tr, spy, rec
}

func TestTracker_OutgoingCallLifecycle(t *testing.T) {
	tr, spy, _ := newTracker()

	require.NoError(t, tr.OnCallAdded(calls.Call{ID: "c1", State: calls.StateNew}))
	assert.Empty(t, spy.kinds(), "a new call joins no bucket")

	require.NoError(t, tr.OnCallStateChanged("c1", calls.StateNew, calls.StateDialing))
	require.NoError(t, tr.OnCallStateChanged("c1", calls.StateDialing, calls.StateActive))
	require.NoError(t, tr.OnCallStateChanged("c1", calls.StateActive, calls.StateDisconnected))
	require.NoError(t, tr.OnCallRemoved("c1"))

	assert.Equal(t, []mode.Kind{mode.NewActiveOrDialingCall, mode.NoMoreActiveOrDialingCalls}, spy.kinds())
}

func TestTracker_AnswerIncoming(t *testing.T) {
	tr, spy, _ := newTracker()

	require.NoError(t, tr.OnCallAdded(calls.Call{ID: "c1", State: calls.StateRinging}))
	require.NoError(t, tr.OnCallStateChanged("c1", calls.StateRinging, calls.StateActive))

	assert.Equal(t, []mode.Kind{mode.NewRingingCall, mode.NewActiveOrDialingCall}, spy.kinds())
	snap := spy.lastSnapshot()
	assert.True(t, snap.HasActiveOrDialing)
	assert.False(t, snap.HasRinging)
	assert.NotEmpty(t, snap.CorrelationToken)
}

func TestTracker_HoldPrefersLossOverGain(t *testing.T) {
	tr, spy, _ := newTracker()
	require.NoError(t, tr.OnCallAdded(calls.Call{ID: "c1", State: calls.StateActive}))
	require.NoError(t, tr.OnCallStateChanged("c1", calls.StateActive, calls.StateOnHold))

	assert.Equal(t, []mode.Kind{mode.NewActiveOrDialingCall, mode.NoMoreActiveOrDialingCalls}, spy.kinds())
	assert.True(t, spy.lastSnapshot().HasHolding)
}

func TestTracker_UnknownStateContributesNothing(t *testing.T) {
	tr, spy, _ := newTracker()
	require.NoError(t, tr.OnCallAdded(calls.Call{ID: "c1", State: calls.StateActive}))
	require.NoError(t, tr.OnCallAdded(calls.Call{ID: "c2", State: calls.StateDisconnecting}))

	assert.Equal(t, []mode.Kind{mode.NewActiveOrDialingCall}, spy.kinds())
	assert.ErrorIs(t, tr.OnCallStateChanged("c1", calls.StateActive, calls.State("parked")), ErrInvalidCall)
}

func TestTracker_ForegroundSoftphone(t *testing.T) {
	tr, spy, _ := newTracker()
	require.NoError(t, tr.OnCallAdded(calls.Call{ID: "pstn", State: calls.StateActive}))
	require.NoError(t, tr.OnCallAdded(calls.Call{ID: "voip", State: calls.StateOnHold, Softphone: true}))
	require.NoError(t, tr.OnForegroundCallChanged("pstn"))
	require.NoError(t, tr.OnForegroundCallChanged("voip"))
	require.NoError(t, tr.OnForegroundCallChanged("voip"))

	assert.Equal(t, []mode.Kind{
		mode.NewActiveOrDialingCall,
		mode.NewHoldingCall,
		mode.ForegroundSoftphoneModeChanged,
	}, spy.kinds())
	assert.True(t, spy.lastSnapshot().ForegroundIsSoftphone)
	assert.Equal(t, "voip", tr.ForegroundCallID())
}

func TestTracker_ToneEventsAreIdempotent(t *testing.T) {
	tr, spy, _ := newTracker()
	tr.OnTonePlaybackStarted()
	tr.OnTonePlaybackStarted()
	tr.OnTonePlaybackStopped()
	tr.OnTonePlaybackStopped()

	assert.Equal(t, []mode.Kind{mode.TonePlaybackStarted, mode.TonePlaybackStopped}, spy.kinds())
}

func TestTracker_Errors(t *testing.T) {
	tr, _, _ := newTracker()
	assert.ErrorIs(t, tr.OnCallAdded(calls.Call{State: calls.StateActive}), ErrInvalidCall)
	require.NoError(t, tr.OnCallAdded(calls.Call{ID: "c1", State: calls.StateActive}))
	assert.ErrorIs(t, tr.OnCallAdded(calls.Call{ID: "c1", State: calls.StateActive}), ErrDuplicateCall)
	assert.ErrorIs(t, tr.OnCallRemoved("nope"), ErrUnknownCall)
	assert.ErrorIs(t, tr.OnCallStateChanged("nope", "", calls.StateActive), ErrUnknownCall)
	assert.ErrorIs(t, tr.OnForegroundCallChanged("nope"), ErrUnknownCall)
}

func TestTracker_SignalsForwardOnce(t *testing.T) {
	tr, _, rec := newTracker()
	tr.StartRinging()
	tr.StartRinging()
	tr.StopRinging()
	tr.StartCallWaiting()
	tr.StopCallWaiting()
	tr.StopCallWaiting()

	assert.Equal(t, 1, rec.Count(hardware.CmdStartRingtone))
	assert.Equal(t, 1, rec.Count(hardware.CmdStopRingtone))
	assert.Equal(t, 1, rec.Count(hardware.CmdStartCallWaiting))
	assert.Equal(t, 1, rec.Count(hardware.CmdStopCallWaiting))
}

func TestTracker_DrivesModeCoordinator(t *testing.T) {
	rec := hardware.NewRecorder()
	tr := NewTracker(quiet(), rec)
	mc, err := mode.New(mode.Config{Driver: rec, Signals: tr, Logger: quiet()})
	require.NoError(t, err)
	tr.Attach(mc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = mc.Run(ctx) }()

	flush := func() {
		fctx, fcancel := context.WithTimeout(ctx, time.Second)
		defer fcancel()
		require.NoError(t, mc.Flush(fctx))
	}

	require.NoError(t, tr.OnCallAdded(calls.Call{ID: "a", State: calls.StateActive}))
	require.NoError(t, tr.OnCallAdded(calls.Call{ID: "b", State: calls.StateRinging}))
	flush()
	assert.Equal(t, 1, rec.Count(hardware.CmdStartCallWaiting))

	// Answer b after putting a on hold.
	require.NoError(t, tr.OnCallStateChanged("a", calls.StateActive, calls.StateOnHold))
	require.NoError(t, tr.OnCallStateChanged("b", calls.StateRinging, calls.StateActive))
	flush()

	st, err := mc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, mode.InCall, st.State)
	assert.Equal(t, 1, rec.Count(hardware.CmdStopCallWaiting))
	assert.Equal(t, 1, rec.Count(hardware.CmdAcquireFocus))
	_, cw := tr.Tones()
	assert.False(t, cw)

	require.NoError(t, tr.OnCallRemoved("b"))
	require.NoError(t, tr.OnCallRemoved("a"))
	flush()

	st, err = mc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, mode.Unfocused, st.State)
	assert.Equal(t, 1, rec.Count(hardware.CmdReleaseFocus))
}
