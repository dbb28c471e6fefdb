package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"callaudio/internal/audio"
	"callaudio/internal/calls"
	"callaudio/internal/hardware"
	"callaudio/internal/mode"
	"callaudio/internal/route"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transitions struct {
	mu  sync.Mutex
	all []mode.Transition
}

func (s *transitions) OnTransition(t mode.Transition) {
	s.mu.Lock()
	s.all = append(s.all, t)
	s.mu.Unlock()
}

func start(t *testing.T, obs ...mode.Observer) (*Engine, *hardware.Recorder, *[]audio.CallAudioState) {
	t.Helper()
	rec := hardware.NewRecorder()
	var mu sync.Mutex
	published := []audio.CallAudioState{}
	e, err := New(Options{
		Driver:      rec,
		Tones:       rec,
		Wireless:    rec,
		Wired:       rec,
		HasEarpiece: true,
		Observers:   obs,
		Listeners: []route.Listener{route.ListenerFunc(func(_, next audio.CallAudioState) {
			mu.Lock()
			published = append(published, next)
			mu.Unlock()
		})},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return e, rec, &published
}

func settle(t *testing.T, e *Engine) Status {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.Settle(ctx))
	st, err := e.Status(ctx)
	require.NoError(t, err)
	return st
}

func TestIncomingCallAnsweredAndEnded(t *testing.T) {
	obs := &transitions{}
	e, rec, published := start(t, obs)

	require.NoError(t, e.Tracker.OnCallAdded(calls.Call{ID: "c1", State: calls.StateRinging}))
	st := settle(t, e)
	assert.Equal(t, mode.Ringing, st.Mode.State)
	assert.Equal(t, audio.FocusRing, st.Mode.Focus)
	assert.True(t, st.Route.Focused)
	assert.Equal(t, 1, rec.Count(hardware.CmdStartRingtone))

	require.NoError(t, e.Tracker.OnCallStateChanged("c1", calls.StateRinging, calls.StateActive))
	st = settle(t, e)
	assert.Equal(t, mode.InCall, st.Mode.State)
	assert.Equal(t, audio.ModeInCall, st.Mode.Mode)
	assert.Equal(t, audio.FocusVoice, st.Mode.Focus)
	assert.True(t, st.Route.Focused)
	assert.Equal(t, 1, rec.Count(hardware.CmdStopRingtone))
	assert.Equal(t, 1, rec.Count(hardware.CmdAcquireFocus))

	require.NoError(t, e.Tracker.OnCallRemoved("c1"))
	st = settle(t, e)
	assert.Equal(t, mode.Unfocused, st.Mode.State)
	assert.False(t, st.Route.Focused)
	assert.Equal(t, 1, rec.Count(hardware.CmdReleaseFocus))

	obs.mu.Lock()
	assert.Len(t, obs.all, 3)
	obs.mu.Unlock()
	assert.Empty(t, *published, "earpiece call with no change publishes nothing")
}

func TestReleaseAbandonsFocus(t *testing.T) {
	e, rec, published := start(t)

	require.NoError(t, e.Tracker.OnCallAdded(calls.Call{ID: "c1", State: calls.StateDialing}))
	settle(t, e)
	e.Route.Send(route.Message{Kind: route.SwitchSpeaker})
	settle(t, e)
	require.Len(t, *published, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.Release(ctx))

	st, err := e.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, mode.Unfocused, st.Mode.State)
	assert.False(t, st.Route.Focused)
	assert.Equal(t, 1, rec.CountOf(hardware.Command{Kind: hardware.CmdSetSpeakerphone, On: false}))
	assert.Equal(t, 1, rec.Count(hardware.CmdReleaseFocus))
}

func TestNewRequiresTonePlayer(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
