package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"callaudio/internal/audio"
	"callaudio/internal/mode"
)

func TestService_AppendRequiresSubsystemAndType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Type: EventTypeTransition}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Event{Subsystem: "mode"}); err == nil {
		t.Fatalf("expected error")
	}
	if err := NewService(nil).Append(context.Background(), Event{Type: EventTypeTransition, Subsystem: "mode"}); err != ErrNoRepository {
		t.Fatalf("expected ErrNoRepository, got %v", err)
	}
}

func TestService_LogTransition(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time { return time.Unix(1700000000, 0) }

	err := svc.LogTransition(context.Background(), mode.Transition{
		From:             mode.Unfocused,
		To:               mode.Ringing,
		Trigger:          mode.NewRingingCall,
		Focus:            audio.FocusRing,
		Mode:             audio.ModeRingtone,
		CorrelationToken: "tok",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	e := evs[0]
	if e.ID == "" || !e.CreatedAt.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("expected id and timestamp stamped, got %+v", e)
	}
	if e.Type != EventTypeTransition || e.ToState != mode.Ringing.String() || e.Trigger != mode.NewRingingCall.String() {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.CorrelationToken != "tok" {
		t.Fatalf("expected correlation token captured")
	}
}

func TestService_LogAudioStateKeepsBothStates(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	prev := audio.CallAudioState{Route: audio.RouteSpeaker, Available: audio.MaskOf(audio.RouteEarpiece)}
	next := audio.CallAudioState{Route: audio.RouteWiredHeadset, Available: audio.MaskOf(audio.RouteWiredHeadset)}
	if err := svc.LogAudioState(context.Background(), prev, next); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	e := repo.Events()[0]
	if e.Route != "wired_headset" {
		t.Fatalf("expected route wired_headset, got %q", e.Route)
	}
	var meta struct {
		Prev audio.CallAudioState `json:"prev"`
		Next audio.CallAudioState `json:"next"`
	}
	if err := json.Unmarshal([]byte(e.Metadata), &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.Prev.Route != audio.RouteSpeaker || meta.Next.Route != audio.RouteWiredHeadset {
		t.Fatalf("unexpected metadata: %s", e.Metadata)
	}
}

func TestMemoryRepo_RecentNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	for _, id := range []string{"a", "b", "c"} {
		_ = repo.Append(context.Background(), Event{ID: id})
	}
	got, _ := repo.Recent(context.Background(), 2)
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestJournal_WritesQueuedEvents(t *testing.T) {
	repo := NewMemoryRepo()
	j := NewJournal(NewService(repo), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = j.Run(ctx)
		close(done)
	}()

	j.OnTransition(mode.Transition{From: mode.Unfocused, To: mode.InCall, Trigger: mode.NewActiveOrDialingCall})
	j.OnCallAudioStateChanged(audio.CallAudioState{}, audio.CallAudioState{Route: audio.RouteSpeaker})
	cancel()
	<-done

	evs := repo.Events()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if evs[0].Type != EventTypeTransition || evs[1].Type != EventTypeAudioState {
		t.Fatalf("events out of order: %+v", evs)
	}

	j.OnTransition(mode.Transition{})
	if len(repo.Events()) != 2 {
		t.Fatalf("expected no writes after stop")
	}
}

func TestNewPostgresRepoRequiresDB(t *testing.T) {
	if _, err := NewPostgresRepo(nil); err == nil {
		t.Fatalf("expected error")
	}
}
