package calls

import "testing"

func TestStateValuesAreValid(t *testing.T) {
	states := []State{
		StateNew,
		StateConnecting,
		StateDialing,
		StateRinging,
		StateActive,
		StateOnHold,
		StateDisconnecting,
		StateDisconnected,
		StateAborted,
	}
	for _, s := range states {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	if State("parked").Valid() {
		t.Fatalf("expected unknown state to be invalid")
	}
}

func TestBucketOf(t *testing.T) {
	cases := map[State]Bucket{
		StateRinging:       BucketRinging,
		StateDialing:       BucketActiveOrDialing,
		StateActive:        BucketActiveOrDialing,
		StateConnecting:    BucketActiveOrDialing,
		StateOnHold:        BucketHolding,
		StateNew:           BucketNone,
		StateDisconnected:  BucketNone,
		State("mystery"):   BucketNone,
	}
	for s, want := range cases {
		if got := BucketOf(s); got != want {
			t.Fatalf("BucketOf(%q) = %s, want %s", s, got, want)
		}
	}
}

func TestNewSnapshotStampsToken(t *testing.T) {
	a := NewSnapshot(Snapshot{HasRinging: true})
	b := NewSnapshot(Snapshot{HasRinging: true})
	if a.CorrelationToken == "" || a.CorrelationToken == b.CorrelationToken {
		t.Fatalf("expected distinct correlation tokens")
	}
	if a.Idle() {
		t.Fatalf("ringing snapshot is not idle")
	}
}
