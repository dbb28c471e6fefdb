package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestJournalDBDefaults(t *testing.T) {
	c := JournalDB{DSN: "postgres://x", MaxOpenConns: 1}.withDefaults()
	if c.Driver != "pgx" {
		t.Fatalf("driver = %q, want pgx", c.Driver)
	}
	if c.MaxOpenConns != 1 || c.MaxIdleConns != 1 {
		t.Fatalf("idle conns must not exceed open conns: %+v", c)
	}
	if c.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected ping timeout: %+v", c)
	}
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	_, err := OpenPostgres(context.Background(), JournalDB{})
	if !errors.Is(err, ErrNoDSN) {
		t.Fatalf("err = %v, want ErrNoDSN", err)
	}
}
