package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNotifierDefaults(t *testing.T) {
	c := Notifier{Addr: "localhost:6379", DB: 2}.withDefaults()
	if c.PoolSize != 4 || c.PingTimeout != 2*time.Second {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	opts := c.options()
	if opts.DB != 2 || opts.ReadTimeout != time.Second {
		t.Fatalf("unexpected client options: %+v", opts)
	}
}

func TestOpenRedisRequiresAddr(t *testing.T) {
	_, err := OpenRedis(context.Background(), Notifier{})
	if !errors.Is(err, ErrNoAddr) {
		t.Fatalf("err = %v, want ErrNoAddr", err)
	}
}
