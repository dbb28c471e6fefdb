package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "callaudio.events"

// redisClient is the subset of *redis.Client the publisher needs.
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher publishes every event as JSON on a pub/sub channel.
type RedisPublisher struct {
	rdb     redisClient
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) (*RedisPublisher, error) {
	if rdb == nil {
		return nil, errors.New("notify: redis client is nil")
	}
	return newRedisPublisher(rdb, channel), nil
}

func newRedisPublisher(rdb redisClient, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("notify: encode event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("notify: redis publish: %w", err)
	}
	return nil
}
