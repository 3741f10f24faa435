package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"laundry-booking-backend/internal/event"
)

// redisPublisher is the subset of *redis.Client used here.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisNotifier publishes every event as JSON on a pub/sub channel.
type RedisNotifier struct {
	client  redisPublisher
	channel string
}

// NewRedisNotifier accepts a redis:// URL or a plain host:port.
func NewRedisNotifier(redisURL, channel string) (*RedisNotifier, error) {
	var opt *redis.Options
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		var err error
		if opt, err = redis.ParseURL(redisURL); err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
	} else {
		opt = &redis.Options{Addr: redisURL}
	}
	return &RedisNotifier{client: redis.NewClient(opt), channel: channel}, nil
}

func (n *RedisNotifier) Name() string { return "redis" }

func (n *RedisNotifier) Notify(ctx context.Context, e event.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, n.channel, payload).Err()
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
