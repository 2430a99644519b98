package audit

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"cipherchat/internal/domain"
)

// DefaultRedisKey is the list events are appended to.
const DefaultRedisKey = "cipherchat:security_events"

// ListPusher is the subset of *redis.Client used by RedisSink.
type ListPusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisSink appends JSON-encoded events to a Redis list, preserving emit
// order per producer.
type RedisSink struct {
	rdb ListPusher
	key string
}

// NewRedisSink returns a RedisSink pushing to key.
func NewRedisSink(rdb ListPusher, key string) *RedisSink {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSink{rdb: rdb, key: key}
}

// Emit implements domain.EventSink.
func (s *RedisSink) Emit(ctx context.Context, ev domain.SecurityEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.rdb.RPush(ctx, s.key, string(b)).Err()
}

var _ domain.EventSink = (*RedisSink)(nil)
