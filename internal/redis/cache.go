package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - poll:{poll_id}:stats:{viewer} - short TTL, dropped on every mutation

// StatsCache stores rendered statistics responses
type StatsCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewStatsCache(client *goredis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func statsKey(pollID, viewer string) string {
	return fmt.Sprintf("poll:%s:stats:%s", pollID, viewer)
}

func statsIndexKey(pollID string) string {
	return fmt.Sprintf("poll:%s:stats", pollID)
}

// Get decodes a cached entry into dst. A miss returns false and no error.
func (c *StatsCache) Get(ctx context.Context, pollID, viewer string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, statsKey(pollID, viewer)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores value and records its key so Invalidate can find it.
func (c *StatsCache) Set(ctx context.Context, pollID, viewer string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	key := statsKey(pollID, viewer)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.SAdd(ctx, statsIndexKey(pollID), key)
	pipe.Expire(ctx, statsIndexKey(pollID), c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Invalidate drops every cached view of the poll.
func (c *StatsCache) Invalidate(ctx context.Context, pollID string) error {
	index := statsIndexKey(pollID)
	keys, err := c.client.SMembers(ctx, index).Result()
	if err != nil {
		return err
	}
	return c.client.Del(ctx, append(keys, index)...).Err()
}
