package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Rate limiting key patterns:
// - ratelimit:{ip_hash}:votes   - vote and cancel requests
// - ratelimit:{ip_hash}:options - option submissions

// RateLimitConfig contains configuration for rate limiting
type RateLimitConfig struct {
	VoteLimit    int           // Max vote requests per window
	VoteWindow   time.Duration // Vote rate limit window
	OptionLimit  int           // Max option submissions per window
	OptionWindow time.Duration // Option rate limit window
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		VoteLimit:    30,
		VoteWindow:   60 * time.Second,
		OptionLimit:  5,
		OptionWindow: 60 * time.Second,
	}
}

// RateLimiter handles rate limiting using Redis
type RateLimiter struct {
	client *goredis.Client
	config RateLimitConfig
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed   bool          // Whether the action is allowed
	Remaining int           // Remaining actions in the window
	ResetIn   time.Duration // Time until the window resets
	Limit     int           // The limit for this action
}

func NewRateLimiter(client *goredis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
	}
}

// AllowVote checks if a client may cast or cancel a vote
func (r *RateLimiter) AllowVote(ctx context.Context, clientKey string) (*RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:votes", clientKey)
	return r.checkLimit(ctx, key, r.config.VoteLimit, r.config.VoteWindow)
}

// AllowOptionSubmit checks if a client may submit another option
func (r *RateLimiter) AllowOptionSubmit(ctx context.Context, clientKey string) (*RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:options", clientKey)
	return r.checkLimit(ctx, key, r.config.OptionLimit, r.config.OptionWindow)
}

var limitScript = goredis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = redis.call('GET', key)
	if current == false then
		current = 0
	else
		current = tonumber(current)
	end

	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		ttl = window
	end

	if current < limit then
		redis.call('INCR', key)
		if ttl == window then
			redis.call('EXPIRE', key, window)
		end
		return {1, limit - current - 1, ttl}
	else
		return {0, 0, ttl}
	end
`)

// checkLimit performs a fixed window check and increment atomically
func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	result, err := limitScript.Run(ctx, r.client, []string{key}, limit, int(window.Seconds())).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result format")
	}
	allowed, _ := resultSlice[0].(int64)
	remaining, _ := resultSlice[1].(int64)
	ttl, _ := resultSlice[2].(int64)

	return &RateLimitResult{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		ResetIn:   time.Duration(ttl) * time.Second,
		Limit:     limit,
	}, nil
}

// Reset clears the counters of one client (admin operation)
func (r *RateLimiter) Reset(ctx context.Context, clientKey string) error {
	keys := []string{
		fmt.Sprintf("ratelimit:%s:votes", clientKey),
		fmt.Sprintf("ratelimit:%s:options", clientKey),
	}
	return r.client.Del(ctx, keys...).Err()
}
