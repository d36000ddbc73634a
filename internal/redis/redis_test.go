package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRateLimiter_AllowVote(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	rl := NewRateLimiter(client, RateLimitConfig{VoteLimit: 2, VoteWindow: time.Minute, OptionLimit: 1, OptionWindow: time.Minute})

	res, err := rl.AllowVote(ctx, "ip1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)

	res, err = rl.AllowVote(ctx, "ip1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = rl.AllowVote(ctx, "ip1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// other clients and other actions have their own budget
	res, err = rl.AllowVote(ctx, "ip2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	res, err = rl.AllowOptionSubmit(ctx, "ip1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	mr.FastForward(61 * time.Second)
	res, err = rl.AllowVote(ctx, "ip1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	require.NoError(t, rl.Reset(ctx, "ip1"))
	assert.False(t, mr.Exists("ratelimit:ip1:votes"))
}

func TestStatsCache(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	cache := NewStatsCache(client, time.Minute)

	type view struct {
		Total int64 `json:"total"`
	}

	var got view
	hit, err := cache.Get(ctx, "p1", "public", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "p1", "public", view{Total: 3}))
	require.NoError(t, cache.Set(ctx, "p1", "moderator", view{Total: 3}))
	require.NoError(t, cache.Set(ctx, "p2", "public", view{Total: 9}))

	hit, err = cache.Get(ctx, "p1", "public", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.EqualValues(t, 3, got.Total)

	require.NoError(t, cache.Invalidate(ctx, "p1"))
	hit, err = cache.Get(ctx, "p1", "moderator", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	hit, err = cache.Get(ctx, "p2", "public", &got)
	require.NoError(t, err)
	assert.True(t, hit)
}
