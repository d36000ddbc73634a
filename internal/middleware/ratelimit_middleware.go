package middleware

import (
	"context"
	"net/http"
	"strconv"

	"civic-pulse/internal/identity"
	"civic-pulse/internal/redis"
	"civic-pulse/internal/transport/httpdto"
	"civic-pulse/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type limitFunc func(ctx context.Context, clientKey string) (*redis.RateLimitResult, error)

// VoteRateLimitMiddleware limits votes and cancellations per client address.
// A nil limiter disables limiting.
func VoteRateLimitMiddleware(limiter *redis.RateLimiter, hasher *identity.IPHasher) gin.HandlerFunc {
	if limiter == nil {
		return passThrough
	}
	return rateLimit(limiter.AllowVote, hasher, "vote rate limit exceeded")
}

// OptionRateLimitMiddleware limits option submissions per client address.
func OptionRateLimitMiddleware(limiter *redis.RateLimiter, hasher *identity.IPHasher) gin.HandlerFunc {
	if limiter == nil {
		return passThrough
	}
	return rateLimit(limiter.AllowOptionSubmit, hasher, "option rate limit exceeded")
}

func rateLimit(allow limitFunc, hasher *identity.IPHasher, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Keys hold the keyed hash, never the address itself.
		key := hasher.Hash(c.ClientIP())
		result, err := allow(c.Request.Context(), key)
		if err != nil {
			// Fail open while redis is unavailable.
			logger.GetGlobalLogger().WithContext(c.Request.Context()).Warn("rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse(message, "rate-limited"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}

// setRateLimitHeaders sets standard rate limit response headers
func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
