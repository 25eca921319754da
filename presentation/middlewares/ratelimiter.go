package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RateLimiterConfig struct {
	Name              string        // Key namespace, so presets do not share a budget
	RequestsPerWindow int           // Number of requests allowed
	Window            time.Duration // Time window
	BlockDuration     time.Duration // How long to block after exceeding limit
}

// LenientRateLimiterConfig for read-heavy endpoints
func LenientRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Name:              "read",
		RequestsPerWindow: 200,
		Window:            time.Minute,
		BlockDuration:     time.Minute * 2,
	}
}

// ModerateRateLimiterConfig for location tree mutations
func ModerateRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Name:              "write",
		RequestsPerWindow: 60,
		Window:            time.Minute,
		BlockDuration:     time.Minute * 5,
	}
}

// StrictRateLimiterConfig for room minting
func StrictRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Name:              "rooms",
		RequestsPerWindow: 10,
		Window:            time.Minute,
		BlockDuration:     time.Minute * 15,
	}
}

const rateLimitScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local expiry = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

local currentCount = redis.call('ZCARD', key)

redis.call('ZADD', key, now, now)
redis.call('EXPIRE', key, expiry)

local remaining = math.max(limit - currentCount - 1, 0)
local allowed = currentCount < limit

return {allowed and 1 or 0, remaining, currentCount + 1}
`

const checkBlockScript = `
local blockKey = KEYS[1]

if redis.call('EXISTS', blockKey) == 0 then
    return {0, 0}
end

return {1, redis.call('TTL', blockKey)}
`

// RateLimiterMiddleware keeps a sliding window per caller in redis. The
// caller is the authenticated identity when there is one, the client IP
// otherwise. A nil client disables limiting, and redis failures let the
// request through.
func RateLimiterMiddleware(redisClient *redis.Client, logger *logger.Logger, config RateLimiterConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		subject := rateLimitSubject(c)

		blocked, ttl, err := checkBlocked(ctx, redisClient, blockKey(config, subject))
		if err != nil {
			logger.Error("failed to check if caller is blocked", zap.Error(err), zap.String("subject", subject))
			c.Next()
			return
		}

		if blocked {
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.RequestsPerWindow))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))
			c.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests. You have been temporarily blocked.",
				"retry_after": int(ttl.Seconds()),
			})
			return
		}

		allowed, remaining, resetTime, err := checkRateLimitAtomic(ctx, redisClient, subject, config)
		if err != nil {
			logger.Error("failed to check rate limit", zap.Error(err), zap.String("subject", subject))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.RequestsPerWindow))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime.Unix()))

		if !allowed {
			if err := redisClient.Set(ctx, blockKey(config, subject), "1", config.BlockDuration).Err(); err != nil {
				logger.Error("failed to block caller", zap.Error(err), zap.String("subject", subject))
			}

			logger.Warn("rate limit exceeded",
				zap.String("subject", subject),
				zap.String("limiter", config.Name),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(config.BlockDuration.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     fmt.Sprintf("Rate limit exceeded. Maximum %d requests per %v.", config.RequestsPerWindow, config.Window),
				"retry_after": int(config.BlockDuration.Seconds()),
			})
			return
		}

		c.Next()
	}
}

func rateLimitSubject(c *gin.Context) string {
	if identity, ok := GetIdentityFromContext(c); ok {
		return "user:" + identity.Name
	}
	return "ip:" + c.ClientIP()
}

func windowKey(config RateLimiterConfig, subject string) string {
	return fmt.Sprintf("townhall:ratelimit:%s:%s", config.Name, subject)
}

func blockKey(config RateLimiterConfig, subject string) string {
	return fmt.Sprintf("townhall:ratelimit:block:%s:%s", config.Name, subject)
}

func checkBlocked(ctx context.Context, client *redis.Client, key string) (bool, time.Duration, error) {
	values, err := client.Eval(ctx, checkBlockScript, []string{key}).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("block check script failed: %w", err)
	}
	if len(values) != 2 {
		return false, 0, fmt.Errorf("block check script returned %d values", len(values))
	}
	return values[0] == 1, time.Duration(values[1]) * time.Second, nil
}

func checkRateLimitAtomic(ctx context.Context, client *redis.Client, subject string, config RateLimiterConfig) (allowed bool, remaining int, resetTime time.Time, err error) {
	now := time.Now()

	values, err := client.Eval(ctx, rateLimitScript,
		[]string{windowKey(config, subject)},
		now.UnixNano(),
		config.Window.Nanoseconds(),
		config.RequestsPerWindow,
		int(config.Window.Seconds())+60,
	).Int64Slice()
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(values) != 3 {
		return false, 0, time.Time{}, fmt.Errorf("rate limit script returned %d values", len(values))
	}

	return values[0] == 1, int(values[1]), now.Add(config.Window), nil
}
