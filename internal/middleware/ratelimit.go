package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"postboard/internal/models"
	"postboard/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// ErrNoRateLimitStore is returned by CheckRateLimit when no Redis client is configured.
var ErrNoRateLimitStore = errors.New("rate limit store not configured")

// CheckRateLimit increments the fixed-window counter for resource/id and reports
// whether the request is within limit, along with the hits used so far.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, int64, error) {
	if rdb == nil {
		return false, 0, ErrNoRateLimitStore
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	// EXPIRE NX runs on every hit, so a key that ever lost its TTL gets one back.
	spanCtx, span := observability.DefaultSpans().Redis(ctx, "MULTI INCR EXPIRE")
	var incr *redis.IntCmd
	_, err := rdb.TxPipelined(spanCtx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(spanCtx, key)
		pipe.ExpireNX(spanCtx, key, window)
		return nil
	})
	observability.EndSpan(span, err)
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("incr").Inc()
		return false, 0, err
	}
	cnt := incr.Val()

	return cnt <= int64(limit), cnt, nil
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window`
// per client IP. It defaults to FailOpen policy.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy returns a Fiber middleware enforcing `limit` requests per `window` with a specific failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, used, err := CheckRateLimit(c.UserContext(), rdb, resource, "ip:"+c.IP(), limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit unavailable, rejecting",
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "rate limit unavailable",
					Code:  models.CodeRateLimit,
				})
			}
			if !errors.Is(err, ErrNoRateLimitStore) {
				Logger.WarnContext(c.UserContext(), "rate limit check failed, allowing request",
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
			}
			return c.Next()
		}

		remaining := int64(limit) - used
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "rate limit exceeded",
				Code:  models.CodeRateLimit,
			})
		}
		return c.Next()
	}
}
