package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCheckRateLimit(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		allowed, _, err := CheckRateLimit(context.Background(), nil, "posts", "ip:1", 1, time.Minute)
		assert.ErrorIs(t, err, ErrNoRateLimitStore)
		assert.False(t, allowed)
	})

	t.Run("counts within window", func(t *testing.T) {
		mr, rdb := newMiniredis(t)
		ctx := context.Background()

		for i := 1; i <= 2; i++ {
			allowed, used, err := CheckRateLimit(ctx, rdb, "posts", "ip:1", 2, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
			assert.Equal(t, int64(i), used)
		}

		allowed, used, err := CheckRateLimit(ctx, rdb, "posts", "ip:1", 2, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, int64(3), used)

		assert.True(t, mr.TTL("rl:posts:ip:1") > 0)
	})

	t.Run("window expiry resets", func(t *testing.T) {
		mr, rdb := newMiniredis(t)
		ctx := context.Background()

		allowed, _, err := CheckRateLimit(ctx, rdb, "posts", "ip:2", 1, time.Minute)
		require.NoError(t, err)
		require.True(t, allowed)

		mr.FastForward(2 * time.Minute)

		allowed, _, err = CheckRateLimit(ctx, rdb, "posts", "ip:2", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}

func rateLimitedApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/test", handler, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestCheckRateLimit_Expiry(t *testing.T) {
	t.Run("key without ttl gets one back", func(t *testing.T) {
		mr, rdb := newMiniredis(t)
		ctx := context.Background()
		require.NoError(t, mr.Set("rl:posts:ip:3", "7"))
		require.Zero(t, mr.TTL("rl:posts:ip:3"))

		allowed, used, err := CheckRateLimit(ctx, rdb, "posts", "ip:3", 5, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, int64(8), used)
		assert.Equal(t, time.Minute, mr.TTL("rl:posts:ip:3"))

		mr.FastForward(2 * time.Minute)
		allowed, used, err = CheckRateLimit(ctx, rdb, "posts", "ip:3", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, int64(1), used)
	})

	t.Run("later hits keep the window fixed", func(t *testing.T) {
		mr, rdb := newMiniredis(t)
		ctx := context.Background()

		_, _, err := CheckRateLimit(ctx, rdb, "posts", "ip:4", 5, time.Minute)
		require.NoError(t, err)
		mr.FastForward(40 * time.Second)

		_, used, err := CheckRateLimit(ctx, rdb, "posts", "ip:4", 5, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(2), used)
		assert.Equal(t, 20*time.Second, mr.TTL("rl:posts:ip:4"))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("rejects over limit", func(t *testing.T) {
		_, rdb := newMiniredis(t)
		app := rateLimitedApp(RateLimit(rdb, 1, time.Minute, "posts"))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
		_ = resp.Body.Close()

		resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "60", resp.Header.Get("Retry-After"))
		_ = resp.Body.Close()
	})

	t.Run("FailOpen with nil redis", func(t *testing.T) {
		app := rateLimitedApp(RateLimit(nil, 1, time.Minute))

		for i := 0; i < 3; i++ {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			_ = resp.Body.Close()
		}
	})

	t.Run("FailOpen when redis is down", func(t *testing.T) {
		mr, rdb := newMiniredis(t)
		mr.Close()
		app := rateLimitedApp(RateLimit(rdb, 1, time.Minute))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil), 5000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("FailClosed with nil redis", func(t *testing.T) {
		app := rateLimitedApp(RateLimitWithPolicy(nil, 1, time.Minute, FailClosed))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		_ = resp.Body.Close()
	})
}
