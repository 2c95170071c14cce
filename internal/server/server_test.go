package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"postboard/internal/database"
	"postboard/internal/listing"
	"postboard/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func emptyListing() *MockPostRepository {
	repo := new(MockPostRepository)
	repo.On("List", mock.Anything, mock.Anything).Return([]models.Post{}, nil)
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)
	return repo
}

func TestNewServerWithDeps_RequiresDB(t *testing.T) {
	_, err := NewServerWithDeps(testConfig(), nil, nil)
	assert.Error(t, err)
}

func TestSetupMiddleware_CORSAndRequestID(t *testing.T) {
	app := newTestApp(t, testConfig(), emptyListing())

	req := httptest.NewRequest(http.MethodGet, "/?sortBy=nope", nil)
	req.Header.Set("Origin", "http://example.com")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestSetupMiddleware_Preflight(t *testing.T) {
	app := newTestApp(t, testConfig(), emptyListing())

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "GET")
}

func TestListingRateLimit_InMemory(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitMax = 2
	cfg.RateLimitWindowSeconds = 60
	app := newTestApp(t, cfg, emptyListing())

	for i := 0; i < 2; i++ {
		resp, _ := doGet(t, app, "/api/posts")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Origin", "http://example.com")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	// Health probes are not limited.
	health, _ := doGet(t, app, "/health/live")
	assert.Equal(t, fiber.StatusOK, health.StatusCode)
}

func TestListingRateLimit_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	cfg.RateLimitMax = 1
	cfg.RateLimitWindowSeconds = 60

	db, _ := setupMockDB(t)
	srv := newServer(cfg, db, rdb, emptyListing())
	app := NewApp()
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	resp, _ := doGet(t, app, "/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))

	resp, body := doGet(t, app, "/")
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.JSONEq(t, `{"error":"rate limit exceeded","code":"RATE_LIMITED"}`, string(body))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "rl:posts:ip:"))
}

func TestHealthChecks(t *testing.T) {
	t.Run("liveness", func(t *testing.T) {
		resp, body := doGet(t, newTestApp(t, testConfig(), emptyListing()), "/health/live")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"status":"up"`)
	})

	newReadyApp := func(t *testing.T, pingErr error) *fiber.App {
		sqlDB, sqlMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		t.Cleanup(func() { _ = sqlDB.Close() })

		sqlMock.ExpectPing() // gorm.Open
		gdb, err := database.Open(sqlDB, logger.Discard)
		require.NoError(t, err)

		if pingErr != nil {
			sqlMock.ExpectPing().WillReturnError(pingErr)
		} else {
			sqlMock.ExpectPing()
		}

		srv := newServer(testConfig(), gdb, nil, emptyListing())
		app := NewApp()
		srv.SetupRoutes(app)
		return app
	}

	t.Run("ready", func(t *testing.T) {
		resp, body := doGet(t, newReadyApp(t, nil), "/health/ready")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"database":"healthy"`)
		assert.Contains(t, string(body), `"redis":"disabled"`)
	})

	t.Run("database down", func(t *testing.T) {
		resp, body := doGet(t, newReadyApp(t, errors.New("connection refused")), "/health/ready")
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
		assert.Contains(t, string(body), `"database":"unhealthy"`)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, testConfig(), emptyListing())

	_, _ = doGet(t, app, "/")
	resp, body := doGet(t, app, "/metrics")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "postboard_listing_requests_total")
}

func TestShutdown_ClosesResources(t *testing.T) {
	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	gdb, err := database.Open(sqlDB, logger.Discard)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	srv := newServer(testConfig(), gdb, rdb, emptyListing())
	sqlMock.ExpectClose()
	require.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
	assert.Error(t, rdb.Ping(context.Background()).Err())
}

func TestServiceLimitsFollowConfig(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultPageSize = 3
	cfg.MaxPageSize = 5

	repo := new(MockPostRepository)
	spec := listing.QuerySpec{Limit: 3, SortColumn: listing.SortByID}
	repo.On("List", mock.Anything, spec).Return([]models.Post{}, nil)
	repo.On("Count", mock.Anything, spec).Return(int64(0), nil)
	app := newTestApp(t, cfg, repo)

	resp, _ := doGet(t, app, "/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doGet(t, app, "/?pageSize=6")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	repo.AssertExpectations(t)
}
