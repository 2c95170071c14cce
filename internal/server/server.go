// Package server wires the HTTP surface: middleware, routes and the listing handler.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "postboard/docs" // swagger docs
	"postboard/internal/config"
	"postboard/internal/database"
	"postboard/internal/listing"
	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/repository"
	"postboard/internal/service"
	redispkg "postboard/pkg/redis"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "postboard"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	postRepo       repository.PostRepository
	postService    *service.PostService
}

// NewServer connects to Postgres and, when REDIS_URL is set, Redis, then builds the
// server on top of them.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = redispkg.NewClient(cfg.RedisURL)
	}

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	return newServer(cfg, db, redisClient, repository.NewPostRepository(db)), nil
}

func newServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, postRepo repository.PostRepository) *Server {
	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(serviceName),
		postRepo:       postRepo,
		postService: service.NewPostService(postRepo, service.ListOptions{
			Limits: listing.Limits{
				DefaultPageSize: cfg.DefaultPageSize,
				MaxPageSize:     cfg.MaxPageSize,
				MaxSearchLength: cfg.MaxSearchLength,
			},
			QueryTimeout: cfg.QueryTimeout(),
			Snapshot:     cfg.ListingSnapshot,
		}),
	}
}

// NewApp returns a Fiber app whose error handler renders the standard error body.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "Postboard API",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
			return models.RespondWithError(c, status, err)
		},
	})
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	app.Use(requestid.New(requestid.Config{
		Generator: func() string { return uuid.NewString() },
	}))

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Propagate request and trace ids into the request context.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses carry
	// the headers too. Listing is public: any origin, no credentials.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,HEAD,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		ExposeHeaders:    "X-Request-ID, X-RateLimit-Limit, X-RateLimit-Remaining",
		AllowCredentials: false,
		MaxAge:           86400,
	}))
}

// listingRateLimit limits the listing routes per client IP. Redis-backed when a
// client is configured, process-local otherwise.
func (s *Server) listingRateLimit() fiber.Handler {
	limit := s.config.RateLimitMax
	if limit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	window := s.config.RateLimitWindow()

	if s.redis != nil {
		return middleware.RateLimit(s.redis, limit, window, "posts")
	}
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: window,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "rate limit exceeded",
				Code:  models.CodeRateLimit,
			})
		},
	})
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Get("/swagger/*", swagger.HandlerDefault)

	rl := s.listingRateLimit()
	app.Get("/", rl, s.GetPosts)

	api := app.Group("/api")
	api.Get("/posts", rl, s.GetPosts)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis only counts when configured.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
		middleware.Logger.WarnContext(c.UserContext(), "readiness check failed",
			slog.String("database", dbStatus),
			slog.String("redis", redisStatus),
		)
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Shutdown closes the pool and the Redis client.
func (s *Server) Shutdown(_ context.Context) error {
	var errs []error

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("close sql DB: %w", cerr))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", rerr))
		}
	}

	middleware.Logger.Info("Server resources released")
	return errors.Join(errs...)
}
