// internal/interfaces/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/config"
	"github.com/your-org/sweets-storefront/internal/domain/storefront"
	"github.com/your-org/sweets-storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/sweets-storefront/internal/interfaces/http/middleware"
	"github.com/your-org/sweets-storefront/internal/interfaces/http/routes"
	"gorm.io/gorm"
)

// PaymentStatus reports whether the payment widget can be opened
type PaymentStatus interface {
	KeyConfigured() bool
	Loaded() bool
}

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	logger      *logrus.Logger
	gin         *gin.Engine
	httpServer  *http.Server
	redisClient *redis.Client
	db          *gorm.DB
	registry    *storefront.Registry
	payments    PaymentStatus
	startedAt   time.Time
}

// Options carries the server's collaborators. DB and Payments may be nil.
type Options struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Redis    *redis.Client
	DB       *gorm.DB
	Registry *storefront.Registry
	Payments PaymentStatus
	Handlers routes.Handlers
}

// NewServer creates a new HTTP server with its routes in place
func NewServer(opts Options) *Server {
	if opts.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:      opts.Config,
		logger:      opts.Logger,
		gin:         gin.New(),
		redisClient: opts.Redis,
		db:          opts.DB,
		registry:    opts.Registry,
		payments:    opts.Payments,
		startedAt:   time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes(opts.Handlers)

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.logger.WithFields(logrus.Fields{
		"port":   s.config.Server.Port,
		"api":    fmt.Sprintf("http://localhost:%s/api/v1", s.config.Server.Port),
		"health": fmt.Sprintf("http://localhost:%s/health", s.config.Server.Port),
	}).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server stopped gracefully")
	return nil
}

func (s *Server) setupMiddleware() {
	if len(s.config.Security.TrustedProxies) > 0 {
		if err := s.gin.SetTrustedProxies(s.config.Security.TrustedProxies); err != nil {
			s.logger.WithError(err).Warn("Ignoring invalid trusted proxies")
		}
	} else {
		_ = s.gin.SetTrustedProxies(nil)
	}

	s.gin.Use(gin.Recovery())
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.logger))
	s.gin.Use(middleware.CORS(s.config.Security))
	s.gin.Use(middleware.SecurityHeaders())
	s.gin.Use(middleware.RateLimit(s.config.Security.RateLimitPerMinute, s.redisClient, s.logger))
	s.gin.Use(middleware.RequestSizeLimit(s.config.Server.MaxBodyBytes))
	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

func (s *Server) setupRoutes(h routes.Handlers) {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)

	apiV1 := s.gin.Group("/api/v1")
	apiV1.Use(middleware.Shopper(s.config.Session, s.registry))
	routes.SetupRoutes(apiV1, h)

	if s.config.IsDevelopment() {
		s.gin.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message":     s.config.App.Name,
				"version":     s.config.App.Version,
				"environment": s.config.App.Environment,
				"health":      "/health",
				"endpoints": gin.H{
					"session":       "/api/v1/session",
					"products":      "/api/v1/products",
					"categories":    "/api/v1/categories",
					"cart":          "/api/v1/cart",
					"addresses":     "/api/v1/addresses",
					"checkout":      "/api/v1/checkout",
					"orders":        "/api/v1/orders",
					"notifications": "/api/v1/notifications",
				},
			})
		})
	}
}

// healthCheck pings Redis and, when configured, the checkout ledger database
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if s.redisClient != nil {
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			s.logger.WithError(err).Warn("Redis health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "redis ping failed",
			})
			return
		}
	}

	if s.db != nil {
		if err := postgres.Health(ctx, s.db); err != nil {
			s.logger.WithError(err).Warn("Database health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database ping failed",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

// readinessCheck reports uptime, live shoppers and the payment widget state
func (s *Server) readinessCheck(c *gin.Context) {
	body := gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
		"shoppers":  s.registry.Len(),
		"ledger":    s.db != nil,
	}
	if s.payments != nil {
		body["payment_key_configured"] = s.payments.KeyConfigured()
		body["payment_widget_loaded"] = s.payments.Loaded()
	}
	c.JSON(http.StatusOK, body)
}
