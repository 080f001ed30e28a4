// cmd/api/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/config"
	"github.com/your-org/sweets-storefront/internal/domain/checkout"
	"github.com/your-org/sweets-storefront/internal/domain/content"
	"github.com/your-org/sweets-storefront/internal/domain/order"
	"github.com/your-org/sweets-storefront/internal/domain/payment"
	"github.com/your-org/sweets-storefront/internal/domain/product"
	"github.com/your-org/sweets-storefront/internal/domain/session"
	"github.com/your-org/sweets-storefront/internal/domain/storefront"
	"github.com/your-org/sweets-storefront/internal/domain/user"
	"github.com/your-org/sweets-storefront/internal/infrastructure/cache"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
	"github.com/your-org/sweets-storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/sweets-storefront/internal/infrastructure/database/redis"
	"github.com/your-org/sweets-storefront/internal/interfaces/http"
	"github.com/your-org/sweets-storefront/internal/interfaces/http/handlers"
	"github.com/your-org/sweets-storefront/internal/interfaces/http/routes"
	"github.com/your-org/sweets-storefront/internal/pkg/auth"
	"github.com/your-org/sweets-storefront/internal/pkg/logger"
	"github.com/your-org/sweets-storefront/internal/pkg/validation"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting storefront")

	if err := validation.RegisterGin(); err != nil {
		log.WithError(err).Fatal("Failed to register validators")
	}

	// Redis backs sessions, rate limiting and the catalog cache
	redisClient, err := redis.NewConnection(context.Background(), cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// The checkout ledger is optional
	var (
		db       *gorm.DB
		recorder checkout.AttemptRecorder = checkout.NopRecorder{}
		attempts handlers.AttemptLister
	)
	if cfg.Database.Enabled {
		db, err = postgres.NewConnection(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		defer postgres.Close(db)

		migration := postgres.NewMigration(db, log)
		if err := migration.RunAutoMigrations(); err != nil {
			log.WithError(err).Fatal("Database migration failed")
		}
		if err := migration.CreateIndexes(); err != nil {
			log.WithError(err).Warn("Index creation failed")
		}

		repo := checkout.NewAttemptRepository(db)
		recorder, attempts = repo, repo
	} else {
		log.Warn("Checkout ledger disabled, attempts will not be recorded")
	}

	api := commerce.NewClient(cfg.Commerce, log)
	catalogCache := cache.New(redisClient, "catalog", log)
	contentCache := cache.New(redisClient, "content", log)

	products := product.NewService(api, catalogCache, cfg.Cache.CatalogTTL, log)
	reviews := product.NewReviewService(api, log)
	pages := content.NewService(api, contentCache, cfg.Cache.ContentTTL, log)
	addresses := user.NewAddressService(api, log)
	orders := order.NewService(api, log)
	widget := payment.NewRazorpayWidget(cfg.Razorpay, log)
	verifier := auth.NewTokenVerifier(cfg.Identity)
	if !verifier.Verifies() {
		log.Warn("IDENTITY_JWT_SECRET not set, sign-in tokens are not verified")
	}

	hub := session.NewHub()
	registry := storefront.NewRegistry(storefront.Deps{
		Commerce: api,
		Provider: hub,
		Store:    session.NewRedisStore(redisClient, cfg.Session.TokenTTL),
		Pending:  checkout.NewRedisPendingStore(redisClient, cfg.Session.TokenTTL),
		Widget:   widget,
		Recorder: recorder,
		Logger:   log,
		IdleTTL:  cfg.Session.IdleTTL,
	})
	defer registry.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go widget.Run(ctx)
	go registry.RunJanitor(ctx, cfg.Session.SweepEvery)

	signInURL := cfg.Identity.SignInURL
	server := http.NewServer(http.Options{
		Config:   cfg,
		Logger:   log,
		Redis:    redisClient,
		DB:       db,
		Registry: registry,
		Payments: widget,
		Handlers: routes.Handlers{
			Session:      handlers.NewSessionHandler(hub, verifier, addresses, signInURL, log),
			Product:      handlers.NewProductHandler(products),
			Review:       handlers.NewReviewHandler(reviews, signInURL),
			Content:      handlers.NewContentHandler(pages),
			Cart:         handlers.NewCartHandler(products, signInURL),
			Address:      handlers.NewAddressHandler(addresses, signInURL),
			Checkout:     handlers.NewCheckoutHandler(addresses, attempts, signInURL),
			Order:        handlers.NewOrderHandler(orders, signInURL),
			Notification: handlers.NewNotificationHandler(),
			SignInURL:    signInURL,
		},
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully")
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	log.Info("Server shutdown completed")
}
