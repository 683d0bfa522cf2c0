// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/shop-catalog/internal/config"
	"github.com/javajoker/shop-catalog/internal/database"
	"github.com/javajoker/shop-catalog/internal/events"
	"github.com/javajoker/shop-catalog/internal/handlers"
	"github.com/javajoker/shop-catalog/internal/i18n"
	"github.com/javajoker/shop-catalog/internal/middleware"
	"github.com/javajoker/shop-catalog/internal/repository"
	"github.com/javajoker/shop-catalog/internal/router"
	"github.com/javajoker/shop-catalog/internal/services"
	"github.com/javajoker/shop-catalog/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	configureLogging(cfg)

	if err := i18n.Initialize(); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}
	if err := database.SeedInitialData(db, cfg.Admin); err != nil {
		logrus.WithError(err).Fatal("Failed to seed initial data")
	}

	var blacklist services.TokenBlacklist = services.NewMemoryTokenBlacklist()
	if cfg.Redis.Enabled() {
		client, err := database.NewRedisClient(cfg.Redis)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer client.Close()
		blacklist = services.NewRedisTokenBlacklist(client)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logrus.WithFields(logrus.Fields{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.Topic,
		}).Info("Publishing catalog events to Kafka")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close event publisher")
		}
	}()

	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage")
	}

	// Initialize services
	store := repository.NewGormStore(db)
	inventoryService := services.NewInventoryService(store, publisher)
	productService := services.NewProductService(store, inventoryService, storageService, publisher)
	ratingService := services.NewRatingService(store, publisher)
	catalogService := services.NewCatalogService(db, storageService)
	authService := services.NewAuthService(db, cfg, blacklist)
	userService := services.NewUserService(db)
	cartService := services.NewCartService(db)
	contactService := services.NewContactService(db)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	limiters := middleware.NewLimiters(cfg.RateLimit)
	defer limiters.Stop()

	r := router.Initialize(cfg, router.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		User:    handlers.NewUserHandler(userService),
		Product: handlers.NewProductHandler(productService, inventoryService, storageService),
		Rating:  handlers.NewRatingHandler(ratingService),
		Catalog: handlers.NewCatalogHandler(catalogService, storageService),
		Cart:    handlers.NewCartHandler(cartService),
		Contact: handlers.NewContactHandler(contactService),
	}, blacklist, limiters)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}

func configureLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
