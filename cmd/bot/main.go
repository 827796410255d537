package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/analytics"
	"github.com/attribution-dashboard/brand-mentions/internal/api"
	"github.com/attribution-dashboard/brand-mentions/internal/cache"
	"github.com/attribution-dashboard/brand-mentions/internal/config"
	"github.com/attribution-dashboard/brand-mentions/internal/metrics"
	"github.com/attribution-dashboard/brand-mentions/internal/monitoring"
	"github.com/attribution-dashboard/brand-mentions/internal/notifications"
	"github.com/attribution-dashboard/brand-mentions/internal/scheduler"
	"github.com/attribution-dashboard/brand-mentions/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env (or ENV_PATH) if it exists
	envPath := os.Getenv("ENV_PATH")
	if envPath == "" {
		envPath = ".env"
	}
	if err := godotenv.Load(envPath); err != nil {
		logrus.Infof("No %s file found, using environment variables", envPath)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Infof("Starting brand mentions service for %s", cfg.BrandName)

	ctx := context.Background()

	storageClient, err := storage.Open(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	mentionCache := cache.New(storageClient, cfg.CacheFile)

	var analyticsSource analytics.Source
	if cfg.GA4Enabled() {
		ga4, err := analytics.NewGA4Client(ctx, analytics.GA4Options{
			PropertyID:      cfg.GA4PropertyID,
			CredentialsFile: cfg.GA4CredentialsFile,
			CredentialsJSON: cfg.GA4CredentialsJSON,
			OrganicShare:    cfg.BrandedOrganicShare,
		})
		if err != nil {
			logrus.Warnf("GA4 unavailable, traffic signals will be estimated: %v", err)
		} else {
			analyticsSource = ga4
			logrus.Infof("GA4 analytics enabled for property %s", cfg.GA4PropertyID)
		}
	}

	var notificationService notifications.NotificationInterface
	if cfg.NotificationsEnabled() {
		notificationService = notifications.NewService(cfg)
	}

	monitoringService := monitoring.NewService(cfg, mentionCache, notificationService)

	schedulerService, err := scheduler.NewService(cfg, monitoringService)
	if err != nil {
		logrus.Fatalf("Failed to create scheduler: %v", err)
	}
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	aggregator := metrics.NewAggregator(metrics.Estimates{
		BrandedSearchMultiplier: cfg.BrandedSearchMultiplier,
		DirectTrafficMultiplier: cfg.DirectTrafficMultiplier,
	})
	apiServer := api.NewServer(cfg, monitoringService, mentionCache, aggregator, analyticsSource)

	// A refresh can take minutes, so the write timeout follows the refresh timeout
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RefreshTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
