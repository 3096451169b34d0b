package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"qvent-console/internal/config"
	"qvent-console/internal/container"
	"qvent-console/internal/handler"
	"qvent-console/internal/middleware"
	"qvent-console/internal/notify"
	"qvent-console/pkg/logger"
)

const version = "1.0.0"

// Resources holds all resources that need cleanup
type Resources struct {
	container *container.Container
	server    *http.Server
	log       *logger.Logger
	mu        sync.Mutex
	closed    bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errors []error

	r.log.Info("Starting graceful shutdown...")

	// Stop accepting requests before tearing down what they use
	if r.server != nil {
		r.log.Info("Shutting down HTTP server...")
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errors = append(errors, fmt.Errorf("HTTP server shutdown: %w", err))
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	c := r.container

	if c.Pool != nil {
		r.log.Info("Releasing worker pool...")
		if err := c.Pool.Release(5 * time.Second); err != nil {
			r.log.WithError(err).Warn("Worker pool did not drain in time")
		}
	}

	if c.NATS != nil {
		r.log.Info("Draining NATS connection...")
		notify.Close(c.NATS)
	}

	if c.RedisClient != nil {
		r.log.Info("Closing Redis connection...")

		healthCtx, healthCancel := context.WithTimeout(ctx, 2*time.Second)
		if err := c.RedisClient.Health(healthCtx); err != nil {
			r.log.WithError(err).Warn("Redis health check failed before closing")
		}
		healthCancel()

		if err := c.RedisClient.Close(); err != nil {
			r.log.WithError(err).Error("Failed to close Redis connection")
			errors = append(errors, fmt.Errorf("Redis close: %w", err))
		} else {
			r.log.Info("Redis connection closed successfully")
		}
	}

	if c.DB != nil {
		r.log.Info("Closing database connection pool...")
		c.DB.Close()
		r.log.Info("Database connection pool closed successfully")
	}

	if len(errors) > 0 {
		r.log.WithField("error_count", len(errors)).Error("Cleanup completed with errors")
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errors), errors)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.WithFields(map[string]interface{}{
		"port":         cfg.Port,
		"log_level":    cfg.LogLevel,
		"environment":  cfg.Environment,
		"backend_mode": cfg.BackendMode,
	}).Info("Starting qvent-console server")

	startCtx, startCancel := context.WithTimeout(context.Background(), 15*time.Second)
	c, err := container.New(startCtx, cfg, log)
	startCancel()
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	router := setupRouter(c)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	resources := &Resources{
		container: c,
		server:    server,
		log:       log,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error occurred")
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}

// setupRouter wires handlers from the container into the HTTP router
func setupRouter(c *container.Container) http.Handler {
	cfg := c.GetConfig()
	log := c.GetLogger()

	checks := map[string]handler.HealthCheck{
		"redis": c.RedisClient.Health,
	}
	if c.DB != nil {
		checks["postgres"] = c.DB.Health
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.AllowedOrigins

	handlers := handler.Handlers{
		Health:  handler.NewHealthHandler(checks, version, log),
		Session: handler.NewSessionHandler(c.Sessions, log),
		Events:  handler.NewEventHandler(c.Services.Events, c.Services.Submissions, log),
		Drafts:  handler.NewDraftHandler(c.Services.Drafts, log),
		Admin:   handler.NewAdminHandler(c.Services.Admin, log),
	}

	router := handler.NewRouter(handlers, c.Sessions, corsConfig, log)
	log.Info("Router configured successfully")
	return router
}
