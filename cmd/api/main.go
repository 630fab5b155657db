package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/joshua-takyi/nearby/internal/config"
	"github.com/joshua-takyi/nearby/internal/connect"
	"github.com/joshua-takyi/nearby/internal/container"
	"github.com/joshua-takyi/nearby/internal/helpers"
	"github.com/joshua-takyi/nearby/internal/middleware"
	"github.com/joshua-takyi/nearby/internal/models"
	"github.com/joshua-takyi/nearby/internal/routes"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Starting Nearby API server", "environment", cfg.Environment, "store", cfg.StoreDriver)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	clients, err := connect.Open(startCtx, cfg)
	if err != nil {
		logger.Error("Failed to connect to backing services", "error", err)
		os.Exit(1)
	}

	if clients.MongoDB != nil {
		mongoRepo := models.MongodbNewRepo(clients.MongoDB)
		if err := mongoRepo.EnsureAttendeeIndexes(startCtx); err != nil {
			logger.Error("Failed to create attendee indexes", "error", err)
			os.Exit(1)
		}
	}

	var verifier middleware.TokenVerifier
	if cfg.SupabaseURL != "" {
		tv, err := helpers.NewTokenValidator(cfg.SupabaseURL, !cfg.IsProduction(), logger)
		if err != nil {
			logger.Error("Failed to initialise token validation", "error", err)
			os.Exit(1)
		}
		defer tv.Close()
		verifier = tv
	} else {
		logger.Warn("SUPABASE_URL not set, authenticated routes are disabled")
	}

	appContainer, err := container.NewContainer(cfg, logger, clients, verifier)
	if err != nil {
		logger.Error("Failed to build container", "error", err)
		os.Exit(1)
	}

	router := routes.SetupRoutes(appContainer)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := clients.Close(ctx); err != nil {
		logger.Error("Error closing connections", "error", err)
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
