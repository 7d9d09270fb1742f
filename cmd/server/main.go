package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"relay-service/internal/api/routes"
	"relay-service/internal/config"
	"relay-service/internal/presence"
	"relay-service/internal/relay"
	"relay-service/internal/transport"
)

func main() {
	// Local development convenience; env vars win over the file.
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting relay server")

	// Optional Redis presence mirror
	var mirror relay.Mirror
	var redisMirror *presence.Mirror
	if cfg.Redis.URL != "" {
		redisMirror, err = presence.Dial(cfg.Redis)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisMirror.Close()
		mirror = redisMirror
	}

	// Relay core
	hub := transport.NewHub()
	registry := relay.NewRegistry()
	queue := relay.NewQueueStore(cfg.Relay.QueueMax, cfg.Relay.QueueTTL)
	emitter := relay.NewEmitter(hub, mirror)
	coordinator := relay.NewCoordinator(registry, queue, emitter, hub, cfg.Relay.FlushDelay)
	hub.Attach(coordinator)
	go hub.Run()

	router := routes.NewRouter(hub)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Stop()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
