/*
Package main is the entry point for the SplitChat server.

It is responsible for loading configuration, initializing the global logging
system, connecting the backing stores, wiring the room coordinator and the
eviction sweeper, setting up the HTTP server, and gracefully handling
operating system interrupt signals (SIGINT, SIGTERM) to ensure a smooth
server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"splitchat/internal/app/chat"
	"splitchat/internal/app/extract"
	"splitchat/internal/app/message"
	"splitchat/internal/app/room"
	"splitchat/internal/app/session"
	"splitchat/internal/app/storage"
	"splitchat/internal/app/store"
	"splitchat/internal/app/typing"
	"splitchat/internal/configs"
	"splitchat/internal/handler"
	"splitchat/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("session_ttl", cfg.SessionTTL).
		Dur("sweep_interval", cfg.SweepInterval).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect the keyed store backing sessions, rooms, messages and typing flags.
	rdb, err := store.NewClient(store.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logx.Fatal(err, "Failed to connect to the keyed store")
	}
	defer rdb.Close()

	storageService, err := storage.NewStorageService(storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3PublicBaseURL:   cfg.S3PublicBaseURL,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize storage service")
	}

	sessions := session.NewRegistry(rdb, cfg.SessionTTL)
	rooms := room.NewStore(rdb)
	messages := message.NewLog(rdb, cfg.MessageRetention, storageService)
	typingTracker := typing.NewTracker(rdb, cfg.TypingTTL)

	coordinator := chat.NewCoordinator(sessions, rooms, messages, typingTracker, cfg.IdentitySecret)

	sweeper := chat.NewSweeper(coordinator, sessions, rooms, cfg.SweepInterval, cfg.InactivityWindow)
	go sweeper.Run(ctx)

	extractor := extract.NewClient(cfg.ExtractorEndpoint, cfg.ExtractorAPIKey)

	// Setup HTTP server and routes
	router := handler.Router(&handler.AppDeps{
		Coordinator:    coordinator,
		Config:         cfg,
		StorageService: storageService,
		Extractor:      extractor,
		Rooms:          rooms,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("SplitChat Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	coordinator.Shutdown()

	logx.Info("Server gracefully stopped.")
}
