package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"studio-live/auth"
	"studio-live/infrastructure/directory"
	"studio-live/infrastructure/ws"
	"studio-live/internal"
	"studio-live/observability"
	"studio-live/repositories"
	"studio-live/runtime"
	"studio-live/runtime/workers"
	"studio-live/services"
	"studio-live/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (database cleanup included)
// executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.NewLogger(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Core wiring
	stats := observability.NewStats()
	sup := workers.NewSupervisor(log, config.RestartInterval)
	registry := runtime.NewRegistry(log)
	notificationRepository := repositories.NewNotificationRepository(db, log, config.LimitNotifications)
	accessDirectory := directory.NewHTTPDirectory(config.DirectoryBaseURL, config.DirectoryTimeout, log)

	orchestrator := runtime.NewOrchestrator(
		log, sup, registry, accessDirectory, notificationRepository, stats,
		config.BufferSize, config.MonitorInterval,
	)

	handle := runtime.NewHandle(log)
	handle.Register(orchestrator)
	liveService := services.NewLiveService(handle, log)
	_ = liveService // handed to the CRUD layer's handler wiring

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Start the pipeline
	if err = orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("orchestrator failed to start: %w", err)
	}

	// 6. HTTP server
	tokens := auth.NewTokenService(config.JWTSecret, config.AuthTokenDuration)
	wsServer := ws.NewServer(log, orchestrator, tokens, transport.Config{
		SendBuffer:     config.SendBufferSize,
		WriteTimeout:   config.WriteTimeout,
		PongTimeout:    config.PongTimeout,
		PingInterval:   config.PingInterval,
		MaxMessageSize: config.MaxMessageSize,
	})

	router := chi.NewRouter()
	router.Mount("/ws", wsServer.Routes())
	if config.EnableDebug {
		router.Mount("/debug", internal.DebugRoutes(db, stats))
	}

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: router,
		// Bounds the authentication window: a connection attempt that cannot
		// present its handshake in time is rejected, not left half-open.
		ReadHeaderTimeout: config.HandshakeTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting live server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errChan:
		return err
	}

	// 7. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	orchestrator.Stop()
	return nil
}
