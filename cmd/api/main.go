package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/gochapel/identity-service/internal/auth"
	"github.com/gochapel/identity-service/internal/config"
	"github.com/gochapel/identity-service/internal/database"
	httpServer "github.com/gochapel/identity-service/internal/http"
	"github.com/gochapel/identity-service/internal/logging"
	"github.com/gochapel/identity-service/internal/user"
)

// @title           Identity Service
// @version         1.0
// @description     A user identity service with stateless bearer-token authentication and role-based access control.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Credential store
	userRepo := user.NewRepository(db)

	// Password hasher and token codec; the signing key is loaded once and
	// never rotated during the process lifetime
	hasher := auth.NewArgon2Hasher()
	pasetoService, err := auth.NewPasetoService(cfg.Auth.TokenKey)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Services
	userService := user.NewService(userRepo, hasher)
	authService, err := auth.NewService(userRepo, hasher, pasetoService, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize auth service: %w", err)
	}

	// HTTP handlers and the identity pipeline
	authHandler := auth.NewHandler(authService, userService)
	userHandler := user.NewHandler(userService)
	gate := auth.NewMiddleware(pasetoService, userRepo)
	policy := auth.DefaultPolicy()

	// Initialize router
	router := httpServer.NewRouter(cfg, authHandler, userHandler, gate, policy, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received shutdown signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}
