package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/licorice-storefront/internal/api"
	"github.com/example/licorice-storefront/internal/apiclient"
	"github.com/example/licorice-storefront/internal/auth"
	"github.com/example/licorice-storefront/internal/backend"
	"github.com/example/licorice-storefront/internal/config"
	"github.com/example/licorice-storefront/internal/domain/events"
	"github.com/example/licorice-storefront/internal/infrastructure/kafka"
	"github.com/example/licorice-storefront/internal/infrastructure/store"
	"github.com/example/licorice-storefront/internal/logger"
	"github.com/example/licorice-storefront/internal/session"
	"github.com/example/licorice-storefront/internal/tracing"
)

const (
	sessionIdleTimeout   = 2 * time.Hour
	sessionEvictInterval = 10 * time.Minute
	redisKeyTTL          = auth.SessionTokenExpiry
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		hashPassword(os.Args[2:])
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Str("storage", cfg.StorageBackend).
		Str("backend_url", cfg.BackendURL).
		Msg("Starting licorice storefront")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	if cfg.JaegerEndpoint != "" {
		tp, err := tracing.InitTracer(cfg.ServiceName, cfg.JaegerEndpoint)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
					logger.Logger.Error().Err(err).Msg("Failed to shut down tracer")
				}
			}()
		}
	}

	// Storage
	storage, healthCheck, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Str("storage", cfg.StorageBackend).Msg("Failed to open storage")
	}
	defer closeStorage()

	// Events
	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
		logger.Logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("Publishing store events to Kafka")
	}

	// Backend
	apiClient := apiclient.New(cfg.BackendURL, apiclient.NewTokenStore(storage),
		apiclient.WithTimeout(cfg.BackendTimeout),
		apiclient.WithSessionExpiredHook(func(ctx context.Context) {
			logger.Warn(ctx).Msg("Backend session expired, admin users must log in again")
		}),
	)
	backendClient := backend.New(apiClient)

	// Sessions
	registry := session.NewRegistry(storage, publisher)
	go registry.RunEviction(ctx, sessionEvictInterval, sessionIdleTimeout)

	secure := !cfg.IsDevelopment()
	admin := auth.NewAdminAuthenticator(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.SessionSecret, secure)
	if cfg.AdminPasswordHash == "" {
		logger.Logger.Warn().Msg("ADMIN_PASSWORD_HASH is not set, admin login is disabled")
	}

	authHandlers := api.NewAuthHandlers(admin)
	router := api.NewRouter(
		api.NewHandlers(registry, backendClient),
		authHandlers,
		api.NewAdminHandlers(authHandlers, backendClient),
		api.RouterConfig{
			ServiceName:   cfg.ServiceName,
			SessionTokens: auth.NewSessionTokenService(cfg.SessionSecret, auth.SessionTokenExpiry),
			Admin:         admin,
			SecureCookies: secure,
			LegacyHosts:   cfg.LegacyHosts,
			CanonicalURL:  cfg.CanonicalURL,
			CORSOrigins:   cfg.CORSOrigins,
			HealthCheck:   healthCheck,
		},
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Logger.Info().Str("port", cfg.HTTPPort).Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Logger.Info().Msg("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("Server shutdown failed")
	}
}

// openStorage returns the configured Storage with its health check and closer
func openStorage(ctx context.Context, cfg *config.Config) (store.Storage, func(context.Context) error, func(), error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		db, err := store.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		storage := store.NewPostgresStorage(db)
		if err := storage.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		logger.Logger.Info().Msg("Connected to PostgreSQL")
		return storage, db.PingContext, func() { db.Close() }, nil

	case config.StorageRedis:
		client, err := store.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Logger.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
		ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return store.NewRedisStorage(client, redisKeyTTL), ping, func() { client.Close() }, nil

	default:
		logger.Logger.Warn().Msg("Using in-memory storage, state is lost on restart")
		return store.NewMemoryStorage(), nil, func() {}, nil
	}
}

func hashPassword(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: storefront hash-password <password>")
		os.Exit(2)
	}
	hash, err := auth.HashPassword(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
