// Package main is the entry point for the inkpost API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"inkpost/internal/auth"
	"inkpost/internal/authz"
	"inkpost/internal/config"
	"inkpost/internal/database"
	"inkpost/internal/handlers"
	"inkpost/internal/logger"
	"inkpost/internal/ratelimit"
	"inkpost/internal/router"
	"inkpost/internal/service"
	"inkpost/internal/storage"
	"inkpost/internal/store"
)

func main() {
	// Load configuration from config.yml and INKPOST_* variables.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(cfg.Log, os.Stdout)
	log.Info().Str("env", cfg.App.Env).Str("addr", cfg.Addr()).Msg("configuration loaded")

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Seed the development admin (no-op if any account exists).
	if cfg.IsDev() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := database.Seed(ctx, db, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed database")
		}
	}

	// Rate limiter for register and login. Valkey shares the count across
	// instances; without it each process counts on its own.
	var authLimiter ratelimit.Limiter
	if cfg.Valkey.Addr != "" {
		valkeyClient, err := ratelimit.ConnectValkey(cfg.Valkey.Addr, cfg.Valkey.Password)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to valkey")
		}
		defer valkeyClient.Close()
		authLimiter = ratelimit.NewValkey(valkeyClient, "inkpost:ratelimit:auth:", cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow)
	} else {
		mem := ratelimit.NewMemory(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow)
		defer mem.Stop()
		authLimiter = mem
		log.Warn().Msg("valkey not configured, auth rate limits are per process")
	}

	// Connect to S3-compatible object storage (optional, the API works without it).
	var uploads *service.UploadService
	storageClient, err := storage.New(
		cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey,
		cfg.S3.Bucket, cfg.S3.PublicURL,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize S3 storage")
	}
	if storageClient != nil {
		uploads = service.NewUploadService(storageClient, cfg.S3.MaxUploadBytes)
		log.Info().Str("endpoint", cfg.S3.Endpoint).Str("bucket", storageClient.Bucket()).Msg("s3 storage connected")
	} else {
		log.Warn().Msg("s3 storage not configured, image uploads disabled")
	}

	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token issuer")
	}
	policy, err := authz.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize authorization policy")
	}

	// Initialize data stores and services.
	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	postStore := store.NewPostStore(db)
	commentStore := store.NewCommentStore(db)

	accounts := service.NewAccountService(userStore, tokens)
	categories := service.NewCategoryService(categoryStore, policy)
	posts := service.NewPostService(postStore, categoryStore, policy)
	comments := service.NewCommentService(commentStore, postStore)

	// Create handler groups. Internal error detail is only shown in development.
	debug := cfg.IsDev()
	h := router.Handlers{
		Auth:       handlers.NewAuth(accounts, debug),
		Categories: handlers.NewCategories(categories, debug),
		Posts:      handlers.NewPosts(posts, debug),
		Comments:   handlers.NewComments(comments, debug),
		Uploads:    handlers.NewUploads(uploads, debug),
		Health:     handlers.NewHealth(db),
	}

	r := router.New(router.Config{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AuthLimiter:    authLimiter,
		TrustProxy:     cfg.Server.TrustProxy,
	}, accounts, h)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped gracefully")
}
