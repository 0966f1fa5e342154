// Package main is the entry point for the tenantpress server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tenantpress/internal/api"
	"tenantpress/internal/cache"
	"tenantpress/internal/config"
	"tenantpress/internal/database"
	"tenantpress/internal/engine"
	"tenantpress/internal/handlers"
	"tenantpress/internal/router"
	"tenantpress/internal/storage"
	"tenantpress/internal/store"
	"tenantpress/internal/tenant"
	"tenantpress/internal/token"
)

func main() {
	// Load .env if present; real environment variables win.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"canonical_hosts", cfg.CanonicalHosts,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (tokens, host cache, rendered-page cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	tokenStore := token.NewStore(valkeyClient)
	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)
	hostCache := tenant.NewValkeyHostCache(valkeyClient, tenant.DefaultHostTTL)

	// Data stores.
	userStore := store.NewUserStore(db)
	siteStore := store.NewSiteStore(db)
	domainStore := store.NewDomainStore(db)
	mediaStore := store.NewMediaStore(db)

	// S3-compatible object storage (optional, uploads disabled without it).
	var storageClient *storage.Client
	if cfg.HasS3() {
		storageClient, err = storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	// Compile the embedded site templates.
	eng, err := engine.New()
	if err != nil {
		slog.Error("failed to compile site templates", "error", err)
		os.Exit(1)
	}

	// API client for the editor sessions and the routing middleware. Both
	// go through the same JSON API external clients use.
	apiClient := api.New(cfg.APIBaseURL, nil)

	// Custom-domain rewriting, backed by the resolve endpoint with a
	// short-TTL Valkey cache in front.
	rewriter := tenant.NewRewriter(cfg.CanonicalHosts, apiClient, hostCache)

	// Handler groups.
	authHandlers := handlers.NewAuth(tokenStore, userStore)
	siteHandlers := handlers.NewSites(siteStore, userStore, pageCache)
	domainHandlers := handlers.NewDomains(domainStore, hostCache)
	uploadHandlers := handlers.NewUploads(storageClient, mediaStore)
	editorHandlers := handlers.NewEditor(apiClient, cfg.AutosaveDebounce)
	defer editorHandlers.Stop()
	publicHandlers := handlers.NewPublic(eng, siteStore, pageCache)

	r := router.New(router.Deps{
		Tokens:   tokenStore,
		Rewriter: rewriter,
		Auth:     authHandlers,
		Sites:    siteHandlers,
		Domains:  domainHandlers,
		Uploads:  uploadHandlers,
		Editor:   editorHandlers,
		Public:   publicHandlers,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
