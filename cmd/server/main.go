package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jasonheath/poem-toy/internal/config"
	"github.com/jasonheath/poem-toy/internal/domain/repositories"
	"github.com/jasonheath/poem-toy/internal/handler"
	"github.com/jasonheath/poem-toy/internal/metrics"
	"github.com/jasonheath/poem-toy/internal/middleware"
	"github.com/jasonheath/poem-toy/internal/repository/postgres"
	"github.com/jasonheath/poem-toy/internal/service/sanitizer"
	"github.com/jasonheath/poem-toy/internal/service/storefront"
	"github.com/jasonheath/poem-toy/internal/service/upload"
	"github.com/jasonheath/poem-toy/internal/storage"
	"github.com/jasonheath/poem-toy/internal/web"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup structured logging
	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"addr", cfg.Addr(),
		"upload_dir", cfg.UploadDir,
		"upload_max_bytes", cfg.UploadMaxBytes,
		"upload_workers", cfg.UploadWorkers,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Upload ledger is optional
	var ledger repositories.UploadRepository
	if cfg.DatabaseURL != "" {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to prepare upload ledger: %v", err)
		}

		ledger = postgres.NewUploadRepository(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		})
		logger.Info("upload ledger enabled", "table", tables.Uploads)
	} else {
		logger.Info("upload ledger disabled (DATABASE_URL not set)")
	}

	// Create services
	store, err := storage.NewDiskStore(cfg.UploadDir, cfg.UploadWorkers, logger)
	if err != nil {
		log.Fatalf("Failed to open upload directory: %v", err)
	}
	uploadService := upload.NewIngestor(
		store,
		upload.FilenamePolicy{RandomNames: cfg.UploadRandomNames},
		ledger,
		logger,
	)

	storefrontService, err := storefront.NewStorefrontService(
		cfg.SettingsPath,
		cfg.SubmissionPath,
		sanitizer.NewTextSanitizer(),
		logger,
	)
	if err != nil {
		log.Fatalf("Failed to setup storefront service: %v", err)
	}

	// Templates are parsed once and shared by reference
	templates, err := web.NewTemplates()
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	m := metrics.New()

	// Create handlers
	pageHandler, err := handler.NewPageHandler(logger)
	if err != nil {
		log.Fatalf("Failed to load index page: %v", err)
	}
	uploadHandler := handler.NewUploadHandler(uploadService, uploadService, templates, m, cfg.UploadMaxBytes, logger)
	storefrontHandler := handler.NewStorefrontHandler(storefrontService, templates, m, logger)

	logger.Info("services initialized")

	mux := handler.NewRouter(handler.Handlers{
		Pages:      pageHandler,
		Uploads:    uploadHandler,
		Storefront: storefrontHandler,
		Metrics:    m.Handler(),
	})

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → RequestID → AccessLog → Recovery → Routes
	// AccessLog sits inside RequestID so it sees the request the mux
	// annotates with its matched pattern.
	h = middleware.Recovery(logger)(h)
	h = middleware.AccessLog(logger, m)(h)
	h = middleware.RequestID(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      0, // Disabled so large uploads are bounded by size, not time
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
