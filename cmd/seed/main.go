package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jasonheath/poem-toy/internal/config"
	"github.com/jasonheath/poem-toy/internal/domain/models"
	"github.com/jasonheath/poem-toy/internal/repository/postgres"
	"github.com/jasonheath/poem-toy/internal/storage"

	"github.com/joho/godotenv"
)

// sampleSettings seeds a missing module-five settings file
var sampleSettings = models.StoreSettings{
	MerchantID:  "M-0001",
	StoreNumber: "1",
	Street:      "100 Main Street",
	City:        "Springfield",
	State:       "IL",
	Zip:         "62701",
}

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop the upload ledger table before setting up the schema")
	clearData := flag.Bool("clear-data", false, "Delete all upload ledger records (keep schema)")
	settingsOnly := flag.Bool("settings-only", false, "Only write the sample settings file, skip the database")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()

	if err := seedSettings(ctx, cfg.SettingsPath, logger); err != nil {
		log.Fatalf("Failed to seed settings: %v", err)
	}
	if *settingsOnly {
		return
	}

	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, skipping upload ledger setup")
		return
	}

	// Create database connection pool
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		logger.Info("dropping upload ledger", "table", tables.Uploads)
		if err := postgres.DropSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	logger.Info("schema ready", "table", tables.Uploads, "environment", cfg.Environment)

	if *clearData {
		if err := postgres.ClearData(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		logger.Info("upload ledger cleared", "table", tables.Uploads)
	}
}

// seedSettings writes sampleSettings to path unless a file already exists
func seedSettings(ctx context.Context, path string, logger *slog.Logger) error {
	if _, err := os.Stat(path); err == nil {
		logger.Info("settings file exists, leaving it alone", "path", path)
		return nil
	}

	store, err := storage.NewDiskStore(filepath.Dir(path), 1, logger)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(sampleSettings, "", "  ")
	if err != nil {
		return err
	}
	if err := store.WriteFile(ctx, filepath.Base(path), data); err != nil {
		return err
	}

	logger.Info("settings file written", "path", path)
	return nil
}
