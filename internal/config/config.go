package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Config struct {
	Host        string
	Port        string
	Environment string
	CORSOrigins string
	// Logging
	LogLevel    string
	LogFormat   string
	LogDir      string
	LogMaxFiles int
	// Uploads
	UploadDir         string
	UploadMaxBytes    int64
	UploadWorkers     int
	UploadRandomNames bool
	// Store settings (module five)
	SettingsPath   string
	SubmissionPath string
	// Upload ledger (optional)
	DatabaseURL string
	TablePrefix string
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Host:        getEnv("HOST", "127.0.0.1"),
		Port:        getEnv("PORT", "2112"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		// Logging - verbose in dev, info elsewhere
		LogLevel:    getEnv("LOG_LEVEL", getDefaultLogLevel(env)),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getEnvInt("LOG_MAX_FILES", 10),
		// Uploads
		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		UploadMaxBytes:    int64(getEnvInt("UPLOAD_MAX_BYTES", DefaultUploadMaxBytes)),
		UploadWorkers:     getEnvInt("UPLOAD_WORKERS", DefaultUploadWorkers),
		UploadRandomNames: getEnv("UPLOAD_RANDOM_NAMES", "false") == "true",
		// Store settings
		SettingsPath:   getEnv("SETTINGS_PATH", "habitat/config/application-settings.json"),
		SubmissionPath: getEnv("SUBMISSION_PATH", "changes.yaml"),
		// Ledger
		DatabaseURL: getEnv("DATABASE_URL", ""),
		TablePrefix: getTablePrefix(env),
	}
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.By(validatePort)),
		validation.Field(&c.Environment, validation.In("dev", "test", "prod")),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.In("json", "text")),
		validation.Field(&c.LogMaxFiles, validation.Min(1)),
		validation.Field(&c.UploadDir, validation.Required, validation.By(c.validateUploadDir)),
		validation.Field(&c.UploadMaxBytes, validation.Min(int64(0))),
		validation.Field(&c.UploadWorkers, validation.Required, validation.Min(1)),
		validation.Field(&c.SettingsPath, validation.Required),
		validation.Field(&c.SubmissionPath, validation.Required),
	)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// SlogLevel maps LogLevel onto a slog.Level. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// validateUploadDir keeps client-named files away from the server's own
// settings and submission files.
func (c *Config) validateUploadDir(value interface{}) error {
	dir, _ := value.(string)
	uploadDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("cannot resolve: %v", err)
	}

	for _, path := range []string{c.SettingsPath, c.SubmissionPath} {
		other, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			continue
		}
		if other == uploadDir {
			return fmt.Errorf("must not be the directory holding %s", path)
		}
	}
	return nil
}

func validatePort(value interface{}) error {
	port, _ := value.(string)
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("must be a number between 1 and 65535")
	}
	return nil
}

// getDefaultLogLevel returns the default log level based on environment
func getDefaultLogLevel(env string) string {
	if env == "dev" {
		return "debug"
	}
	return "info"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s=%q is not a number, using %d\n", key, value, defaultValue)
		return defaultValue
	}
	return n
}
