package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "HOST", "PORT", "LOG_LEVEL", "UPLOAD_DIR", "UPLOAD_MAX_BYTES", "SETTINGS_PATH", "SUBMISSION_PATH", "TABLE_PREFIX"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Addr() != "127.0.0.1:2112" {
		t.Errorf("Addr() = %q, want 127.0.0.1:2112", cfg.Addr())
	}
	if cfg.UploadDir != "uploads" {
		t.Errorf("UploadDir = %q, want uploads", cfg.UploadDir)
	}
	if cfg.UploadMaxBytes != DefaultUploadMaxBytes {
		t.Errorf("UploadMaxBytes = %d, want %d", cfg.UploadMaxBytes, DefaultUploadMaxBytes)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug in dev", cfg.SlogLevel())
	}
	if cfg.TablePrefix != "dev_" {
		t.Errorf("TablePrefix = %q, want dev_", cfg.TablePrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() defaults: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unlimited uploads", mutate: func(c *Config) { c.UploadMaxBytes = 0 }},
		{name: "bad port", mutate: func(c *Config) { c.Port = "http" }, wantErr: true},
		{name: "port out of range", mutate: func(c *Config) { c.Port = "70000" }, wantErr: true},
		{name: "no workers", mutate: func(c *Config) { c.UploadWorkers = 0 }, wantErr: true},
		{name: "negative cap", mutate: func(c *Config) { c.UploadMaxBytes = -1 }, wantErr: true},
		{name: "unknown format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "unknown environment", mutate: func(c *Config) { c.Environment = "staging" }, wantErr: true},
		{name: "working directory uploads", mutate: func(c *Config) { c.UploadDir = "." }, wantErr: true},
		{
			name:   "uploads beside submission",
			mutate: func(c *Config) {
				c.UploadDir = "./data/"
				c.SubmissionPath = "data/changes.yaml"
			},
			wantErr: true,
		},
		{name: "uploads beside settings", mutate: func(c *Config) { c.UploadDir = "habitat/config" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Host:           "127.0.0.1",
				Port:           "2112",
				Environment:    "dev",
				LogLevel:       "info",
				LogFormat:      "json",
				LogMaxFiles:    10,
				UploadDir:      "uploads",
				UploadMaxBytes: DefaultUploadMaxBytes,
				UploadWorkers:  DefaultUploadWorkers,
				SettingsPath:   "habitat/config/application-settings.json",
				SubmissionPath: "changes.yaml",
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetupLogFile_Rotation(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		name := filepath.Join(dir, fmt.Sprintf("server-2020-01-0%dT00-00-00.000.log", i+1))
		if err := os.WriteFile(name, nil, 0644); err != nil {
			t.Fatalf("write old log: %v", err)
		}
	}

	f, err := SetupLogFile(dir, 2)
	if err != nil {
		t.Fatalf("SetupLogFile() error: %v", err)
	}
	f.Close()

	files, _ := filepath.Glob(filepath.Join(dir, "server-*.log"))
	if len(files) != 2 {
		t.Errorf("log files = %v, want 2 retained", files)
	}
	if _, err := os.Stat(f.Name()); err != nil {
		t.Errorf("new log file removed: %v", err)
	}
}
