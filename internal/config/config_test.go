package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "REDIS_URL", "REDIS_ADDR", "REMOTE_ONLY", "DATA_FILE", "LOG_LEVEL", "REDIS_TIMEOUT_MS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("Port = %d; want 8080", cfg.Port)
	}
	if cfg.DataFile != "data/deploys.json" {
		t.Errorf("DataFile = %q", cfg.DataFile)
	}
	if cfg.RedisTimeout != 2*time.Second {
		t.Errorf("RedisTimeout = %v", cfg.RedisTimeout)
	}
	if cfg.Mode() != ModeLocal {
		t.Errorf("Mode() = %q; want %q", cfg.Mode(), ModeLocal)
	}
	if cfg.Level() != zerolog.InfoLevel {
		t.Errorf("Level() = %v", cfg.Level())
	}
}

func TestLoadEnvFile(t *testing.T) {
	for _, key := range []string{"REDIS_URL", "REMOTE_ONLY", "PORT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "REDIS_URL=redis://localhost:6379/0\nREMOTE_ONLY=true\nPORT=9090\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7070")

	cfg := Load(envFile, filepath.Join(t.TempDir(), "missing.env"))
	if cfg.Port != 7070 {
		t.Errorf("Port = %d; environment should win over the env file", cfg.Port)
	}
	if !cfg.RemoteConfigured() {
		t.Errorf("expected remote backend to be configured")
	}
	if cfg.Mode() != ModeRemoteOnly {
		t.Errorf("Mode() = %q; want %q", cfg.Mode(), ModeRemoteOnly)
	}
	opts := cfg.RepositoryOptions()
	if !opts.RemoteOnly || opts.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("unexpected repository options: %+v", opts)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("REMOTE_ONLY", "maybe")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_LEVEL", "loud")

	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("Port = %d; want fallback 8080", cfg.Port)
	}
	if cfg.RemoteOnly {
		t.Errorf("RemoteOnly should fall back to false")
	}
	if cfg.Mode() != ModeHybrid {
		t.Errorf("Mode() = %q; want %q", cfg.Mode(), ModeHybrid)
	}
	if cfg.Level() != zerolog.InfoLevel {
		t.Errorf("Level() = %v; want info", cfg.Level())
	}
}
