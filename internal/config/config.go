package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/yz4230/deployboard/internal/repository"
	"github.com/yz4230/deployboard/internal/retention"
)

const (
	ModeRemoteOnly = "remote-only"
	ModeHybrid     = "hybrid"
	ModeLocal      = "local"
)

type Config struct {
	Port int

	RedisURL      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	RedisTimeout  time.Duration
	RemoteOnly    bool

	DataFile   string
	SQLitePath string

	NotifyURL              string
	NotifyOnDeploy         bool
	NotifyAllowURLOverride bool
	NotifyTimeout          time.Duration

	LogLevel string
}

// Load reads the given .env files (missing ones are ignored) and then the
// process environment. Variables already set in the environment win.
func Load(envFiles ...string) *Config {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("file", f).Msg("failed to load env file")
		}
	}

	return &Config{
		Port:                   getInt("PORT", 8080),
		RedisURL:               getString("REDIS_URL", ""),
		RedisAddr:              getString("REDIS_ADDR", ""),
		RedisPassword:          getString("REDIS_PASSWORD", ""),
		RedisDB:                getInt("REDIS_DB", 0),
		RedisPrefix:            getString("REDIS_PREFIX", repository.DefaultRedisPrefix),
		RedisTimeout:           time.Duration(getInt("REDIS_TIMEOUT_MS", 2000)) * time.Millisecond,
		RemoteOnly:             getBool("REMOTE_ONLY", false),
		DataFile:               getString("DATA_FILE", "data/deploys.json"),
		SQLitePath:             getString("SQLITE_PATH", ""),
		NotifyURL:              getString("NOTIFY_URL", ""),
		NotifyOnDeploy:         getBool("NOTIFY_ON_DEPLOY", false),
		NotifyAllowURLOverride: getBool("NOTIFY_ALLOW_URL_OVERRIDE", false),
		NotifyTimeout:          time.Duration(getInt("NOTIFY_TIMEOUT_MS", 5000)) * time.Millisecond,
		LogLevel:               getString("LOG_LEVEL", "info"),
	}
}

func (c *Config) RemoteConfigured() bool {
	return c.RedisURL != "" || c.RedisAddr != ""
}

// Mode names the storage layout reported by the clean endpoint.
func (c *Config) Mode() string {
	switch {
	case c.RemoteOnly:
		return ModeRemoteOnly
	case c.RemoteConfigured():
		return ModeHybrid
	default:
		return ModeLocal
	}
}

func (c *Config) RepositoryOptions() repository.Options {
	return repository.Options{
		Redis: repository.RedisConfig{
			URL:      c.RedisURL,
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		},
		RedisPrefix:  c.RedisPrefix,
		RedisTimeout: c.RedisTimeout,
		RemoteOnly:   c.RemoteOnly,
		DataFile:     c.DataFile,
		SQLitePath:   c.SQLitePath,
		Policy:       retention.Default(),
	}
}

func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func getString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("invalid integer value")
			return fallback
		}
		return parsed
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("invalid boolean value")
			return fallback
		}
		return parsed
	}
	return fallback
}
