package repository

import (
	"fmt"
	"os"
	"path/filepath"

	redis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewSQLiteDB(path string) (*gorm.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&DeployRecord{}, &Project{}); err != nil {
		return nil, err
	}
	return db, nil
}

type RedisConfig struct {
	URL      string
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool { return c.URL != "" || c.Addr != "" }

// NewRedisClient builds a client from a redis:// URL, falling back to the
// discrete address settings.
func NewRedisClient(c RedisConfig) (*redis.Client, error) {
	if c.URL != "" {
		opts, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}), nil
}
