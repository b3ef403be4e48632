package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yz4230/deployboard/internal/entity"
	"github.com/yz4230/deployboard/internal/retention"
)

type Options struct {
	Redis        RedisConfig
	RedisPrefix  string
	RedisTimeout time.Duration
	// RemoteOnly drops every local tier and makes Redis failures visible.
	RemoteOnly bool
	DataFile   string
	SQLitePath string
	Policy     retention.Policy
}

// Open assembles the tiers in order of preference: redis, sqlite, file,
// memory. Redis is pinged once; an unreachable server is fatal only in
// remote-only mode.
func Open(opts Options) (*Chain, error) {
	if opts.RemoteOnly && !opts.Redis.Enabled() {
		return nil, fmt.Errorf("remote-only mode without redis settings: %w", entity.ErrNotConfigured)
	}

	var (
		sinks   []Sink
		closers []func() error
	)
	if opts.Redis.Enabled() {
		client, err := NewRedisClient(opts.Redis)
		if err != nil {
			return nil, err
		}
		closers = append(closers, client.Close)
		remote := NewRedisRepository(client, RedisOptions{
			Prefix:  opts.RedisPrefix,
			Timeout: opts.RedisTimeout,
			Policy:  opts.Policy,
		})
		if err := remote.Ping(context.Background()); err != nil {
			if opts.RemoteOnly {
				return nil, errors.Join(err, closeAll(closers))
			}
			log.Warn().Err(err).Msg("redis unreachable, continuing with local tiers")
		}
		sinks = append(sinks, Sink{Repo: remote, Required: opts.RemoteOnly})
	}

	if !opts.RemoteOnly {
		if opts.SQLitePath != "" {
			db, err := NewSQLiteDB(opts.SQLitePath)
			if err != nil {
				return nil, errors.Join(fmt.Errorf("open sqlite: %w", err), closeAll(closers))
			}
			if sqlDB, err := db.DB(); err == nil {
				closers = append(closers, sqlDB.Close)
			}
			sinks = append(sinks, Sink{Repo: NewSQLiteRepository(db, opts.Policy)})
		}
		if opts.DataFile != "" {
			sinks = append(sinks, Sink{Repo: NewFileRepository(opts.DataFile, opts.Policy)})
		}
		sinks = append(sinks, Sink{Repo: NewMemoryRepository(opts.Policy)})
	}

	chain := NewChain(sinks...)
	chain.closers = closers
	chain.policy = opts.Policy
	return chain, nil
}

func closeAll(closers []func() error) error {
	var errs []error
	for _, c := range closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
