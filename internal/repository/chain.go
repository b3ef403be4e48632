package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/yz4230/deployboard/internal/entity"
	"github.com/yz4230/deployboard/internal/retention"
)

var errNoSinkAccepted = errors.New("no backend accepted the write")

// Sink is one tier of a Chain. A Required sink's failures reach the caller;
// all other failures are logged and skipped.
type Sink struct {
	Repo     DeployRepository
	Required bool
}

// Chain fans writes out to every sink and reads from them in order of
// preference, falling through on failure or shortfall.
type Chain struct {
	sinks   []Sink
	closers []func() error
	policy  retention.Policy
}

func NewChain(sinks ...Sink) *Chain {
	return &Chain{
		sinks:  lo.Filter(sinks, func(s Sink, _ int) bool { return s.Repo != nil }),
		policy: retention.Default(),
	}
}

func (c *Chain) Name() string {
	return strings.Join(lo.Map(c.sinks, func(s Sink, _ int) string { return s.Repo.Name() }), "+")
}

func (c *Chain) Sinks() []Sink { return c.sinks }

// Shutdown releases the connections held by the tiers.
func (c *Chain) Shutdown() error {
	err := closeAll(c.closers)
	c.closers = nil
	return err
}

// Put implements DeployRepository.
func (c *Chain) Put(ctx context.Context, rec *entity.DeployRecord) error {
	if len(c.sinks) == 0 {
		return entity.ErrNotConfigured
	}

	// records must survive a JSON round trip on every tier
	if _, err := json.Marshal(rec); err != nil {
		return &entity.ValidationError{Field: "deployedAt", Reason: "is not a representable instant"}
	}

	log := zerolog.Ctx(ctx)
	written := 0
	for _, s := range c.sinks {
		if err := s.Repo.Put(ctx, rec); err != nil {
			if s.Required {
				return backendError(s.Repo.Name(), err)
			}
			log.Warn().Err(err).Str("backend", s.Repo.Name()).Str("id", rec.ID.String()).Msg("best-effort write failed")
			continue
		}
		written++
	}
	if written == 0 {
		return backendError(c.Name(), errNoSinkAccepted)
	}
	return nil
}

// List implements DeployRepository. Sinks are consulted until max in-window
// records are gathered; an identifier seen in an earlier sink shadows later
// copies.
func (c *Chain) List(ctx context.Context, max int, projects ...string) ([]*entity.DeployRecord, error) {
	if len(c.sinks) == 0 {
		return nil, entity.ErrNotConfigured
	}

	log := zerolog.Ctx(ctx)
	now := time.Now()
	var merged []*entity.DeployRecord
	for _, s := range c.sinks {
		if len(merged) >= max {
			break
		}
		records, err := s.Repo.List(ctx, max, projects...)
		if err != nil {
			if s.Required {
				return nil, backendError(s.Repo.Name(), err)
			}
			log.Warn().Err(err).Str("backend", s.Repo.Name()).Msg("read failed, falling back")
			continue
		}
		records = ofProjects(c.policy.Filter(records, now), projects)
		merged = uniqueByID(append(merged, records...))
	}
	return newestFirst(merged, max), nil
}

// Projects implements DeployRepository. The result is the union over every
// reachable sink.
func (c *Chain) Projects(ctx context.Context) ([]string, error) {
	if len(c.sinks) == 0 {
		return nil, entity.ErrNotConfigured
	}

	log := zerolog.Ctx(ctx)
	var names []string
	for _, s := range c.sinks {
		found, err := s.Repo.Projects(ctx)
		if err != nil {
			if s.Required {
				return nil, backendError(s.Repo.Name(), err)
			}
			log.Warn().Err(err).Str("backend", s.Repo.Name()).Msg("project lookup failed")
			continue
		}
		names = append(names, found...)
	}
	return sortedNames(names), nil
}

// Clear implements DeployRepository. Every sink is cleared; the count is the
// largest one any sink reported.
func (c *Chain) Clear(ctx context.Context) (int, error) {
	if len(c.sinks) == 0 {
		return 0, entity.ErrNotConfigured
	}

	log := zerolog.Ctx(ctx)
	cleared := 0
	for _, s := range c.sinks {
		n, err := s.Repo.Clear(ctx)
		if err != nil {
			if s.Required {
				return cleared, backendError(s.Repo.Name(), err)
			}
			log.Warn().Err(err).Str("backend", s.Repo.Name()).Msg("clear failed")
			continue
		}
		log.Debug().Str("backend", s.Repo.Name()).Int("cleared", n).Msg("backend cleared")
		cleared = max(cleared, n)
	}
	return cleared, nil
}
