package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/yz4230/deployboard/internal/config"
	"github.com/yz4230/deployboard/internal/repository"
)

type CleanResult struct {
	Cleared int
	Mode    string
}

type CleanDataUsecase interface {
	Execute(ctx context.Context) (*CleanResult, error)
}

type cleanDataUsecaseImpl struct {
	deployRepository repository.DeployRepository
	mode             string
}

// Execute implements CleanDataUsecase.
func (c *cleanDataUsecaseImpl) Execute(ctx context.Context) (*CleanResult, error) {
	n, err := c.deployRepository.Clear(ctx)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Int("cleared", n).Str("mode", c.mode).Msg("all deploy data cleared")
	return &CleanResult{Cleared: n, Mode: c.mode}, nil
}

func NewCleanDataUsecase(injector *do.Injector) (CleanDataUsecase, error) {
	return &cleanDataUsecaseImpl{
		deployRepository: do.MustInvoke[repository.DeployRepository](injector),
		mode:             do.MustInvoke[*config.Config](injector).Mode(),
	}, nil
}
