package usecase

import (
	"context"

	"github.com/samber/do"
	"github.com/yz4230/deployboard/internal/repository"
)

type ListProjectsUsecase interface {
	Execute(ctx context.Context) ([]string, error)
}

type listProjectsUsecaseImpl struct {
	deployRepository repository.DeployRepository
}

// Execute implements ListProjectsUsecase.
func (l *listProjectsUsecaseImpl) Execute(ctx context.Context) ([]string, error) {
	names, err := l.deployRepository.Projects(ctx)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func NewListProjectsUsecase(injector *do.Injector) (ListProjectsUsecase, error) {
	return &listProjectsUsecaseImpl{
		deployRepository: do.MustInvoke[repository.DeployRepository](injector),
	}, nil
}
