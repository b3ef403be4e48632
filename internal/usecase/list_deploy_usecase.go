package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/samber/do"
	"github.com/samber/lo"
	"github.com/yz4230/deployboard/internal/entity"
	"github.com/yz4230/deployboard/internal/repository"
	"github.com/yz4230/deployboard/internal/retention"
)

const (
	DefaultDeployLimit = 20
	MaxDeployLimit     = 50
)

type ListDeployQuery struct {
	Limit    int
	Projects []string
}

type ListDeployUsecase interface {
	Execute(ctx context.Context, query ListDeployQuery) ([]*entity.DeployRecord, error)
}

type listDeployUsecaseImpl struct {
	deployRepository repository.DeployRepository
	policy           retention.Policy
	now              func() time.Time
}

// Execute implements ListDeployUsecase.
func (l *listDeployUsecaseImpl) Execute(ctx context.Context, query ListDeployQuery) ([]*entity.DeployRecord, error) {
	limit := query.Limit
	if limit == 0 {
		limit = DefaultDeployLimit
	}
	limit = lo.Clamp(limit, 1, MaxDeployLimit)

	projects := lo.Uniq(lo.Compact(query.Projects))
	records, err := l.deployRepository.List(ctx, limit, projects...)
	if err != nil {
		return nil, err
	}

	records = l.policy.Filter(records, l.now())
	if len(projects) > 0 {
		records = lo.Filter(records, func(rec *entity.DeployRecord, _ int) bool {
			return lo.Contains(projects, rec.ProjectName)
		})
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].DeployedAt.After(records[j].DeployedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	if records == nil {
		records = []*entity.DeployRecord{}
	}
	return records, nil
}

func NewListDeployUsecase(injector *do.Injector) (ListDeployUsecase, error) {
	return &listDeployUsecaseImpl{
		deployRepository: do.MustInvoke[repository.DeployRepository](injector),
		policy:           do.MustInvoke[retention.Policy](injector),
		now:              time.Now,
	}, nil
}
