package repository

import (
	"context"
	"time"

	"github.com/yz4230/deployboard/internal/entity"
	"github.com/yz4230/deployboard/internal/retention"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SQLiteRepository struct {
	db     *gorm.DB
	policy retention.Policy
}

func NewSQLiteRepository(db *gorm.DB, policy retention.Policy) *SQLiteRepository {
	return &SQLiteRepository{db: db, policy: policy}
}

func (r *SQLiteRepository) Name() string { return "sqlite" }

// Put implements DeployRepository.
func (r *SQLiteRepository) Put(ctx context.Context, rec *entity.DeployRecord) error {
	var model DeployRecord
	model.FromEntity(rec)
	if err := gorm.G[DeployRecord](r.db).Create(ctx, &model); err != nil {
		return backendError(r.Name(), err)
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Project{Name: rec.ProjectName}).Error
	return backendError(r.Name(), err)
}

// List implements DeployRepository. The retention cutoff is part of the
// query, so expired rows never leave the database.
func (r *SQLiteRepository) List(ctx context.Context, max int, projects ...string) ([]*entity.DeployRecord, error) {
	cutoff := r.policy.Cutoff(time.Now()).UnixMilli()
	query := gorm.G[DeployRecord](r.db).Where("deployed_at_ms >= ?", cutoff)
	if len(projects) > 0 {
		query = query.Where("project_name IN ?", projects)
	}
	founds, err := query.
		Order("deployed_at_ms desc").
		Limit(max).
		Find(ctx)
	if err != nil {
		return nil, backendError(r.Name(), err)
	}
	res := make([]*entity.DeployRecord, len(founds))
	for i, f := range founds {
		res[i] = f.ToEntity()
	}
	return newestFirst(res, max), nil
}

// Projects implements DeployRepository.
func (r *SQLiteRepository) Projects(ctx context.Context) ([]string, error) {
	founds, err := gorm.G[Project](r.db).Order("name").Find(ctx)
	if err != nil {
		return nil, backendError(r.Name(), err)
	}
	names := make([]string, len(founds))
	for i, f := range founds {
		names[i] = f.Name
	}
	if len(names) == 0 {
		err := r.db.WithContext(ctx).Model(&DeployRecord{}).Distinct().Pluck("project_name", &names).Error
		if err != nil {
			return nil, backendError(r.Name(), err)
		}
	}
	return sortedNames(names), nil
}

// Clear implements DeployRepository.
func (r *SQLiteRepository) Clear(ctx context.Context) (int, error) {
	n, err := gorm.G[DeployRecord](r.db).Where("1 = 1").Delete(ctx)
	if err != nil {
		return 0, backendError(r.Name(), err)
	}
	if _, err := gorm.G[Project](r.db).Where("1 = 1").Delete(ctx); err != nil {
		return n, backendError(r.Name(), err)
	}
	return n, nil
}
