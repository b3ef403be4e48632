package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/samber/lo"
	"github.com/yz4230/deployboard/internal/entity"
)

// DeployRepository is one storage tier for deploy records.
type DeployRepository interface {
	Name() string
	// Put stores rec, adds it to the time index and registers its project.
	Put(ctx context.Context, rec *entity.DeployRecord) error
	// List returns at most max records, newest first. When projects are
	// given only records of those projects count towards max.
	List(ctx context.Context, max int, projects ...string) ([]*entity.DeployRecord, error)
	// Projects returns the sorted project registry.
	Projects(ctx context.Context) ([]string, error)
	// Clear removes every record and project and reports how many records
	// were removed.
	Clear(ctx context.Context) (int, error)
}

func sortNewestFirst(records []*entity.DeployRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].DeployedAt.After(records[j].DeployedAt)
	})
}

// uniqueByID keeps the first occurrence of every identifier.
func uniqueByID(records []*entity.DeployRecord) []*entity.DeployRecord {
	return lo.UniqBy(records, func(rec *entity.DeployRecord) entity.ID { return rec.ID })
}

func newestFirst(records []*entity.DeployRecord, max int) []*entity.DeployRecord {
	records = uniqueByID(records)
	sortNewestFirst(records)
	if max > 0 && len(records) > max {
		records = records[:max]
	}
	return records
}

// ofProjects keeps the records belonging to one of projects; no projects
// keeps everything.
func ofProjects(records []*entity.DeployRecord, projects []string) []*entity.DeployRecord {
	if len(projects) == 0 {
		return records
	}
	return lo.Filter(records, func(rec *entity.DeployRecord, _ int) bool {
		return lo.Contains(projects, rec.ProjectName)
	})
}

func projectsOf(records []*entity.DeployRecord) []string {
	return sortedNames(lo.Map(records, func(rec *entity.DeployRecord, _ int) string {
		return rec.ProjectName
	}))
}

func sortedNames(names []string) []string {
	names = lo.Uniq(lo.Compact(names))
	sort.Strings(names)
	return names
}

func cloneRecord(rec *entity.DeployRecord) *entity.DeployRecord {
	cp := *rec
	return &cp
}

func backendError(backend string, err error) error {
	if err == nil || errors.Is(err, entity.ErrBackendUnavailable) {
		return err
	}
	return &entity.BackendError{Backend: backend, Err: err}
}
