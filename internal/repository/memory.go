package repository

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/yz4230/deployboard/internal/entity"
	"github.com/yz4230/deployboard/internal/retention"
)

// MemoryRepository keeps records for the lifetime of the process.
type MemoryRepository struct {
	mu       sync.RWMutex
	records  []*entity.DeployRecord
	projects map[string]struct{}
	policy   retention.Policy
}

func NewMemoryRepository(policy retention.Policy) *MemoryRepository {
	return &MemoryRepository{projects: map[string]struct{}{}, policy: policy}
}

func (m *MemoryRepository) Name() string { return "memory" }

// Put implements DeployRepository.
func (m *MemoryRepository) Put(ctx context.Context, rec *entity.DeployRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.records = append([]*entity.DeployRecord{cloneRecord(rec)}, m.records...)
	m.records = lo.Reject(m.records, func(r *entity.DeployRecord, _ int) bool {
		return m.policy.Expired(r, now)
	})
	sortNewestFirst(m.records)
	m.projects[rec.ProjectName] = struct{}{}
	return nil
}

// List implements DeployRepository.
func (m *MemoryRepository) List(ctx context.Context, max int, projects ...string) ([]*entity.DeployRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return newestFirst(lo.Map(ofProjects(m.records, projects), func(r *entity.DeployRecord, _ int) *entity.DeployRecord {
		return cloneRecord(r)
	}), max), nil
}

// Projects implements DeployRepository.
func (m *MemoryRepository) Projects(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.projects) == 0 {
		return projectsOf(m.records), nil
	}
	return sortedNames(lo.Keys(m.projects)), nil
}

// Clear implements DeployRepository.
func (m *MemoryRepository) Clear(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.records)
	m.records = nil
	m.projects = map[string]struct{}{}
	return n, nil
}
