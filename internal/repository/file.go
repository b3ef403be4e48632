package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/yz4230/deployboard/internal/entity"
	"github.com/yz4230/deployboard/internal/retention"
)

const maxFileRecords = 1000

type fileDocument struct {
	Records  []*entity.DeployRecord `json:"records"`
	Projects []string               `json:"projects"`
}

// FileRepository persists every record in a single JSON document.
type FileRepository struct {
	path   string
	policy retention.Policy
	mu     sync.Mutex
}

func NewFileRepository(path string, policy retention.Policy) *FileRepository {
	return &FileRepository{path: path, policy: policy}
}

func (f *FileRepository) Name() string { return "file" }

// Put implements DeployRepository.
func (f *FileRepository) Put(ctx context.Context, rec *entity.DeployRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return backendError(f.Name(), err)
	}

	now := time.Now()
	records := append([]*entity.DeployRecord{cloneRecord(rec)}, doc.Records...)
	records = lo.Reject(records, func(r *entity.DeployRecord, _ int) bool {
		return f.policy.Expired(r, now)
	})
	doc.Records = newestFirst(records, maxFileRecords)
	if !lo.Contains(doc.Projects, rec.ProjectName) {
		doc.Projects = append(doc.Projects, rec.ProjectName)
	}

	return backendError(f.Name(), f.save(doc))
}

// List implements DeployRepository.
func (f *FileRepository) List(ctx context.Context, max int, projects ...string) ([]*entity.DeployRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return nil, backendError(f.Name(), err)
	}
	return newestFirst(ofProjects(doc.Records, projects), max), nil
}

// Projects implements DeployRepository.
func (f *FileRepository) Projects(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return nil, backendError(f.Name(), err)
	}
	if len(doc.Projects) == 0 {
		return projectsOf(doc.Records), nil
	}
	return sortedNames(doc.Projects), nil
}

// Clear implements DeployRepository.
func (f *FileRepository) Clear(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	if doc, err := f.load(); err == nil {
		n = len(doc.Records)
	}
	empty := &fileDocument{Records: []*entity.DeployRecord{}, Projects: []string{}}
	if err := f.save(empty); err != nil {
		return 0, backendError(f.Name(), err)
	}
	return n, nil
}

// load reads the document. A missing file is an empty document; entries
// without an identifier are dropped.
func (f *FileRepository) load() (*fileDocument, error) {
	doc := &fileDocument{}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	doc.Records = lo.Filter(doc.Records, func(r *entity.DeployRecord, _ int) bool {
		return r != nil && r.ID != "" && !r.DeployedAt.IsZero()
	})
	return doc, nil
}

func (f *FileRepository) save(doc *fileDocument) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}
