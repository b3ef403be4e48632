package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/yz4230/deployboard/internal/entity"
	"github.com/yz4230/deployboard/internal/retention"
)

func TestFileRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "deploys.json")
	exerciseRepository(t, NewFileRepository(path, retention.Default()))
}

func TestFileRepositoryDocumentLayout(t *testing.T) {
	ctx := testContext()
	path := filepath.Join(t.TempDir(), "deploys.json")
	repo := NewFileRepository(path, retention.Default())
	rec := newRecord("a", "svc-a", time.Minute)
	rec.Note = "hotfix"
	if err := repo.Put(ctx, rec); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	var doc struct {
		Records  []map[string]any `json:"records"`
		Projects []string         `json:"projects"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if len(doc.Records) != 1 || doc.Records[0]["projectName"] != "svc-a" || doc.Records[0]["note"] != "hotfix" {
		t.Errorf("unexpected records: %v", doc.Records)
	}
	if diff := cmp.Diff([]string{"svc-a"}, doc.Projects); diff != "" {
		t.Errorf("projects mismatch (-want +got):\n%s", diff)
	}

	// a second repository over the same file sees the record
	reopened := NewFileRepository(path, retention.Default())
	got, err := reopened.List(ctx, 5)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if diff := cmp.Diff(rec, got[0]); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestFileRepositoryDerivesProjects(t *testing.T) {
	ctx := testContext()
	path := filepath.Join(t.TempDir(), "deploys.json")
	doc := `{"records":[{"id":"x","projectName":"svc-z","deployedAt":"` +
		time.Now().UTC().Format(time.RFC3339) + `","status":"success"},{"title":"no id"}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	repo := NewFileRepository(path, retention.Default())
	projects, err := repo.Projects(ctx)
	if err != nil {
		t.Fatalf("Projects error: %v", err)
	}
	if diff := cmp.Diff([]string{"svc-z"}, projects); diff != "" {
		t.Errorf("projects mismatch (-want +got):\n%s", diff)
	}
	got, _ := repo.List(ctx, 10)
	if diff := cmp.Diff([]entity.ID{"x"}, ids(got)); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestFileRepositoryCorruptDocument(t *testing.T) {
	ctx := testContext()
	path := filepath.Join(t.TempDir(), "deploys.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	repo := NewFileRepository(path, retention.Default())
	if _, err := repo.List(ctx, 1); err == nil {
		t.Fatalf("expected error for corrupt document")
	}
	if err := repo.Put(ctx, newRecord("a", "svc-a", time.Minute)); err == nil {
		t.Fatalf("expected Put to refuse overwriting a corrupt document")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{not json" {
		t.Errorf("corrupt document was overwritten: %q", data)
	}
}
