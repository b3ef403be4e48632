package usecase

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/do"
	"github.com/yz4230/deployboard/internal/config"
	"github.com/yz4230/deployboard/internal/entity"
)

func TestCreateDeploy(t *testing.T) {
	injector := newTestInjector(t, &config.Config{})
	create := do.MustInvoke[CreateDeployUsecase](injector)
	ctx := testContext()

	first, err := create.Execute(ctx, payload("svc-a"))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	second, err := create.Execute(ctx, payload("svc-a"))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if first.ID == "" || first.ID == second.ID {
		t.Errorf("expected distinct non-empty ids, got %q and %q", first.ID, second.ID)
	}
	if age := time.Since(first.DeployedAt); age < 0 || age > 5*time.Second {
		t.Errorf("deployedAt %v is not close to now", first.DeployedAt)
	}
	if first.ProjectName != "svc-a" || first.Status != entity.DeployStatusSuccess {
		t.Errorf("unexpected record: %+v", first)
	}
}

func TestCreateDeployExplicitTimestamp(t *testing.T) {
	injector := newTestInjector(t, &config.Config{})
	create := do.MustInvoke[CreateDeployUsecase](injector)

	p := payload("svc-a")
	p.DeployedAt = "2026-10-18T09:30:00+09:00"
	rec, err := create.Execute(testContext(), p)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	want := time.Date(2026, 10, 18, 0, 30, 0, 0, time.UTC)
	if !rec.DeployedAt.Equal(want) {
		t.Errorf("DeployedAt = %v; want %v", rec.DeployedAt, want)
	}
}

func TestCreateDeployValidation(t *testing.T) {
	injector := newTestInjector(t, &config.Config{})
	create := do.MustInvoke[CreateDeployUsecase](injector)
	list := do.MustInvoke[ListDeployUsecase](injector)
	ctx := testContext()

	p := payload("svc-a")
	p.Commit = ""
	_, err := create.Execute(ctx, p)
	var verr *entity.ValidationError
	if !errors.As(err, &verr) || verr.Field != "commit" {
		t.Fatalf("expected ValidationError for commit, got %v", err)
	}

	records, err := list.Execute(ctx, ListDeployQuery{Limit: 50})
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("invalid payload was persisted: %+v", records)
	}
}

func TestCreateDeployNotifies(t *testing.T) {
	received := make(chan map[string]string, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding failed: %s", err)
		}
		received <- body
	}))
	defer upstream.Close()

	injector := newTestInjector(t, &config.Config{NotifyURL: upstream.URL, NotifyOnDeploy: true})
	create := do.MustInvoke[CreateDeployUsecase](injector)
	if _, err := create.Execute(testContext(), payload("svc-a")); err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	select {
	case body := <-received:
		if body["title"] != "[svc-a] prod success" {
			t.Errorf("unexpected notification title %q", body["title"])
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("notification was not relayed")
	}
}
