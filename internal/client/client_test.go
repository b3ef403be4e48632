package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yz4230/deployboard/internal/config"
	"github.com/yz4230/deployboard/internal/entity"
	"github.com/yz4230/deployboard/internal/server"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	srv, err := server.New(&server.Config{App: &config.Config{}, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("server.New error: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Stop(context.Background())
	})

	cli, err := New(ts.URL, time.Second)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return cli
}

func TestCreateAndListDeploys(t *testing.T) {
	cli := newTestClient(t)
	ctx := context.Background()

	created, err := cli.CreateDeploy(ctx, &entity.DeployPayload{
		Title:       "deploy",
		ProjectName: "svc-a",
		Operator:    "ci",
		Environment: "staging",
		Branch:      "main",
		Commit:      "abc123",
		Status:      "running",
	})
	if err != nil {
		t.Fatalf("CreateDeploy error: %v", err)
	}
	if created.ID == "" || created.Status != entity.DeployStatusRunning {
		t.Fatalf("unexpected record: %+v", created)
	}

	records, err := cli.ListDeploys(ctx, 5, "svc-a")
	if err != nil {
		t.Fatalf("ListDeploys error: %v", err)
	}
	if len(records) != 1 || records[0].ID != created.ID {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestCreateDeployAPIError(t *testing.T) {
	cli := newTestClient(t)

	_, err := cli.CreateDeploy(context.Background(), &entity.DeployPayload{Title: "deploy"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != 400 || apiErr.Message != "projectName is required" {
		t.Errorf("unexpected APIError: %+v", apiErr)
	}
}

func TestNewNormalisesURL(t *testing.T) {
	cli, err := New("localhost:9000/", 0)
	if err != nil {
		t.Fatal(err)
	}
	if cli.baseURL != "http://localhost:9000" {
		t.Errorf("baseURL = %q", cli.baseURL)
	}
}
