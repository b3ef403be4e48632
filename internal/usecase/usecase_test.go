package usecase

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/yz4230/deployboard/internal/config"
	"github.com/yz4230/deployboard/internal/entity"
	"github.com/yz4230/deployboard/internal/notify"
	"github.com/yz4230/deployboard/internal/repository"
	"github.com/yz4230/deployboard/internal/retention"
)

func testContext() context.Context {
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	return logger.WithContext(context.Background())
}

func newTestInjector(t *testing.T, cfg *config.Config) *do.Injector {
	t.Helper()
	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, retention.Default())
	do.Provide(injector, func(i *do.Injector) (repository.DeployRepository, error) {
		return repository.NewChain(repository.Sink{Repo: repository.NewMemoryRepository(retention.Default())}), nil
	})
	do.Provide(injector, func(i *do.Injector) (*notify.Relay, error) {
		return notify.NewRelay(cfg.NotifyURL, time.Second), nil
	})
	do.Provide(injector, NewCreateDeployUsecase)
	do.Provide(injector, NewListDeployUsecase)
	do.Provide(injector, NewListProjectsUsecase)
	do.Provide(injector, NewCleanDataUsecase)
	do.Provide(injector, NewSendNotificationUsecase)
	t.Cleanup(func() { injector.Shutdown() })
	return injector
}

func payload(project string) *entity.DeployPayload {
	return &entity.DeployPayload{
		Title:       "deploy",
		ProjectName: project,
		Operator:    "alice",
		Environment: "prod",
		Branch:      "main",
		Commit:      "abc123",
		Status:      "success",
	}
}
