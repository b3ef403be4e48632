package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/yz4230/deployboard/internal/config"
	"github.com/yz4230/deployboard/internal/entity"
	"github.com/yz4230/deployboard/internal/notify"
	"github.com/yz4230/deployboard/internal/repository"
)

type CreateDeployUsecase interface {
	Execute(ctx context.Context, payload *entity.DeployPayload) (*entity.DeployRecord, error)
}

type createDeployUsecaseImpl struct {
	deployRepository repository.DeployRepository
	relay            *notify.Relay
	notifyOnCreate   bool
	now              func() time.Time
}

// Execute implements CreateDeployUsecase.
func (c *createDeployUsecaseImpl) Execute(ctx context.Context, payload *entity.DeployPayload) (*entity.DeployRecord, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	rec := payload.ToRecord(entity.NewID(), c.now())
	if err := c.deployRepository.Put(ctx, rec); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("id", rec.ID.String()).
		Str("project", rec.ProjectName).
		Str("status", string(rec.Status)).
		Msg("deploy recorded")

	if c.notifyOnCreate && c.relay.Enabled() {
		go c.announce(*zerolog.Ctx(ctx), rec)
	}
	return rec, nil
}

// announce runs detached from the request, so it carries its own deadline.
func (c *createDeployUsecaseImpl) announce(log zerolog.Logger, rec *entity.DeployRecord) {
	ctx, cancel := context.WithTimeout(log.WithContext(context.Background()), 10*time.Second)
	defer cancel()

	res, err := c.relay.Send(ctx, "", notify.DeployMessage(rec))
	if err != nil {
		log.Warn().Err(err).Str("id", rec.ID.String()).Msg("deploy notification failed")
		return
	}
	if !res.OK {
		log.Warn().Str("id", rec.ID.String()).Str("response", res.Text).Msg("deploy notification rejected")
	}
}

func NewCreateDeployUsecase(injector *do.Injector) (CreateDeployUsecase, error) {
	cfg := do.MustInvoke[*config.Config](injector)
	return &createDeployUsecaseImpl{
		deployRepository: do.MustInvoke[repository.DeployRepository](injector),
		relay:            do.MustInvoke[*notify.Relay](injector),
		notifyOnCreate:   cfg.NotifyOnDeploy,
		now:              time.Now,
	}, nil
}
