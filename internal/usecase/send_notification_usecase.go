package usecase

import (
	"context"
	"strings"

	"github.com/samber/do"
	"github.com/yz4230/deployboard/internal/config"
	"github.com/yz4230/deployboard/internal/entity"
	"github.com/yz4230/deployboard/internal/notify"
)

type SendNotificationUsecase interface {
	Execute(ctx context.Context, msg *notify.Message) (*notify.Result, error)
}

type sendNotificationUsecaseImpl struct {
	relay            *notify.Relay
	allowURLOverride bool
}

// Execute implements SendNotificationUsecase.
func (s *sendNotificationUsecaseImpl) Execute(ctx context.Context, msg *notify.Message) (*notify.Result, error) {
	if strings.TrimSpace(msg.Text) == "" {
		return nil, &entity.ValidationError{Field: "text", Reason: "is required"}
	}
	endpoint := ""
	if s.allowURLOverride {
		endpoint = strings.TrimSpace(msg.URL)
	}
	return s.relay.Send(ctx, endpoint, msg)
}

func NewSendNotificationUsecase(injector *do.Injector) (SendNotificationUsecase, error) {
	return &sendNotificationUsecaseImpl{
		relay:            do.MustInvoke[*notify.Relay](injector),
		allowURLOverride: do.MustInvoke[*config.Config](injector).NotifyAllowURLOverride,
	}, nil
}
