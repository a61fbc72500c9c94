package notification

import (
	"github.com/kilatlabs/nusabill/internal/config"
	"github.com/kilatlabs/nusabill/internal/notification/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewDispatcher(cfg config.Config, log *zap.Logger) (domain.Dispatcher, error) {
	if !cfg.Notification.Enabled {
		return NewNoopDispatcher(), nil
	}
	return NewPostmarkDispatcher(cfg.Notification, log)
}

var Module = fx.Module("notification",
	fx.Provide(NewDispatcher),
)
