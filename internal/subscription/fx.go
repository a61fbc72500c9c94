package subscription

import (
	"github.com/kilatlabs/nusabill/internal/subscription/repository"
	"github.com/kilatlabs/nusabill/internal/subscription/service"
	"go.uber.org/fx"
)

// Module wires the subscription lifecycle component.
var Module = fx.Module("subscription",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
