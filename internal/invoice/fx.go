package invoice

import (
	"github.com/kilatlabs/nusabill/internal/invoice/repository"
	"github.com/kilatlabs/nusabill/internal/invoice/service"
	"go.uber.org/fx"
)

// Module wires the invoice billing engine.
var Module = fx.Module("invoice",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
