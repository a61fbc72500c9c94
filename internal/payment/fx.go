package payment

import (
	"github.com/kilatlabs/nusabill/internal/payment/repository"
	"github.com/kilatlabs/nusabill/internal/payment/service"
	"go.uber.org/fx"
)

// Module wires the payment ledger.
var Module = fx.Module("payment",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
