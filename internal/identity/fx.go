package identity

import (
	"github.com/kilatlabs/nusabill/internal/identity/repository"
	"github.com/kilatlabs/nusabill/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
