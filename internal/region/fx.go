package region

import (
	"github.com/kilatlabs/nusabill/internal/region/service"
	"go.uber.org/fx"
)

var Module = fx.Module("region.directory",
	fx.Provide(service.NewDirectory),
)
