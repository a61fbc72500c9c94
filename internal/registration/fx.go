package registration

import (
	"github.com/kilatlabs/nusabill/internal/registration/service"
	"go.uber.org/fx"
)

// Module wires the registration orchestrator.
var Module = fx.Module("registration",
	fx.Provide(service.NewOrchestrator),
)
