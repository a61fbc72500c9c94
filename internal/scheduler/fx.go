package scheduler

import (
	"context"

	"go.uber.org/fx"
)

// Module wires the reconciler and runs it for the lifetime of the app.
var Module = fx.Module("scheduler",
	fx.Provide(NewReconciler),
	fx.Invoke(registerHooks),
)

func registerHooks(lc fx.Lifecycle, r *Reconciler) {
	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go r.RunForever(runCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return nil
		},
	})
}
