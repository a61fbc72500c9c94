package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/kilatlabs/nusabill/internal/catalog"
	"github.com/kilatlabs/nusabill/internal/clock"
	"github.com/kilatlabs/nusabill/internal/config"
	"github.com/kilatlabs/nusabill/internal/identity"
	"github.com/kilatlabs/nusabill/internal/invoice"
	"github.com/kilatlabs/nusabill/internal/logger"
	"github.com/kilatlabs/nusabill/internal/migration"
	"github.com/kilatlabs/nusabill/internal/notification"
	"github.com/kilatlabs/nusabill/internal/organization"
	"github.com/kilatlabs/nusabill/internal/payment"
	"github.com/kilatlabs/nusabill/internal/region"
	"github.com/kilatlabs/nusabill/internal/registration"
	"github.com/kilatlabs/nusabill/internal/scheduler"
	"github.com/kilatlabs/nusabill/internal/server"
	"github.com/kilatlabs/nusabill/internal/subscription"
	"github.com/kilatlabs/nusabill/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Billing domains
		catalog.Module,
		identity.Module,
		region.Module,
		organization.Module,
		notification.Module,
		subscription.Module,
		invoice.Module,
		payment.Module,
		registration.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
