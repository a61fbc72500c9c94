package migration

import (
	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/kilatlabs/nusabill/internal/catalog/domain"
	"github.com/kilatlabs/nusabill/internal/config"
	identitydomain "github.com/kilatlabs/nusabill/internal/identity/domain"
	invoicedomain "github.com/kilatlabs/nusabill/internal/invoice/domain"
	organizationdomain "github.com/kilatlabs/nusabill/internal/organization/domain"
	paymentdomain "github.com/kilatlabs/nusabill/internal/payment/domain"
	regiondomain "github.com/kilatlabs/nusabill/internal/region/domain"
	"github.com/kilatlabs/nusabill/internal/seed"
	subscriptiondomain "github.com/kilatlabs/nusabill/internal/subscription/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func autoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&regiondomain.Province{},
		&regiondomain.Regency{},
		&regiondomain.District{},
		&regiondomain.Village{},
		&catalogdomain.SubscriptionPackage{},
		&organizationdomain.Organization{},
		&subscriptiondomain.Subscription{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&invoicedomain.InvoiceCounter{},
		&paymentdomain.Payment{},
		&paymentdomain.PaymentRefund{},
		&identitydomain.User{},
		&identitydomain.UserRole{},
	)
}

var Module = fx.Module("migrations",
	fx.Invoke(func(cfg config.Config, conn *gorm.DB, genID *snowflake.Node) error {
		// The migration files are written for postgres. Other dialects
		// fall back to gorm's schema sync.
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else if err := autoMigrate(conn); err != nil {
			return err
		}

		return seed.EnsureDefaultPackages(conn, genID)
	}),
)
