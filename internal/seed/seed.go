// Package seed makes a fresh installation usable: a database with no
// catalog rows cannot register anyone.
package seed

import (
	"errors"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/kilatlabs/nusabill/internal/catalog/domain"
	pkgdb "github.com/kilatlabs/nusabill/pkg/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnsureDefaultPackages inserts the starter catalog when it is missing.
// Existing rows are left untouched, so operators can edit prices freely.
func EnsureDefaultPackages(db *gorm.DB, genID *snowflake.Node) error {
	for _, pkg := range defaultPackages() {
		var existing catalogdomain.SubscriptionPackage
		err := db.Where("code = ?", pkg.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		pkg.ID = genID.Generate()
		if err := db.Create(&pkg).Error; err != nil && !pkgdb.IsDuplicateKeyErr(err) {
			return err
		}
	}
	return nil
}

func defaultPackages() []catalogdomain.SubscriptionPackage {
	return []catalogdomain.SubscriptionPackage{
		{
			Code:         "starter",
			Name:         "Starter",
			Tier:         "starter",
			MonthlyPrice: 49000,
			YearlyPrice:  490000,
			TrialDays:    14,
			Limits:       datatypes.JSONMap{"members": 5, "storage_gb": 1},
			Features:     datatypes.JSONMap{"reports": false, "api_access": false},
			Active:       true,
		},
		{
			Code:         "growth",
			Name:         "Growth",
			Tier:         "growth",
			MonthlyPrice: 149000,
			YearlyPrice:  1490000,
			TrialDays:    14,
			Limits:       datatypes.JSONMap{"members": 25, "storage_gb": 10},
			Features:     datatypes.JSONMap{"reports": true, "api_access": false},
			Active:       true,
		},
		{
			Code:         "enterprise",
			Name:         "Enterprise",
			Tier:         "enterprise",
			MonthlyPrice: 499000,
			YearlyPrice:  4990000,
			TrialDays:    30,
			Limits:       datatypes.JSONMap{"members": 0, "storage_gb": 100},
			Features:     datatypes.JSONMap{"reports": true, "api_access": true},
			Active:       true,
		},
	}
}
