// Package domain contains persistence models for the subscription package catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SubscriptionPackage is an immutable tier definition. The billing engine
// reads it at subscription creation and snapshots the fields it needs; the
// catalog is never mutated by this engine.
type SubscriptionPackage struct {
	ID           snowflake.ID      `gorm:"primaryKey"`
	Code         string            `gorm:"type:text;not null;uniqueIndex:ux_subscription_packages_code"`
	Name         string            `gorm:"type:text;not null"`
	Tier         string            `gorm:"type:text;not null"`
	MonthlyPrice int64             `gorm:"not null"`
	YearlyPrice  int64             `gorm:"not null"`
	TrialDays    int               `gorm:"not null;default:14"`
	Limits       datatypes.JSONMap `gorm:"type:jsonb"`
	Features     datatypes.JSONMap `gorm:"type:jsonb"`
	Active       bool              `gorm:"not null;default:true"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (SubscriptionPackage) TableName() string { return "subscription_packages" }
