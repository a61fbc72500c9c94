// Package domain contains the subscription model and the lifecycle rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/kilatlabs/nusabill/internal/catalog/domain"
	"gorm.io/datatypes"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "TRIAL"
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusSuspended SubscriptionStatus = "SUSPENDED"
	SubscriptionStatusExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition may leave the status.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusExpired || s == SubscriptionStatusCancelled
}

type BillingInterval string

const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalYearly  BillingInterval = "yearly"
)

// Subscription captures a tenant's billing agreement. Tier fields are a value
// copy of the package taken at creation time; later catalog edits never reach
// an existing subscription.
type Subscription struct {
	ID              snowflake.ID       `gorm:"primaryKey"`
	OrgID           snowflake.ID       `gorm:"not null;uniqueIndex:ux_subscriptions_org"`
	PackageID       snowflake.ID       `gorm:"not null;index"`
	TierName        string             `gorm:"type:text;not null"`
	MonthlyPrice    int64              `gorm:"not null"`
	YearlyPrice     int64              `gorm:"not null"`
	Limits          datatypes.JSONMap  `gorm:"type:jsonb"`
	Features        datatypes.JSONMap  `gorm:"type:jsonb"`
	BillingInterval BillingInterval    `gorm:"type:text;not null;default:'monthly'"`
	Status          SubscriptionStatus `gorm:"type:text;not null"`
	StartDate       time.Time          `gorm:"not null"`
	EndDate         time.Time          `gorm:"not null"`
	NextBillingAt   *time.Time         `gorm:""`
	CreatedAt       time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// PeriodPrice returns the amount owed for one billing period.
func (s Subscription) PeriodPrice() int64 {
	if s.BillingInterval == IntervalYearly {
		return s.YearlyPrice
	}
	return s.MonthlyPrice
}

// NextPeriodEnd returns the billing-cycle boundary following from.
func (s Subscription) NextPeriodEnd(from time.Time) time.Time {
	if s.BillingInterval == IntervalYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}

// NewTrial builds a TRIAL subscription from a catalog package, copying the
// tier fields so the agreement is insulated from catalog changes. The trial
// window comes from the package; defaultTrialDays applies when it sets none.
func NewTrial(genID *snowflake.Node, orgID snowflake.ID, pkg catalogdomain.SubscriptionPackage, interval BillingInterval, defaultTrialDays int, now time.Time) Subscription {
	trialDays := pkg.TrialDays
	if trialDays <= 0 {
		trialDays = defaultTrialDays
	}
	if interval != IntervalYearly {
		interval = IntervalMonthly
	}

	return Subscription{
		ID:              genID.Generate(),
		OrgID:           orgID,
		PackageID:       pkg.ID,
		TierName:        pkg.Tier,
		MonthlyPrice:    pkg.MonthlyPrice,
		YearlyPrice:     pkg.YearlyPrice,
		Limits:          pkg.Limits,
		Features:        pkg.Features,
		BillingInterval: interval,
		Status:          SubscriptionStatusTrial,
		StartDate:       now,
		EndDate:         now.AddDate(0, 0, trialDays),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
