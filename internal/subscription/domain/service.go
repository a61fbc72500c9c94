package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidSubscriptionID = errors.New("invalid_subscription_id")
	ErrSubscriptionNotFound  = errors.New("subscription_not_found")
	ErrInvalidTransition     = errors.New("invalid_subscription_transition")
	ErrTransitionConflict    = errors.New("subscription_transition_conflict")
)

// Repository persists subscriptions. Every method takes the *gorm.DB to run
// against so callers can enroll operations in a surrounding transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sub *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindByOrgID(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*Subscription, error)
	// CompareAndSwapStatus writes status, end_date and next_billing_at only
	// when the stored status still equals expected. It reports whether the
	// row was updated.
	CompareAndSwapStatus(ctx context.Context, db *gorm.DB, sub *Subscription, expected SubscriptionStatus) (bool, error)
}

// Service drives subscription lifecycle transitions.
type Service interface {
	GetByID(ctx context.Context, id snowflake.ID) (*Subscription, error)
	GetByOrgID(ctx context.Context, orgID snowflake.ID) (*Subscription, error)

	// Transition applies an explicit move on the status graph. Requesting
	// the current status is a no-op.
	Transition(ctx context.Context, id snowflake.ID, target SubscriptionStatus, reason TransitionReason) error

	// Reevaluate loads the subscription and its latest invoice, derives the
	// next status and applies it. It reports whether a transition fired.
	Reevaluate(ctx context.Context, id snowflake.ID, now time.Time) (bool, error)

	Cancel(ctx context.Context, id snowflake.ID) error
}
