package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists invoices. Every method takes the *gorm.DB to run
// against so callers can enroll operations in a surrounding transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, inv *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	ListByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]Invoice, error)
	// FindLiveForPeriod returns the invoice covering the period whose status
	// is not void, or nil when every prior attempt failed or was cancelled.
	FindLiveForPeriod(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, periodStart time.Time) (*Invoice, error)
	// NextNumber allocates the next invoice sequence for the org and year.
	NextNumber(ctx context.Context, db *gorm.DB, orgID snowflake.ID, year int) (int64, error)
	// CompareAndSwapStatus moves the invoice from expected to target only
	// when the stored status still equals expected. paidAt is written when
	// non-nil. It reports whether the row was updated.
	CompareAndSwapStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, expected, target InvoiceStatus, paidAt *time.Time, updatedAt time.Time) (bool, error)
}

// Service is the billing engine: it generates invoices and advances them
// through the status graph, feeding outcomes back into the subscription
// lifecycle.
type Service interface {
	// Generate builds the invoice for one billing period and leaves it in
	// PENDING. Regenerating a period already covered by a live invoice
	// fails with ErrInvoiceExistsForPeriod.
	Generate(ctx context.Context, subscriptionID snowflake.ID, periodStart, periodEnd time.Time) (*Invoice, error)

	GetByID(ctx context.Context, id snowflake.ID) (*Invoice, error)
	ListByOrg(ctx context.Context, orgID snowflake.ID) ([]Invoice, error)

	// Guarded transitions. Each rejects with InvalidTransitionError unless
	// the invoice is in a state the move is legal from; a call that finds
	// the invoice already at the target is a no-op.
	MarkSent(ctx context.Context, id snowflake.ID) error
	MarkProcessing(ctx context.Context, id snowflake.ID) error
	MarkCompleted(ctx context.Context, id snowflake.ID) error
	MarkFailed(ctx context.Context, id snowflake.ID) error
	Cancel(ctx context.Context, id snowflake.ID) error
}
