package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidPaymentID     = errors.New("invalid_payment_id")
	ErrPaymentNotFound      = errors.New("payment_not_found")
	ErrInvalidAmount        = errors.New("invalid_payment_amount")
	ErrInvalidMethod        = errors.New("invalid_payment_method")
	ErrInvoiceNotPayable    = errors.New("invoice_not_payable")
	ErrPaymentNotPending    = errors.New("payment_not_pending")
	ErrRefundNotAllowed     = errors.New("refund_not_allowed")
	ErrRefundExceedsBalance = errors.New("refund_exceeds_balance")
	ErrRefundConflict       = errors.New("refund_conflict")
	ErrTransitionConflict   = errors.New("payment_transition_conflict")
)

// Repository persists payments and their refund log. Every method takes the
// *gorm.DB to run against so callers can enroll operations in a surrounding
// transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, p *Payment) error
	InsertRefund(ctx context.Context, db *gorm.DB, r *PaymentRefund) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	ListByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]Payment, error)
	ListRefunds(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]PaymentRefund, error)
	// CompareAndSwapStatus moves the payment from expected to target only
	// when the stored status still equals expected.
	CompareAndSwapStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, expected, target PaymentStatus, completedAt *time.Time, updatedAt time.Time) (bool, error)
	// ApplyRefund advances the refund accumulator conditioned on its prior
	// value, so two simultaneous refunds cannot both apply.
	ApplyRefund(ctx context.Context, db *gorm.DB, id snowflake.ID, prevRefunded, newRefunded int64, status PaymentStatus, updatedAt time.Time) (bool, error)
	// SumSettled totals the amounts of the invoice's settled payments.
	SumSettled(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (int64, error)
	// CountSettled counts the invoice's settled payments.
	CountSettled(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (int64, error)
}

// Service is the payment ledger. It records settlement attempts and refunds
// against invoices and pushes the resulting invoice transitions.
type Service interface {
	// RecordPayment opens a PENDING payment against an invoice in SENT or
	// PROCESSING. Recording against a SENT invoice moves it to PROCESSING.
	RecordPayment(ctx context.Context, invoiceID snowflake.ID, amount int64, method string) (*Payment, error)

	// CompletePayment settles a PENDING payment. When the invoice's
	// cumulative settled total reaches its amount the invoice is completed.
	CompletePayment(ctx context.Context, id snowflake.ID) (*Payment, error)

	// FailPayment voids a PENDING payment. The invoice stays collectible;
	// a re-attempt records a new payment.
	FailPayment(ctx context.Context, id snowflake.ID) error

	// Refund applies a partial or full refund against a settled payment and
	// mirrors the resulting state onto the invoice.
	Refund(ctx context.Context, id snowflake.ID, amount int64, reason, actor string) (*Payment, error)

	GetByID(ctx context.Context, id snowflake.ID) (*Payment, error)
	ListByInvoice(ctx context.Context, invoiceID snowflake.ID) ([]Payment, error)
	ListRefunds(ctx context.Context, paymentID snowflake.ID) ([]PaymentRefund, error)
}
