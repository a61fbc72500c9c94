// Package domain contains the payment ledger model and refund rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PaymentStatus represents lifecycle states for a payment.
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusCompleted     PaymentStatus = "COMPLETED"
	PaymentStatusFailed        PaymentStatus = "FAILED"
	PaymentStatusPartialRefund PaymentStatus = "PARTIAL_REFUND"
	PaymentStatusRefunded      PaymentStatus = "REFUNDED"
)

// IsSettled reports whether the payment reached COMPLETED at some point,
// including payments later refunded in part or full.
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentStatusCompleted ||
		s == PaymentStatusPartialRefund ||
		s == PaymentStatusRefunded
}

// Payment records one settlement attempt against an invoice. Amounts are in
// integral minor currency units. RefundedAmount only grows and never exceeds
// Amount; status follows it: REFUNDED iff fully refunded, PARTIAL_REFUND iff
// partially.
type Payment struct {
	ID             snowflake.ID  `gorm:"primaryKey"`
	InvoiceID      snowflake.ID  `gorm:"not null;index"`
	Amount         int64         `gorm:"not null"`
	Method         string        `gorm:"type:text;not null"`
	Status         PaymentStatus `gorm:"type:text;not null"`
	RefundedAmount int64         `gorm:"not null;default:0"`
	CompletedAt    *time.Time    `gorm:""`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// MaxRefundable returns the balance still open to refunds.
func (p Payment) MaxRefundable() int64 { return p.Amount - p.RefundedAmount }

// PaymentRefund is one entry of a payment's append-only refund log.
type PaymentRefund struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	PaymentID snowflake.ID `gorm:"not null;index"`
	Amount    int64        `gorm:"not null"`
	Reason    string       `gorm:"type:text;not null"`
	Actor     string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PaymentRefund) TableName() string { return "payment_refunds" }

// StatusForRefund derives the payment status from the refund accumulator.
func StatusForRefund(amount, refunded int64) PaymentStatus {
	switch {
	case refunded == amount:
		return PaymentStatusRefunded
	case refunded > 0:
		return PaymentStatusPartialRefund
	default:
		return PaymentStatusCompleted
	}
}
