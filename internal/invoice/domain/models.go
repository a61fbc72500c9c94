// Package domain contains the invoice model and its lifecycle rules.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/kilatlabs/nusabill/internal/subscription/domain"
)

// InvoiceStatus represents lifecycle states for an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusPending       InvoiceStatus = "PENDING"
	InvoiceStatusSent          InvoiceStatus = "SENT"
	InvoiceStatusProcessing    InvoiceStatus = "PROCESSING"
	InvoiceStatusCompleted     InvoiceStatus = "COMPLETED"
	InvoiceStatusFailed        InvoiceStatus = "FAILED"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
	InvoiceStatusPartialRefund InvoiceStatus = "PARTIAL_REFUND"
	InvoiceStatusRefunded      InvoiceStatus = "REFUNDED"
)

// IsVoid reports whether the invoice instance is dead. A void invoice does
// not block generating a replacement for the same period.
func (s InvoiceStatus) IsVoid() bool {
	return s == InvoiceStatusFailed || s == InvoiceStatusCancelled
}

// Invoice bills one period of a subscription. Total is in integral minor
// currency units and always equals the sum of the line items.
type Invoice struct {
	ID             snowflake.ID  `gorm:"primaryKey"`
	OrgID          snowflake.ID  `gorm:"not null;index"`
	SubscriptionID snowflake.ID  `gorm:"not null;index:idx_invoices_subscription_period"`
	Number         string        `gorm:"type:text;not null;uniqueIndex:ux_invoices_number"`
	PeriodStart    time.Time     `gorm:"not null;index:idx_invoices_subscription_period"`
	PeriodEnd      time.Time     `gorm:"not null"`
	Currency       string        `gorm:"type:text;not null"`
	Total          int64         `gorm:"not null"`
	Status         InvoiceStatus `gorm:"type:text;not null"`
	IssuedAt       time.Time     `gorm:"not null"`
	DueAt          time.Time     `gorm:"not null"`
	PaidAt         *time.Time    `gorm:""`
	Items          []InvoiceItem `gorm:"foreignKey:InvoiceID"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is one line of an invoice. Items never change after the parent
// invoice leaves DRAFT.
type InvoiceItem struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	InvoiceID   snowflake.ID `gorm:"not null;index"`
	Description string       `gorm:"type:text;not null"`
	Quantity    int64        `gorm:"not null"`
	UnitPrice   int64        `gorm:"not null"`
	Amount      int64        `gorm:"not null"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// InvoiceCounter allocates invoice numbers per organization and year.
type InvoiceCounter struct {
	OrgID snowflake.ID `gorm:"primaryKey"`
	Year  int          `gorm:"primaryKey"`
	Seq   int64        `gorm:"not null"`
}

// TableName sets the database table name.
func (InvoiceCounter) TableName() string { return "invoice_counters" }

// FormatNumber renders an invoice number from a counter allocation.
func FormatNumber(orgID snowflake.ID, year int, seq int64) string {
	return fmt.Sprintf("INV-%d-%d-%05d", year, orgID, seq)
}

// NewForPeriod builds a DRAFT invoice for one billing period from the
// subscription's tier snapshot. The total is the exact sum of the line items.
func NewForPeriod(genID *snowflake.Node, sub subscriptiondomain.Subscription, number, currency string, periodStart, periodEnd, now time.Time, graceDays int) Invoice {
	id := genID.Generate()
	item := InvoiceItem{
		ID:        genID.Generate(),
		InvoiceID: id,
		Description: fmt.Sprintf("%s plan (%s) %s - %s",
			sub.TierName, sub.BillingInterval,
			periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02")),
		Quantity:  1,
		UnitPrice: sub.PeriodPrice(),
		Amount:    sub.PeriodPrice(),
		CreatedAt: now,
	}

	return Invoice{
		ID:             id,
		OrgID:          sub.OrgID,
		SubscriptionID: sub.ID,
		Number:         number,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		Currency:       currency,
		Total:          item.Amount,
		Status:         InvoiceStatusDraft,
		IssuedAt:       now,
		DueAt:          now.AddDate(0, 0, graceDays),
		Items:          []InvoiceItem{item},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ItemsTotal sums the line items.
func (i Invoice) ItemsTotal() int64 {
	var total int64
	for _, item := range i.Items {
		total += item.Amount
	}
	return total
}
