package domain_test

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kilatlabs/nusabill/internal/invoice/domain"
	subscriptiondomain "github.com/kilatlabs/nusabill/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransitionAllowed(t *testing.T) {
	allowed := []struct {
		current domain.InvoiceStatus
		target  domain.InvoiceStatus
	}{
		{domain.InvoiceStatusDraft, domain.InvoiceStatusPending},
		{domain.InvoiceStatusPending, domain.InvoiceStatusSent},
		{domain.InvoiceStatusPending, domain.InvoiceStatusCancelled},
		{domain.InvoiceStatusSent, domain.InvoiceStatusProcessing},
		{domain.InvoiceStatusSent, domain.InvoiceStatusCancelled},
		{domain.InvoiceStatusProcessing, domain.InvoiceStatusCompleted},
		{domain.InvoiceStatusProcessing, domain.InvoiceStatusFailed},
		{domain.InvoiceStatusProcessing, domain.InvoiceStatusCancelled},
		{domain.InvoiceStatusCompleted, domain.InvoiceStatusPartialRefund},
		{domain.InvoiceStatusCompleted, domain.InvoiceStatusRefunded},
		{domain.InvoiceStatusPartialRefund, domain.InvoiceStatusRefunded},
	}
	for _, tc := range allowed {
		assert.True(t, domain.IsTransitionAllowed(tc.current, tc.target),
			"%s -> %s should be allowed", tc.current, tc.target)
	}

	denied := []struct {
		current domain.InvoiceStatus
		target  domain.InvoiceStatus
	}{
		{domain.InvoiceStatusDraft, domain.InvoiceStatusSent},
		{domain.InvoiceStatusPending, domain.InvoiceStatusCompleted},
		{domain.InvoiceStatusSent, domain.InvoiceStatusCompleted},
		{domain.InvoiceStatusCompleted, domain.InvoiceStatusCancelled},
		{domain.InvoiceStatusFailed, domain.InvoiceStatusProcessing},
		{domain.InvoiceStatusCancelled, domain.InvoiceStatusPending},
		{domain.InvoiceStatusRefunded, domain.InvoiceStatusCompleted},
		{domain.InvoiceStatusPartialRefund, domain.InvoiceStatusCompleted},
	}
	for _, tc := range denied {
		assert.False(t, domain.IsTransitionAllowed(tc.current, tc.target),
			"%s -> %s should be denied", tc.current, tc.target)
	}
}

func TestIsVoid(t *testing.T) {
	assert.True(t, domain.InvoiceStatusFailed.IsVoid())
	assert.True(t, domain.InvoiceStatusCancelled.IsVoid())
	assert.False(t, domain.InvoiceStatusCompleted.IsVoid())
	assert.False(t, domain.InvoiceStatusRefunded.IsVoid())
	assert.False(t, domain.InvoiceStatusPending.IsVoid())
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "INV-2025-42-00007", domain.FormatNumber(snowflake.ID(42), 2025, 7))
	assert.Equal(t, "INV-2026-42-12345", domain.FormatNumber(snowflake.ID(42), 2026, 12345))
}

func TestNewForPeriod(t *testing.T) {
	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	periodStart := now
	periodEnd := now.AddDate(0, 1, 0)
	sub := subscriptiondomain.Subscription{
		ID:              node.Generate(),
		OrgID:           node.Generate(),
		TierName:        "growth",
		MonthlyPrice:    149000,
		YearlyPrice:     1490000,
		BillingInterval: subscriptiondomain.IntervalMonthly,
	}

	inv := domain.NewForPeriod(node, sub, "INV-2025-1-00001", "IDR", periodStart, periodEnd, now, 7)

	assert.Equal(t, domain.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, sub.OrgID, inv.OrgID)
	assert.Equal(t, sub.ID, inv.SubscriptionID)
	assert.Equal(t, int64(149000), inv.Total)
	assert.Equal(t, inv.Total, inv.ItemsTotal())
	assert.Equal(t, now.AddDate(0, 0, 7), inv.DueAt)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, inv.ID, inv.Items[0].InvoiceID)
	assert.Contains(t, inv.Items[0].Description, "growth plan")
}
