package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/kilatlabs/nusabill/internal/clock"
	invoicedomain "github.com/kilatlabs/nusabill/internal/invoice/domain"
	subscriptiondomain "github.com/kilatlabs/nusabill/internal/subscription/domain"
	subscriptionrepo "github.com/kilatlabs/nusabill/internal/subscription/repository"
	subscriptionservice "github.com/kilatlabs/nusabill/internal/subscription/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&subscriptiondomain.Subscription{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	return node
}

func seedSubscription(t *testing.T, db *gorm.DB, node *snowflake.Node, status subscriptiondomain.SubscriptionStatus, endDate time.Time) *subscriptiondomain.Subscription {
	t.Helper()
	sub := &subscriptiondomain.Subscription{
		ID:              node.Generate(),
		OrgID:           node.Generate(),
		PackageID:       node.Generate(),
		TierName:        "growth",
		MonthlyPrice:    149000,
		YearlyPrice:     1490000,
		BillingInterval: subscriptiondomain.IntervalMonthly,
		Status:          status,
		StartDate:       endDate.AddDate(0, 0, -14),
		EndDate:         endDate,
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func seedInvoice(t *testing.T, db *gorm.DB, node *snowflake.Node, sub *subscriptiondomain.Subscription, status invoicedomain.InvoiceStatus, dueAt time.Time) *invoicedomain.Invoice {
	t.Helper()
	inv := &invoicedomain.Invoice{
		ID:             node.Generate(),
		OrgID:          sub.OrgID,
		SubscriptionID: sub.ID,
		Number:         "INV-TEST-" + node.Generate().String(),
		PeriodStart:    sub.StartDate,
		PeriodEnd:      sub.EndDate,
		Currency:       "IDR",
		Total:          149000,
		Status:         status,
		IssuedAt:       sub.StartDate,
		DueAt:          dueAt,
	}
	require.NoError(t, db.Create(inv).Error)
	return inv
}

func TestTransitionActivationOpensNewPeriod(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)

	svc := subscriptionservice.NewService(db, subscriptionrepo.NewRepository(), clk, zap.NewNop())
	sub := seedSubscription(t, db, node, subscriptiondomain.SubscriptionStatusTrial, now.AddDate(0, 0, 4))

	err := svc.Transition(ctx, sub.ID, subscriptiondomain.SubscriptionStatusActive, subscriptiondomain.ReasonFirstInvoicePaid)
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusActive, got.Status)
	assert.Equal(t, now.AddDate(0, 1, 0), got.EndDate.UTC())
	require.NotNil(t, got.NextBillingAt)
	assert.Equal(t, got.EndDate.UTC(), got.NextBillingAt.UTC())
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	clk := clock.NewFakeClock(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))

	svc := subscriptionservice.NewService(db, subscriptionrepo.NewRepository(), clk, zap.NewNop())
	sub := seedSubscription(t, db, node, subscriptiondomain.SubscriptionStatusTrial, clk.Now().AddDate(0, 0, 14))

	err := svc.Transition(ctx, sub.ID, subscriptiondomain.SubscriptionStatusSuspended, subscriptiondomain.ReasonInvoiceFailed)
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidTransition)

	// Requesting the current status is a no-op.
	err = svc.Transition(ctx, sub.ID, subscriptiondomain.SubscriptionStatusTrial, "")
	assert.NoError(t, err)
}

func TestReevaluateExpiresLapsedTrial(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)

	svc := subscriptionservice.NewService(db, subscriptionrepo.NewRepository(), clk, zap.NewNop())
	sub := seedSubscription(t, db, node, subscriptiondomain.SubscriptionStatusTrial, now.AddDate(0, 0, -1))

	applied, err := svc.Reevaluate(ctx, sub.ID, now)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := svc.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusExpired, got.Status)
	assert.Nil(t, got.NextBillingAt)
}

func TestReevaluateSuspendsOnOverdueInvoice(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)

	svc := subscriptionservice.NewService(db, subscriptionrepo.NewRepository(), clk, zap.NewNop())
	sub := seedSubscription(t, db, node, subscriptiondomain.SubscriptionStatusActive, now.AddDate(0, 0, 10))
	seedInvoice(t, db, node, sub, invoicedomain.InvoiceStatusPending, now.AddDate(0, 0, -2))

	applied, err := svc.Reevaluate(ctx, sub.ID, now)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := svc.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusSuspended, got.Status)
}

func TestReevaluateRecoversSuspendedOnCompletedInvoice(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	now := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)

	svc := subscriptionservice.NewService(db, subscriptionrepo.NewRepository(), clk, zap.NewNop())
	sub := seedSubscription(t, db, node, subscriptiondomain.SubscriptionStatusSuspended, now.AddDate(0, 0, 5))
	seedInvoice(t, db, node, sub, invoicedomain.InvoiceStatusCompleted, now.AddDate(0, 0, 5))

	applied, err := svc.Reevaluate(ctx, sub.ID, now)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := svc.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusActive, got.Status)
}

func seedRenewalInvoice(t *testing.T, db *gorm.DB, node *snowflake.Node, sub *subscriptiondomain.Subscription, status invoicedomain.InvoiceStatus, dueAt time.Time) *invoicedomain.Invoice {
	t.Helper()
	inv := &invoicedomain.Invoice{
		ID:             node.Generate(),
		OrgID:          sub.OrgID,
		SubscriptionID: sub.ID,
		Number:         "INV-TEST-" + node.Generate().String(),
		PeriodStart:    sub.EndDate,
		PeriodEnd:      sub.NextPeriodEnd(sub.EndDate),
		Currency:       "IDR",
		Total:          149000,
		Status:         status,
		IssuedAt:       sub.EndDate,
		DueAt:          dueAt,
	}
	require.NoError(t, db.Create(inv).Error)
	return inv
}

func TestReevaluateRenewsOnPaidRenewalInvoice(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	now := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)

	svc := subscriptionservice.NewService(db, subscriptionrepo.NewRepository(), clk, zap.NewNop())
	sub := seedSubscription(t, db, node, subscriptiondomain.SubscriptionStatusActive, now.AddDate(0, 0, -2))
	seedRenewalInvoice(t, db, node, sub, invoicedomain.InvoiceStatusCompleted, now.AddDate(0, 0, 5))

	applied, err := svc.Reevaluate(ctx, sub.ID, now)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := svc.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusActive, got.Status)
	assert.Equal(t, sub.EndDate.AddDate(0, 1, 0), got.EndDate.UTC())
	require.NotNil(t, got.NextBillingAt)
	assert.Equal(t, got.EndDate.UTC(), got.NextBillingAt.UTC())
}

func TestReevaluateHoldsOnOpenRenewalInvoice(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	now := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)

	svc := subscriptionservice.NewService(db, subscriptionrepo.NewRepository(), clk, zap.NewNop())
	sub := seedSubscription(t, db, node, subscriptiondomain.SubscriptionStatusActive, now.AddDate(0, 0, -2))
	seedRenewalInvoice(t, db, node, sub, invoicedomain.InvoiceStatusPending, now.AddDate(0, 0, 5))

	applied, err := svc.Reevaluate(ctx, sub.ID, now)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := svc.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusActive, got.Status)
	assert.Equal(t, sub.EndDate, got.EndDate.UTC())
}

func TestReevaluateHoldsOpenTrial(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)

	svc := subscriptionservice.NewService(db, subscriptionrepo.NewRepository(), clk, zap.NewNop())
	sub := seedSubscription(t, db, node, subscriptiondomain.SubscriptionStatusTrial, now.AddDate(0, 0, 7))

	applied, err := svc.Reevaluate(ctx, sub.ID, now)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestCancelFromActiveIsTerminal(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)

	svc := subscriptionservice.NewService(db, subscriptionrepo.NewRepository(), clk, zap.NewNop())
	sub := seedSubscription(t, db, node, subscriptiondomain.SubscriptionStatusActive, now.AddDate(0, 0, 20))

	require.NoError(t, svc.Cancel(ctx, sub.ID))

	got, err := svc.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusCancelled, got.Status)

	// Terminal: a completed invoice no longer revives it.
	seedInvoice(t, db, node, sub, invoicedomain.InvoiceStatusCompleted, now)
	applied, err := svc.Reevaluate(ctx, sub.ID, now)
	require.NoError(t, err)
	assert.False(t, applied)
}
