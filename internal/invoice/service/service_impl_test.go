package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/kilatlabs/nusabill/internal/clock"
	"github.com/kilatlabs/nusabill/internal/config"
	invoicedomain "github.com/kilatlabs/nusabill/internal/invoice/domain"
	invoicerepo "github.com/kilatlabs/nusabill/internal/invoice/repository"
	invoiceservice "github.com/kilatlabs/nusabill/internal/invoice/service"
	"github.com/kilatlabs/nusabill/internal/notification"
	organizationdomain "github.com/kilatlabs/nusabill/internal/organization/domain"
	organizationrepo "github.com/kilatlabs/nusabill/internal/organization/repository"
	subscriptiondomain "github.com/kilatlabs/nusabill/internal/subscription/domain"
	subscriptionrepo "github.com/kilatlabs/nusabill/internal/subscription/repository"
	subscriptionservice "github.com/kilatlabs/nusabill/internal/subscription/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	node   *snowflake.Node
	clk    *clock.FakeClock
	subSvc subscriptiondomain.Service
	svc    invoicedomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&organizationdomain.Organization{},
		&subscriptiondomain.Subscription{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&invoicedomain.InvoiceCounter{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	cfg := config.Config{
		Billing: config.BillingConfig{Currency: "IDR", GraceDays: 7, DefaultTrialDays: 14},
	}

	subSvc := subscriptionservice.NewService(db, subscriptionrepo.NewRepository(), clk, zap.NewNop())
	svc := invoiceservice.NewService(
		db,
		invoicerepo.NewRepository(),
		subSvc,
		organizationrepo.Provide(),
		notification.NewNoopDispatcher(),
		cfg,
		clk,
		node,
		zap.NewNop(),
	)

	return &fixture{db: db, node: node, clk: clk, subSvc: subSvc, svc: svc}
}

func (f *fixture) seedTrial(t *testing.T) *subscriptiondomain.Subscription {
	t.Helper()

	org := &organizationdomain.Organization{
		ID:           f.node.Generate(),
		Code:         "toko-maju",
		Name:         "Toko Maju",
		ContactEmail: "owner@tokomaju.id",
		ProvinceID:   f.node.Generate(),
		RegencyID:    f.node.Generate(),
		DistrictID:   f.node.Generate(),
		VillageID:    f.node.Generate(),
		Status:       organizationdomain.OrganizationStatusActive,
	}
	require.NoError(t, f.db.Create(org).Error)

	now := f.clk.Now()
	sub := &subscriptiondomain.Subscription{
		ID:              f.node.Generate(),
		OrgID:           org.ID,
		PackageID:       f.node.Generate(),
		TierName:        "growth",
		MonthlyPrice:    149000,
		YearlyPrice:     1490000,
		BillingInterval: subscriptiondomain.IntervalMonthly,
		Status:          subscriptiondomain.SubscriptionStatusTrial,
		StartDate:       now,
		EndDate:         now.AddDate(0, 0, 14),
	}
	require.NoError(t, f.db.Create(sub).Error)
	return sub
}

func TestGenerateInvoice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.seedTrial(t)

	inv, err := f.svc.Generate(ctx, sub.ID, sub.StartDate, sub.EndDate)
	require.NoError(t, err)

	assert.Equal(t, invoicedomain.InvoiceStatusPending, inv.Status)
	assert.Equal(t, int64(149000), inv.Total)
	assert.Equal(t, "IDR", inv.Currency)
	assert.Equal(t, f.clk.Now().AddDate(0, 0, 7), inv.DueAt)
	assert.Equal(t, invoicedomain.FormatNumber(sub.OrgID, 2025, 1), inv.Number)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, inv.Total, inv.Items[0].Amount)
}

func TestGenerateInvoiceRejectsDuplicatePeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.seedTrial(t)

	_, err := f.svc.Generate(ctx, sub.ID, sub.StartDate, sub.EndDate)
	require.NoError(t, err)

	_, err = f.svc.Generate(ctx, sub.ID, sub.StartDate, sub.EndDate)
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceExistsForPeriod)

	var count int64
	require.NoError(t, f.db.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGenerateInvoiceAllowsReplacementAfterCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.seedTrial(t)

	first, err := f.svc.Generate(ctx, sub.ID, sub.StartDate, sub.EndDate)
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(ctx, first.ID))

	second, err := f.svc.Generate(ctx, sub.ID, sub.StartDate, sub.EndDate)
	require.NoError(t, err)
	assert.NotEqual(t, first.Number, second.Number)
}

func TestMarkCompletedOnlyFromProcessing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.seedTrial(t)

	inv, err := f.svc.Generate(ctx, sub.ID, sub.StartDate, sub.EndDate)
	require.NoError(t, err)

	err = f.svc.MarkCompleted(ctx, inv.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidInvoiceTransition)

	var invalid *invoicedomain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, invoicedomain.InvoiceStatusCompleted, invalid.Attempted)
	assert.Equal(t, invoicedomain.InvoiceStatusPending, invalid.Actual)
}

func TestInvoiceCompletionActivatesTrial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.seedTrial(t)

	inv, err := f.svc.Generate(ctx, sub.ID, sub.StartDate, sub.EndDate)
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkSent(ctx, inv.ID))
	require.NoError(t, f.svc.MarkProcessing(ctx, inv.ID))
	require.NoError(t, f.svc.MarkCompleted(ctx, inv.ID))

	got, err := f.svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusCompleted, got.Status)
	require.NotNil(t, got.PaidAt)

	refreshed, err := f.subSvc.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusActive, refreshed.Status)
}

func TestMarkFailedSuspendsActiveSubscription(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.seedTrial(t)
	require.NoError(t, f.db.Model(&subscriptiondomain.Subscription{}).
		Where("id = ?", sub.ID).
		Update("status", subscriptiondomain.SubscriptionStatusActive).Error)

	inv, err := f.svc.Generate(ctx, sub.ID, sub.StartDate, sub.EndDate)
	require.NoError(t, err)
	require.NoError(t, f.svc.MarkSent(ctx, inv.ID))
	require.NoError(t, f.svc.MarkProcessing(ctx, inv.ID))
	require.NoError(t, f.svc.MarkFailed(ctx, inv.ID))

	refreshed, err := f.subSvc.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusSuspended, refreshed.Status)
}

func TestTransitionIdempotentAtTarget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.seedTrial(t)

	inv, err := f.svc.Generate(ctx, sub.ID, sub.StartDate, sub.EndDate)
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkSent(ctx, inv.ID))
	require.NoError(t, f.svc.MarkSent(ctx, inv.ID))

	got, err := f.svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, got.Status)
}

func TestGenerateInvoiceNumbersAreSequentialPerOrg(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.seedTrial(t)

	first, err := f.svc.Generate(ctx, sub.ID, sub.StartDate, sub.EndDate)
	require.NoError(t, err)

	nextStart := sub.EndDate
	nextEnd := nextStart.AddDate(0, 1, 0)
	second, err := f.svc.Generate(ctx, sub.ID, nextStart, nextEnd)
	require.NoError(t, err)

	assert.Equal(t, invoicedomain.FormatNumber(sub.OrgID, 2025, 1), first.Number)
	assert.Equal(t, invoicedomain.FormatNumber(sub.OrgID, 2025, 2), second.Number)
}
