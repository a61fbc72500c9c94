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
	paymentdomain "github.com/kilatlabs/nusabill/internal/payment/domain"
	paymentrepo "github.com/kilatlabs/nusabill/internal/payment/repository"
	paymentservice "github.com/kilatlabs/nusabill/internal/payment/service"
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
	invSvc invoicedomain.Service
	svc    paymentdomain.Service
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
		&paymentdomain.Payment{},
		&paymentdomain.PaymentRefund{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	cfg := config.Config{
		Billing: config.BillingConfig{Currency: "IDR", GraceDays: 7, DefaultTrialDays: 14},
	}

	invRepo := invoicerepo.NewRepository()
	subSvc := subscriptionservice.NewService(db, subscriptionrepo.NewRepository(), clk, zap.NewNop())
	invSvc := invoiceservice.NewService(
		db,
		invRepo,
		subSvc,
		organizationrepo.Provide(),
		notification.NewNoopDispatcher(),
		cfg,
		clk,
		node,
		zap.NewNop(),
	)
	svc := paymentservice.NewService(db, paymentrepo.NewRepository(), invSvc, invRepo, clk, node, zap.NewNop())

	return &fixture{db: db, node: node, clk: clk, subSvc: subSvc, invSvc: invSvc, svc: svc}
}

// seedSentInvoice builds a trial subscription with one invoice advanced to
// SENT, the state payments are recorded against.
func (f *fixture) seedSentInvoice(t *testing.T, total int64) (*subscriptiondomain.Subscription, *invoicedomain.Invoice) {
	t.Helper()
	ctx := context.Background()

	org := &organizationdomain.Organization{
		ID:           f.node.Generate(),
		Code:         "warung-ser",
		Name:         "Warung Ser",
		ContactEmail: "owner@warungser.id",
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
		MonthlyPrice:    total,
		YearlyPrice:     total * 10,
		BillingInterval: subscriptiondomain.IntervalMonthly,
		Status:          subscriptiondomain.SubscriptionStatusTrial,
		StartDate:       now,
		EndDate:         now.AddDate(0, 0, 14),
	}
	require.NoError(t, f.db.Create(sub).Error)

	inv, err := f.invSvc.Generate(ctx, sub.ID, sub.StartDate, sub.EndDate)
	require.NoError(t, err)
	require.NoError(t, f.invSvc.MarkSent(ctx, inv.ID))
	return sub, inv
}

func (f *fixture) invoiceStatus(t *testing.T, id snowflake.ID) invoicedomain.InvoiceStatus {
	t.Helper()
	inv, err := f.invSvc.GetByID(context.Background(), id)
	require.NoError(t, err)
	return inv.Status
}

func TestRecordPaymentPullsSentInvoiceIntoProcessing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, inv := f.seedSentInvoice(t, 100000)

	p, err := f.svc.RecordPayment(ctx, inv.ID, 100000, "bank_transfer")
	require.NoError(t, err)

	assert.Equal(t, paymentdomain.PaymentStatusPending, p.Status)
	assert.Equal(t, invoicedomain.InvoiceStatusProcessing, f.invoiceStatus(t, inv.ID))
}

// The SENT to PROCESSING advance commits with the payment row. If recording
// fails the advance rolls back too, so the invoice never moves without a
// payment behind it.
func TestRecordPaymentAdvanceRollsBackWithRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, inv := f.seedSentInvoice(t, 100000)

	require.NoError(t, f.db.Migrator().DropTable(&paymentdomain.Payment{}))
	_, err := f.svc.RecordPayment(ctx, inv.ID, 100000, "bank_transfer")
	require.Error(t, err)

	require.NoError(t, f.db.AutoMigrate(&paymentdomain.Payment{}))
	assert.Equal(t, invoicedomain.InvoiceStatusSent, f.invoiceStatus(t, inv.ID))
}

func TestRecordPaymentRejectsNonPayableInvoice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub, _ := f.seedSentInvoice(t, 100000)

	// A PENDING invoice for the next period is not yet collectible.
	next, err := f.invSvc.Generate(ctx, sub.ID, sub.EndDate, sub.EndDate.AddDate(0, 1, 0))
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(ctx, next.ID, 100000, "bank_transfer")
	assert.ErrorIs(t, err, paymentdomain.ErrInvoiceNotPayable)
}

func TestFullPaymentCompletesInvoiceAndActivatesTrial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub, inv := f.seedSentInvoice(t, 100000)

	p, err := f.svc.RecordPayment(ctx, inv.ID, 100000, "bank_transfer")
	require.NoError(t, err)

	completed, err := f.svc.CompletePayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.PaymentStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	assert.Equal(t, invoicedomain.InvoiceStatusCompleted, f.invoiceStatus(t, inv.ID))

	refreshed, err := f.subSvc.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusActive, refreshed.Status)
}

func TestPartialPaymentLeavesInvoiceProcessing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, inv := f.seedSentInvoice(t, 100000)

	first, err := f.svc.RecordPayment(ctx, inv.ID, 60000, "bank_transfer")
	require.NoError(t, err)
	_, err = f.svc.CompletePayment(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusProcessing, f.invoiceStatus(t, inv.ID))

	second, err := f.svc.RecordPayment(ctx, inv.ID, 40000, "bank_transfer")
	require.NoError(t, err)
	_, err = f.svc.CompletePayment(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusCompleted, f.invoiceStatus(t, inv.ID))
}

func TestFailedPaymentAllowsReattempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, inv := f.seedSentInvoice(t, 100000)

	first, err := f.svc.RecordPayment(ctx, inv.ID, 100000, "bank_transfer")
	require.NoError(t, err)
	require.NoError(t, f.svc.FailPayment(ctx, first.ID))

	assert.Equal(t, invoicedomain.InvoiceStatusProcessing, f.invoiceStatus(t, inv.ID))

	second, err := f.svc.RecordPayment(ctx, inv.ID, 100000, "bank_transfer")
	require.NoError(t, err)
	_, err = f.svc.CompletePayment(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusCompleted, f.invoiceStatus(t, inv.ID))
}

func TestPartialThenFullRefund(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, inv := f.seedSentInvoice(t, 100000)

	p, err := f.svc.RecordPayment(ctx, inv.ID, 100000, "bank_transfer")
	require.NoError(t, err)
	_, err = f.svc.CompletePayment(ctx, p.ID)
	require.NoError(t, err)

	refunded, err := f.svc.Refund(ctx, p.ID, 40000, "double charge", "ops@nusabill.id")
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.PaymentStatusPartialRefund, refunded.Status)
	assert.Equal(t, int64(60000), refunded.MaxRefundable())
	assert.Equal(t, invoicedomain.InvoiceStatusPartialRefund, f.invoiceStatus(t, inv.ID))

	refunded, err = f.svc.Refund(ctx, p.ID, 60000, "cancellation", "ops@nusabill.id")
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.PaymentStatusRefunded, refunded.Status)
	assert.Equal(t, int64(0), refunded.MaxRefundable())
	assert.Equal(t, invoicedomain.InvoiceStatusRefunded, f.invoiceStatus(t, inv.ID))

	_, err = f.svc.Refund(ctx, p.ID, 1, "anything", "ops@nusabill.id")
	assert.ErrorIs(t, err, paymentdomain.ErrRefundExceedsBalance)

	refunds, err := f.svc.ListRefunds(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, refunds, 2)
	assert.Equal(t, int64(40000), refunds[0].Amount)
	assert.Equal(t, "double charge", refunds[0].Reason)
	assert.Equal(t, int64(60000), refunds[1].Amount)
}

func TestRefundRejectsUnsettledPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, inv := f.seedSentInvoice(t, 100000)

	p, err := f.svc.RecordPayment(ctx, inv.ID, 100000, "bank_transfer")
	require.NoError(t, err)

	_, err = f.svc.Refund(ctx, p.ID, 10000, "too early", "ops@nusabill.id")
	assert.ErrorIs(t, err, paymentdomain.ErrRefundNotAllowed)
}

func TestRefundExceedingBalanceRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, inv := f.seedSentInvoice(t, 100000)

	p, err := f.svc.RecordPayment(ctx, inv.ID, 100000, "bank_transfer")
	require.NoError(t, err)
	_, err = f.svc.CompletePayment(ctx, p.ID)
	require.NoError(t, err)

	_, err = f.svc.Refund(ctx, p.ID, 100001, "overshoot", "ops@nusabill.id")
	assert.ErrorIs(t, err, paymentdomain.ErrRefundExceedsBalance)

	got, err := f.svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.PaymentStatusCompleted, got.Status)
	assert.Equal(t, int64(0), got.RefundedAmount)
}
