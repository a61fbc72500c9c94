package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kilatlabs/nusabill/internal/clock"
	invoicedomain "github.com/kilatlabs/nusabill/internal/invoice/domain"
	"github.com/kilatlabs/nusabill/internal/observability/metrics"
	"github.com/kilatlabs/nusabill/internal/payment/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type paymentService struct {
	db         *gorm.DB
	repo       domain.Repository
	invoiceSvc invoicedomain.Service
	invRepo    invoicedomain.Repository
	clock      clock.Clock
	genID      *snowflake.Node
	log        *zap.Logger
}

// NewService builds the payment ledger service.
func NewService(
	db *gorm.DB,
	repo domain.Repository,
	invoiceSvc invoicedomain.Service,
	invRepo invoicedomain.Repository,
	clk clock.Clock,
	genID *snowflake.Node,
	log *zap.Logger,
) domain.Service {
	return &paymentService{
		db:         db,
		repo:       repo,
		invoiceSvc: invoiceSvc,
		invRepo:    invRepo,
		clock:      clk,
		genID:      genID,
		log:        log.Named("payment.service"),
	}
}

func (s *paymentService) RecordPayment(ctx context.Context, invoiceID snowflake.ID, amount int64, method string) (*domain.Payment, error) {
	if invoiceID == 0 {
		return nil, domain.ErrInvalidPaymentID
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if strings.TrimSpace(method) == "" {
		return nil, domain.ErrInvalidMethod
	}

	now := s.clock.Now()
	var p domain.Payment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.invRepo.FindByID(ctx, tx, invoiceID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invoicedomain.ErrInvoiceNotFound
		}
		if err != nil {
			return err
		}

		if inv.Status != invoicedomain.InvoiceStatusSent && inv.Status != invoicedomain.InvoiceStatusProcessing {
			return domain.ErrInvoiceNotPayable
		}

		// The first attempt pulls a SENT invoice into collection. Recording
		// and the advance commit together, so a completed payment never meets
		// an invoice still stuck in SENT.
		if inv.Status == invoicedomain.InvoiceStatusSent {
			ok, err := s.invRepo.CompareAndSwapStatus(ctx, tx, invoiceID,
				invoicedomain.InvoiceStatusSent, invoicedomain.InvoiceStatusProcessing, nil, now)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrTransitionConflict
			}
			metrics.Engine().InvoiceTransitions.WithLabelValues(
				string(invoicedomain.InvoiceStatusSent), string(invoicedomain.InvoiceStatusProcessing)).Inc()
		}

		p = domain.Payment{
			ID:        s.genID.Generate(),
			InvoiceID: invoiceID,
			Amount:    amount,
			Method:    method,
			Status:    domain.PaymentStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.repo.Insert(ctx, tx, &p)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment recorded",
		zap.String("payment_id", p.ID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.Int64("amount", amount),
		zap.String("method", method),
	)
	return &p, nil
}

func (s *paymentService) CompletePayment(ctx context.Context, id snowflake.ID) (*domain.Payment, error) {
	if id == 0 {
		return nil, domain.ErrInvalidPaymentID
	}

	now := s.clock.Now()
	var (
		p            *domain.Payment
		invoiceLeft  int64
		invoiceID    snowflake.ID
		settledTotal int64
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByID(ctx, tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrPaymentNotFound
		}
		if err != nil {
			return err
		}

		if p.Status == domain.PaymentStatusCompleted {
			return nil
		}
		if p.Status != domain.PaymentStatusPending {
			return domain.ErrPaymentNotPending
		}

		ok, err := s.repo.CompareAndSwapStatus(ctx, tx, p.ID, domain.PaymentStatusPending, domain.PaymentStatusCompleted, &now, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrTransitionConflict
		}
		p.Status = domain.PaymentStatusCompleted
		p.CompletedAt = &now

		inv, err := s.invRepo.FindByID(ctx, tx, p.InvoiceID)
		if err != nil {
			return err
		}
		settledTotal, err = s.repo.SumSettled(ctx, tx, p.InvoiceID)
		if err != nil {
			return err
		}
		invoiceID = inv.ID
		invoiceLeft = inv.Total - settledTotal
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Partial settlements leave the invoice collecting; it completes only
	// once the settled total covers the full amount.
	if invoiceID != 0 && invoiceLeft <= 0 {
		if err := s.invoiceSvc.MarkCompleted(ctx, invoiceID); err != nil {
			s.log.Warn("invoice completion failed",
				zap.String("invoice_id", invoiceID.String()),
				zap.Error(err),
			)
		}
	}

	s.log.Info("payment completed",
		zap.String("payment_id", p.ID.String()),
		zap.Int64("settled_total", settledTotal),
	)
	return p, nil
}

func (s *paymentService) FailPayment(ctx context.Context, id snowflake.ID) error {
	if id == 0 {
		return domain.ErrInvalidPaymentID
	}

	now := s.clock.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.repo.FindByID(ctx, tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrPaymentNotFound
		}
		if err != nil {
			return err
		}

		if p.Status == domain.PaymentStatusFailed {
			return nil
		}
		if p.Status != domain.PaymentStatusPending {
			return domain.ErrPaymentNotPending
		}

		ok, err := s.repo.CompareAndSwapStatus(ctx, tx, p.ID, domain.PaymentStatusPending, domain.PaymentStatusFailed, nil, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrTransitionConflict
		}
		return nil
	})
}

func (s *paymentService) Refund(ctx context.Context, id snowflake.ID, amount int64, reason, actor string) (*domain.Payment, error) {
	if id == 0 {
		return nil, domain.ErrInvalidPaymentID
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	now := s.clock.Now()
	var p *domain.Payment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByID(ctx, tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrPaymentNotFound
		}
		if err != nil {
			return err
		}

		if !p.Status.IsSettled() {
			return domain.ErrRefundNotAllowed
		}
		// A fully refunded payment has no balance left, so any amount
		// overshoots.
		if amount > p.MaxRefundable() {
			return domain.ErrRefundExceedsBalance
		}

		newRefunded := p.RefundedAmount + amount
		newStatus := domain.StatusForRefund(p.Amount, newRefunded)

		ok, err := s.repo.ApplyRefund(ctx, tx, p.ID, p.RefundedAmount, newRefunded, newStatus, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrRefundConflict
		}

		if err := s.repo.InsertRefund(ctx, tx, &domain.PaymentRefund{
			ID:        s.genID.Generate(),
			PaymentID: p.ID,
			Amount:    amount,
			Reason:    reason,
			Actor:     actor,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		if err := s.mirrorInvoiceRefund(ctx, tx, p.InvoiceID, newStatus, now); err != nil {
			return err
		}

		p.RefundedAmount = newRefunded
		p.Status = newStatus
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Engine().PaymentRefunds.Inc()
	s.log.Info("payment refunded",
		zap.String("payment_id", p.ID.String()),
		zap.Int64("amount", amount),
		zap.Int64("refunded_total", p.RefundedAmount),
		zap.String("status", string(p.Status)),
		zap.String("actor", actor),
	)
	return p, nil
}

// mirrorInvoiceRefund pushes the refund branch onto the invoice. A full
// refund moves the invoice to REFUNDED only when this was its sole settled
// payment; a partial refund always marks the invoice PARTIAL_REFUND. The
// invoice-side move is a side effect of the payment change, never requested
// on its own.
func (s *paymentService) mirrorInvoiceRefund(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID, paymentStatus domain.PaymentStatus, now time.Time) error {
	target := invoicedomain.InvoiceStatusPartialRefund
	if paymentStatus == domain.PaymentStatusRefunded {
		settled, err := s.repo.CountSettled(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if settled == 1 {
			target = invoicedomain.InvoiceStatusRefunded
		}
	}

	for _, from := range []invoicedomain.InvoiceStatus{
		invoicedomain.InvoiceStatusCompleted,
		invoicedomain.InvoiceStatusPartialRefund,
	} {
		if from == target {
			continue
		}
		ok, err := s.invRepo.CompareAndSwapStatus(ctx, tx, invoiceID, from, target, nil, now)
		if err != nil {
			return err
		}
		if ok {
			metrics.Engine().InvoiceTransitions.WithLabelValues(string(from), string(target)).Inc()
			return nil
		}
	}
	// Already at the target state.
	return nil
}

func (s *paymentService) GetByID(ctx context.Context, id snowflake.ID) (*domain.Payment, error) {
	if id == 0 {
		return nil, domain.ErrInvalidPaymentID
	}
	p, err := s.repo.FindByID(ctx, s.db, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	return p, err
}

func (s *paymentService) ListByInvoice(ctx context.Context, invoiceID snowflake.ID) ([]domain.Payment, error) {
	if invoiceID == 0 {
		return nil, domain.ErrInvalidPaymentID
	}
	return s.repo.ListByInvoice(ctx, s.db, invoiceID)
}

func (s *paymentService) ListRefunds(ctx context.Context, paymentID snowflake.ID) ([]domain.PaymentRefund, error) {
	if paymentID == 0 {
		return nil, domain.ErrInvalidPaymentID
	}
	return s.repo.ListRefunds(ctx, s.db, paymentID)
}
