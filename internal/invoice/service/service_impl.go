package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kilatlabs/nusabill/internal/clock"
	"github.com/kilatlabs/nusabill/internal/config"
	"github.com/kilatlabs/nusabill/internal/invoice/domain"
	"github.com/kilatlabs/nusabill/internal/invoice/format"
	notificationdomain "github.com/kilatlabs/nusabill/internal/notification/domain"
	"github.com/kilatlabs/nusabill/internal/observability/metrics"
	organizationdomain "github.com/kilatlabs/nusabill/internal/organization/domain"
	subscriptiondomain "github.com/kilatlabs/nusabill/internal/subscription/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type invoiceService struct {
	db         *gorm.DB
	repo       domain.Repository
	subSvc     subscriptiondomain.Service
	orgRepo    organizationdomain.Repository
	dispatcher notificationdomain.Dispatcher
	cfg        config.BillingConfig
	clock      clock.Clock
	genID      *snowflake.Node
	log        *zap.Logger
}

// NewService builds the invoice billing engine.
func NewService(
	db *gorm.DB,
	repo domain.Repository,
	subSvc subscriptiondomain.Service,
	orgRepo organizationdomain.Repository,
	dispatcher notificationdomain.Dispatcher,
	cfg config.Config,
	clk clock.Clock,
	genID *snowflake.Node,
	log *zap.Logger,
) domain.Service {
	return &invoiceService{
		db:         db,
		repo:       repo,
		subSvc:     subSvc,
		orgRepo:    orgRepo,
		dispatcher: dispatcher,
		cfg:        cfg.Billing,
		clock:      clk,
		genID:      genID,
		log:        log.Named("invoice.service"),
	}
}

func (s *invoiceService) Generate(ctx context.Context, subscriptionID snowflake.ID, periodStart, periodEnd time.Time) (*domain.Invoice, error) {
	if subscriptionID == 0 {
		return nil, domain.ErrInvalidInvoiceID
	}
	if !periodEnd.After(periodStart) {
		return nil, domain.ErrInvalidPeriod
	}

	sub, err := s.subSvc.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var inv domain.Invoice

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindLiveForPeriod(ctx, tx, sub.ID, periodStart)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrInvoiceExistsForPeriod
		}

		year := now.Year()
		seq, err := s.repo.NextNumber(ctx, tx, sub.OrgID, year)
		if err != nil {
			return err
		}

		number := domain.FormatNumber(sub.OrgID, year, seq)
		inv = domain.NewForPeriod(s.genID, *sub, number, s.cfg.Currency, periodStart, periodEnd, now, s.cfg.GraceDays)
		if inv.Total != inv.ItemsTotal() {
			return domain.ErrLineItemTotalMismatch
		}

		if err := s.repo.Insert(ctx, tx, &inv); err != nil {
			return err
		}

		// A fresh invoice never stays in DRAFT.
		ok, err := s.repo.CompareAndSwapStatus(ctx, tx, inv.ID, domain.InvoiceStatusDraft, domain.InvoiceStatusPending, nil, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrTransitionConflict
		}
		inv.Status = domain.InvoiceStatusPending
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Engine().InvoiceTransitions.WithLabelValues(string(domain.InvoiceStatusDraft), string(domain.InvoiceStatusPending)).Inc()
	s.log.Info("invoice generated",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("number", inv.Number),
		zap.String("subscription_id", sub.ID.String()),
		zap.Int64("total", inv.Total),
	)
	return &inv, nil
}

func (s *invoiceService) GetByID(ctx context.Context, id snowflake.ID) (*domain.Invoice, error) {
	if id == 0 {
		return nil, domain.ErrInvalidInvoiceID
	}
	inv, err := s.repo.FindByID(ctx, s.db, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvoiceNotFound
	}
	return inv, err
}

func (s *invoiceService) ListByOrg(ctx context.Context, orgID snowflake.ID) ([]domain.Invoice, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidInvoiceID
	}
	return s.repo.ListByOrg(ctx, s.db, orgID)
}

func (s *invoiceService) MarkSent(ctx context.Context, id snowflake.ID) error {
	inv, applied, err := s.transition(ctx, id, domain.InvoiceStatusSent, false)
	if err != nil {
		return err
	}
	if applied {
		s.notifyIssued(ctx, inv)
	}
	return nil
}

func (s *invoiceService) MarkProcessing(ctx context.Context, id snowflake.ID) error {
	_, _, err := s.transition(ctx, id, domain.InvoiceStatusProcessing, false)
	return err
}

func (s *invoiceService) MarkCompleted(ctx context.Context, id snowflake.ID) error {
	inv, applied, err := s.transition(ctx, id, domain.InvoiceStatusCompleted, true)
	if err != nil {
		return err
	}
	if applied {
		wasTrial := s.subscriptionStatus(ctx, inv.SubscriptionID) == subscriptiondomain.SubscriptionStatusTrial
		s.reevaluate(ctx, inv.SubscriptionID)
		if wasTrial && s.subscriptionStatus(ctx, inv.SubscriptionID) == subscriptiondomain.SubscriptionStatusActive {
			s.notifyActivated(ctx, inv.OrgID)
		}
	}
	return nil
}

func (s *invoiceService) MarkFailed(ctx context.Context, id snowflake.ID) error {
	inv, applied, err := s.transition(ctx, id, domain.InvoiceStatusFailed, false)
	if err != nil {
		return err
	}
	if applied {
		s.reevaluate(ctx, inv.SubscriptionID)
	}
	return nil
}

func (s *invoiceService) Cancel(ctx context.Context, id snowflake.ID) error {
	_, _, err := s.transition(ctx, id, domain.InvoiceStatusCancelled, false)
	return err
}

// transition applies a guarded move on the invoice status graph. It reports
// whether a transition actually fired; finding the invoice already at the
// target is a no-op, not an error.
func (s *invoiceService) transition(ctx context.Context, id snowflake.ID, target domain.InvoiceStatus, recordPaidAt bool) (*domain.Invoice, bool, error) {
	if id == 0 {
		return nil, false, domain.ErrInvalidInvoiceID
	}

	var (
		inv     *domain.Invoice
		applied bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inv, err = s.repo.FindByID(ctx, tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrInvoiceNotFound
		}
		if err != nil {
			return err
		}

		if inv.Status == target {
			return nil
		}
		if !domain.IsTransitionAllowed(inv.Status, target) {
			return &domain.InvalidTransitionError{Attempted: target, Actual: inv.Status}
		}

		now := s.clock.Now()
		var paidAt *time.Time
		if recordPaidAt {
			paidAt = &now
		}

		ok, err := s.repo.CompareAndSwapStatus(ctx, tx, inv.ID, inv.Status, target, paidAt, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrTransitionConflict
		}

		metrics.Engine().InvoiceTransitions.WithLabelValues(string(inv.Status), string(target)).Inc()
		s.log.Info("invoice transitioned",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("from", string(inv.Status)),
			zap.String("to", string(target)),
		)
		inv.Status = target
		inv.PaidAt = paidAt
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return inv, applied, nil
}

// reevaluate feeds an invoice outcome back into the subscription lifecycle.
// Failures are logged, not returned; the reconciliation sweep re-derives the
// same transition from persisted facts.
func (s *invoiceService) reevaluate(ctx context.Context, subscriptionID snowflake.ID) {
	if _, err := s.subSvc.Reevaluate(ctx, subscriptionID, s.clock.Now()); err != nil {
		s.log.Warn("subscription re-evaluation failed",
			zap.String("subscription_id", subscriptionID.String()),
			zap.Error(err),
		)
	}
}

func (s *invoiceService) subscriptionStatus(ctx context.Context, id snowflake.ID) subscriptiondomain.SubscriptionStatus {
	sub, err := s.subSvc.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	return sub.Status
}

// notifyActivated greets the tenant when its trial converts to a paid term.
func (s *invoiceService) notifyActivated(ctx context.Context, orgID snowflake.ID) {
	org, err := s.orgRepo.FindByID(ctx, s.db, orgID)
	if err != nil || org == nil {
		return
	}

	if _, err := s.dispatcher.SendWelcomeEmail(ctx, notificationdomain.WelcomeEmail{
		To:      org.ContactEmail,
		Name:    org.ContactName,
		OrgName: org.Name,
	}); err != nil {
		s.log.Warn("welcome notification failed",
			zap.String("org_id", orgID.String()),
			zap.Error(err),
		)
	}
}

func (s *invoiceService) notifyIssued(ctx context.Context, inv *domain.Invoice) {
	org, err := s.orgRepo.FindByID(ctx, s.db, inv.OrgID)
	if err == nil && org == nil {
		err = gorm.ErrRecordNotFound
	}
	if err != nil {
		s.log.Warn("invoice notification skipped",
			zap.String("invoice_id", inv.ID.String()),
			zap.Error(err),
		)
		return
	}

	_, err = s.dispatcher.SendInvoiceIssued(ctx, notificationdomain.InvoiceIssuedEmail{
		To:            org.ContactEmail,
		OrgName:       org.Name,
		InvoiceNumber: inv.Number,
		AmountDisplay: format.Amount(inv.Total, inv.Currency),
		DueDate:       inv.DueAt.Format("2 January 2006"),
	})
	if err != nil {
		s.log.Warn("invoice notification failed",
			zap.String("invoice_id", inv.ID.String()),
			zap.Error(err),
		)
	}
}
