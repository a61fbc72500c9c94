package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kilatlabs/nusabill/internal/clock"
	"github.com/kilatlabs/nusabill/internal/observability/metrics"
	"github.com/kilatlabs/nusabill/internal/subscription/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type subscriptionService struct {
	db    *gorm.DB
	repo  domain.Repository
	clock clock.Clock
	log   *zap.Logger
}

// NewService builds the subscription lifecycle service.
func NewService(db *gorm.DB, repo domain.Repository, clk clock.Clock, log *zap.Logger) domain.Service {
	return &subscriptionService{
		db:    db,
		repo:  repo,
		clock: clk,
		log:   log.Named("subscription.service"),
	}
}

func (s *subscriptionService) GetByID(ctx context.Context, id snowflake.ID) (*domain.Subscription, error) {
	if id == 0 {
		return nil, domain.ErrInvalidSubscriptionID
	}
	sub, err := s.repo.FindByID(ctx, s.db, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSubscriptionNotFound
	}
	return sub, err
}

func (s *subscriptionService) GetByOrgID(ctx context.Context, orgID snowflake.ID) (*domain.Subscription, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidSubscriptionID
	}
	sub, err := s.repo.FindByOrgID(ctx, s.db, orgID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSubscriptionNotFound
	}
	return sub, err
}

func (s *subscriptionService) Transition(ctx context.Context, id snowflake.ID, target domain.SubscriptionStatus, reason domain.TransitionReason) error {
	if id == 0 {
		return domain.ErrInvalidSubscriptionID
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.transitionTx(ctx, tx, id, target, reason)
	})
}

func (s *subscriptionService) transitionTx(ctx context.Context, tx *gorm.DB, id snowflake.ID, target domain.SubscriptionStatus, reason domain.TransitionReason) error {
	sub, err := s.repo.FindByID(ctx, tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrSubscriptionNotFound
	}
	if err != nil {
		return err
	}

	if sub.Status == target {
		if target == domain.SubscriptionStatusActive && reason == domain.ReasonRenewalPaid {
			return s.renewTx(ctx, tx, sub)
		}
		return nil
	}
	if !domain.IsTransitionAllowed(sub.Status, target) {
		return domain.ErrInvalidTransition
	}

	now := s.clock.Now()
	from := sub.Status
	next := *sub
	next.Status = target
	next.UpdatedAt = now

	switch target {
	case domain.SubscriptionStatusActive:
		// Paid activation opens a fresh billing period from now.
		end := sub.NextPeriodEnd(now)
		next.EndDate = end
		next.NextBillingAt = &end
	case domain.SubscriptionStatusExpired, domain.SubscriptionStatusCancelled:
		next.NextBillingAt = nil
	}

	ok, err := s.repo.CompareAndSwapStatus(ctx, tx, &next, from)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrTransitionConflict
	}

	metrics.Engine().SubscriptionTransitions.WithLabelValues(string(from), string(target)).Inc()
	s.log.Info("subscription transitioned",
		zap.String("subscription_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("reason", string(reason)),
	)
	return nil
}

// renewTx rolls the billing period of a paid renewal forward from the old
// boundary, so consecutive periods stay contiguous. The CAS keeps it safe
// against a concurrent suspend or cancel.
func (s *subscriptionService) renewTx(ctx context.Context, tx *gorm.DB, sub *domain.Subscription) error {
	next := *sub
	end := sub.NextPeriodEnd(sub.EndDate)
	next.EndDate = end
	next.NextBillingAt = &end
	next.UpdatedAt = s.clock.Now()

	ok, err := s.repo.CompareAndSwapStatus(ctx, tx, &next, domain.SubscriptionStatusActive)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrTransitionConflict
	}

	metrics.Engine().SubscriptionTransitions.WithLabelValues(
		string(domain.SubscriptionStatusActive), string(domain.SubscriptionStatusActive)).Inc()
	s.log.Info("subscription renewed",
		zap.String("subscription_id", sub.ID.String()),
		zap.Time("end_date", end),
	)
	return nil
}

func (s *subscriptionService) Reevaluate(ctx context.Context, id snowflake.ID, now time.Time) (bool, error) {
	if id == 0 {
		return false, domain.ErrInvalidSubscriptionID
	}

	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.repo.FindByID(ctx, tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrSubscriptionNotFound
		}
		if err != nil {
			return err
		}

		outcome, periodEnd, err := s.latestInvoiceOutcome(ctx, tx, sub.ID, now)
		if err != nil {
			return err
		}

		target, reason, ok := domain.Evaluate(domain.Facts{
			Status:          sub.Status,
			EndDate:         sub.EndDate,
			LatestOutcome:   outcome,
			LatestPeriodEnd: periodEnd,
			Now:             now,
		})
		if !ok {
			return nil
		}

		if err := s.transitionTx(ctx, tx, id, target, reason); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func (s *subscriptionService) Cancel(ctx context.Context, id snowflake.ID) error {
	return s.Transition(ctx, id, domain.SubscriptionStatusCancelled, domain.ReasonCancelled)
}

type latestInvoiceRow struct {
	Status    string
	DueAt     time.Time
	PeriodEnd time.Time
}

// latestInvoiceOutcome summarizes the newest invoice of the subscription.
// Reading the row directly keeps the lifecycle free of a dependency on the
// invoice packages.
func (s *subscriptionService) latestInvoiceOutcome(ctx context.Context, tx *gorm.DB, subID snowflake.ID, now time.Time) (domain.InvoiceOutcome, time.Time, error) {
	var rows []latestInvoiceRow
	err := tx.WithContext(ctx).
		Raw("SELECT status, due_at, period_end FROM invoices WHERE subscription_id = ? ORDER BY id DESC LIMIT 1", subID).
		Scan(&rows).Error
	if err != nil {
		return domain.OutcomeNone, time.Time{}, err
	}
	if len(rows) == 0 {
		return domain.OutcomeNone, time.Time{}, nil
	}

	row := rows[0]
	switch row.Status {
	case "COMPLETED", "PARTIAL_REFUND", "REFUNDED":
		return domain.OutcomeCompleted, row.PeriodEnd, nil
	case "FAILED":
		return domain.OutcomeFailed, row.PeriodEnd, nil
	case "PENDING", "SENT", "PROCESSING":
		if now.After(row.DueAt) {
			return domain.OutcomeOverdue, row.PeriodEnd, nil
		}
		return domain.OutcomeOpen, row.PeriodEnd, nil
	default:
		return domain.OutcomeNone, row.PeriodEnd, nil
	}
}
