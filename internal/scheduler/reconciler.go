// Package scheduler runs the periodic reconciliation sweep. The sweep
// re-derives every non-terminal subscription's status from persisted facts,
// so transitions missed at event time (crash between invoice completion and
// re-evaluation, overdue invoices nobody touched) still land.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kilatlabs/nusabill/internal/clock"
	"github.com/kilatlabs/nusabill/internal/config"
	"github.com/kilatlabs/nusabill/internal/observability/metrics"
	subscriptiondomain "github.com/kilatlabs/nusabill/internal/subscription/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Summary reports one reconciliation sweep.
type Summary struct {
	Scanned      int
	Transitioned int
	Failed       int
}

type Reconciler struct {
	db     *gorm.DB
	subSvc subscriptiondomain.Service
	clock  clock.Clock
	cfg    config.ReconcilerConfig
	log    *zap.Logger
}

// NewReconciler builds the subscription reconciler.
func NewReconciler(db *gorm.DB, subSvc subscriptiondomain.Service, clk clock.Clock, cfg config.Config, log *zap.Logger) *Reconciler {
	return &Reconciler{
		db:     db,
		subSvc: subSvc,
		clock:  clk,
		cfg:    cfg.Reconciler,
		log:    log.Named("scheduler.reconciler"),
	}
}

// ReconcileSubscriptions evaluates every non-terminal subscription against
// now. A failing subscription is logged and skipped; the sweep keeps going.
func (r *Reconciler) ReconcileSubscriptions(ctx context.Context, now time.Time) (Summary, error) {
	started := r.clock.Now()
	var (
		summary Summary
		errs    []error
		lastID  snowflake.ID
	)

	for {
		ids, err := r.candidates(ctx, lastID)
		if err != nil {
			metrics.Engine().ReconcileFailures.Inc()
			return summary, err
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			summary.Scanned++
			applied, err := r.subSvc.Reevaluate(ctx, id, now)
			if err != nil {
				summary.Failed++
				errs = append(errs, err)
				r.log.Warn("subscription reconciliation failed",
					zap.String("subscription_id", id.String()),
					zap.Error(err),
				)
				continue
			}
			if applied {
				summary.Transitioned++
			}
		}
		lastID = ids[len(ids)-1]
	}

	metrics.Engine().ReconcileRuns.Inc()
	metrics.Engine().ReconcileDuration.Observe(r.clock.Now().Sub(started).Seconds())
	if summary.Failed > 0 {
		metrics.Engine().ReconcileFailures.Inc()
	}

	r.log.Info("reconciliation sweep finished",
		zap.Int("scanned", summary.Scanned),
		zap.Int("transitioned", summary.Transitioned),
		zap.Int("failed", summary.Failed),
	)
	return summary, errors.Join(errs...)
}

// candidates pages non-terminal subscription ids by keyset. The per-row
// compare-and-swap in the lifecycle service makes concurrent sweeps safe
// without row locks.
func (r *Reconciler) candidates(ctx context.Context, afterID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := r.db.WithContext(ctx).
		Raw("SELECT id FROM subscriptions WHERE status IN ? AND id > ? ORDER BY id ASC LIMIT ?",
			[]subscriptiondomain.SubscriptionStatus{
				subscriptiondomain.SubscriptionStatusTrial,
				subscriptiondomain.SubscriptionStatusActive,
				subscriptiondomain.SubscriptionStatusSuspended,
			},
			afterID, r.cfg.BatchSize).
		Scan(&ids).Error
	return ids, err
}

// RunOnce performs a single sweep at the current time.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	_, err := r.ReconcileSubscriptions(ctx, r.clock.Now())
	return err
}

// RunForever sweeps on the configured interval until ctx is cancelled.
func (r *Reconciler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.log.Error("reconciliation run failed", zap.Error(err))
			}
		}
	}
}
