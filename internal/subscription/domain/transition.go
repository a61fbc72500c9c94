package domain

import "time"

// TransitionReason labels why a lifecycle transition fired. Reasons end up in
// logs and metrics, so the values stay stable.
type TransitionReason string

const (
	ReasonFirstInvoicePaid TransitionReason = "first_invoice_paid"
	ReasonRenewalPaid      TransitionReason = "renewal_paid"
	ReasonTrialLapsed      TransitionReason = "trial_lapsed"
	ReasonInvoiceFailed    TransitionReason = "invoice_failed"
	ReasonInvoiceOverdue   TransitionReason = "invoice_overdue"
	ReasonPaymentRecovered TransitionReason = "payment_recovered"
	ReasonTermLapsed       TransitionReason = "term_lapsed"
	ReasonCancelled        TransitionReason = "cancelled"
)

// InvoiceOutcome summarizes the subscription's most recent invoice for
// lifecycle evaluation.
type InvoiceOutcome string

const (
	// OutcomeNone means no invoice exists yet, or the latest was voided.
	OutcomeNone InvoiceOutcome = "none"
	// OutcomeOpen means the latest invoice is still collectible and not
	// past due.
	OutcomeOpen      InvoiceOutcome = "open"
	OutcomeCompleted InvoiceOutcome = "completed"
	OutcomeFailed    InvoiceOutcome = "failed"
	OutcomeOverdue   InvoiceOutcome = "overdue"
)

// Facts is the full input to lifecycle evaluation. Callers assemble it from
// the stored subscription and the latest invoice; Evaluate itself touches no
// storage and no wall clock.
type Facts struct {
	Status        SubscriptionStatus
	EndDate       time.Time
	LatestOutcome InvoiceOutcome
	// LatestPeriodEnd is the billing period end of the latest invoice, zero
	// when none exists. A completed invoice only renews the term when its
	// period reaches past the current EndDate.
	LatestPeriodEnd time.Time
	Now             time.Time
}

// Evaluate derives the next lifecycle status from the given facts. It returns
// ok=false when the facts justify no transition. A completed invoice always
// wins over a lapsed window: payment received late still activates. ok=true
// with the status unchanged means a paid renewal should roll the billing
// period forward.
func Evaluate(f Facts) (SubscriptionStatus, TransitionReason, bool) {
	switch f.Status {
	case SubscriptionStatusTrial:
		if f.LatestOutcome == OutcomeCompleted {
			return SubscriptionStatusActive, ReasonFirstInvoicePaid, true
		}
		if f.Now.After(f.EndDate) {
			return SubscriptionStatusExpired, ReasonTrialLapsed, true
		}
	case SubscriptionStatusActive:
		if f.LatestOutcome == OutcomeFailed {
			return SubscriptionStatusSuspended, ReasonInvoiceFailed, true
		}
		if f.LatestOutcome == OutcomeOverdue {
			return SubscriptionStatusSuspended, ReasonInvoiceOverdue, true
		}
		if f.Now.After(f.EndDate) {
			// A paid renewal rolls the term forward; an invoice that is
			// still collectible holds expiry until it resolves.
			if f.LatestOutcome == OutcomeCompleted && f.LatestPeriodEnd.After(f.EndDate) {
				return SubscriptionStatusActive, ReasonRenewalPaid, true
			}
			if f.LatestOutcome == OutcomeOpen {
				return f.Status, "", false
			}
			return SubscriptionStatusExpired, ReasonTermLapsed, true
		}
	case SubscriptionStatusSuspended:
		if f.LatestOutcome == OutcomeCompleted {
			return SubscriptionStatusActive, ReasonPaymentRecovered, true
		}
	}
	return f.Status, "", false
}

// IsTransitionAllowed encodes the subscription status graph.
func IsTransitionAllowed(current, target SubscriptionStatus) bool {
	switch current {
	case SubscriptionStatusTrial:
		return target == SubscriptionStatusActive || target == SubscriptionStatusExpired
	case SubscriptionStatusActive:
		return target == SubscriptionStatusSuspended ||
			target == SubscriptionStatusExpired ||
			target == SubscriptionStatusCancelled
	case SubscriptionStatusSuspended:
		return target == SubscriptionStatusActive || target == SubscriptionStatusCancelled
	default:
		return false
	}
}
