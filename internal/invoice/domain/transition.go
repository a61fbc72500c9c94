package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInvoiceID         = errors.New("invalid_invoice_id")
	ErrInvoiceNotFound          = errors.New("invoice_not_found")
	ErrInvalidPeriod            = errors.New("invalid_invoice_period")
	ErrInvoiceExistsForPeriod   = errors.New("invoice_exists_for_period")
	ErrLineItemTotalMismatch    = errors.New("line_item_total_mismatch")
	ErrInvalidInvoiceTransition = errors.New("invalid_invoice_transition")
	ErrTransitionConflict       = errors.New("invoice_transition_conflict")
)

// InvalidTransitionError reports a rejected invoice transition with the state
// the caller attempted and the state the invoice was actually in.
type InvalidTransitionError struct {
	Attempted InvoiceStatus
	Actual    InvoiceStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid_invoice_transition: cannot move %s invoice to %s", e.Actual, e.Attempted)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidInvoiceTransition }

// IsTransitionAllowed encodes the invoice status graph. The refund branch is
// reachable only from COMPLETED and is applied by the payment side, never
// requested directly.
func IsTransitionAllowed(current, target InvoiceStatus) bool {
	switch current {
	case InvoiceStatusDraft:
		return target == InvoiceStatusPending
	case InvoiceStatusPending:
		return target == InvoiceStatusSent || target == InvoiceStatusCancelled
	case InvoiceStatusSent:
		return target == InvoiceStatusProcessing || target == InvoiceStatusCancelled
	case InvoiceStatusProcessing:
		return target == InvoiceStatusCompleted ||
			target == InvoiceStatusFailed ||
			target == InvoiceStatusCancelled
	case InvoiceStatusCompleted:
		return target == InvoiceStatusPartialRefund || target == InvoiceStatusRefunded
	case InvoiceStatusPartialRefund:
		return target == InvoiceStatusRefunded
	default:
		return false
	}
}
