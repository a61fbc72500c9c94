package notification

import (
	"context"

	"github.com/kilatlabs/nusabill/internal/notification/domain"
)

type noopDispatcher struct{}

// NewNoopDispatcher returns a dispatcher that accepts every message without
// sending anything. Used when notifications are disabled and in tests.
func NewNoopDispatcher() domain.Dispatcher {
	return noopDispatcher{}
}

func (noopDispatcher) SendVerificationEmail(ctx context.Context, msg domain.VerificationEmail) (domain.Result, error) {
	_ = ctx
	_ = msg
	return domain.Result{}, nil
}

func (noopDispatcher) SendWelcomeEmail(ctx context.Context, msg domain.WelcomeEmail) (domain.Result, error) {
	_ = ctx
	_ = msg
	return domain.Result{}, nil
}

func (noopDispatcher) SendInvoiceIssued(ctx context.Context, msg domain.InvoiceIssuedEmail) (domain.Result, error) {
	_ = ctx
	_ = msg
	return domain.Result{}, nil
}
