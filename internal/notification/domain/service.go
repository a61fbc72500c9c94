// Package domain defines the notification dispatcher boundary. Dispatch is
// best-effort: callers log failures and continue, billing state never depends
// on a message being delivered.
package domain

import (
	"context"
	"errors"
)

type Result struct {
	MessageID string
}

type VerificationEmail struct {
	To      string
	Name    string
	OrgName string
	Token   string
}

type WelcomeEmail struct {
	To      string
	Name    string
	OrgName string
}

type InvoiceIssuedEmail struct {
	To            string
	OrgName       string
	InvoiceNumber string
	AmountDisplay string
	DueDate       string
}

type Dispatcher interface {
	SendVerificationEmail(ctx context.Context, msg VerificationEmail) (Result, error)
	SendWelcomeEmail(ctx context.Context, msg WelcomeEmail) (Result, error)
	SendInvoiceIssued(ctx context.Context, msg InvoiceIssuedEmail) (Result, error)
}

var ErrDispatchFailed = errors.New("notification_dispatch_failed")
