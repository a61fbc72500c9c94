package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilatlabs/nusabill/internal/config"
	"github.com/kilatlabs/nusabill/internal/notification/domain"
	"github.com/mrz1836/postmark"
	"go.uber.org/zap"
)

type postmarkDispatcher struct {
	client *postmark.Client
	cfg    config.NotificationConfig
	log    *zap.Logger
}

// NewPostmarkDispatcher builds the Postmark-backed dispatcher. Tokens are
// required; for local or test setups use the noop dispatcher instead.
func NewPostmarkDispatcher(cfg config.NotificationConfig, log *zap.Logger) (domain.Dispatcher, error) {
	if cfg.PostmarkServerToken == "" || cfg.PostmarkAccountToken == "" {
		return nil, errors.New("postmark tokens are required")
	}
	return &postmarkDispatcher{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		cfg:    cfg,
		log:    log.Named("notification.postmark"),
	}, nil
}

func (d *postmarkDispatcher) SendVerificationEmail(ctx context.Context, msg domain.VerificationEmail) (domain.Result, error) {
	subject := fmt.Sprintf("Verify your %s administrator account", msg.OrgName)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour administrator account for %s is almost ready. Use the token below to verify your email address:\n\n%s\n",
		msg.Name, msg.OrgName, msg.Token,
	)
	return d.send(ctx, msg.To, subject, body, "verification")
}

func (d *postmarkDispatcher) SendWelcomeEmail(ctx context.Context, msg domain.WelcomeEmail) (domain.Result, error) {
	subject := fmt.Sprintf("Welcome to %s", msg.OrgName)
	body := fmt.Sprintf("Hello %s,\n\n%s is now active. You can sign in and start working.\n", msg.Name, msg.OrgName)
	return d.send(ctx, msg.To, subject, body, "welcome")
}

func (d *postmarkDispatcher) SendInvoiceIssued(ctx context.Context, msg domain.InvoiceIssuedEmail) (domain.Result, error) {
	subject := fmt.Sprintf("Invoice %s for %s", msg.InvoiceNumber, msg.OrgName)
	body := fmt.Sprintf(
		"Invoice %s for %s has been issued.\n\nAmount due: %s\nDue date: %s\n",
		msg.InvoiceNumber, msg.OrgName, msg.AmountDisplay, msg.DueDate,
	)
	return d.send(ctx, msg.To, subject, body, "invoice-issued")
}

func (d *postmarkDispatcher) send(ctx context.Context, to, subject, body, tag string) (domain.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	resp, err := d.client.SendEmail(ctx, postmark.Email{
		From:     d.cfg.SenderEmail,
		To:       to,
		Subject:  subject,
		TextBody: body,
		Tag:      tag,
	})
	if err != nil {
		return domain.Result{}, errors.Join(domain.ErrDispatchFailed, err)
	}
	if resp.ErrorCode > 0 {
		return domain.Result{}, errors.Join(
			domain.ErrDispatchFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}

	return domain.Result{MessageID: resp.MessageID}, nil
}
