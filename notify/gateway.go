// Package notify implements outbound delivery of verification and
// recovery codes over transactional email and SMS.
package notify

import (
	"context"

	identity "github.com/goliatone/go-identity"
)

// Mailer delivers transactional email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, html string) error
}

// SMSSender delivers outbound SMS.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Gateway fans deliveries out to the configured channels. A channel
// left nil is a no-op so hosts can run email-only or sms-only.
type Gateway struct {
	mailer Mailer
	sms    SMSSender
}

var _ identity.NotificationGateway = (*Gateway)(nil)

// NewGateway returns a new Gateway
func NewGateway(mailer Mailer, sms SMSSender) *Gateway {
	return &Gateway{
		mailer: mailer,
		sms:    sms,
	}
}

func (g *Gateway) SendEmail(ctx context.Context, to, subject, html string) error {
	if g.mailer == nil {
		return nil
	}
	return g.mailer.SendEmail(ctx, to, subject, html)
}

func (g *Gateway) SendSMS(ctx context.Context, to, body string) error {
	if g.sms == nil {
		return nil
	}
	return g.sms.SendSMS(ctx, to, body)
}
