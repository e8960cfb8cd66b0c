package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NoopSender logs emails instead of delivering them. It is used when no API key is configured.
type NoopSender struct{}

var _ Sender = NoopSender{}

// Send logs the email and reports a synthetic message ID.
func (NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	slog.Info("noop_email_send", "recipients", len(req.To), "subject", req.Subject, "html_bytes", len(req.HTML))
	now := time.Now()
	return SendResult{
		MessageID: fmt.Sprintf("noop-%d", now.UnixNano()),
		SentAt:    now,
	}, nil
}

// New picks the Resend sender when apiKey is set and the no-op sender otherwise.
func New(apiKey, from string) Sender {
	if apiKey == "" {
		return NoopSender{}
	}
	return NewResendSender(apiKey, from)
}
