// Package email delivers staff replies to the senders of contact messages.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/plugfox/addonhub/internal/config"
	"github.com/resend/resend-go/v3"
)

// Message - plain text mail
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers mail. Services depend on it, not on the provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type resendSender struct {
	client  *resend.Client
	from    string
	archive string
}

// New returns a Resend sender, or a sender that only logs when no API key is configured.
func New(cfg *config.EmailConfig, logger *slog.Logger) Sender {
	if cfg == nil || cfg.APIKey == "" {
		return &logSender{logger: logger}
	}
	return NewResendSender(cfg.APIKey, cfg.From, cfg.Support)
}

// NewResendSender - archive, when set, gets a blind copy of every message.
func NewResendSender(apiKey, from, archive string) Sender {
	return &resendSender{
		client:  resend.NewClient(apiKey),
		from:    from,
		archive: archive,
	}
}

func (s *resendSender) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Body,
	}
	if s.archive != "" {
		params.Bcc = []string{s.archive}
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// logSender is used when outgoing mail is disabled.
type logSender struct {
	logger *slog.Logger
}

func (s *logSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "mail delivery disabled, message logged",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("length", len(msg.Body)))
	return nil
}
