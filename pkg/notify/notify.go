// Package notify delivers finished reports. The email agent composes the
// message; a Sender gets it to the recipient.
package notify

import (
	"context"
	"log/slog"

	"github.com/mikeboe/deep-research/pkg/config"
)

// Sender delivers a rendered report email.
type Sender interface {
	Send(ctx context.Context, subject, htmlBody string) error
}

// FromConfig returns a SendGrid sender when an API key is configured and the
// logging fallback otherwise, so runs without email credentials still finish.
func FromConfig(cfg *config.Config, logger *slog.Logger) Sender {
	if cfg.SendGridApiKey != "" {
		return NewSendGrid(cfg.SendGridApiKey, cfg.EmailFrom, cfg.EmailTo)
	}
	return &LogSender{Logger: logger}
}

// LogSender logs the email instead of sending it.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, subject, htmlBody string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("email delivery disabled, logging report instead", "subject", subject, "html_length", len(htmlBody))
	return nil
}
