// Package mail delivers transactional email, such as password reset links,
// through a configurable provider: the application log, SMTP, SendGrid or
// Mailgun.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/natours-api/internal/config"
)

// sendTimeout bounds one delivery attempt to a remote provider.
const sendTimeout = 30 * time.Second

// ErrInvalidConfig is returned when the selected provider is missing settings.
var ErrInvalidConfig = errors.New("invalid mail configuration")

// Message is a plain-text email to one recipient.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// From identifies the sender of every message.
type From struct {
	Name    string
	Address string
}

// NewSender returns the Sender for cfg.Provider after checking its settings.
func NewSender(cfg config.MailConfig, logger *slog.Logger) (Sender, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "mail"), slog.String("provider", cfg.Provider))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	from := From{Name: cfg.FromName, Address: cfg.From}
	switch cfg.Provider {
	case "log":
		return &LogSender{From: from, logger: logger}, nil
	case "smtp":
		return &SMTPSender{From: from, Config: cfg.SMTP, logger: logger}, nil
	case "sendgrid":
		return &SendGridSender{From: from, Config: cfg.SendGrid, logger: logger}, nil
	case "mailgun":
		return &MailgunSender{From: from, Config: cfg.Mailgun, logger: logger}, nil
	}
	return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
}

// validateConfig checks the settings the selected provider needs.
func validateConfig(cfg config.MailConfig) error {
	if cfg.From == "" {
		return fmt.Errorf("%w: from address is required", ErrInvalidConfig)
	}
	switch cfg.Provider {
	case "smtp":
		if cfg.SMTP.Host == "" || cfg.SMTP.Port == 0 {
			return fmt.Errorf("%w: smtp host and port are required", ErrInvalidConfig)
		}
	case "sendgrid":
		if cfg.SendGrid.APIKey == "" {
			return fmt.Errorf("%w: sendgrid api key is required", ErrInvalidConfig)
		}
	case "mailgun":
		if cfg.Mailgun.Domain == "" || cfg.Mailgun.APIKey == "" {
			return fmt.Errorf("%w: mailgun domain and api key are required", ErrInvalidConfig)
		}
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them. It is the
// development default.
type LogSender struct {
	From   From
	logger *slog.Logger
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email",
		slog.String("from", s.From.Address),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("text", msg.Text))
	return nil
}
