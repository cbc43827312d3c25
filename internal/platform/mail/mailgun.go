package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/phrazzld/natours-api/internal/config"
)

// MailgunSender delivers messages through the Mailgun API.
type MailgunSender struct {
	From   From
	Config config.MailgunConfig
	logger *slog.Logger

	// apiBase overrides the API endpoint in tests.
	apiBase string
}

// Send implements Sender.
func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	mg := mailgun.NewMailgun(s.Config.Domain, s.Config.APIKey)
	if s.apiBase != "" {
		mg.SetAPIBase(s.apiBase)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	sender := s.From.Address
	if s.From.Name != "" {
		sender = fmt.Sprintf("%s <%s>", s.From.Name, s.From.Address)
	}
	message := mg.NewMessage(sender, msg.Subject, msg.Text)
	if err := message.AddRecipient(msg.To); err != nil {
		return fmt.Errorf("failed to add recipient: %w", err)
	}

	_, id, err := mg.Send(ctx, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to send email",
			slog.String("to", msg.To),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.InfoContext(ctx, "email queued", slog.String("to", msg.To), slog.String("id", id))
	return nil
}
