package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/phrazzld/natours-api/internal/config"
)

// SendGridSender delivers messages through the SendGrid v3 API.
type SendGridSender struct {
	From   From
	Config config.SendGridConfig
	logger *slog.Logger

	// baseURL overrides the API endpoint in tests.
	baseURL string
}

// Send implements Sender.
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	client := sendgrid.NewSendClient(s.Config.APIKey)
	if s.baseURL != "" {
		client.Request.BaseURL = s.baseURL
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	response, err := client.SendWithContext(ctx, buildSendGridMessage(s.From, msg))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to send email",
			slog.String("to", msg.To),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode != http.StatusAccepted {
		s.logger.ErrorContext(ctx, "email rejected",
			slog.String("to", msg.To),
			slog.Int("status", response.StatusCode))
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	s.logger.InfoContext(ctx, "email sent", slog.String("to", msg.To), slog.Int("status", response.StatusCode))
	return nil
}

func buildSendGridMessage(from From, msg Message) *sgmail.SGMailV3 {
	return sgmail.NewSingleEmail(
		sgmail.NewEmail(from.Name, from.Address),
		msg.Subject,
		sgmail.NewEmail(msg.ToName, msg.To),
		msg.Text,
		"",
	)
}
