package mail

import (
	"context"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/phrazzld/natours-api/internal/config"
)

// SMTPSender delivers messages through an SMTP relay, such as Mailtrap in
// development.
type SMTPSender struct {
	From   From
	Config config.SMTPConfig
	logger *slog.Logger

	// send is smtp.SendMail; replaced in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	var auth smtp.Auth
	if s.Config.Username != "" {
		auth = smtp.PlainAuth("", s.Config.Username, s.Config.Password, s.Config.Host)
	}
	send := s.send
	if send == nil {
		send = smtp.SendMail
	}

	addr := s.Config.Host + ":" + strconv.Itoa(s.Config.Port)
	if err := send(addr, auth, s.From.Address, []string{msg.To}, buildSMTPMessage(s.From, msg)); err != nil {
		s.logger.ErrorContext(ctx, "failed to send email",
			slog.String("to", msg.To),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.InfoContext(ctx, "email sent", slog.String("to", msg.To))
	return nil
}

// buildSMTPMessage renders msg as an RFC 5322 message.
func buildSMTPMessage(from From, msg Message) []byte {
	sender := netmail.Address{Name: from.Name, Address: from.Address}
	recipient := netmail.Address{Name: msg.ToName, Address: msg.To}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", sender.String())
	fmt.Fprintf(&b, "To: %s\r\n", recipient.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Text, "\n", "\r\n"))
	return []byte(b.String())
}
