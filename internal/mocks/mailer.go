package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/natours-api/internal/platform/mail"
)

// MockMailer implements mail.Sender and records every message.
type MockMailer struct {
	mu   sync.Mutex
	sent []mail.Message

	// Err, when set, is returned by Send and nothing is recorded.
	Err error
}

var _ mail.Sender = (*MockMailer)(nil)

// Send implements mail.Sender.
func (m *MockMailer) Send(_ context.Context, msg mail.Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns the recorded messages.
func (m *MockMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}
