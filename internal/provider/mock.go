package provider

import (
	"context"

	"github.com/google/uuid"
)

// MockSender records sends in memory and hands back generated message ids.
// Used by the seeder and by tests; dry-run campaigns skip the Sender entirely.
type MockSender struct {
	Sent []OutboundEmail
	Err  error
}

func (m *MockSender) Send(_ context.Context, email OutboundEmail) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Sent = append(m.Sent, email)
	return "mock-" + uuid.NewString(), nil
}

var _ Sender = (*MockSender)(nil)
