package mailer

import (
	"context"
	"sync"
)

// Mock records every email instead of sending it. Safe for concurrent
// use; set Err to simulate a transport failure.
type Mock struct {
	mu   sync.Mutex
	Sent []Email
	Err  error
}

func (m *Mock) Send(ctx context.Context, e Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, e)
	return nil
}

// Last returns the most recently recorded email.
func (m *Mock) Last() (Email, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return Email{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}
