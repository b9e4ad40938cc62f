package services

import (
	"fmt"
	"sync"
)

// SentEmail records one mock email send (for testing assertions)
type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// MockEmailService is a mock implementation of EmailInterface for testing
type MockEmailService struct {
	sent    []SentEmail
	failAll bool
	mu      sync.Mutex
}

// NewMockEmailService creates a new mock email service
func NewMockEmailService() *MockEmailService {
	return &MockEmailService{}
}

// SetAsMockForTesting sets this mock as the global email service instance for testing
func (m *MockEmailService) SetAsMockForTesting() {
	SetEmailService(m)
}

// FailAll makes every Send call return an error
func (m *MockEmailService) FailAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = true
}

// Send simulates sending an email
func (m *MockEmailService) Send(recipient, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll {
		return fmt.Errorf("mock email: forced failure")
	}

	m.sent = append(m.sent, SentEmail{To: recipient, Subject: subject, Body: body})
	return nil
}

// Sent returns the emails sent so far (for testing assertions)
func (m *MockEmailService) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	sent := make([]SentEmail, len(m.sent))
	copy(sent, m.sent)
	return sent
}
