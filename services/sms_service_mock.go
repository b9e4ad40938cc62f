package services

import (
	"fmt"
	"sync"
)

// SentSMS records one mock SMS send (for testing assertions)
type SentSMS struct {
	To   string
	Body string
}

// MockSMSService is a mock implementation of SMSInterface for testing
type MockSMSService struct {
	sent           []SentSMS
	failAll        bool
	validSignature string
	mu             sync.Mutex
}

// NewMockSMSService creates a new mock SMS service
func NewMockSMSService() *MockSMSService {
	return &MockSMSService{validSignature: "valid-signature"}
}

// SetAsMockForTesting sets this mock as the global SMS service instance for testing
func (m *MockSMSService) SetAsMockForTesting() {
	SetSMSService(m)
}

// FailAll makes every Send call return an error
func (m *MockSMSService) FailAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = true
}

// Send simulates delivering an SMS
func (m *MockSMSService) Send(to, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll {
		return "", fmt.Errorf("mock SMS: forced failure")
	}

	m.sent = append(m.sent, SentSMS{To: to, Body: body})
	return fmt.Sprintf("SM_mock_%d", len(m.sent)), nil
}

// ValidateSignature accepts only the configured mock signature
func (m *MockSMSService) ValidateSignature(signature string, params map[string]string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return signature == m.validSignature
}

// Sent returns the messages sent so far (for testing assertions)
func (m *MockSMSService) Sent() []SentSMS {
	m.mu.Lock()
	defer m.mu.Unlock()
	sent := make([]SentSMS, len(m.sent))
	copy(sent, m.sent)
	return sent
}
