package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/harborpoint/homewatch-api/models"
	"github.com/stripe/stripe-go/v76"
)

// MockPaymentService is a mock implementation of PaymentInterface for testing
type MockPaymentService struct {
	intents   []uint // invoice ids an intent was created for
	failAll   bool
	validSig  string
	nextEvent *stripe.Event
	mu        sync.Mutex
}

// NewMockPaymentService creates a new mock payment service
func NewMockPaymentService() *MockPaymentService {
	return &MockPaymentService{validSig: "valid-signature"}
}

// SetAsMockForTesting sets this mock as the global payment service instance for testing
func (m *MockPaymentService) SetAsMockForTesting() {
	SetPaymentService(m)
}

// FailAll makes every CreatePaymentIntent call return an error
func (m *MockPaymentService) FailAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = true
}

// CreatePaymentIntent simulates registering an invoice with the processor
func (m *MockPaymentService) CreatePaymentIntent(invoice *models.Invoice) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll {
		return "", fmt.Errorf("mock payments: forced failure")
	}

	m.intents = append(m.intents, invoice.ID)
	return fmt.Sprintf("pi_mock_%d", invoice.ID), nil
}

// StubEvent sets the event returned by the next valid VerifyWebhook call.
// The event data payload is marshalled from v.
func (m *MockPaymentService) StubEvent(eventType string, v any) {
	raw, _ := json.Marshal(v)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextEvent = &stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

// VerifyWebhook accepts only the configured mock signature
func (m *MockPaymentService) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sigHeader != m.validSig {
		return stripe.Event{}, fmt.Errorf("mock payments: bad signature")
	}
	if m.nextEvent != nil {
		return *m.nextEvent, nil
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return stripe.Event{}, fmt.Errorf("mock payments: bad payload: %w", err)
	}
	return event, nil
}

// IntentInvoiceIDs returns the invoice ids intents were created for
func (m *MockPaymentService) IntentInvoiceIDs() []uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uint, len(m.intents))
	copy(ids, m.intents)
	return ids
}
