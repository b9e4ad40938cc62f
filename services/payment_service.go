package services

import (
	"fmt"
	"math"
	"strconv"

	"github.com/harborpoint/homewatch-api/config"
	"github.com/harborpoint/homewatch-api/models"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

// PaymentInterface defines the interface for payment-processor operations
type PaymentInterface interface {
	// CreatePaymentIntent registers the invoice total with the payment
	// processor and returns the processor's payment reference
	CreatePaymentIntent(invoice *models.Invoice) (string, error)

	// VerifyWebhook checks the webhook signature and returns the parsed event
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
}

// StripePaymentService implements PaymentInterface using the Stripe API.
type StripePaymentService struct {
	webhookSecret string
}

var paymentServiceInstance PaymentInterface

// InitPaymentService initializes the Stripe payment service
func InitPaymentService(cfg *config.Config) PaymentInterface {
	stripe.Key = cfg.StripeSecretKey
	paymentServiceInstance = &StripePaymentService{
		webhookSecret: cfg.StripeWebhookSecret,
	}
	return paymentServiceInstance
}

// GetPaymentService returns the initialized payment service instance
func GetPaymentService() PaymentInterface {
	return paymentServiceInstance
}

// SetPaymentService sets the payment service instance (primarily for testing)
func SetPaymentService(service PaymentInterface) {
	paymentServiceInstance = service
}

// CreatePaymentIntent creates a Stripe PaymentIntent for the invoice total.
// The invoice id travels in the intent metadata so the webhook can find it.
func (s *StripePaymentService) CreatePaymentIntent(invoice *models.Invoice) (string, error) {
	if stripe.Key == "" {
		return "", fmt.Errorf("stripe not configured")
	}

	amountCents := int64(math.Round(invoice.Total * 100))
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
	}
	params.AddMetadata("invoice_id", strconv.FormatUint(uint64(invoice.ID), 10))

	intent, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}

	return intent.ID, nil
}

// VerifyWebhook verifies the Stripe-Signature header against the shared
// webhook secret and returns the parsed event.
func (s *StripePaymentService) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("webhook signature verification failed: %w", err)
	}
	return event, nil
}
