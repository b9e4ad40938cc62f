package controllers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harborpoint/homewatch-api/config"
	"github.com/harborpoint/homewatch-api/models"
	"github.com/harborpoint/homewatch-api/services"
	"github.com/stripe/stripe-go/v76"
)

// StripeWebhook handles POST /api/v1/webhooks/stripe - unauthenticated,
// verified by the Stripe-Signature header instead. On payment_intent.succeeded
// the matching invoice is marked paid; unrecognized event types are
// acknowledged and ignored so Stripe stops retrying them.
func StripeWebhook(c *gin.Context) {
	payments := services.GetPaymentService()
	if payments == nil {
		respondError(c, http.StatusServiceUnavailable, "NOT_CONFIGURED", "Payment processing is not configured")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Could not read request body")
		return
	}

	event, err := payments.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Printf("stripe webhook: signature verification failed: %v", err)
		respondError(c, http.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature verification failed")
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			log.Printf("stripe webhook: failed to parse payment intent: %v", err)
			respondError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "Could not parse event payload")
			return
		}
		if err := handlePaymentIntentSucceeded(&intent); err != nil {
			// non-2xx so Stripe redelivers the event
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record payment")
			return
		}
	default:
		// acknowledged, not handled
	}

	respondData(c, http.StatusOK, gin.H{"received": true})
}

// handlePaymentIntentSucceeded marks the invoice referenced by a successful
// payment intent as paid. Webhook retries for an already-paid invoice are
// no-ops; an unknown intent is acknowledged so Stripe does not retry it
// forever. Only a failed paid-transition write returns an error.
func handlePaymentIntentSucceeded(intent *stripe.PaymentIntent) error {
	db := config.GetDB()

	var invoice models.Invoice
	err := db.Preload("Customer").Where("stripe_payment_intent_id = ?", intent.ID).First(&invoice).Error
	if err != nil && intent.Metadata["invoice_id"] != "" {
		err = db.Preload("Customer").First(&invoice, intent.Metadata["invoice_id"]).Error
	}
	if err != nil {
		log.Printf("stripe webhook: no invoice found for payment intent %s", intent.ID)
		return nil
	}

	if invoice.Status == models.InvoiceStatusPaid {
		return nil
	}

	return markInvoicePaid(db, &invoice)
}

// TwilioInboundSMS handles POST /api/v1/webhooks/twilio/sms - Twilio's
// inbound-message callback, form-encoded, verified with X-Twilio-Signature.
// A text from a known customer phone lands in that customer's conversation
// (created on first contact); unknown senders get a short auto-reply. The
// response is TwiML either way.
func TwilioInboundSMS(c *gin.Context) {
	sms := services.GetSMSService()
	if sms == nil {
		respondError(c, http.StatusServiceUnavailable, "NOT_CONFIGURED", "SMS processing is not configured")
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Could not parse form body")
		return
	}
	params := map[string]string{}
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	if !sms.ValidateSignature(c.GetHeader("X-Twilio-Signature"), params) {
		respondError(c, http.StatusForbidden, "INVALID_SIGNATURE", "Webhook signature verification failed")
		return
	}

	from := params["From"]
	body := params["Body"]
	sid := params["MessageSid"]

	db := config.GetDB()

	var customer models.User
	if err := db.Where("phone = ?", from).First(&customer).Error; err != nil {
		log.Printf("twilio webhook: inbound SMS from unknown number %s", from)
		respondTwiML(c, "This number is not linked to an account. Please contact us through the app.")
		return
	}

	var conversation models.Conversation
	err := db.Where("customer_id = ?", customer.ID).Order("last_message_at DESC").First(&conversation).Error
	if err != nil {
		conversation = models.Conversation{
			CustomerID: customer.ID,
			Subject:    "Text message",
		}
		if err := db.Create(&conversation).Error; err != nil {
			log.Printf("twilio webhook: failed to create conversation for user %d: %v", customer.ID, err)
			respondTwiML(c, "")
			return
		}
	}

	externalID := &sid
	if sid == "" {
		externalID = nil
	}
	if _, ok := appendMessage(c, db, &conversation, &customer, body, externalID); !ok {
		return
	}

	respondTwiML(c, "")
}

// respondTwiML writes a TwiML response, with an optional reply message.
func respondTwiML(c *gin.Context, reply string) {
	twiml := "<?xml version=\"1.0\" encoding=\"UTF-8\"?><Response></Response>"
	if reply != "" {
		twiml = "<?xml version=\"1.0\" encoding=\"UTF-8\"?><Response><Message>" + reply + "</Message></Response>"
	}
	c.Data(http.StatusOK, "text/xml", []byte(twiml))
}
