package services

import (
	"fmt"

	"github.com/harborpoint/homewatch-api/config"
	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSInterface defines the interface for SMS operations
type SMSInterface interface {
	// Send delivers an SMS and returns the provider's message SID
	Send(to, body string) (string, error)

	// ValidateSignature verifies an inbound webhook request signature
	// against the canonical callback URL and form parameters
	ValidateSignature(signature string, params map[string]string) bool
}

// TwilioSMSService implements SMSInterface using the Twilio REST API.
type TwilioSMSService struct {
	client      *twilio.RestClient
	validator   twilioclient.RequestValidator
	fromNumber  string
	callbackURL string
}

var smsServiceInstance SMSInterface

// InitSMSService initializes the Twilio SMS service
func InitSMSService(cfg *config.Config) SMSInterface {
	restClient := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})

	smsServiceInstance = &TwilioSMSService{
		client:      restClient,
		validator:   twilioclient.NewRequestValidator(cfg.TwilioAuthToken),
		fromNumber:  cfg.TwilioFromNumber,
		callbackURL: cfg.TwilioCallbackURL,
	}
	return smsServiceInstance
}

// GetSMSService returns the initialized SMS service instance
func GetSMSService() SMSInterface {
	return smsServiceInstance
}

// SetSMSService sets the SMS service instance (primarily for testing)
func SetSMSService(service SMSInterface) {
	smsServiceInstance = service
}

// Send delivers an SMS via Twilio and returns the message SID
func (s *TwilioSMSService) Send(to, body string) (string, error) {
	if s.fromNumber == "" {
		return "", fmt.Errorf("twilio not configured")
	}
	if to == "" {
		return "", fmt.Errorf("recipient phone number cannot be empty")
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.fromNumber)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("failed to send SMS: %w", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	return sid, nil
}

// ValidateSignature verifies the X-Twilio-Signature header of an inbound
// webhook using the shared auth token and the canonical callback URL.
func (s *TwilioSMSService) ValidateSignature(signature string, params map[string]string) bool {
	if s.callbackURL == "" {
		return false
	}
	return s.validator.Validate(s.callbackURL, params, signature)
}
