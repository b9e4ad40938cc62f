package services

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/harborpoint/homewatch-api/config"
)

// EmailInterface defines the interface for sending email
type EmailInterface interface {
	Send(recipient, subject, body string) error
}

// SMTPEmailService sends email over plain SMTP.
type SMTPEmailService struct {
	host string
	port string
	user string
	pass string
	from string
}

var emailServiceInstance EmailInterface

// InitEmailService initializes the SMTP email service
func InitEmailService(cfg *config.Config) EmailInterface {
	emailServiceInstance = &SMTPEmailService{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.EmailFrom,
	}
	return emailServiceInstance
}

// GetEmailService returns the initialized email service instance
func GetEmailService() EmailInterface {
	return emailServiceInstance
}

// SetEmailService sets the email service instance (primarily for testing)
func SetEmailService(service EmailInterface) {
	emailServiceInstance = service
}

// Send sends a single email. The Content-Type is inferred from the body so
// templates can be plain text or HTML.
func (s *SMTPEmailService) Send(recipient, subject, body string) error {
	if s.host == "" || s.user == "" || s.pass == "" {
		return fmt.Errorf("SMTP not configured")
	}
	if recipient == "" {
		return fmt.Errorf("recipient email address cannot be empty")
	}
	if subject == "" {
		return fmt.Errorf("email subject cannot be empty")
	}

	contentType := "text/plain; charset=UTF-8"
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html>") || strings.Contains(lower, "<p>") {
		contentType = "text/html; charset=UTF-8"
	}

	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", recipient, s.from, subject, contentType, body))

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := s.host + ":" + s.port

	if err := smtp.SendMail(addr, auth, s.from, []string{recipient}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
