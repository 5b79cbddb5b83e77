// Package mailer sends transactional email over plain SMTP. The default
// configuration points at Mailtrap, which is what development and staging
// environments use; production swaps in a real relay via SMTP_HOST/SMTP_PORT.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends email through a single SMTP relay with plain authentication.
type Mailer struct {
	host   string
	port   string
	user   string
	pass   string
	sender string
}

// New creates a Mailer. All fields are required.
func New(host, port, user, pass, sender string) (*Mailer, error) {
	if host == "" || port == "" {
		return nil, fmt.Errorf("SMTP host and port must be provided")
	}
	if user == "" || pass == "" {
		return nil, fmt.Errorf("SMTP username and password must be provided")
	}
	if sender == "" {
		return nil, fmt.Errorf("sender email address cannot be empty")
	}
	return &Mailer{host: host, port: port, user: user, pass: pass, sender: sender}, nil
}

// Send delivers one message. The Content-Type is inferred from the body:
// anything containing basic HTML tags is sent as text/html.
func (m *Mailer) Send(recipient, subject, body string) error {
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
		"%s\r\n", recipient, m.sender, subject, contentType, body))

	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.sender, []string{recipient}, message); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}
	return nil
}

// SendVerificationEmail sends the account verification link. Satisfies the
// registration flow's mailer dependency.
func (m *Mailer) SendVerificationEmail(recipient, link string) error {
	body := fmt.Sprintf(
		"<html><body><p>Welcome to TradeBridge!</p>"+
			"<p>Please verify your email address by clicking the link below. "+
			"Unverified accounts are removed after 24 hours.</p>"+
			"<p><a href=%q>Verify my email</a></p></body></html>", link)
	return m.Send(recipient, "Verify your TradeBridge account", body)
}
