package email

import (
	"fmt"
	"net/smtp"

	"github.com/manish14071/rca-app/internal/logger"
)

var log = logger.New("email")

// Mailer delivers account emails. The server treats delivery as
// best-effort: a failed send is logged, never surfaced to the user
// flow that triggered it.
type Mailer interface {
	SendVerification(to, token string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
	// BaseURL is the public address verification links point at.
	BaseURL string
}

func (m *SMTPMailer) SendVerification(to, token string) error {
	subject := "Verify your email address"
	link := fmt.Sprintf("%s/api/auth/verify?token=%s", m.BaseURL, token)
	body := fmt.Sprintf("Welcome! Confirm your email address by opening this link:\r\n\r\n%s\r\n\r\nThe link expires in 24 hours.\r\n", link)

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.From, to, subject, body))

	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	if err := smtp.SendMail(addr, auth, m.From, []string{to}, msg); err != nil {
		log.Warnf("verification mail to %s failed: %v", to, err)
		return err
	}
	log.Infof("verification mail sent to %s", to)
	return nil
}

// NopMailer drops all mail. Used when SMTP is not configured and in
// tests.
type NopMailer struct{}

func (NopMailer) SendVerification(to, token string) error {
	log.Debugf("smtp not configured, dropping verification mail to %s", to)
	return nil
}
