package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Message is one outbound email. Template names the body layout; Link is
// the verification or reset URL substituted into it.
type Message struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Template   string   `json:"template"`
	Link       string   `json:"link"`
}

const (
	TemplateEmailVerification = "email_verification"
	TemplatePasswordReset     = "password_reset"
)

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends through a single SMTP relay with PLAIN auth.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	fromName string
}

func NewSMTPMailer(host string, port int, username, password, fromName string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password, fromName: fromName}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	body := renderBody(msg)
	headers := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n",
		m.fromName, m.username, strings.Join(msg.Recipients, ", "), msg.Subject)

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := smtp.SendMail(addr, auth, m.username, msg.Recipients, []byte(headers+body)); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func renderBody(msg Message) string {
	switch msg.Template {
	case TemplatePasswordReset:
		return fmt.Sprintf("Someone requested a password reset for your account.\r\n\r\nReset your password: %s\r\n\r\nIf this was not you, ignore this email.\r\n", msg.Link)
	default:
		return fmt.Sprintf("Welcome!\r\n\r\nVerify your account: %s\r\n", msg.Link)
	}
}
