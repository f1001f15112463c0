package notify

import (
	"crypto/tls"
	"fmt"
	"net/smtp"

	"gopkg.in/mail.v2"
)

// Gmail submission relay. Delivery always goes through this endpoint unless a
// test overrides it with WithRelay.
const (
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 587
)

// EmailNotifier sends plain-text notifications from a bot mailbox. Every
// delivery upgrades the session with STARTTLS and authenticates before the
// message is submitted; a relay that offers neither fails the delivery.
type EmailNotifier struct {
	login  string
	dialer *mail.Dialer
}

type EmailOption func(*mail.Dialer)

// WithRelay replaces the SMTP relay host and port.
func WithRelay(host string, port int) EmailOption {
	return func(d *mail.Dialer) {
		d.Host = host
		d.Port = port
	}
}

// WithTLSConfig sets the TLS configuration used for the STARTTLS upgrade.
func WithTLSConfig(cfg *tls.Config) EmailOption {
	return func(d *mail.Dialer) {
		d.TLSConfig = cfg
	}
}

func NewEmailNotifier(login, password string, opts ...EmailOption) *EmailNotifier {
	d := mail.NewDialer(DefaultSMTPHost, DefaultSMTPPort, login, password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.RetryFailure = false
	for _, opt := range opts {
		opt(d)
	}
	// Set after the options so the auth is bound to the final relay host. An
	// explicit Auth is always attempted, even when the relay advertises no
	// AUTH extension.
	d.SSL = false
	d.Auth = smtp.PlainAuth("", login, password, d.Host)
	return &EmailNotifier{login: login, dialer: d}
}

// Relay returns the host:port the notifier delivers through.
func (n *EmailNotifier) Relay() string {
	return fmt.Sprintf("%s:%d", n.dialer.Host, n.dialer.Port)
}

// Deliver makes one attempt to send subject and body to recipient.
func (n *EmailNotifier) Deliver(subject, body, recipient string) error {
	m := mail.NewMessage()
	m.SetHeader("From", n.login)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", n.Relay(), err)
	}
	return nil
}

// Send is Deliver reduced to a success flag.
func (n *EmailNotifier) Send(subject, body, recipient string) bool {
	return n.Deliver(subject, body, recipient) == nil
}
