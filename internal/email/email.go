// Package email delivers credential notifications over SMTP. Delivery failures
// never abort the caller's operation: the generated secret is written to the
// log as a fallback channel, so treat log output as sensitive.
package email

import (
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"
)

// Config holds SMTP settings. An empty Host disables delivery entirely.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// LoginURL is embedded in the mail body.
	LoginURL string
}

// Mailer sends credential emails.
type Mailer struct {
	cfg Config
	log *slog.Logger
}

// NewMailer returns a Mailer. logger may be nil.
func NewMailer(cfg Config, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{cfg: cfg, log: logger}
}

// Enabled reports whether SMTP delivery is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSend(msg)
}

// NotifyCredentialsIssued emails a new account its generated password. On any
// failure the credentials are logged instead and nil is returned.
func (m *Mailer) NotifyCredentialsIssued(address, displayName, secret string) {
	subject := "Welcome to Market Supervisor - your login credentials"
	body := fmt.Sprintf(
		"Hello %s,\n\nYour company account has been created.\n\nEmail: %s\nPassword: %s\n\nPlease change this password after your first login: %s\n\nMarket Supervisor",
		displayName, address, secret, m.cfg.LoginURL,
	)
	m.deliver(address, subject, body, secret)
}

// NotifyCredentialsReset emails a freshly reset password, with the same
// log-fallback behavior as NotifyCredentialsIssued.
func (m *Mailer) NotifyCredentialsReset(address, displayName, secret string) {
	subject := "Market Supervisor - password reset"
	body := fmt.Sprintf(
		"Hello %s,\n\nYour password has been reset.\n\nEmail: %s\nNew password: %s\n\nPlease change this password after your next login: %s\n\nIf you did not request this reset, contact us immediately.\n\nMarket Supervisor",
		displayName, address, secret, m.cfg.LoginURL,
	)
	m.deliver(address, subject, body, secret)
}

func (m *Mailer) deliver(address, subject, body, secret string) {
	if !m.Enabled() {
		m.log.Warn("mail disabled, credentials not sent",
			"to", address, "password", secret)
		return
	}
	if err := m.send(address, subject, body); err != nil {
		// Deliberate tradeoff: surface the secret in the log so an operator can
		// relay it manually rather than failing the account operation.
		m.log.Error("mail delivery failed, credentials logged as fallback",
			"to", address, "password", secret, "error", err)
		return
	}
	m.log.Info("credentials email sent", "to", address)
}
