// Package mail delivers transactional email for account flows. The SMTP
// implementation is the only real one; tests swap in a recording fake.
package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

// Mailer sends the account-lifecycle emails.
type Mailer interface {
	// SendVerification mails a verification link to a freshly registered
	// (or re-requesting) user.
	SendVerification(to, name, verifyURL string) error

	// SendTemporaryPassword mails a generated password after a reset.
	SendTemporaryPassword(to, name, password string) error
}

// Config holds SMTP delivery settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPMailer struct {
	cfg    Config
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("mail: smtp host and from address are required")
	}
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Verify your email</h2>
    <p>Hi {{.Name}},</p>
    <p>Thanks for signing up. Click the link below to verify your email address
    and start reading. The link expires in <b>1 hour</b>.</p>
    <p><a href="{{.VerifyURL}}">Verify my email</a></p>
    <p>If you didn't create an account, you can safely ignore this email.</p>
  </div>
</body>
</html>`))

var temporaryPasswordTmpl = template.Must(template.New("temporary_password").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Your new password</h2>
    <p>Hi {{.Name}},</p>
    <p>A password reset was requested for your account. Your new password is:</p>
    <div style="font-size: 20px; font-weight: bold; letter-spacing: 2px;">{{.Password}}</div>
    <p>Please log in and change it right away.</p>
  </div>
</body>
</html>`))

func (m *SMTPMailer) SendVerification(to, name, verifyURL string) error {
	body, err := renderTemplate(verificationTmpl, map[string]string{
		"Name":      name,
		"VerifyURL": verifyURL,
	})
	if err != nil {
		return err
	}
	return m.send(to, "Verify your email", body)
}

func (m *SMTPMailer) SendTemporaryPassword(to, name, password string) error {
	body, err := renderTemplate(temporaryPasswordTmpl, map[string]string{
		"Name":     name,
		"Password": password,
	})
	if err != nil {
		return err
	}
	return m.send(to, "Your new password", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mail: render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
