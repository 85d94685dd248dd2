// Package mail delivers transactional email over SMTP.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

var verifyTemplate = template.Must(template.ParseFS(templateFS, "templates/verify_email.html"))

const verifySubject = "Confirm your email"

type verifyData struct {
	Username string
	Link     string
}

type SMTPMailer struct {
	from     string
	fromName string
	host     string
	opts     []gomail.Option
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	opts := []gomail.Option{
		gomail.WithPort(cfg.MailPort),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.MailUsername),
		gomail.WithPassword(cfg.MailPassword),
	}
	if cfg.MailSSL {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}

	from := cfg.MailFrom
	if from == "" {
		from = cfg.MailUsername
	}
	return &SMTPMailer{
		from:     from,
		fromName: cfg.MailFromName,
		host:     cfg.MailServer,
		opts:     opts,
	}
}

// VerificationLink points at the confirm endpoint under baseURL.
func VerificationLink(baseURL, token string) string {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + "api/auth/confirmed_email/" + token
}

func renderVerification(username, link string) (string, error) {
	var buf bytes.Buffer
	if err := verifyTemplate.Execute(&buf, verifyData{Username: username, Link: link}); err != nil {
		return "", fmt.Errorf("failed to render verification email: %w", err)
	}
	return buf.String(), nil
}

func (m *SMTPMailer) buildVerification(to, username, token, baseURL string) (*gomail.Msg, error) {
	body, err := renderVerification(username, VerificationLink(baseURL, token))
	if err != nil {
		return nil, err
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(verifySubject)
	msg.SetBodyString(gomail.TypeTextHTML, body)
	return msg, nil
}

func (m *SMTPMailer) SendVerification(ctx context.Context, to, username, token, baseURL string) error {
	msg, err := m.buildVerification(to, username, token, baseURL)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(m.host, m.opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}
