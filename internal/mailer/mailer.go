// Package mailer delivers the login code and welcome emails over SMTP.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/logger"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by the disabled mailer
var ErrNotConfigured = errors.New("mail credentials not configured")

const (
	product        = "CHATBOT"
	subjectOTP     = "Your CHATBOT Login OTP"
	subjectWelcome = "Welcome to CHATBOT!"
	smtpsPort      = 465
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Mailer sends transactional emails
type Mailer interface {
	SendOTP(ctx context.Context, to, name, code string) error
	SendWelcome(ctx context.Context, to, name string) error
}

// New returns an SMTP mailer, or a disabled one when credentials are missing
func New(cfg *config.Config) Mailer {
	if !cfg.Mail.Configured() {
		logger.Warn("Email credentials not configured, outgoing mail disabled")
		return Disabled{}
	}
	return NewSMTPMailer(cfg)
}

// SMTPMailer renders HTML bodies and sends them through an SMTP relay
type SMTPMailer struct {
	cfg      config.MailConfig
	validFor time.Duration
	send     func(ctx context.Context, msg *mail.Msg) error
}

// NewSMTPMailer creates a mailer using the mail settings
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	m := &SMTPMailer{
		cfg:      cfg.Mail,
		validFor: cfg.Auth.OTPTTL,
	}
	m.send = m.dialAndSend
	return m
}

type otpData struct {
	Product  string
	Name     string
	Code     string
	ValidFor string
}

type welcomeData struct {
	Product string
	Name    string
	AppURL  string
}

// SendOTP mails a login code
func (m *SMTPMailer) SendOTP(ctx context.Context, to, name, code string) error {
	body, err := render("otp.html", otpData{
		Product:  product,
		Name:     name,
		Code:     code,
		ValidFor: humanDuration(m.validFor),
	})
	if err != nil {
		return err
	}
	return m.deliver(ctx, to, subjectOTP, body)
}

// SendWelcome mails the greeting sent after account creation
func (m *SMTPMailer) SendWelcome(ctx context.Context, to, name string) error {
	body, err := render("welcome.html", welcomeData{
		Product: product,
		Name:    name,
		AppURL:  m.cfg.AppURL,
	})
	if err != nil {
		return err
	}
	return m.deliver(ctx, to, subjectWelcome, body)
}

func (m *SMTPMailer) deliver(ctx context.Context, to, subject, body string) error {
	msg, err := m.buildMessage(to, subject, body)
	if err != nil {
		return err
	}

	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (m *SMTPMailer) buildMessage(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.Username); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

func (m *SMTPMailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	}
	if m.cfg.Port == smtpsPort {
		opts = append(opts, mail.WithSSL())
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

func humanDuration(d time.Duration) string {
	if d <= 0 {
		return "a short time"
	}
	if d%time.Minute == 0 {
		minutes := int(d / time.Minute)
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	return d.String()
}

// Disabled is the mailer used without SMTP credentials
type Disabled struct{}

func (Disabled) SendOTP(context.Context, string, string, string) error {
	return ErrNotConfigured
}

func (Disabled) SendWelcome(context.Context, string, string) error {
	return ErrNotConfigured
}
