package accounts

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// SMTPConfig holds the settings for the SMTP backed Mailer
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
	// BaseURL prefixes the activation and reset links, e.g. https://app.example.com
	BaseURL string `env:"MAILER_BASE_URL"`
}

// SMTPMailer delivers lifecycle notifications over plain SMTP
type SMTPMailer struct {
	cfg    SMTPConfig
	logger Logger
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: defLogger{}}
}

func (m *SMTPMailer) WithLogger(l Logger) *SMTPMailer {
	if l != nil {
		m.logger = l
	}
	return m
}

func (m *SMTPMailer) SendActivation(ctx context.Context, email, login, token string) error {
	subject := "Activate your account"
	body := fmt.Sprintf(
		"Hello %s,\n\nfollow this link to activate your account:\n%s/activate/%s\n",
		login, m.cfg.BaseURL, token,
	)
	return m.send(ctx, email, subject, body)
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, email, resetToken string) error {
	subject := "Reset your password"
	body := fmt.Sprintf(
		"Hello,\n\nfollow this link to choose a new password:\n%s/password-reset/%s\n",
		m.cfg.BaseURL, resetToken,
	)
	return m.send(ctx, email, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during mail delivery")
	default:
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		m.logger.Error("failed to deliver notification to %s: %v", to, err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "smtp delivery failed")
	}

	return nil
}

// LogMailer prints notifications instead of delivering them; meant for
// development and tests
type LogMailer struct {
	logger Logger
}

var _ Mailer = (*LogMailer)(nil)

func NewLogMailer(l Logger) *LogMailer {
	if l == nil {
		l = defLogger{}
	}
	return &LogMailer{logger: l}
}

func (m *LogMailer) SendActivation(_ context.Context, email, login, token string) error {
	m.logger.Info("====== ACTIVATION NOTIFICATION =======")
	m.logger.Info("to: %s (%s)", email, login)
	m.logger.Info("link: /activate/%s", token)
	return nil
}

func (m *LogMailer) SendPasswordReset(_ context.Context, email, resetToken string) error {
	m.logger.Info("====== PASSWORD RESET NOTIFICATION =======")
	m.logger.Info("to: %s", email)
	m.logger.Info("link: /password-reset/%s", resetToken)
	return nil
}
