package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/noah-isme/course-vacancy-api/pkg/config"
)

// Message is one transactional email.
type Message struct {
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendgridMailer delivers messages through the Sendgrid v3 API.
type SendgridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

// NewSendgridMailer constructs a Sendgrid-backed mailer.
func NewSendgridMailer(cfg config.NotificationsConfig) *SendgridMailer {
	return &SendgridMailer{
		client: sendgrid.NewSendClient(cfg.SendgridAPIKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
	}
}

// Send delivers one message. Missing recipients or empty content are errors so
// a misbuilt notification is retried rather than silently dropped.
func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}
	if msg.TextBody == "" && msg.HTMLBody == "" {
		return fmt.Errorf("message has no content")
	}

	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail("", to))
	}

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	if msg.TextBody != "" {
		v3.AddContent(sgmail.NewContent("text/plain", msg.TextBody))
	}
	if msg.HTMLBody != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))
	}

	resp, err := m.client.SendWithContext(ctx, v3)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// ConsoleMailer logs messages instead of delivering them. Development fallback
// when no Sendgrid key is configured.
type ConsoleMailer struct {
	logger *zap.Logger
}

// NewConsoleMailer constructs a console mailer.
func NewConsoleMailer(logger *zap.Logger) *ConsoleMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleMailer{logger: logger}
}

// Send logs the message.
func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	m.logger.Sugar().Infow("mail (console)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.TextBody,
	)
	return nil
}

// FromConfig picks the Sendgrid mailer when a key is configured, otherwise the
// console fallback.
func FromConfig(cfg config.NotificationsConfig, logger *zap.Logger) Mailer {
	if cfg.SendgridAPIKey != "" {
		return NewSendgridMailer(cfg)
	}
	return NewConsoleMailer(logger)
}
