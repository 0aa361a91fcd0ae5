package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/k4sper1love/school-service/internal/config"
	"github.com/k4sper1love/school-service/internal/utils"
)

type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Mailer delivers a single plain text message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the mail backend from configuration.
func New(cfg config.MailConfig, logger utils.Logger) (Mailer, error) {
	switch cfg.Backend {
	case config.MailBackendSMTP:
		return NewSMTPMailer(cfg)
	case config.MailBackendLog, "":
		return NewLogMailer(logger), nil
	}
	return nil, fmt.Errorf("unknown mail backend %q", cfg.Backend)
}

// SMTPMailer sends through an SMTP relay.
type SMTPMailer struct {
	client *gomail.Client
}

func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPMailer{client: client}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	out := gomail.NewMsg()
	if err := out.From(msg.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if err := out.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextPlain, msg.Body)

	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger utils.Logger
}

func NewLogMailer(logger utils.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info("Mail sent",
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body)
	return nil
}
