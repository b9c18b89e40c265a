package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"geargrab/internal/app/policies"
)

type mailClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPSender delivers booking email through an authenticated SMTP relay.
type SMTPSender struct {
	Client   mailClient
	From     string
	FromName string
	Logger   *slog.Logger
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

func NewSMTPSender(cfg SMTPConfig, logger *slog.Logger) (*SMTPSender, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{Client: c, From: cfg.From, FromName: cfg.FromName, Logger: logger}, nil
}

func (s *SMTPSender) Send(ctx context.Context, email policies.Email) policies.SendResult {
	msg, err := s.message(email)
	if err != nil {
		return s.failed(ctx, email, err)
	}
	if err := s.Client.DialAndSendWithContext(ctx, msg); err != nil {
		return s.failed(ctx, email, err)
	}
	return policies.SendResult{Success: true, MessageID: msg.GetMessageID()}
}

func (s *SMTPSender) message(email policies.Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.FromName, s.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if email.ToName != "" {
		if err := msg.AddToFormat(email.ToName, email.To); err != nil {
			return nil, fmt.Errorf("to address: %w", err)
		}
	} else if err := msg.To(email.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetMessageID()
	for k, v := range email.Tags {
		msg.SetGenHeader(mail.Header("X-GearGrab-"+k), v)
	}
	msg.SetBodyString(mail.TypeTextHTML, email.HTML)
	if email.Text != "" {
		msg.AddAlternativeString(mail.TypeTextPlain, email.Text)
	}
	return msg, nil
}

func (s *SMTPSender) failed(ctx context.Context, email policies.Email, err error) policies.SendResult {
	if s.Logger != nil {
		s.Logger.ErrorContext(ctx, "smtp delivery failed", "to", email.To, "subject", email.Subject, "error", err)
	}
	return policies.SendResult{Error: err.Error()}
}
