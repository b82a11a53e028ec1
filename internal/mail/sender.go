package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/KevinKickass/PlantDeck/internal/config"
	"github.com/KevinKickass/PlantDeck/internal/types"
)

// Sender delivers a prepared mail.
type Sender interface {
	Name() string
	Deliver(ctx context.Context, from From, m types.Mail) error
}

// NewSender picks SMTP when a host is configured and the logging sender
// otherwise.
func NewSender(cfg config.MailConfig, logger *zap.Logger) (Sender, error) {
	if cfg.Host == "" {
		logger.Warn("mail.host not set, outgoing mail will only be logged")
		return NewLogSender(logger), nil
	}
	return NewSMTPSender(cfg, logger)
}

type SMTPSender struct {
	client      *gomail.Client
	fromName    string
	fromAddress string
	logger      *zap.Logger
}

func NewSMTPSender(cfg config.MailConfig, logger *zap.Logger) (*SMTPSender, error) {
	opts := []gomail.Option{gomail.WithPort(cfg.Port)}
	if cfg.TLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password()),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	logger.Info("SMTP sender configured",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Bool("tls", cfg.TLS))

	return &SMTPSender{
		client:      client,
		fromName:    cfg.FromName,
		fromAddress: cfg.FromAddress,
		logger:      logger,
	}, nil
}

func (s *SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) Deliver(ctx context.Context, from From, m types.Mail) error {
	msg, err := s.message(from, m)
	if err != nil {
		return err
	}

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	s.logger.Info("mail delivered",
		zap.String("mail_id", m.ID),
		zap.Int("recipients", len(m.Recipients)))
	return nil
}

func (s *SMTPSender) message(from From, m types.Mail) (*gomail.Msg, error) {
	msg := gomail.NewMsg()

	name := from.Name
	if name == "" {
		name = s.fromName
	}
	if err := msg.FromFormat(name, s.fromAddress); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if from.Email != "" {
		if err := msg.ReplyTo(from.Email); err != nil {
			return nil, fmt.Errorf("invalid reply-to address: %w", err)
		}
	}

	for _, r := range m.Recipients {
		var err error
		switch r.Type {
		case types.RecipientTo:
			err = msg.AddToFormat(r.Name, r.Email)
		case types.RecipientCC:
			err = msg.AddCcFormat(r.Name, r.Email)
		case types.RecipientBCC:
			err = msg.AddBccFormat(r.Name, r.Email)
		default:
			err = fmt.Errorf("unknown recipient type %q", r.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("recipient %s: %w", r.Email, err)
		}
	}

	msg.Subject(m.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, m.Content)
	return msg, nil
}

// LogSender only logs what it would have sent.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Deliver(_ context.Context, from From, m types.Mail) error {
	emails := make([]string, 0, len(m.Recipients))
	for _, r := range m.Recipients {
		emails = append(emails, string(r.Type)+":"+r.Email)
	}
	s.logger.Info("mail not delivered (no SMTP host)",
		zap.String("mail_id", m.ID),
		zap.String("from", from.Email),
		zap.String("subject", m.Subject),
		zap.Strings("recipients", emails))
	return nil
}
