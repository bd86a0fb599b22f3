package email

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether an SMTP host is configured.
func (c Config) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type Service interface {
	SendConsentCopy(ctx context.Context, to, patientName, filename string, pdf []byte) error
}

type smtpService struct {
	from    string
	deliver func(msgs ...*gomail.Message) error
}

// NewService returns a Service delivering through the configured SMTP server.
func NewService(cfg Config) Service {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &smtpService{from: cfg.From, deliver: dialer.DialAndSend}
}

// NewServiceWithSender delivers through sender, e.g. a gomail.SendFunc.
func NewServiceWithSender(from string, sender gomail.Sender) Service {
	return &smtpService{
		from: from,
		deliver: func(msgs ...*gomail.Message) error {
			return gomail.Send(sender, msgs...)
		},
	}
}

func (s *smtpService) SendConsentCopy(ctx context.Context, to, patientName, filename string, pdf []byte) error {
	if to == "" {
		return fmt.Errorf("no recipient for %s", filename)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetAddressHeader("To", to, patientName)
	m.SetHeader("Subject", "Your signed consent & agreement form")
	m.SetBody("text/plain", fmt.Sprintf(
		"Dear %s,\n\nAttached is a copy of the consent & agreement form you signed with Capilar Max.\n\nKind regards,\nCapilar Max",
		patientName))
	m.Attach(filename,
		gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(pdf)
			return err
		}),
	)

	if err := s.deliver(m); err != nil {
		return fmt.Errorf("failed to send consent copy: %w", err)
	}
	return nil
}
