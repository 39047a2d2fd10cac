package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
)

// SMTPConfig is the subset of configuration the SMTP sender needs
type SMTPConfig interface {
	GetSmtpHost() string
	GetSmtpPort() string
	GetSmtpAccount() string
	GetSmtpPassword() string
	GetSmtpFrom() string
}

// SMTPSender sends plain text mail with PLAIN auth over STARTTLS.
type SMTPSender struct {
	addr     string
	host     string
	from     string
	auth     smtp.Auth
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

var _ Sender = (*SMTPSender)(nil)

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	var auth smtp.Auth
	if cfg.GetSmtpAccount() != "" {
		auth = smtp.PlainAuth("", cfg.GetSmtpAccount(), cfg.GetSmtpPassword(), cfg.GetSmtpHost())
	}
	return &SMTPSender{
		addr:     net.JoinHostPort(cfg.GetSmtpHost(), cfg.GetSmtpPort()),
		host:     cfg.GetSmtpHost(),
		from:     cfg.GetSmtpFrom(),
		auth:     auth,
		sendMail: smtp.SendMail,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(ErrDelivery, err.Error())
	}
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return errors.Wrap(ErrDelivery, "header injection")
	}
	if err := s.sendMail(s.addr, s.auth, s.from, []string{msg.To}, s.render(msg)); err != nil {
		return errors.Wrap(ErrDelivery, err.Error())
	}
	return nil
}

func (s *SMTPSender) render(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
