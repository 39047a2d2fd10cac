package email

import (
	"bytes"
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type smtpConfig struct{}

func (smtpConfig) GetSmtpHost() string     { return "mail.example.com" }
func (smtpConfig) GetSmtpPort() string     { return "587" }
func (smtpConfig) GetSmtpAccount() string  { return "bot" }
func (smtpConfig) GetSmtpPassword() string { return "pw" }
func (smtpConfig) GetSmtpFrom() string     { return "no-reply@example.com" }

func TestSMTPSender(t *testing.T) {
	s := NewSMTPSender(smtpConfig{})

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	s.sendMail = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	err := s.Send(context.Background(), Message{To: "alice@example.com", Subject: "Reset", Body: "code 123456"})
	require.NoError(t, err)
	require.Equal(t, "mail.example.com:587", gotAddr)
	require.Equal(t, []string{"alice@example.com"}, gotTo)
	require.True(t, strings.HasPrefix(string(gotMsg), "From: no-reply@example.com\r\n"))
	require.Contains(t, string(gotMsg), "Subject: Reset\r\n")
	require.True(t, strings.HasSuffix(string(gotMsg), "code 123456"))
}

func TestSMTPSender_Failures(t *testing.T) {
	s := NewSMTPSender(smtpConfig{})
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := s.Send(context.Background(), Message{To: "alice@example.com"})
	require.ErrorIs(t, err, ErrDelivery)

	err = s.Send(context.Background(), Message{To: "alice@example.com\r\nBcc: x@example.com"})
	require.ErrorIs(t, err, ErrDelivery)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Send(ctx, Message{To: "alice@example.com"}), ErrDelivery)
}

func TestLogSenderNeverLogsBody(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(zerolog.New(&buf))
	require.NoError(t, s.Send(context.Background(), Message{To: "alice@example.com", Subject: "Reset", Body: "code 654321"}))
	require.NotContains(t, buf.String(), "654321")
	require.NotContains(t, buf.String(), "alice@example.com")
}

func TestOutbox(t *testing.T) {
	o := NewOutbox()
	require.NoError(t, o.Send(context.Background(), Message{To: "a@example.com", Subject: "1"}))
	require.NoError(t, o.Send(context.Background(), Message{To: "a@example.com", Subject: "2"}))

	last, ok := o.Last("a@example.com")
	require.True(t, ok)
	require.Equal(t, "2", last.Subject)
	_, ok = o.Last("b@example.com")
	require.False(t, ok)

	o.FailWith(ErrDelivery)
	require.ErrorIs(t, o.Send(context.Background(), Message{To: "a@example.com"}), ErrDelivery)
	require.Len(t, o.Messages(), 2)
}
