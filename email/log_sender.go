package email

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// LogSender only logs that a message would have been sent. Bodies carry
// one-time codes and are never written to the log.
type LogSender struct {
	logger zerolog.Logger
}

var _ Sender = (*LogSender)(nil)

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info().Str("subject", msg.Subject).Msg("email suppressed, no SMTP host configured")
	return nil
}

// Outbox records messages in memory. Tests read codes back out of it.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
	failWith error
}

var _ Sender = (*Outbox)(nil)

func NewOutbox() *Outbox {
	return &Outbox{}
}

// FailWith makes every following Send return err; nil restores delivery
func (o *Outbox) FailWith(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failWith = err
}

func (o *Outbox) Send(_ context.Context, msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failWith != nil {
		return o.failWith
	}
	o.messages = append(o.messages, msg)
	return nil
}

// Messages returns a copy of everything sent so far
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.messages...)
}

// Last returns the most recent message to `to`
func (o *Outbox) Last(to string) (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.messages) - 1; i >= 0; i-- {
		if o.messages[i].To == to {
			return o.messages[i], true
		}
	}
	return Message{}, false
}
