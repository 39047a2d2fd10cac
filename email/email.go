// Package email delivers notification messages.
package email

import (
	"context"
	"errors"
)

// ErrDelivery wraps every failure to hand a message to the transport
var ErrDelivery = errors.New("email delivery failed")

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a message or reports why it could not
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
