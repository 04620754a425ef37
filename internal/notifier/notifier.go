package notifier

import (
	"context"
)

// Sender delivers a message to a recipient through a specific channel.
// A non-nil error means the recipient cannot be assumed to have received
// the message.
type Sender interface {
	Name() string
	Send(ctx context.Context, to, subject, body string) error
}
