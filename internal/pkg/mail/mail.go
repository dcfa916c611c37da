package mail

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	// ErrNoRecipients is returned when a message has no usable To address.
	ErrNoRecipients = errors.New("mail: no recipients provided")
	// ErrNoSender is returned when neither the message nor the sender config
	// names a From address.
	ErrNoSender = errors.New("mail: no sender provided")
)

// Message is a single outgoing email.
type Message struct {
	// From overrides the sender configured on the Mail implementation.
	From string
	To   []string
	// Subject is encoded as RFC 2047 when it contains non-ASCII text.
	Subject  string
	TextBody string
	HTMLBody string
	// Headers are extra header fields, e.g. X-Correlation-ID.
	Headers map[string]string
}

// Mail delivers messages.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// recipients returns the trimmed, non-empty To addresses.
func (m Message) recipients() []string {
	out := make([]string, 0, len(m.To))
	for _, to := range m.To {
		if to = strings.TrimSpace(to); to != "" {
			out = append(out, to)
		}
	}
	return out
}

func (m Message) sender(fallback string) string {
	if from := strings.TrimSpace(m.From); from != "" {
		return from
	}
	return strings.TrimSpace(fallback)
}
