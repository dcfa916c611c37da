package mail

import (
	"context"
	"log/slog"
	"strings"
)

// Log writes messages to the structured logger instead of delivering them.
// It is meant for local development.
type Log struct{}

// NewLog returns a logging sender.
func NewLog() *Log {
	return &Log{}
}

// Send logs the envelope and the text body.
func (*Log) Send(ctx context.Context, msg Message) error {
	to := msg.recipients()
	if len(to) == 0 {
		return ErrNoRecipients
	}

	slog.InfoContext(ctx, "mail captured",
		"to", strings.Join(to, ","),
		"subject", msg.Subject,
		"text_body", msg.TextBody,
	)
	return nil
}

// Close implements io.Closer.
func (*Log) Close() error {
	return nil
}
