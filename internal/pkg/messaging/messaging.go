package messaging

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrTopicRequired is returned when the topic is empty.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrClosed is returned after Close has been called.
	ErrClosed = errors.New("messaging: client closed")
)

// Messaging is a broker-agnostic client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a topic (subject for NATS).
type Publisher interface {
	Publish(ctx context.Context, topic string, msg OutgoingMessage) error
}

// Consumer consumes messages from a topic. Consume blocks until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message. A nil error acks the message, an error
// requests redelivery where the broker supports it.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte
	// Key is used by Kafka for partitioning.
	Key []byte
	// Headers are propagated with the message.
	Headers map[string]string
}

// Message is a broker-agnostic received message.
type Message interface {
	// ID returns the broker message id when the broker assigns one.
	ID() string
	// Topic returns the topic the message was received from.
	Topic() string
	// Body returns the message payload.
	Body() []byte
	// Header returns a single header value or an empty string.
	Header(key string) string
}
