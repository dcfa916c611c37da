package messaging

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	nsq "github.com/nsqio/go-nsq"
)

var (
	// ErrNSQProducerAddrRequired is returned when the producer address is missing.
	ErrNSQProducerAddrRequired = errors.New("messaging: nsq producer address is required")
	// ErrNSQConsumerAddrsRequired is returned when no nsqd/lookupd consumer addresses are configured.
	ErrNSQConsumerAddrsRequired = errors.New("messaging: nsq consumer nsqd/lookupd addresses are required")
	// ErrNSQChannelRequired is returned when Consume is called without a group.
	ErrNSQChannelRequired = errors.New("messaging: nsq channel is required")
)

// NSQConfig configures the NSQ implementation.
type NSQConfig struct {
	// ProducerAddr is the nsqd address for publishing.
	ProducerAddr string
	// ConsumerNSQDAddrs lists nsqd addresses for consumers.
	ConsumerNSQDAddrs []string
	// ConsumerLookupdAddrs lists nsqlookupd addresses for consumers.
	ConsumerLookupdAddrs []string
	// Config overrides the default client config.
	Config *nsq.Config
}

// nsqEnvelope carries headers, which NSQ frames do not support.
type nsqEnvelope struct {
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body"`
}

// NSQ is a messaging implementation backed by NSQ. A failed handler requeues
// the message with NSQ's backoff.
type NSQ struct {
	producer *nsq.Producer
	cfg      NSQConfig
}

// NewNSQ constructs an NSQ messaging client.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.ProducerAddr == "" {
		return nil, ErrNSQProducerAddrRequired
	}
	if cfg.Config == nil {
		cfg.Config = nsq.NewConfig()
	}

	p, err := nsq.NewProducer(cfg.ProducerAddr, cfg.Config)
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq new producer: %w", err)
	}
	p.SetLoggerLevel(nsq.LogLevelError)

	return &NSQ{producer: p, cfg: cfg}, nil
}

// Close stops the producer. Consumers stop when their context is done.
func (n *NSQ) Close() error {
	n.producer.Stop()
	return nil
}

// Publish sends a message to a topic.
func (n *NSQ) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(nsqEnvelope{Headers: msg.Headers, Body: msg.Body})
	if err != nil {
		return fmt.Errorf("messaging: nsq encode: %w", err)
	}

	if err := n.producer.Publish(topic, body); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}
	return nil
}

// Consume reads the topic on the channel named by the group and blocks until ctx is done.
func (n *NSQ) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	if len(n.cfg.ConsumerNSQDAddrs) == 0 && len(n.cfg.ConsumerLookupdAddrs) == 0 {
		return ErrNSQConsumerAddrsRequired
	}

	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrNSQChannelRequired
	}

	consumer, err := nsq.NewConsumer(topic, co.group, n.cfg.Config)
	if err != nil {
		return fmt.Errorf("messaging: nsq new consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)

	// Returning an error from an nsq handler requeues the message.
	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		msg, err := decodeNSQ(topic, m)
		if err != nil {
			// Undecodable payloads would fail forever; finish them.
			return nil
		}
		return dispatch(ctx, DriverNSQ, handler, msg)
	}), co.concurrency)

	if len(n.cfg.ConsumerLookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.ConsumerLookupdAddrs)
	} else {
		err = consumer.ConnectToNSQDs(n.cfg.ConsumerNSQDAddrs)
	}
	if err != nil {
		consumer.Stop()
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	<-ctx.Done()
	consumer.Stop()
	<-consumer.StopChan

	return ctx.Err()
}

type nsqMessage struct {
	id    string
	topic string
	env   nsqEnvelope
}

func decodeNSQ(topic string, m *nsq.Message) (nsqMessage, error) {
	var env nsqEnvelope
	if err := json.Unmarshal(m.Body, &env); err != nil {
		return nsqMessage{}, err
	}
	return nsqMessage{id: hex.EncodeToString(m.ID[:]), topic: topic, env: env}, nil
}

func (m nsqMessage) ID() string               { return m.id }
func (m nsqMessage) Topic() string            { return m.topic }
func (m nsqMessage) Body() []byte             { return m.env.Body }
func (m nsqMessage) Header(key string) string { return m.env.Headers[key] }
