package messaging

import (
	"context"
	"errors"
	"testing"

	nsq "github.com/nsqio/go-nsq"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDriver_Unknown(t *testing.T) {
	_, err := NewFromDriver("pubsub", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)
	assert.ErrorContains(t, err, "supported: kafka, nats, nsq")
}

func TestNewFromDriver_MissingConfig(t *testing.T) {
	_, err := NewFromDriver(DriverNATS, FactoryOptions{})
	assert.ErrorIs(t, err, ErrNATSURLRequired)

	_, err = NewFromDriver(" Kafka ", FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)

	_, err = NewFromDriver(DriverNSQ, FactoryOptions{})
	assert.ErrorIs(t, err, ErrNSQProducerAddrRequired)
}

func TestConsumeOptions(t *testing.T) {
	co := newConsumeOptions()
	assert.Equal(t, 1, co.concurrency)
	assert.Empty(t, co.group)

	co = newConsumeOptions(WithGroup("notification"), WithConcurrency(-3), nil)
	assert.Equal(t, "notification", co.group)
	assert.Equal(t, 1, co.concurrency)

	co = newConsumeOptions(WithConcurrency(8))
	assert.Equal(t, 8, co.concurrency)
}

func TestKafka_ConsumeValidation(t *testing.T) {
	k, err := NewKafka(KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = k.Close() })

	noop := func(context.Context, Message) error { return nil }

	assert.ErrorIs(t, k.Consume(context.Background(), "", noop), ErrTopicRequired)
	assert.ErrorIs(t, k.Consume(context.Background(), "t", nil), ErrHandlerRequired)
	assert.ErrorIs(t, k.Consume(context.Background(), "t", noop), ErrKafkaGroupRequired)
	assert.ErrorIs(t, k.Publish(context.Background(), "", OutgoingMessage{}), ErrTopicRequired)
}

func TestKafkaMessage(t *testing.T) {
	m := kafkaMessage{kafka.Message{
		Topic:     "identity.otp_requested",
		Partition: 2,
		Offset:    41,
		Value:     []byte("{}"),
		Headers:   []kafka.Header{{Key: "cID", Value: []byte("abc")}},
	}}

	assert.Equal(t, "2-41", m.ID())
	assert.Equal(t, "identity.otp_requested", m.Topic())
	assert.Equal(t, []byte("{}"), m.Body())
	assert.Equal(t, "abc", m.Header("cID"))
	assert.Empty(t, m.Header("missing"))
}

func TestDecodeNSQ(t *testing.T) {
	var id nsq.MessageID
	copy(id[:], "0123456789abcdef")

	msg, err := decodeNSQ("topic", nsq.NewMessage(id, []byte(`{"headers":{"cID":"abc"},"body":"e30="}`)))
	require.NoError(t, err)
	assert.Equal(t, "topic", msg.Topic())
	assert.Equal(t, []byte("{}"), msg.Body())
	assert.Equal(t, "abc", msg.Header("cID"))
	assert.NotEmpty(t, msg.ID())

	_, err = decodeNSQ("topic", nsq.NewMessage(id, []byte(`not-json`)))
	assert.Error(t, err)
}

func TestDispatch_RecoversPanic(t *testing.T) {
	msg := kafkaMessage{kafka.Message{Topic: "t"}}

	err := dispatch(context.Background(), DriverKafka, func(context.Context, Message) error { panic("boom") }, msg)
	assert.ErrorContains(t, err, "panic in kafka handler")

	want := errors.New("handler failed")
	err = dispatch(context.Background(), DriverKafka, func(context.Context, Message) error { return want }, msg)
	assert.ErrorIs(t, err, want)
}
