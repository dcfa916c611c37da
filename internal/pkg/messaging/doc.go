// Package messaging provides a broker-agnostic API for publishing and
// consuming messages.
//
// Use cases publish through Publisher and consumers register through Consumer,
// so the broker (NATS, Kafka or NSQ) is a deployment choice made in config.
// Every driver carries string headers, acks a message when the handler returns
// nil and asks for redelivery when it returns an error.
package messaging
