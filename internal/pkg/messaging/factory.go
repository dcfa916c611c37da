package messaging

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Driver names accepted by NewFromDriver (messaging.driver in config).
const (
	DriverNSQ   = "nsq"
	DriverNATS  = "nats"
	DriverKafka = "kafka"
)

// ErrUnknownDriver indicates an unsupported messaging driver.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions carries the settings of every backend; only the selected
// driver's section is read.
type FactoryOptions struct {
	NSQ   NSQConfig
	Kafka KafkaConfig
	NATS  NATSConfig
}

var drivers = map[string]func(FactoryOptions) (Messaging, error){
	DriverNSQ:   func(o FactoryOptions) (Messaging, error) { return NewNSQ(o.NSQ) },
	DriverKafka: func(o FactoryOptions) (Messaging, error) { return NewKafka(o.Kafka) },
	DriverNATS:  func(o FactoryOptions) (Messaging, error) { return NewNATS(o.NATS) },
}

// NewFromDriver builds the client for driver. Names are case-insensitive.
func NewFromDriver(driver string, opts FactoryOptions) (Messaging, error) {
	build, ok := drivers[strings.ToLower(strings.TrimSpace(driver))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownDriver, driver,
			strings.Join(slices.Sorted(maps.Keys(drivers)), ", "))
	}
	return build(opts)
}
