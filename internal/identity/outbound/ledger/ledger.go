// Package ledger stores the pending one-time code of each email address.
//
// Every driver exposes a per-email critical section through WithLock. Callers
// that read, decide and then mutate an entry must do so inside it so that
// concurrent requests for the same email are serialized.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/passwordless/internal/identity/entity"
	"github.com/shandysiswandi/passwordless/internal/pkg/clock"
	"github.com/shandysiswandi/passwordless/internal/pkg/instrument"
)

const (
	// DriverMemory keeps entries in process memory.
	DriverMemory = "memory"
	// DriverRedis keeps entries in Redis hashes.
	DriverRedis = "redis"
)

var (
	// ErrUnknownDriver indicates an unsupported ledger driver.
	ErrUnknownDriver = errors.New("ledger: unknown driver")
	// ErrLockTimeout is returned when the per-email lock cannot be acquired in time.
	ErrLockTimeout = errors.New("ledger: lock wait timeout")
)

// Options groups the settings of every driver.
type Options struct {
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
	// Redis is required by the redis driver.
	Redis redis.Cmdable
	// Retention keeps redis entries past expiry so late verifies report expiry.
	Retention time.Duration
	LockTTL   time.Duration
	LockWait  time.Duration
}

// Ledger is the driver-agnostic store used by the identity usecases.
type Ledger interface {
	Put(ctx context.Context, email, digest string, expiresAt time.Time) error
	Get(ctx context.Context, email string) (*entity.PendingOTP, error)
	RecordFailedAttempt(ctx context.Context, email string) error
	Remove(ctx context.Context, email string) error
	WithLock(ctx context.Context, email string, fn func(ctx context.Context) error) error
}

// New constructs the ledger selected by driver.
func New(driver string, opts Options) (Ledger, error) {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Instrument == nil {
		opts.Instrument = instrument.NewNoop()
	}

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return NewMemory(opts.Clock, opts.Instrument)
	case DriverRedis:
		return NewRedis(opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
