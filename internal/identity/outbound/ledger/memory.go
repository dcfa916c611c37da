package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/passwordless/internal/identity/entity"
	"github.com/shandysiswandi/passwordless/internal/pkg/clock"
	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
	"github.com/shandysiswandi/passwordless/internal/pkg/instrument"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
)

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Memory is a process-local ledger. A restart discards every pending code.
type Memory struct {
	clock clock.Clocker

	mu      sync.Mutex
	entries map[string]entity.PendingOTP
	locks   map[string]*keyLock

	size *atomic.Int64
}

// NewMemory returns an empty in-memory ledger and registers its size gauge.
func NewMemory(clk clock.Clocker, ins instrument.Instrumentation) (*Memory, error) {
	m := &Memory{
		clock:   clk,
		entries: make(map[string]entity.PendingOTP),
		locks:   make(map[string]*keyLock),
		size:    atomic.NewInt64(0),
	}

	_, err := ins.Meter("identity.outbound.ledger").Int64ObservableGauge(
		"identity.otp.ledger.size",
		metric.WithDescription("Number of pending one-time codes held in memory"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.size.Load())
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Put replaces any entry for email with a fresh one expiring at expiresAt.
func (m *Memory) Put(_ context.Context, email, digest string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[email]; !ok {
		m.size.Inc()
	}
	m.entries[email] = entity.PendingOTP{
		Email:      email,
		CodeDigest: digest,
		ExpiresAt:  expiresAt,
	}
	return nil
}

// Get returns a copy of the entry or goerror.ErrNotFound.
func (m *Memory) Get(_ context.Context, email string) (*entity.PendingOTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &e, nil
}

// RecordFailedAttempt increments the attempt counter; absent entries are ignored.
func (m *Memory) RecordFailedAttempt(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[email]; ok {
		e.Attempts++
		m.entries[email] = e
	}
	return nil
}

// Remove deletes the entry if present.
func (m *Memory) Remove(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[email]; ok {
		delete(m.entries, email)
		m.size.Dec()
	}
	return nil
}

// WithLock runs fn while holding the lock of email. Locks are reference
// counted and dropped once no caller holds or waits on them.
func (m *Memory) WithLock(ctx context.Context, email string, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	kl, ok := m.locks[email]
	if !ok {
		kl = &keyLock{}
		m.locks[email] = kl
	}
	kl.refs++
	m.mu.Unlock()

	kl.mu.Lock()
	defer func() {
		kl.mu.Unlock()

		m.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(m.locks, email)
		}
		m.mu.Unlock()
	}()

	return fn(ctx)
}

// Sweep drops entries whose expiry has passed and returns how many were removed.
func (m *Memory) Sweep(_ context.Context) (int, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for email, e := range m.entries {
		if e.Expired(now) {
			delete(m.entries, email)
			removed++
		}
	}
	m.size.Sub(int64(removed))
	return removed, nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	return int(m.size.Load())
}
