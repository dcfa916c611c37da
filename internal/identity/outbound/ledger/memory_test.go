package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/passwordless/internal/pkg/clock"
	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
	"github.com/shandysiswandi/passwordless/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newMemory(t *testing.T) (*Memory, *clock.Fixed) {
	t.Helper()
	clk := clock.NewFixed(t0)
	m, err := NewMemory(clk, instrument.NewNoop())
	require.NoError(t, err)
	return m, clk
}

func TestMemory_PutGet(t *testing.T) {
	ctx := context.Background()
	m, _ := newMemory(t)

	_, err := m.Get(ctx, "a@x")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	require.NoError(t, m.Put(ctx, "a@x", "d1", t0.Add(5*time.Minute)))
	require.NoError(t, m.RecordFailedAttempt(ctx, "a@x"))

	got, err := m.Get(ctx, "a@x")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.CodeDigest)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, t0.Add(5*time.Minute), got.ExpiresAt)

	t.Run("overwrite resets attempts", func(t *testing.T) {
		require.NoError(t, m.Put(ctx, "a@x", "d2", t0.Add(time.Minute)))

		got, err := m.Get(ctx, "a@x")
		require.NoError(t, err)
		assert.Equal(t, "d2", got.CodeDigest)
		assert.Zero(t, got.Attempts)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("email is case sensitive", func(t *testing.T) {
		_, err := m.Get(ctx, "A@x")
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})
}

func TestMemory_RecordFailedAttemptAbsent(t *testing.T) {
	m, _ := newMemory(t)
	assert.NoError(t, m.RecordFailedAttempt(context.Background(), "none@x"))
	assert.Zero(t, m.Len())
}

func TestMemory_RemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	m, _ := newMemory(t)

	require.NoError(t, m.Put(ctx, "a@x", "d", t0.Add(time.Minute)))
	assert.NoError(t, m.Remove(ctx, "a@x"))
	assert.NoError(t, m.Remove(ctx, "a@x"))
	assert.Zero(t, m.Len())
}

func TestMemory_Sweep(t *testing.T) {
	ctx := context.Background()
	m, clk := newMemory(t)

	require.NoError(t, m.Put(ctx, "short@x", "d", t0.Add(time.Minute)))
	require.NoError(t, m.Put(ctx, "long@x", "d", t0.Add(time.Hour)))

	n, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	clk.Advance(2 * time.Minute)
	n, err = m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(ctx, "short@x")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestMemory_WithLockSerializes(t *testing.T) {
	ctx := context.Background()
	m, _ := newMemory(t)
	require.NoError(t, m.Put(ctx, "a@x", "d", t0.Add(time.Minute)))

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			_ = m.WithLock(ctx, "a@x", func(ctx context.Context) error {
				e, err := m.Get(ctx, "a@x")
				if err != nil {
					return err
				}
				if e.Attempts < 10 {
					return m.RecordFailedAttempt(ctx, "a@x")
				}
				return nil
			})
		})
	}
	wg.Wait()

	got, err := m.Get(ctx, "a@x")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Attempts)

	m.mu.Lock()
	assert.Empty(t, m.locks)
	m.mu.Unlock()
}

type meterOnly struct {
	mp *sdkmetric.MeterProvider
}

func (i meterOnly) Tracer(name string) trace.Tracer {
	return tracenoop.NewTracerProvider().Tracer(name)
}

func (i meterOnly) Meter(name string) metric.Meter { return i.mp.Meter(name) }

func (i meterOnly) Shutdown(ctx context.Context) error { return i.mp.Shutdown(ctx) }

func TestMemory_SizeGauge(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	ins := meterOnly{mp: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))}

	m, err := NewMemory(clock.NewFixed(t0), ins)
	require.NoError(t, err)
	require.NoError(t, m.Put(ctx, "a@x", "d", t0.Add(time.Minute)))
	require.NoError(t, m.Put(ctx, "b@x", "d", t0.Add(time.Minute)))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	gauge, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(2), gauge.DataPoints[0].Value)
}

func TestNew(t *testing.T) {
	l, err := New("", Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, l)

	_, err = New("redis", Options{})
	assert.Error(t, err)

	_, err = New("etcd", Options{})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
