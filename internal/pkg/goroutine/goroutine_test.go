package goroutine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

func TestManager_Go(t *testing.T) {
	t.Run("collects errors", func(t *testing.T) {
		m := NewManager(2)
		errBoom := errors.New("boom")

		assert.True(t, m.Go(context.Background(), func(context.Context) error { return errBoom }))
		assert.True(t, m.Go(context.Background(), func(context.Context) error { return nil }))

		assert.ErrorIs(t, m.Wait(), errBoom)
	})

	t.Run("recovers panics", func(t *testing.T) {
		m := NewManager(1)
		m.Go(context.Background(), func(context.Context) error { panic("bad") })
		assert.NoError(t, m.Wait())
	})

	t.Run("rejects when full", func(t *testing.T) {
		m := NewManager(1)
		release := make(chan struct{})
		assert.True(t, m.Go(context.Background(), func(context.Context) error {
			<-release
			return nil
		}))
		assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))
		close(release)
		assert.NoError(t, m.Wait())
	})

	t.Run("rejects after wait", func(t *testing.T) {
		m := NewManager(1)
		assert.NoError(t, m.Wait())
		assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))
	})

	t.Run("nil manager", func(t *testing.T) {
		var m *Manager
		assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))
		assert.NoError(t, m.Wait())
	})
}

func TestManager_Every(t *testing.T) {
	m := NewManager(1)
	ctx, cancel := context.WithCancel(context.Background())
	runs := atomic.NewInt32(0)

	assert.False(t, m.Every(ctx, "noop", 0, func(context.Context) error { return nil }))
	assert.True(t, m.Every(ctx, "count", 5*time.Millisecond, func(context.Context) error {
		runs.Inc()
		return errors.New("ignored")
	}))

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, m.Wait())
}
