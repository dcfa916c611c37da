package instrument

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	ins, err := New(context.Background(), nil)
	require.NoError(t, err)
	assert.IsType(t, noopInstrumentation{}, ins)

	ins, err = New(context.Background(), &Config{ServiceName: "passwordless", LogLevel: "debug"})
	require.NoError(t, err)
	assert.IsType(t, noopInstrumentation{}, ins)
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	_, span := ins.Tracer("t").Start(context.Background(), "op")
	assert.False(t, span.IsRecording())
	span.End()

	counter, err := ins.Meter("m").Int64Counter("c")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	assert.NoError(t, ins.Shutdown(context.Background()))
}
