package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
app:
  name: passwordless
  server:
    cors: "http://a.test, http://b.test,"
    allowed:
      - one
      - " two "
modules:
  identity:
    otp:
      window_seconds: 120
      ledger:
        lock_ttl_ms: 250
    session:
      ttl_days: 3
  notification:
    idempotency_ttl_hours: 2
messaging:
  nsq:
    max_attempts: 5
`

func TestNewViperFromBytes(t *testing.T) {
	t.Run("missing type", func(t *testing.T) {
		_, err := NewViperFromBytes("  ", []byte(testYAML))
		assert.ErrorIs(t, err, ErrConfigType)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := NewViperFromBytes("yaml", []byte("a: [b"))
		assert.Error(t, err)
	})
}

func TestViper_Getters(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(testYAML))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, cfg.Close()) })

	assert.Equal(t, "passwordless", cfg.GetString("app.name"))
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.GetArray("app.server.cors"))
	assert.Equal(t, []string{"one", "two"}, cfg.GetArray("app.server.allowed"))
	assert.Empty(t, cfg.GetArray("app.unknown"))
	assert.Equal(t, uint16(5), cfg.GetUint16("messaging.nsq.max_attempts"))

	assert.Equal(t, 250*time.Millisecond, cfg.GetMillisecond("modules.identity.otp.ledger.lock_ttl_ms"))
	assert.Equal(t, 2*time.Minute, cfg.GetSecond("modules.identity.otp.window_seconds"))
	assert.Equal(t, 2*time.Hour, cfg.GetHour("modules.notification.idempotency_ttl_hours"))
	assert.Equal(t, 72*time.Hour, cfg.GetDay("modules.identity.session.ttl_days"))
}

func TestViper_Defaults(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte("app: {}"))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.GetSecond("modules.identity.otp.window_seconds"))
	assert.Equal(t, 3, cfg.GetInt("modules.identity.otp.max_attempts"))
	assert.False(t, cfg.GetBool("modules.identity.otp.strict_attempts"))
	assert.Equal(t, "memory", cfg.GetString("modules.identity.otp.ledger.driver"))
	assert.Equal(t, 2*time.Second, cfg.GetMillisecond("modules.identity.otp.ledger.lock_ttl_ms"))
	assert.Equal(t, 7*24*time.Hour, cfg.GetDay("modules.identity.session.ttl_days"))
	assert.Equal(t, "connect.sid", cfg.GetString("modules.identity.session.cookie_name"))
	assert.Equal(t, []string{"identity_otp_requested_notification"}, cfg.GetArray("modules.notification.consumer_names"))
}

func TestNewViper_FileAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("modules:\n  identity:\n    otp:\n      max_attempts: 5\n"), 0o600))

	cfg, err := NewViper(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.GetInt("modules.identity.otp.max_attempts"))
	assert.Equal(t, 6, cfg.GetInt("modules.identity.otp.digits"))

	require.NoError(t, os.WriteFile(path, []byte("modules:\n  identity:\n    otp:\n      max_attempts: 7\n"), 0o600))
	require.Eventually(t, func() bool {
		return cfg.GetInt("modules.identity.otp.max_attempts") == 7
	}, 5*time.Second, 20*time.Millisecond)

	_, err = NewViper(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
