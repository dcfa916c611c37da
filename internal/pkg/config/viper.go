package config

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ErrConfigType is returned by NewViperFromBytes when no format is given.
var ErrConfigType = errors.New("config: type is required")

// Viper implements Config on top of spf13/viper. File-backed instances reload
// on change; reads are serialized against the reload.
type Viper struct {
	mu sync.RWMutex
	v  *viper.Viper
}

// NewViper loads pathFile (format taken from its extension), applies
// environment overrides and defaults, and watches the file for changes.
func NewViper(pathFile string) (*Viper, error) {
	v := viper.New()
	v.SetConfigFile(pathFile)
	bindEnv(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	vc := &Viper{v: v}
	v.OnConfigChange(func(e fsnotify.Event) {
		vc.mu.Lock()
		err := v.ReadInConfig()
		vc.mu.Unlock()
		if err != nil {
			slog.Error("config reload failed", "path", filepath.Clean(e.Name), "error", err)
			return
		}
		slog.Info("config reloaded", "path", filepath.Clean(e.Name), "op", e.Op.String())
	})
	v.WatchConfig()

	return vc, nil
}

// NewViperFromBytes builds a Config from an in-memory document. It is used by
// tests and does not watch anything.
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, ErrConfigType
	}

	v := viper.New()
	v.SetConfigType(configType)
	setDefaults(v)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func read[T any](vc *Viper, f func(*viper.Viper) T) T {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	return f(vc.v)
}

func (vc *Viper) scaled(key string, unit time.Duration) time.Duration {
	return time.Duration(read(vc, func(v *viper.Viper) int64 { return v.GetInt64(key) })) * unit
}

func (vc *Viper) GetString(key string) string {
	return read(vc, func(v *viper.Viper) string { return v.GetString(key) })
}

func (vc *Viper) GetBool(key string) bool {
	return read(vc, func(v *viper.Viper) bool { return v.GetBool(key) })
}

func (vc *Viper) GetInt(key string) int {
	return read(vc, func(v *viper.Viper) int { return v.GetInt(key) })
}

func (vc *Viper) GetInt32(key string) int32 {
	return read(vc, func(v *viper.Viper) int32 { return v.GetInt32(key) })
}

func (vc *Viper) GetInt64(key string) int64 {
	return read(vc, func(v *viper.Viper) int64 { return v.GetInt64(key) })
}

func (vc *Viper) GetUint16(key string) uint16 {
	return read(vc, func(v *viper.Viper) uint16 { return v.GetUint16(key) })
}

func (vc *Viper) GetFloat64(key string) float64 {
	return read(vc, func(v *viper.Viper) float64 { return v.GetFloat64(key) })
}

func (vc *Viper) GetMillisecond(key string) time.Duration { return vc.scaled(key, time.Millisecond) }
func (vc *Viper) GetSecond(key string) time.Duration      { return vc.scaled(key, time.Second) }
func (vc *Viper) GetHour(key string) time.Duration        { return vc.scaled(key, time.Hour) }
func (vc *Viper) GetDay(key string) time.Duration         { return vc.scaled(key, 24*time.Hour) }

func (vc *Viper) GetArray(key string) []string {
	raw := read(vc, func(v *viper.Viper) []string {
		if _, ok := v.Get(key).([]any); ok {
			return v.GetStringSlice(key)
		}
		return strings.Split(v.GetString(key), ",")
	})

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Close is a no-op; viper offers no way to stop its watcher.
func (vc *Viper) Close() error {
	return nil
}

// bindEnv lets APP_SERVER_HTTP_ADDRESS override app.server.http.address.
func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Passwordless")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.server.http.address", ":8080")
	v.SetDefault("app.server.max_goroutine", 100)
	v.SetDefault("redis.idempotency_prefix", "idempotency:")
	v.SetDefault("mail.driver", "smtp")
	v.SetDefault("instrument.service_name", "passwordless")
	v.SetDefault("instrument.log_level", "info")

	v.SetDefault("modules.identity.enabled", true)
	v.SetDefault("modules.identity.otp.digits", 6)
	v.SetDefault("modules.identity.otp.window_seconds", 300)
	v.SetDefault("modules.identity.otp.max_attempts", 3)
	v.SetDefault("modules.identity.otp.strict_attempts", false)
	v.SetDefault("modules.identity.otp.sweep_interval_seconds", 0)
	v.SetDefault("modules.identity.otp.ledger.driver", "memory")
	v.SetDefault("modules.identity.otp.ledger.redis_retention_seconds", 3600)
	v.SetDefault("modules.identity.otp.ledger.lock_ttl_ms", 2000)
	v.SetDefault("modules.identity.otp.ledger.lock_wait_ms", 1000)
	v.SetDefault("modules.identity.notifier.driver", "mail")
	v.SetDefault("modules.identity.session.ttl_days", 7)
	v.SetDefault("modules.identity.session.cookie_name", "connect.sid")
	v.SetDefault("modules.identity.session.id_bytes", 24)
	v.SetDefault("modules.identity.session.prune_interval_seconds", 900)
	v.SetDefault("modules.identity.session.rolling", false)
	v.SetDefault("modules.identity.avatar.max_bytes", 2<<20)

	v.SetDefault("modules.notification.enabled", true)
	v.SetDefault("modules.notification.consumer_names", "identity_otp_requested_notification")
	v.SetDefault("modules.notification.consumer_concurrency", 4)
	v.SetDefault("modules.notification.idempotency_ttl_hours", 24)
}
