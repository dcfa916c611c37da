// Package config exposes typed, read-only access to the service configuration.
//
// Keys are dotted paths such as "modules.identity.otp.window_seconds". Duration
// getters read an integer and scale it by the unit in their name, so the unit
// lives in the key suffix (_ms, _seconds, _hours, _days).
package config

import (
	"io"
	"time"
)

// Config is the read side of the configuration used across the service.
// Missing keys yield the zero value (or the registered default).
type Config interface {
	io.Closer

	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint16(key string) uint16
	GetFloat64(key string) float64

	// GetArray accepts a YAML sequence or a comma separated string and drops
	// blank elements.
	GetArray(key string) []string

	GetMillisecond(key string) time.Duration
	GetSecond(key string) time.Duration
	GetHour(key string) time.Duration
	GetDay(key string) time.Duration
}
