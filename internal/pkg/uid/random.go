package uid

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// Random generates URL-safe identifiers from crypto/rand bytes.
type Random struct {
	size int
}

// NewRandom returns a generator producing size random bytes per ID (24 when size < 16).
func NewRandom(size int) *Random {
	if size < 16 {
		size = 24
	}
	return &Random{size: size}
}

// Generate returns the unpadded base64url encoding of fresh random bytes.
func (r *Random) Generate() string {
	b := make([]byte, r.size)
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// UUID generates RFC 9562 UUID strings, version 7 when possible.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
