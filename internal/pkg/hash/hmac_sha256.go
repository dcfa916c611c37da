package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// HMACSHA256 keys SHA-256 digests with a secret. Digests are unpadded
// base64url so they fit in cookie values and redis hashes unchanged.
type HMACSHA256 struct {
	key []byte
}

// NewHMACSHA256 returns a keyed hasher. Use DeriveKey to get a per-purpose key.
func NewHMACSHA256(key string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(key)}
}

// Hash returns the encoded digest of str.
func (h *HMACSHA256) Hash(str string) ([]byte, error) {
	sum := h.sum(str)
	out := make([]byte, base64.RawURLEncoding.EncodedLen(len(sum)))
	base64.RawURLEncoding.Encode(out, sum)
	return out, nil
}

// Verify reports whether digest was produced from str with this key.
// Malformed digests never match.
func (h *HMACSHA256) Verify(digest, str string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(digest)
	if err != nil {
		return false
	}
	return hmac.Equal(raw, h.sum(str))
}

func (h *HMACSHA256) sum(str string) []byte {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(str))
	return mac.Sum(nil)
}
