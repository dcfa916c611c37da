package hash

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey expands a master secret into a 32-byte subkey bound to info, so one
// configured secret can key several independent HMACs.
func DeriveKey(secret, info string) (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return "", err
	}
	return string(key), nil
}
