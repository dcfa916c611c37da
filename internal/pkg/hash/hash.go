package hash

// Hash turns a short-lived secret (an OTP code or session id) into a digest
// that is safe to persist, and checks candidates against it.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(digest, str string) bool
}
