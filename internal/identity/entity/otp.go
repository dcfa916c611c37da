package entity

import "time"

// PendingOTP is the single outstanding code for an email address.
type PendingOTP struct {
	Email string
	// CodeDigest is the keyed digest of the code; the plaintext is never stored.
	CodeDigest string
	ExpiresAt  time.Time
	Attempts   int
}

// Expired reports whether now is past the expiry instant.
func (p PendingOTP) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Rejection is the reason a verification did not succeed.
type Rejection int

const (
	RejectionNone Rejection = iota
	RejectionNotFound
	RejectionExpired
	RejectionTooManyAttempts
	RejectionInvalidCode
)

func (r Rejection) String() string {
	switch r {
	case RejectionNotFound:
		return "not_found"
	case RejectionExpired:
		return "expired"
	case RejectionTooManyAttempts:
		return "too_many_attempts"
	case RejectionInvalidCode:
		return "invalid_code"
	default:
		return "none"
	}
}

// Message is the client-facing text for the rejection.
func (r Rejection) Message() string {
	switch r {
	case RejectionNotFound:
		return "OTP not found or expired"
	case RejectionExpired:
		return "OTP expired"
	case RejectionTooManyAttempts:
		return "Too many failed attempts"
	case RejectionInvalidCode:
		return "Invalid OTP"
	default:
		return ""
	}
}
