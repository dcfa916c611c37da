package entity

import "time"

// Session is a server-side login bound to one user.
type Session struct {
	ID        string
	Payload   SessionPayload
	ExpiresAt time.Time
}

// SessionPayload is persisted as JSON in the sess column.
type SessionPayload struct {
	Cookie SessionCookie `json:"cookie"`
	User   SessionUser   `json:"user"`
}

// SessionCookie records the cookie attributes the session was issued with.
type SessionCookie struct {
	OriginalMaxAge int64     `json:"originalMaxAge"`
	Expires        time.Time `json:"expires"`
	Secure         bool      `json:"secure"`
	HTTPOnly       bool      `json:"httpOnly"`
	Path           string    `json:"path"`
	SameSite       string    `json:"sameSite"`
}

// SessionUser is the identity snapshot taken at login. It may go stale.
type SessionUser struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	ProfileImageURL *string `json:"profileImageUrl"`
}
