package entity

import "time"

// User is the durable identity bound to one email address.
type User struct {
	ID              string
	Email           string
	FirstName       *string
	LastName        *string
	ProfileImageURL *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Snapshot returns the public fields stored inside a session payload.
func (u User) Snapshot() SessionUser {
	return SessionUser{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ProfileImageURL: u.ProfileImageURL,
	}
}

// UpdateProfile carries the optional name changes for a user.
type UpdateProfile struct {
	ID        string
	FirstName *string
	LastName  *string
	UpdatedAt time.Time
}
