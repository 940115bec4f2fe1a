package models

import "time"

// RefreshToken is a persisted session. UserID and UserEmail are a weak
// reference to the owning user, copied at issuance.
type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	UserEmail string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session's lifetime has passed at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
