package models

import "time"

// RememberToken is a persisted remember-me credential. Only the hash of the
// authenticator is ever stored.
type RememberToken struct {
	ID            string
	UserID        int64
	Selector      string
	ValidatorHash string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

func (t RememberToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
