package domain

import "time"

// Verification is a pending email-verification record. The secret mailed to
// the user is never stored, only its bcrypt hash.
type Verification struct {
	UserID     string
	SecretHash string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the verification window has closed.
func (v *Verification) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
