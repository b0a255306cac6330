package domain

import "time"

// DefaultAvatarURL is assigned to new accounts until they upload their own
// picture. Profile updates never delete this one from media storage.
const DefaultAvatarURL = "https://cdn.vectorstock.com/i/1000x1000/44/01/default-avatar-photo-placeholder-icon-grey-vector-38594401.webp"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt encoded
	Name         string
	Phone        string
	Address      string
	AvatarURL    string
	Role         string // "user" or "admin"
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasCustomAvatar reports whether the user has replaced the placeholder
// avatar with an uploaded one.
func (u *User) HasCustomAvatar() bool {
	return u.AvatarURL != "" && u.AvatarURL != DefaultAvatarURL
}
