package domain

import "time"

// ReadingProgress tracks the last chapter a user read of a comic. One row
// per (user, slug) pair.
type ReadingProgress struct {
	UserID          string
	Slug            string
	LastReadChapter string
	LastReadAt      time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Favorite is a bookmarked comic. The chapter is optional: favoriting a
// comic the user hasn't started yet stores no progress.
type Favorite struct {
	UserID          string
	Slug            string
	LastReadChapter *string
	LastReadAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
