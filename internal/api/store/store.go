package store

import (
	"context"
	"errors"
	"time"

	"github.com/comicshelf/comicshelf/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and keeps transaction scoping explicit so we don't accidentally
// nest transactions.
type Store interface {
	Users() Users
	Verifications() Verifications
	Readings() Readings
	Favorites() Favorites

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id is provided by app via ULID).
	// Fails with ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and password reset.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// SetVerified flips the verified flag and bumps updated_at.
	SetVerified(ctx context.Context, userID string, verified bool) error

	// UpdatePasswordHash sets the password_hash (bcrypt) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateProfile mutates name/phone/address and bumps updated_at.
	UpdateProfile(ctx context.Context, userID, name, phone, address string) error

	// UpdateAvatar sets the avatar URL and bumps updated_at.
	UpdateAvatar(ctx context.Context, userID, avatarURL string) error

	// DeleteUser cascades to verifications, readings and favorites (per schema).
	DeleteUser(ctx context.Context, userID string) error
}

type Verifications interface {
	// CreateVerification writes a pending verification (secret_hash is bcrypt
	// of the mailed secret).
	CreateVerification(ctx context.Context, v domain.Verification) error

	// GetVerificationByUserID returns the pending verification for a user.
	GetVerificationByUserID(ctx context.Context, userID string) (domain.Verification, error)

	// DeleteVerifications removes all pending verifications for a user.
	DeleteVerifications(ctx context.Context, userID string) error

	// DeleteExpiredVerifications is housekeeping, mirroring a TTL index.
	DeleteExpiredVerifications(ctx context.Context, now time.Time) error
}

type Readings interface {
	// UpsertReading inserts or refreshes progress for a (user, slug) pair.
	UpsertReading(ctx context.Context, r domain.ReadingProgress) error

	// GetReading returns the progress for one comic.
	GetReading(ctx context.Context, userID, slug string) (domain.ReadingProgress, error)

	// ListReadings returns a page of progress rows, most recently read first.
	ListReadings(ctx context.Context, userID string, limit, offset int) ([]domain.ReadingProgress, error)

	// CountReadings returns the total number of progress rows for a user.
	CountReadings(ctx context.Context, userID string) (int, error)
}

type Favorites interface {
	// UpsertFavorite inserts or refreshes a favorite for a (user, slug) pair.
	UpsertFavorite(ctx context.Context, f domain.Favorite) error

	// DeleteFavorite removes a favorite. Fails with ErrNotFound when absent.
	DeleteFavorite(ctx context.Context, userID, slug string) error

	// ListFavorites returns all favorites for a user, most recently updated first.
	ListFavorites(ctx context.Context, userID string) ([]domain.Favorite, error)
}
