package sqlite

import (
	"context"
	"time"

	"github.com/comicshelf/comicshelf/internal/api/domain"
	"github.com/comicshelf/comicshelf/internal/api/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, password_hash, name, phone, address, avatar_url, role, verified, created_at, updated_at`

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, phone, address, avatar_url, role, verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Phone, u.Address, u.AvatarURL, u.Role, u.Verified, now, now,
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) SetVerified(ctx context.Context, userID string, verified bool) error {
	return r.updateOne(ctx, `UPDATE users SET verified = ?, updated_at = ? WHERE id = ?`,
		verified, time.Now().UTC(), userID)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	return r.updateOne(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, name, phone, address string) error {
	return r.updateOne(ctx, `UPDATE users SET name = ?, phone = ?, address = ?, updated_at = ? WHERE id = ?`,
		name, phone, address, time.Now().UTC(), userID)
}

func (r *usersRepo) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	return r.updateOne(ctx, `UPDATE users SET avatar_url = ?, updated_at = ? WHERE id = ?`,
		avatarURL, time.Now().UTC(), userID)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	return r.updateOne(ctx, `DELETE FROM users WHERE id = ?`, userID)
}

// updateOne runs a statement expected to touch exactly one row and maps a
// zero-row result to ErrNotFound.
func (r *usersRepo) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Address,
		&u.AvatarURL, &u.Role, &u.Verified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}
