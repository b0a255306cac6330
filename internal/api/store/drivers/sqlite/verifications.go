package sqlite

import (
	"context"
	"time"

	"github.com/comicshelf/comicshelf/internal/api/domain"
)

type verificationsRepo struct {
	db dbtx
}

func (r *verificationsRepo) CreateVerification(ctx context.Context, v domain.Verification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verifications (user_id, secret_hash, created_at, expires_at)
		VALUES (?, ?, ?, ?)`,
		v.UserID, v.SecretHash, v.CreatedAt, v.ExpiresAt,
	)
	return mapConstraint(err)
}

func (r *verificationsRepo) GetVerificationByUserID(ctx context.Context, userID string) (domain.Verification, error) {
	var v domain.Verification
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, secret_hash, created_at, expires_at
		FROM verifications WHERE user_id = ?`, userID,
	).Scan(&v.UserID, &v.SecretHash, &v.CreatedAt, &v.ExpiresAt)
	if err != nil {
		return domain.Verification{}, mapNotFound(err)
	}
	return v, nil
}

func (r *verificationsRepo) DeleteVerifications(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM verifications WHERE user_id = ?`, userID)
	return err
}

// DeleteExpiredVerifications stands in for a document-store TTL index; the
// housekeeping loop calls it periodically.
func (r *verificationsRepo) DeleteExpiredVerifications(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM verifications WHERE expires_at <= ?`, now)
	return err
}
