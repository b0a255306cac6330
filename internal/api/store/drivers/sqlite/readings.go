package sqlite

import (
	"context"
	"time"

	"github.com/comicshelf/comicshelf/internal/api/domain"
)

type readingsRepo struct {
	db dbtx
}

// UpsertReading mirrors a findOneAndUpdate with upsert on the (user, slug)
// unique index: a repeat read of the same comic refreshes the row in place.
func (r *readingsRepo) UpsertReading(ctx context.Context, p domain.ReadingProgress) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO readings (user_id, slug, last_read_chapter, last_read_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, slug) DO UPDATE SET
			last_read_chapter = excluded.last_read_chapter,
			last_read_at      = excluded.last_read_at,
			updated_at        = excluded.updated_at`,
		p.UserID, p.Slug, p.LastReadChapter, p.LastReadAt, now, now,
	)
	return err
}

func (r *readingsRepo) GetReading(ctx context.Context, userID, slug string) (domain.ReadingProgress, error) {
	var p domain.ReadingProgress
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, slug, last_read_chapter, last_read_at, created_at, updated_at
		FROM readings WHERE user_id = ? AND slug = ?`, userID, slug,
	).Scan(&p.UserID, &p.Slug, &p.LastReadChapter, &p.LastReadAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.ReadingProgress{}, mapNotFound(err)
	}
	return p, nil
}

func (r *readingsRepo) ListReadings(ctx context.Context, userID string, limit, offset int) ([]domain.ReadingProgress, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, slug, last_read_chapter, last_read_at, created_at, updated_at
		FROM readings WHERE user_id = ?
		ORDER BY last_read_at DESC
		LIMIT ? OFFSET ?`, userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReadingProgress
	for rows.Next() {
		var p domain.ReadingProgress
		if err := rows.Scan(&p.UserID, &p.Slug, &p.LastReadChapter, &p.LastReadAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *readingsRepo) CountReadings(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}
