package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/comicshelf/comicshelf/internal/api/domain"
	"github.com/comicshelf/comicshelf/internal/api/store"
)

type favoritesRepo struct {
	db dbtx
}

// UpsertFavorite mirrors a findOneAndUpdate with upsert on the (user, slug)
// unique index. Chapter and last-read time are nullable: favoriting a comic
// the user hasn't started stores neither.
func (r *favoritesRepo) UpsertFavorite(ctx context.Context, f domain.Favorite) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, slug, last_read_chapter, last_read_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, slug) DO UPDATE SET
			last_read_chapter = excluded.last_read_chapter,
			last_read_at      = excluded.last_read_at,
			updated_at        = excluded.updated_at`,
		f.UserID, f.Slug, mapOptionalString(f.LastReadChapter), mapOptionalTime(f.LastReadAt), now, now,
	)
	return err
}

func (r *favoritesRepo) DeleteFavorite(ctx context.Context, userID, slug string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ? AND slug = ?`, userID, slug)
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

func (r *favoritesRepo) ListFavorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, slug, last_read_chapter, last_read_at, created_at, updated_at
		FROM favorites WHERE user_id = ?
		ORDER BY updated_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Favorite
	for rows.Next() {
		var (
			f       domain.Favorite
			chapter sql.NullString
			readAt  sql.NullTime
		)
		if err := rows.Scan(&f.UserID, &f.Slug, &chapter, &readAt, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		f.LastReadChapter = mapNullStringPtr(chapter)
		f.LastReadAt = mapNullTimePtr(readAt)
		out = append(out, f)
	}
	return out, rows.Err()
}
