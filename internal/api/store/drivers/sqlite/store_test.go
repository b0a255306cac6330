package sqlite_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/comicshelf/comicshelf/internal/api/domain"
	"github.com/comicshelf/comicshelf/internal/api/store"
	"github.com/comicshelf/comicshelf/internal/api/store/drivers/sqlite"
	"github.com/comicshelf/comicshelf/pkg/idx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dbCounter atomic.Int64

// newTestStore opens a fresh in-memory database with migrations applied.
// Each call gets its own named memory database so tests stay isolated.
func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared", dbCounter.Add(1))
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestUser(email string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		Name:         "Test User",
		AvatarURL:    domain.DefaultAvatarURL,
		Role:         domain.RoleUser,
	}
}

func TestUsersRepo(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newTestUser("alice@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	t.Run("duplicate email rejected", func(t *testing.T) {
		dup := newTestUser("alice@example.com")
		err := st.Users().CreateUser(ctx, dup)
		assert.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("get by id and email", func(t *testing.T) {
		byID, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, byID.Email)
		assert.False(t, byID.Verified)
		assert.False(t, byID.CreatedAt.IsZero())

		byEmail, err := st.Users().GetUserByEmail(ctx, u.Email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := st.Users().GetUserByID(ctx, idx.New().String())
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set verified", func(t *testing.T) {
		require.NoError(t, st.Users().SetVerified(ctx, u.ID, true))
		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, got.Verified)
	})

	t.Run("update profile", func(t *testing.T) {
		require.NoError(t, st.Users().UpdateProfile(ctx, u.ID, "Alice", "0400000000", "1 Example St"))
		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", got.Name)
		assert.Equal(t, "0400000000", got.Phone)
		assert.Equal(t, "1 Example St", got.Address)
	})

	t.Run("update avatar", func(t *testing.T) {
		require.NoError(t, st.Users().UpdateAvatar(ctx, u.ID, "https://media.example.com/avatars/x.png"))
		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, got.HasCustomAvatar())
	})

	t.Run("updates of missing user fail", func(t *testing.T) {
		err := st.Users().UpdatePasswordHash(ctx, idx.New().String(), "hash")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete user", func(t *testing.T) {
		require.NoError(t, st.Users().DeleteUser(ctx, u.ID))
		_, err := st.Users().GetUserByID(ctx, u.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestVerificationsRepo(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := newTestUser("bob@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	v := domain.Verification{
		UserID:     u.ID,
		SecretHash: "$2a$10$secret",
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
	}
	require.NoError(t, st.Verifications().CreateVerification(ctx, v))

	t.Run("lookup", func(t *testing.T) {
		got, err := st.Verifications().GetVerificationByUserID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, v.SecretHash, got.SecretHash)
		assert.False(t, got.Expired(now))
		assert.True(t, got.Expired(now.Add(2*time.Hour)))
	})

	t.Run("one pending verification per user", func(t *testing.T) {
		err := st.Verifications().CreateVerification(ctx, v)
		assert.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("expired purge", func(t *testing.T) {
		require.NoError(t, st.Verifications().DeleteExpiredVerifications(ctx, now.Add(2*time.Hour)))
		_, err := st.Verifications().GetVerificationByUserID(ctx, u.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("cascade on user delete", func(t *testing.T) {
		require.NoError(t, st.Verifications().CreateVerification(ctx, v))
		require.NoError(t, st.Users().DeleteUser(ctx, u.ID))
		_, err := st.Verifications().GetVerificationByUserID(ctx, u.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestReadingsRepo(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newTestUser("carol@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	t.Run("upsert refreshes in place", func(t *testing.T) {
		first := domain.ReadingProgress{
			UserID:          u.ID,
			Slug:            "one-piece",
			LastReadChapter: "chapter-1",
			LastReadAt:      time.Now().UTC().Add(-time.Hour),
		}
		require.NoError(t, st.Readings().UpsertReading(ctx, first))

		second := first
		second.LastReadChapter = "chapter-2"
		second.LastReadAt = time.Now().UTC()
		require.NoError(t, st.Readings().UpsertReading(ctx, second))

		got, err := st.Readings().GetReading(ctx, u.ID, "one-piece")
		require.NoError(t, err)
		assert.Equal(t, "chapter-2", got.LastReadChapter)

		count, err := st.Readings().CountReadings(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("list orders by most recently read", func(t *testing.T) {
		base := time.Now().UTC()
		for i, slug := range []string{"naruto", "bleach", "berserk"} {
			require.NoError(t, st.Readings().UpsertReading(ctx, domain.ReadingProgress{
				UserID:          u.ID,
				Slug:            slug,
				LastReadChapter: "chapter-1",
				LastReadAt:      base.Add(time.Duration(i) * time.Minute),
			}))
		}

		page, err := st.Readings().ListReadings(ctx, u.ID, 2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "berserk", page[0].Slug)
		assert.Equal(t, "bleach", page[1].Slug)

		rest, err := st.Readings().ListReadings(ctx, u.ID, 2, 2)
		require.NoError(t, err)
		require.Len(t, rest, 2)
		assert.Equal(t, "naruto", rest[0].Slug)

		count, err := st.Readings().CountReadings(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, count)
	})

	t.Run("missing reading", func(t *testing.T) {
		_, err := st.Readings().GetReading(ctx, u.ID, "no-such-slug")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestFavoritesRepo(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newTestUser("dave@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	t.Run("favorite without chapter stores nulls", func(t *testing.T) {
		require.NoError(t, st.Favorites().UpsertFavorite(ctx, domain.Favorite{
			UserID: u.ID,
			Slug:   "vinland-saga",
		}))

		favs, err := st.Favorites().ListFavorites(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, favs, 1)
		assert.Nil(t, favs[0].LastReadChapter)
		assert.Nil(t, favs[0].LastReadAt)
	})

	t.Run("upsert fills in chapter later", func(t *testing.T) {
		chapter := "chapter-12"
		readAt := time.Now().UTC()
		require.NoError(t, st.Favorites().UpsertFavorite(ctx, domain.Favorite{
			UserID:          u.ID,
			Slug:            "vinland-saga",
			LastReadChapter: &chapter,
			LastReadAt:      &readAt,
		}))

		favs, err := st.Favorites().ListFavorites(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, favs, 1)
		require.NotNil(t, favs[0].LastReadChapter)
		assert.Equal(t, "chapter-12", *favs[0].LastReadChapter)
		require.NotNil(t, favs[0].LastReadAt)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, st.Favorites().DeleteFavorite(ctx, u.ID, "vinland-saga"))
		assert.ErrorIs(t, st.Favorites().DeleteFavorite(ctx, u.ID, "vinland-saga"), store.ErrNotFound)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newTestUser("erin@example.com")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = st.Users().GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
