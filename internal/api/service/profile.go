package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/comicshelf/comicshelf/internal/api/domain"
	"github.com/comicshelf/comicshelf/internal/api/media"
	"github.com/comicshelf/comicshelf/internal/api/store"
	"github.com/comicshelf/comicshelf/pkg/slogx"
)

// AvatarUpload carries a validated avatar file from the handler. Size and
// content-type limits are enforced at the HTTP layer before this is built.
type AvatarUpload struct {
	ContentType string
	Body        io.Reader
}

// ProfileUpdate lists the mutable profile fields. Nil means "leave as is",
// mirroring a partial update.
type ProfileUpdate struct {
	Name    *string
	Phone   *string
	Address *string
	Avatar  *AvatarUpload
}

// ProfileService reads and mutates account profiles, including avatar
// storage.
type ProfileService struct {
	Store store.Store
	Media media.Store
}

// Get fetches the profile for a user.
func (s *ProfileService) Get(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// Update applies a partial profile update. A new avatar is uploaded first;
// the previous custom avatar is then deleted best-effort, so a failed delete
// never fails the update.
func (s *ProfileService) Update(ctx context.Context, userID string, upd ProfileUpdate) (domain.User, error) {
	log := slogx.FromContext(ctx)

	user, err := s.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	name, phone, address := user.Name, user.Phone, user.Address
	if upd.Name != nil && *upd.Name != "" {
		name = *upd.Name
	}
	if upd.Phone != nil && *upd.Phone != "" {
		phone = *upd.Phone
	}
	if upd.Address != nil && *upd.Address != "" {
		address = *upd.Address
	}
	if err := s.Store.Users().UpdateProfile(ctx, userID, name, phone, address); err != nil {
		return domain.User{}, err
	}

	if upd.Avatar != nil {
		obj, err := s.Media.Upload(ctx, media.AvatarKey(userID), upd.Avatar.ContentType, upd.Avatar.Body)
		if err != nil {
			return domain.User{}, err
		}

		if user.HasCustomAvatar() {
			if key, ok := s.Media.KeyForURL(user.AvatarURL); ok {
				if err := s.Media.Delete(ctx, key); err != nil {
					log.Warn("failed to delete old avatar",
						slog.String("user_id", userID),
						slog.String("key", key),
						slog.Any("error", err),
					)
				}
			}
		}

		if err := s.Store.Users().UpdateAvatar(ctx, userID, obj.URL); err != nil {
			return domain.User{}, err
		}
	}

	return s.Get(ctx, userID)
}
