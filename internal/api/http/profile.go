package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/comicshelf/comicshelf/internal/api/service"
	"github.com/comicshelf/comicshelf/pkg/httpx"
	"github.com/comicshelf/comicshelf/pkg/slogx"
)

// maxAvatarBytes caps an uploaded avatar at 512KiB.
const maxAvatarBytes = 512 * 1024

// formOverheadBytes allows for the multipart framing and text fields on top
// of the avatar itself.
const formOverheadBytes = 64 * 1024

// ProfileHandler serves the authenticated profile endpoints.
type ProfileHandler struct {
	ProfileService *service.ProfileService
}

// HandleGet serves GET /api/profile.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		ErrUserNotFound.WriteError(w)
		return
	}

	user, err := h.ProfileService.Get(ctx, userID)
	if err != nil {
		apiErr, known := apiErrorFor(err)
		if !known {
			log.Error("profile lookup failed", "user_id", userID, "err", err)
		}
		apiErr.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user": newUserView(user),
	})
}

// HandleUpdate serves PUT /api/profile. The body is multipart form data:
// optional name/phone/address text fields plus an optional "avatar" file
// part. Any spilled temp files are removed once the request finishes.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		ErrUserNotFound.WriteError(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+formOverheadBytes)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			ErrAvatarTooLarge.WriteError(w)
			return
		}
		ErrInvalidBody.WriteError(w)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Warn("failed to remove upload temp files", "err", err)
		}
	}()

	var upd service.ProfileUpdate
	if v := r.FormValue("name"); v != "" {
		upd.Name = &v
	}
	if v := r.FormValue("phone"); v != "" {
		upd.Phone = &v
	}
	if v := r.FormValue("address"); v != "" {
		upd.Address = &v
	}

	file, header, err := r.FormFile("avatar")
	switch {
	case err == nil:
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			ErrAvatarNotImage.WriteError(w)
			return
		}
		if header.Size > maxAvatarBytes {
			ErrAvatarTooLarge.WriteError(w)
			return
		}
		upd.Avatar = &service.AvatarUpload{
			ContentType: contentType,
			Body:        file,
		}
	case errors.Is(err, http.ErrMissingFile):
		// Text-only update.
	default:
		ErrInvalidBody.WriteError(w)
		return
	}

	user, err := h.ProfileService.Update(ctx, userID, upd)
	if err != nil {
		apiErr, known := apiErrorFor(err)
		if !known {
			log.Error("profile update failed", "user_id", userID, "err", err)
		}
		apiErr.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    newUserView(user),
	})
}
