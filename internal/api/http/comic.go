package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/comicshelf/comicshelf/internal/api/service"
	"github.com/comicshelf/comicshelf/internal/api/store"
	"github.com/comicshelf/comicshelf/pkg/httpx"
	"github.com/comicshelf/comicshelf/pkg/slogx"
)

// ComicHandler serves the authenticated reading-progress and favorites
// endpoints. Every operation is scoped to the caller taken from the request
// context, never from the request body.
type ComicHandler struct {
	ComicService *service.ComicService
}

// HandleReadingList serves GET /api/comic/reading-list.
func (h *ComicHandler) HandleReadingList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromCtx(ctx)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, pagination, err := h.ComicService.ReadingList(ctx, userID, page, limit)
	if err != nil {
		log.Error("reading list failed", "user_id", userID, "err", err)
		ErrServerError.WriteError(w)
		return
	}

	data := make([]progressView, 0, len(items))
	for _, item := range items {
		data = append(data, newProgressView(item))
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message":    "Successfully fetched reading list",
		"data":       data,
		"pagination": pagination,
	})
}

// HandleLastChapter serves GET /api/comic/last-chapter/{slug}.
func (h *ComicHandler) HandleLastChapter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromCtx(ctx)

	progress, err := h.ComicService.LastChapter(ctx, userID, r.PathValue("slug"))
	if err != nil {
		apiErr, known := apiErrorFor(err)
		if !known {
			log.Error("last chapter lookup failed", "user_id", userID, "err", err)
		}
		apiErr.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Successfully fetched last read chapter",
		"data":    newProgressView(progress),
	})
}

type progressRequest struct {
	Slug    string `json:"slug"`
	Chapter string `json:"chapter"`
}

// HandleUpdateProgress serves POST /api/comic/update-progress.
func (h *ComicHandler) HandleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromCtx(ctx)

	var req progressRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrInvalidBody.WriteError(w)
		return
	}

	progress, err := h.ComicService.UpdateProgress(ctx, userID, req.Slug, req.Chapter)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			ErrDuplicateRecord.WriteError(w)
			return
		}
		apiErr, known := apiErrorFor(err)
		if !known {
			log.Error("progress update failed", "user_id", userID, "err", err)
		}
		apiErr.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Reading progress updated successfully",
		"data":    newProgressView(progress),
	})
}

// HandleAddFavorite serves POST /api/comic/favorites. The chapter is
// optional; leaving it out stores a favorite with no progress attached.
func (h *ComicHandler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromCtx(ctx)

	var req progressRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrInvalidBody.WriteError(w)
		return
	}

	favorite, err := h.ComicService.AddFavorite(ctx, userID, req.Slug, req.Chapter)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			ErrDuplicateRecord.WriteError(w)
			return
		}
		apiErr, known := apiErrorFor(err)
		if !known {
			log.Error("favorite add failed", "user_id", userID, "err", err)
		}
		apiErr.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Added to favorites",
		"data":    newFavoriteView(favorite),
	})
}

// HandleRemoveFavorite serves DELETE /api/comic/favorites/{slug}.
func (h *ComicHandler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromCtx(ctx)

	slug := r.PathValue("slug")
	if err := h.ComicService.RemoveFavorite(ctx, userID, slug); err != nil {
		apiErr, known := apiErrorFor(err)
		if !known {
			log.Error("favorite remove failed", "user_id", userID, "err", err)
		}
		apiErr.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Removed from favorites",
		"data":    map[string]string{"slug": slug},
	})
}

// HandleListFavorites serves GET /api/comic/favorites.
func (h *ComicHandler) HandleListFavorites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromCtx(ctx)

	favorites, err := h.ComicService.ListFavorites(ctx, userID)
	if err != nil {
		log.Error("favorites list failed", "user_id", userID, "err", err)
		ErrServerError.WriteError(w)
		return
	}

	data := make([]progressView, 0, len(favorites))
	for _, favorite := range favorites {
		data = append(data, newFavoriteView(favorite))
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Favorites list",
		"count":   len(data),
		"data":    data,
	})
}
