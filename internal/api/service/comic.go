package service

import (
	"context"
	"errors"
	"time"

	"github.com/comicshelf/comicshelf/internal/api/domain"
	"github.com/comicshelf/comicshelf/internal/api/store"
)

var (
	ErrSlugRequired     = errors.New("slug is required")
	ErrChapterRequired  = errors.New("slug and chapter are required")
	ErrProgressNotFound = errors.New("no reading progress found for this comic")
	ErrFavoriteNotFound = errors.New("comic not found in favorites")
)

// Pagination defaults for the reading list.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Pagination describes one page of a list response.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// ComicService tracks per-user reading progress and favorites. Comics are
// referenced only by slug; the catalogue itself lives elsewhere.
type ComicService struct {
	Store store.Store
}

// ReadingList returns one page of in-progress comics, most recently read
// first. Page and limit below 1 fall back to the defaults.
func (s *ComicService) ReadingList(ctx context.Context, userID string, page, limit int) ([]domain.ReadingProgress, Pagination, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	totalItems, err := s.Store.Readings().CountReadings(ctx, userID)
	if err != nil {
		return nil, Pagination{}, err
	}

	items, err := s.Store.Readings().ListReadings(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, Pagination{}, err
	}

	return items, Pagination{
		CurrentPage:  page,
		TotalPages:   (totalItems + limit - 1) / limit,
		TotalItems:   totalItems,
		ItemsPerPage: limit,
	}, nil
}

// LastChapter returns the progress for one comic.
func (s *ComicService) LastChapter(ctx context.Context, userID, slug string) (domain.ReadingProgress, error) {
	if slug == "" {
		return domain.ReadingProgress{}, ErrSlugRequired
	}

	progress, err := s.Store.Readings().GetReading(ctx, userID, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ReadingProgress{}, ErrProgressNotFound
		}
		return domain.ReadingProgress{}, err
	}
	return progress, nil
}

// UpdateProgress records the chapter a user just read. Repeat updates for
// the same comic refresh the existing row.
func (s *ComicService) UpdateProgress(ctx context.Context, userID, slug, chapter string) (domain.ReadingProgress, error) {
	if slug == "" || chapter == "" {
		return domain.ReadingProgress{}, ErrChapterRequired
	}

	progress := domain.ReadingProgress{
		UserID:          userID,
		Slug:            slug,
		LastReadChapter: chapter,
		LastReadAt:      time.Now().UTC(),
	}
	if err := s.Store.Readings().UpsertReading(ctx, progress); err != nil {
		return domain.ReadingProgress{}, err
	}
	return progress, nil
}

// AddFavorite bookmarks a comic. The chapter is optional; without one the
// favorite carries no progress.
func (s *ComicService) AddFavorite(ctx context.Context, userID, slug, chapter string) (domain.Favorite, error) {
	if slug == "" {
		return domain.Favorite{}, ErrSlugRequired
	}

	favorite := domain.Favorite{
		UserID: userID,
		Slug:   slug,
	}
	if chapter != "" {
		now := time.Now().UTC()
		favorite.LastReadChapter = &chapter
		favorite.LastReadAt = &now
	}
	if err := s.Store.Favorites().UpsertFavorite(ctx, favorite); err != nil {
		return domain.Favorite{}, err
	}
	return favorite, nil
}

// RemoveFavorite drops a comic from the favorites list.
func (s *ComicService) RemoveFavorite(ctx context.Context, userID, slug string) error {
	if slug == "" {
		return ErrSlugRequired
	}

	if err := s.Store.Favorites().DeleteFavorite(ctx, userID, slug); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrFavoriteNotFound
		}
		return err
	}
	return nil
}

// ListFavorites returns all favorites, most recently updated first.
func (s *ComicService) ListFavorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	return s.Store.Favorites().ListFavorites(ctx, userID)
}
