package repositories

import (
	"context"
	"time"

	"github.com/tubeline/backend/internal/models"
)

// VideoListOptions filters and orders a video listing.
type VideoListOptions struct {
	Page       int
	Limit      int
	Query      string
	SortBy     string
	Descending bool
	OwnerID    string
	// IncludeUnpublished lists drafts as well; callers only set it for the owner.
	IncludeUnpublished bool
}

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Video, error)
	List(ctx context.Context, opts VideoListOptions) ([]models.VideoWithOwner, int64, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}

// WatchHistoryRepository records which videos an account has watched.
type WatchHistoryRepository interface {
	Append(ctx context.Context, accountID, videoID string, watchedAt time.Time) error
	List(ctx context.Context, accountID string) ([]string, error)
}
