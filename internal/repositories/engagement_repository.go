package repositories

import (
	"context"
	"time"

	"github.com/tubeline/backend/internal/models"
)

// CommentRepository stores comments left on videos.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string, page, limit int) ([]models.CommentWithOwner, int64, error)
	Update(ctx context.Context, id, content string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// LikeRepository toggles likes on videos and comments.
type LikeRepository interface {
	ToggleVideoLike(ctx context.Context, accountID, videoID string) (bool, error)
	ToggleCommentLike(ctx context.Context, accountID, commentID string) (bool, error)
	LikedVideos(ctx context.Context, accountID string) ([]models.VideoWithOwner, error)
}

// PlaylistRepository stores owner-curated playlists.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, id, name, description string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}
