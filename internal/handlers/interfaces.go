package handlers

import (
	"context"
	"io"
	"time"

	"github.com/tubeline/backend/internal/media"
	"github.com/tubeline/backend/internal/models"
	"github.com/tubeline/backend/internal/repositories"
)

// AccountStore captures the persistence operations required by the account and auth handlers.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) error
	FindByID(ctx context.Context, id string) (models.Account, error)
	FindByHandleOrEmail(ctx context.Context, login string) (models.Account, error)
	UpdateProfile(ctx context.Context, id, fullName, email string, updatedAt time.Time) (models.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	UpdateAvatar(ctx context.Context, id, url, key string, updatedAt time.Time) error
	UpdateCoverImage(ctx context.Context, id, url, key string, updatedAt time.Time) error
}

// SessionManager issues, rotates and revokes authentication tokens for accounts.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	RevokeAll(ctx context.Context, userID string) error
}

// ProfileResolver builds the channel profile shown for a handle.
type ProfileResolver interface {
	Resolve(ctx context.Context, handle, viewerID string) (models.ChannelProfile, error)
}

// HistoryExpander turns a viewer's watch history into displayable videos.
type HistoryExpander interface {
	Expand(ctx context.Context, viewerID string) ([]models.VideoWithOwner, error)
}

// SubscriptionStore captures operations required by the subscription handlers.
type SubscriptionStore interface {
	FindEdge(ctx context.Context, subscriberID, channelID string) (models.SubscriptionEdge, error)
	Create(ctx context.Context, edge models.SubscriptionEdge) error
	Delete(ctx context.Context, subscriberID, channelID string) error
	ListSubscribers(ctx context.Context, channelID string) ([]models.Account, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.Account, error)
}

// VideoStore captures persistence for uploaded videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	List(ctx context.Context, opts repositories.VideoListOptions) ([]models.VideoWithOwner, int64, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}

// HistoryRecorder appends watched videos to an account's history.
type HistoryRecorder interface {
	Append(ctx context.Context, accountID, videoID string, watchedAt time.Time) error
}

// CommentStore captures persistence for video comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string, page, limit int) ([]models.CommentWithOwner, int64, error)
	Update(ctx context.Context, id, content string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// LikeStore toggles and lists likes.
type LikeStore interface {
	ToggleVideoLike(ctx context.Context, accountID, videoID string) (bool, error)
	ToggleCommentLike(ctx context.Context, accountID, commentID string) (bool, error)
	LikedVideos(ctx context.Context, accountID string) ([]models.VideoWithOwner, error)
}

// PlaylistStore captures persistence for playlists.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, id, name, description string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// MediaUploader stores uploaded files.
type MediaUploader interface {
	Upload(ctx context.Context, kind media.Kind, filename string, r io.Reader) (media.Object, error)
	UploadVideo(ctx context.Context, filename string, r io.Reader) (media.Object, float64, error)
}

// MediaJanitor removes objects that are no longer referenced.
type MediaJanitor interface {
	Schedule(ctx context.Context, keys ...string) error
}
