package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/tubeline/backend/internal/auth"
	"github.com/tubeline/backend/internal/logging"
	"github.com/tubeline/backend/internal/models"
	"github.com/tubeline/backend/internal/repositories"
)

// LikeHandler toggles likes on videos and comments.
type LikeHandler struct {
	Likes LikeStore
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "videoId", "video", func(ctx context.Context, viewerID, id string) (bool, error) {
		return h.Likes.ToggleVideoLike(ctx, viewerID, id)
	})
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "commentId", "comment", func(ctx context.Context, viewerID, id string) (bool, error) {
		return h.Likes.ToggleCommentLike(ctx, viewerID, id)
	})
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, param, target string, toggle func(ctx context.Context, viewerID, id string) (bool, error)) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Likes == nil {
		logger.Error("like store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "like services unavailable")
		return
	}

	id, ok := pathID(r, param)
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid "+target+" id")
		return
	}

	liked, err := toggle(ctx, auth.ViewerIDFromContext(ctx), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, target+" not found")
			return
		}
		logger.Error("toggle like", "target", target, "id", id, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update like")
		return
	}

	if liked {
		respond(ctx, w, http.StatusCreated, likeState{Liked: true}, "Liked successfully")
		return
	}
	respond(ctx, w, http.StatusOK, likeState{Liked: false}, "Unliked successfully")
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Likes == nil {
		logger.Error("like store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "like services unavailable")
		return
	}

	videos, err := h.Likes.LikedVideos(ctx, auth.ViewerIDFromContext(ctx))
	if err != nil {
		logger.Error("list liked videos", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load liked videos")
		return
	}
	if videos == nil {
		videos = []models.VideoWithOwner{}
	}

	respond(ctx, w, http.StatusOK, videos, "Liked videos fetched successfully")
}

type likeState struct {
	Liked bool `json:"liked"`
}
