package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tubeline/backend/internal/auth"
	"github.com/tubeline/backend/internal/channels"
	"github.com/tubeline/backend/internal/logging"
	"github.com/tubeline/backend/internal/models"
)

// ChannelHandler exposes channel profiles and the viewer's watch history.
type ChannelHandler struct {
	Profiles ProfileResolver
	History  HistoryExpander
}

// Profile handles GET /api/v1/channel-profile/{handle}. The viewer is optional.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Profiles == nil {
		logger.Error("profile resolver unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "channel services unavailable")
		return
	}

	profile, err := h.Profiles.Resolve(ctx, chi.URLParam(r, "handle"), auth.ViewerIDFromContext(ctx))
	if err != nil {
		status, message := channelErrorStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error("resolve channel profile", "error", err)
		}
		respondError(ctx, w, status, message)
		return
	}

	respond(ctx, w, http.StatusOK, profile, "User channel fetched successfully")
}

// WatchHistory handles GET /api/v1/watch-history.
func (h ChannelHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.History == nil {
		logger.Error("history expander unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "channel services unavailable")
		return
	}

	videos, err := h.History.Expand(ctx, auth.ViewerIDFromContext(ctx))
	if err != nil {
		status, message := channelErrorStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error("expand watch history", "error", err)
		}
		respondError(ctx, w, status, message)
		return
	}
	if videos == nil {
		videos = []models.VideoWithOwner{}
	}

	respond(ctx, w, http.StatusOK, videos, "Watch history fetched successfully")
}

func channelErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, channels.ErrInvalidHandle):
		return http.StatusBadRequest, "username is missing"
	case errors.Is(err, channels.ErrChannelNotFound):
		return http.StatusNotFound, "channel does not exist"
	case errors.Is(err, channels.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized request"
	default:
		return http.StatusInternalServerError, "unable to load channel data"
	}
}
