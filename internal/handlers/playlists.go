package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tubeline/backend/internal/auth"
	"github.com/tubeline/backend/internal/logging"
	"github.com/tubeline/backend/internal/models"
	"github.com/tubeline/backend/internal/repositories"
)

// PlaylistHandler implements owner-curated playlists.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	NowFunc   func() time.Time
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Playlists == nil {
		logger.Error("playlist store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "playlist services unavailable")
		return
	}

	var req playlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.normalize()
	if req.Name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}

	now := nowOrDefault(h.NowFunc)
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     auth.ViewerIDFromContext(ctx),
		Name:        req.Name,
		Description: req.Description,
		VideoIDs:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Playlists.Create(ctx, playlist); err != nil {
		logger.Error("create playlist", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to create playlist")
		return
	}

	respond(ctx, w, http.StatusCreated, playlist, "Playlist created successfully")
}

// ListByUser handles GET /api/v1/playlists/user/{userId}.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Playlists == nil {
		logger.Error("playlist store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "playlist services unavailable")
		return
	}

	ownerID, ok := pathID(r, "userId")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid user id")
		return
	}

	playlists, err := h.Playlists.ListByOwner(ctx, ownerID)
	if err != nil {
		logger.Error("list playlists", "ownerId", ownerID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load playlists")
		return
	}
	if playlists == nil {
		playlists = []models.Playlist{}
	}

	respond(ctx, w, http.StatusOK, playlists, "User playlists fetched successfully")
}

// Get handles GET /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Playlists == nil {
		logging.FromContext(ctx).Error("playlist store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "playlist services unavailable")
		return
	}

	playlist, ok := h.loadPlaylist(w, r)
	if !ok {
		return
	}
	respond(ctx, w, http.StatusOK, playlist, "Playlist fetched successfully")
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Playlists == nil {
		logger.Error("playlist store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "playlist services unavailable")
		return
	}

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	var req playlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.normalize()
	if req.Name == "" && req.Description == "" {
		respondError(ctx, w, http.StatusBadRequest, "name or description is required")
		return
	}
	if req.Name != "" {
		playlist.Name = req.Name
	}
	if req.Description != "" {
		playlist.Description = req.Description
	}
	playlist.UpdatedAt = nowOrDefault(h.NowFunc)

	if err := h.Playlists.Update(ctx, playlist.ID, playlist.Name, playlist.Description, playlist.UpdatedAt); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "playlist not found")
			return
		}
		logger.Error("update playlist", "playlistId", playlist.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update playlist")
		return
	}

	respond(ctx, w, http.StatusOK, playlist, "Playlist updated successfully")
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Playlists == nil {
		logger.Error("playlist store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "playlist services unavailable")
		return
	}

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("delete playlist", "playlistId", playlist.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to delete playlist")
		return
	}

	respond(ctx, w, http.StatusOK, struct{}{}, "Playlist deleted successfully")
}

// AddVideo handles PATCH /api/v1/playlists/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Playlists == nil || h.Videos == nil {
		logger.Error("playlist dependencies unavailable", "hasPlaylists", h.Playlists != nil, "hasVideos", h.Videos != nil)
		respondError(ctx, w, http.StatusInternalServerError, "playlist services unavailable")
		return
	}

	videoID, ok := pathID(r, "videoId")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid video id")
		return
	}
	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("playlist video lookup", "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update playlist")
		return
	}

	if err := h.Playlists.AddVideo(ctx, playlist.ID, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("add playlist video", "playlistId", playlist.ID, "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update playlist")
		return
	}

	h.respondPlaylist(w, r, playlist.ID, "Video added to playlist successfully")
}

// RemoveVideo handles PATCH /api/v1/playlists/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Playlists == nil {
		logger.Error("playlist store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "playlist services unavailable")
		return
	}

	videoID, ok := pathID(r, "videoId")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid video id")
		return
	}
	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.RemoveVideo(ctx, playlist.ID, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video is not in this playlist")
			return
		}
		logger.Error("remove playlist video", "playlistId", playlist.ID, "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update playlist")
		return
	}

	h.respondPlaylist(w, r, playlist.ID, "Video removed from playlist successfully")
}

func (h PlaylistHandler) respondPlaylist(w http.ResponseWriter, r *http.Request, playlistID, message string) {
	ctx := r.Context()
	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		logging.FromContext(ctx).Error("reload playlist", "playlistId", playlistID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load playlist")
		return
	}
	respond(ctx, w, http.StatusOK, playlist, message)
}

func (h PlaylistHandler) ownedPlaylist(w http.ResponseWriter, r *http.Request) (models.Playlist, bool) {
	playlist, ok := h.loadPlaylist(w, r)
	if !ok {
		return models.Playlist{}, false
	}
	ctx := r.Context()
	if playlist.OwnerID != auth.ViewerIDFromContext(ctx) {
		respondError(ctx, w, http.StatusForbidden, "only the owner can modify this playlist")
		return models.Playlist{}, false
	}
	return playlist, true
}

func (h PlaylistHandler) loadPlaylist(w http.ResponseWriter, r *http.Request) (models.Playlist, bool) {
	ctx := r.Context()
	playlistID, ok := pathID(r, "playlistId")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid playlist id")
		return models.Playlist{}, false
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "playlist not found")
			return models.Playlist{}, false
		}
		logging.FromContext(ctx).Error("load playlist", "playlistId", playlistID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load playlist")
		return models.Playlist{}, false
	}
	return playlist, true
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (req *playlistRequest) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
}
