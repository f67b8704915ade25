package handlers

import (
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tubeline/backend/internal/auth"
	"github.com/tubeline/backend/internal/logging"
	"github.com/tubeline/backend/internal/media"
	"github.com/tubeline/backend/internal/models"
	"github.com/tubeline/backend/internal/repositories"
)

var videoSortFields = map[string]bool{
	"createdAt": true,
	"views":     true,
	"duration":  true,
	"title":     true,
}

// VideoHandler implements the video catalogue endpoints.
type VideoHandler struct {
	Videos        VideoStore
	Accounts      AccountStore
	History       HistoryRecorder
	Uploader      MediaUploader
	Janitor       MediaJanitor
	MaxUploadSize int64
	NowFunc       func() time.Time
}

// List handles GET /api/v1/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	page, limit, err := pagination(r)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	query := r.URL.Query()
	sortBy := strings.TrimSpace(query.Get("sortBy"))
	if sortBy == "" {
		sortBy = "createdAt"
	}
	if !videoSortFields[sortBy] {
		respondError(ctx, w, http.StatusBadRequest, "sortBy must be one of createdAt, views, duration, title")
		return
	}

	descending := true
	switch strings.ToLower(strings.TrimSpace(query.Get("sortType"))) {
	case "", "desc", "-1":
	case "asc", "1":
		descending = false
	default:
		respondError(ctx, w, http.StatusBadRequest, "sortType must be asc or desc")
		return
	}

	opts := repositories.VideoListOptions{
		Page:       page,
		Limit:      limit,
		Query:      strings.TrimSpace(query.Get("query")),
		SortBy:     sortBy,
		Descending: descending,
	}
	if raw := strings.TrimSpace(query.Get("userId")); raw != "" {
		ownerID, err := uuid.Parse(raw)
		if err != nil {
			respondError(ctx, w, http.StatusBadRequest, "invalid user id")
			return
		}
		opts.OwnerID = ownerID.String()
		opts.IncludeUnpublished = opts.OwnerID == auth.ViewerIDFromContext(ctx)
	}

	videos, total, err := h.Videos.List(ctx, opts)
	if err != nil {
		logger.Error("list videos", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load videos")
		return
	}
	if videos == nil {
		videos = []models.VideoWithOwner{}
	}

	pages := totalPages(total, limit)
	respond(ctx, w, http.StatusOK, models.VideoPage{
		Videos:      videos,
		TotalVideos: total,
		Page:        page,
		Limit:       limit,
		TotalPages:  pages,
		HasNextPage: page < pages,
	}, "Videos fetched successfully")
}

// Publish handles POST /api/v1/videos multipart uploads.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil || h.Uploader == nil {
		logger.Error("video dependencies unavailable", "hasVideos", h.Videos != nil, "hasUploader", h.Uploader != nil)
		respondError(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	if err := parseUpload(w, r, h.MaxUploadSize); err != nil {
		if isTooLarge(err) {
			respondError(ctx, w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		logger.Warn("invalid video form", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := formValue(r, "title")
	description := formValue(r, "description")
	if title == "" || description == "" {
		respondError(ctx, w, http.StatusBadRequest, "title and description are required")
		return
	}
	if !hasFormFile(r, "videoFile") || !hasFormFile(r, "thumbnail") {
		respondError(ctx, w, http.StatusBadRequest, "videoFile and thumbnail are required")
		return
	}

	file, header, err := openFormFile(r, "videoFile")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "unable to read videoFile")
		return
	}
	videoObj, duration, err := h.Uploader.UploadVideo(ctx, header.Filename, file)
	file.Close()
	if err != nil {
		if errors.Is(err, media.ErrProbeFailed) || errors.Is(err, media.ErrEmptyUpload) {
			logger.Warn("rejected video upload", "error", err)
			respondError(ctx, w, http.StatusBadRequest, "videoFile is not a readable video")
			return
		}
		logger.Error("upload video file", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload video")
		return
	}

	thumbObj, err := storeFormFile(ctx, h.Uploader, r, "thumbnail", media.KindThumbnail)
	if err != nil {
		discardObjects(ctx, h.Janitor, videoObj.Key)
		logger.Error("upload thumbnail", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload thumbnail")
		return
	}

	now := nowOrDefault(h.NowFunc)
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      auth.ViewerIDFromContext(ctx),
		VideoURL:     videoObj.Location,
		VideoKey:     videoObj.Key,
		ThumbnailURL: thumbObj.Location,
		ThumbnailKey: thumbObj.Key,
		Title:        title,
		Description:  description,
		Duration:     duration,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		discardObjects(ctx, h.Janitor, videoObj.Key, thumbObj.Key)
		logger.Error("create video", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to publish video")
		return
	}

	logger.Info("video published", "videoId", video.ID, "duration", duration)
	respond(ctx, w, http.StatusCreated, video, "Video published successfully")
}

// Get handles GET /api/v1/videos/{videoId}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil || h.Accounts == nil {
		logger.Error("video dependencies unavailable", "hasVideos", h.Videos != nil, "hasAccounts", h.Accounts != nil)
		respondError(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	video, ok := h.visibleVideo(w, r)
	if !ok {
		return
	}

	owner, err := h.Accounts.FindByID(ctx, video.OwnerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("video owner missing", "videoId", video.ID, "ownerId", video.OwnerID)
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("load video owner", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load video")
		return
	}

	respond(ctx, w, http.StatusOK, models.VideoWithOwner{Video: video, Owner: owner.Owner()}, "Video fetched successfully")
}

// Update handles PATCH /api/v1/videos/{videoId}. Accepts JSON or a multipart form with an optional thumbnail.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	var (
		req      updateVideoRequest
		newThumb media.Object
	)
	if isMultipart(r) {
		if err := parseUpload(w, r, h.MaxUploadSize); err != nil {
			if isTooLarge(err) {
				respondError(ctx, w, http.StatusRequestEntityTooLarge, "upload too large")
				return
			}
			respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		req.Title = formValue(r, "title")
		req.Description = formValue(r, "description")
		if hasFormFile(r, "thumbnail") {
			if h.Uploader == nil {
				logger.Error("media uploader unavailable")
				respondError(ctx, w, http.StatusInternalServerError, "video services unavailable")
				return
			}
			obj, err := storeFormFile(ctx, h.Uploader, r, "thumbnail", media.KindThumbnail)
			if err != nil {
				logger.Error("upload replacement thumbnail", "error", err)
				respondError(ctx, w, http.StatusInternalServerError, "failed to upload thumbnail")
				return
			}
			newThumb = obj
		}
	} else if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" && req.Description == "" && newThumb.Key == "" {
		respondError(ctx, w, http.StatusBadRequest, "title, description or thumbnail is required")
		return
	}

	oldThumbKey := ""
	if req.Title != "" {
		video.Title = req.Title
	}
	if req.Description != "" {
		video.Description = req.Description
	}
	if newThumb.Key != "" {
		oldThumbKey = video.ThumbnailKey
		video.ThumbnailURL, video.ThumbnailKey = newThumb.Location, newThumb.Key
	}
	video.UpdatedAt = nowOrDefault(h.NowFunc)

	if err := h.Videos.Update(ctx, video); err != nil {
		discardObjects(ctx, h.Janitor, newThumb.Key)
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("update video", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update video")
		return
	}
	discardObjects(ctx, h.Janitor, oldThumbKey)

	respond(ctx, w, http.StatusOK, video, "Video updated successfully")
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("delete video", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to delete video")
		return
	}
	discardObjects(ctx, h.Janitor, video.VideoKey, video.ThumbnailKey)

	respond(ctx, w, http.StatusOK, struct{}{}, "Video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	video.IsPublished = !video.IsPublished
	video.UpdatedAt = nowOrDefault(h.NowFunc)
	if err := h.Videos.Update(ctx, video); err != nil {
		logger.Error("toggle publish", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update video")
		return
	}

	respond(ctx, w, http.StatusOK, publishState{IsPublished: video.IsPublished}, "Publish status toggled successfully")
}

// Watch handles POST /api/v1/videos/{videoId}/watch. It counts a view and appends to the viewer's history.
func (h VideoHandler) Watch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil || h.History == nil {
		logger.Error("video dependencies unavailable", "hasVideos", h.Videos != nil, "hasHistory", h.History != nil)
		respondError(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	video, ok := h.visibleVideo(w, r)
	if !ok {
		return
	}

	if err := h.Videos.IncrementViews(ctx, video.ID); err != nil {
		logger.Error("increment views", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to record view")
		return
	}
	if err := h.History.Append(ctx, auth.ViewerIDFromContext(ctx), video.ID, nowOrDefault(h.NowFunc)); err != nil {
		logger.Error("append watch history", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to record view")
		return
	}

	respond(ctx, w, http.StatusOK, viewState{Views: video.Views + 1}, "View recorded")
}

// visibleVideo loads the video named in the path, hiding unpublished videos from everyone but the owner.
func (h VideoHandler) visibleVideo(w http.ResponseWriter, r *http.Request) (models.Video, bool) {
	ctx := r.Context()
	video, ok := h.loadVideo(w, r)
	if !ok {
		return models.Video{}, false
	}
	if !video.IsPublished && video.OwnerID != auth.ViewerIDFromContext(ctx) {
		respondError(ctx, w, http.StatusNotFound, "video not found")
		return models.Video{}, false
	}
	return video, true
}

// ownedVideo loads the video named in the path and requires the viewer to own it.
func (h VideoHandler) ownedVideo(w http.ResponseWriter, r *http.Request) (models.Video, bool) {
	ctx := r.Context()
	video, ok := h.loadVideo(w, r)
	if !ok {
		return models.Video{}, false
	}
	if video.OwnerID != auth.ViewerIDFromContext(ctx) {
		respondError(ctx, w, http.StatusForbidden, "only the owner can modify this video")
		return models.Video{}, false
	}
	return video, true
}

func (h VideoHandler) loadVideo(w http.ResponseWriter, r *http.Request) (models.Video, bool) {
	ctx := r.Context()
	videoID, ok := pathID(r, "videoId")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid video id")
		return models.Video{}, false
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return models.Video{}, false
		}
		logging.FromContext(ctx).Error("load video", "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load video")
		return models.Video{}, false
	}
	return video, true
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

type updateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type publishState struct {
	IsPublished bool `json:"isPublished"`
}

type viewState struct {
	Views int64 `json:"views"`
}
