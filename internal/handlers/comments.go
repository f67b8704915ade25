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

const maxCommentLength = 5000

// CommentHandler implements video comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	NowFunc  func() time.Time
}

// List handles GET /api/v1/comments/{videoId}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Comments == nil || h.Videos == nil {
		logger.Error("comment dependencies unavailable", "hasComments", h.Comments != nil, "hasVideos", h.Videos != nil)
		respondError(ctx, w, http.StatusInternalServerError, "comment services unavailable")
		return
	}

	videoID, ok := pathID(r, "videoId")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid video id")
		return
	}
	page, limit, err := pagination(r)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("comment video lookup", "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load comments")
		return
	}

	comments, total, err := h.Comments.ListByVideo(ctx, videoID, page, limit)
	if err != nil {
		logger.Error("list comments", "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load comments")
		return
	}
	if comments == nil {
		comments = []models.CommentWithOwner{}
	}

	pages := totalPages(total, limit)
	respond(ctx, w, http.StatusOK, commentPage{
		Comments:      comments,
		TotalComments: total,
		Page:          page,
		Limit:         limit,
		TotalPages:    pages,
		HasNextPage:   page < pages,
	}, "Comments fetched successfully")
}

// Add handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Comments == nil {
		logger.Error("comment store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "comment services unavailable")
		return
	}

	videoID, ok := pathID(r, "videoId")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid video id")
		return
	}

	content, ok := h.readContent(w, r)
	if !ok {
		return
	}

	now := nowOrDefault(h.NowFunc)
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		OwnerID:   auth.ViewerIDFromContext(ctx),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("create comment", "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to add comment")
		return
	}

	respond(ctx, w, http.StatusCreated, comment, "Comment added successfully")
}

// Update handles PATCH /api/v1/comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Comments == nil {
		logger.Error("comment store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "comment services unavailable")
		return
	}

	comment, ok := h.ownedComment(w, r)
	if !ok {
		return
	}
	content, ok := h.readContent(w, r)
	if !ok {
		return
	}

	comment.Content = content
	comment.UpdatedAt = nowOrDefault(h.NowFunc)
	if err := h.Comments.Update(ctx, comment.ID, comment.Content, comment.UpdatedAt); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "comment not found")
			return
		}
		logger.Error("update comment", "commentId", comment.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update comment")
		return
	}

	respond(ctx, w, http.StatusOK, comment, "Comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Comments == nil {
		logger.Error("comment store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "comment services unavailable")
		return
	}

	comment, ok := h.ownedComment(w, r)
	if !ok {
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("delete comment", "commentId", comment.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to delete comment")
		return
	}

	respond(ctx, w, http.StatusOK, struct{}{}, "Comment deleted successfully")
}

func (h CommentHandler) ownedComment(w http.ResponseWriter, r *http.Request) (models.Comment, bool) {
	ctx := r.Context()
	commentID, ok := pathID(r, "commentId")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid comment id")
		return models.Comment{}, false
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "comment not found")
			return models.Comment{}, false
		}
		logging.FromContext(ctx).Error("load comment", "commentId", commentID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load comment")
		return models.Comment{}, false
	}
	if comment.OwnerID != auth.ViewerIDFromContext(ctx) {
		respondError(ctx, w, http.StatusForbidden, "only the author can modify this comment")
		return models.Comment{}, false
	}
	return comment, true
}

func (h CommentHandler) readContent(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	content := strings.TrimSpace(req.Content)
	switch {
	case content == "":
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return "", false
	case len(content) > maxCommentLength:
		respondError(ctx, w, http.StatusBadRequest, "content is too long")
		return "", false
	}
	return content, true
}

type commentRequest struct {
	Content string `json:"content"`
}

type commentPage struct {
	Comments      []models.CommentWithOwner `json:"comments"`
	TotalComments int64                     `json:"totalComments"`
	Page          int                       `json:"page"`
	Limit         int                       `json:"limit"`
	TotalPages    int                       `json:"totalPages"`
	HasNextPage   bool                      `json:"hasNextPage"`
}
