package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tubeline/backend/internal/models"
	"github.com/tubeline/backend/internal/repositories"
)

const commentID = "55555555-5555-5555-5555-555555555555"

type inMemoryCommentStore struct {
	mu       sync.Mutex
	comments map[string]models.Comment
	videos   *inMemoryVideoStore
}

func newInMemoryCommentStore(videos *inMemoryVideoStore, comments ...models.Comment) *inMemoryCommentStore {
	s := &inMemoryCommentStore{comments: make(map[string]models.Comment), videos: videos}
	for _, c := range comments {
		s.comments[c.ID] = c
	}
	return s
}

func (s *inMemoryCommentStore) Create(ctx context.Context, comment models.Comment) error {
	if _, err := s.videos.FindByID(ctx, comment.VideoID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[comment.ID] = comment
	return nil
}

func (s *inMemoryCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return c, nil
}

func (s *inMemoryCommentStore) ListByVideo(_ context.Context, videoID string, page, limit int) ([]models.CommentWithOwner, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.CommentWithOwner
	for _, c := range s.comments {
		if c.VideoID == videoID {
			matched = append(matched, models.CommentWithOwner{Comment: c})
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	start := min((page-1)*limit, len(matched))
	end := min(start+limit, len(matched))
	return matched[start:end], total, nil
}

func (s *inMemoryCommentStore) Update(_ context.Context, id, content string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	c.Content, c.UpdatedAt = content, updatedAt
	s.comments[id] = c
	return nil
}

func (s *inMemoryCommentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func newCommentHandler() (CommentHandler, *inMemoryCommentStore) {
	videos := newInMemoryVideoStore(sampleVideo(videoID, true))
	comments := newInMemoryCommentStore(videos, models.Comment{
		ID:        commentID,
		VideoID:   videoID,
		OwnerID:   viewerID,
		Content:   "first!",
		CreatedAt: fixedNow.Add(-time.Hour),
		UpdatedAt: fixedNow.Add(-time.Hour),
	})
	return CommentHandler{Comments: comments, Videos: videos, NowFunc: fixedClock}, comments
}

func TestCommentHandlerList(t *testing.T) {
	handler, _ := newCommentHandler()

	tests := []struct {
		name       string
		id         string
		wantStatus int
		wantCount  int
	}{
		{name: "existing video", id: videoID, wantStatus: http.StatusOK, wantCount: 1},
		{name: "unknown video", id: missingID, wantStatus: http.StatusNotFound},
		{name: "malformed id", id: "x", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withParams(httptest.NewRequest(http.MethodGet, "/api/v1/comments/"+tt.id, nil), map[string]string{"videoId": tt.id})
			rec := httptest.NewRecorder()

			handler.List(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var page commentPage
			decodeEnvelope(t, rec, &page)
			if len(page.Comments) != tt.wantCount || page.TotalComments != int64(tt.wantCount) || page.TotalPages != 1 {
				t.Fatalf("unexpected page %+v", page)
			}
		})
	}
}

func TestCommentHandlerAdd(t *testing.T) {
	tests := []struct {
		name       string
		video      string
		content    string
		wantStatus int
	}{
		{name: "adds", video: videoID, content: "  nice video  ", wantStatus: http.StatusCreated},
		{name: "blank", video: videoID, content: "   ", wantStatus: http.StatusBadRequest},
		{name: "too long", video: videoID, content: strings.Repeat("a", maxCommentLength+1), wantStatus: http.StatusBadRequest},
		{name: "unknown video", video: missingID, content: "hello", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, store := newCommentHandler()
			req := withParams(jsonRequest(t, http.MethodPost, "/api/v1/comments/"+tt.video, commentRequest{Content: tt.content}), map[string]string{"videoId": tt.video})
			rec := httptest.NewRecorder()

			handler.Add(rec, withViewer(req, ownerID))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}
			var comment models.Comment
			decodeEnvelope(t, rec, &comment)
			if comment.Content != "nice video" || comment.OwnerID != ownerID {
				t.Fatalf("unexpected comment %+v", comment)
			}
			if _, err := store.FindByID(context.Background(), comment.ID); err != nil {
				t.Fatalf("expected stored comment: %v", err)
			}
		})
	}
}

func TestCommentHandlerUpdateAndDelete(t *testing.T) {
	t.Run("author edits", func(t *testing.T) {
		handler, store := newCommentHandler()
		req := withParams(jsonRequest(t, http.MethodPatch, "/", commentRequest{Content: "edited"}), map[string]string{"commentId": commentID})
		rec := httptest.NewRecorder()

		handler.Update(rec, withViewer(req, viewerID))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200 got %d", rec.Code)
		}
		stored, _ := store.FindByID(context.Background(), commentID)
		if stored.Content != "edited" || !stored.UpdatedAt.Equal(fixedNow) {
			t.Fatalf("unexpected stored comment %+v", stored)
		}
	})

	t.Run("others cannot edit", func(t *testing.T) {
		handler, _ := newCommentHandler()
		req := withParams(jsonRequest(t, http.MethodPatch, "/", commentRequest{Content: "edited"}), map[string]string{"commentId": commentID})
		rec := httptest.NewRecorder()

		handler.Update(rec, withViewer(req, ownerID))

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected status 403 got %d", rec.Code)
		}
	})

	t.Run("author deletes", func(t *testing.T) {
		handler, store := newCommentHandler()
		req := withParams(httptest.NewRequest(http.MethodDelete, "/", nil), map[string]string{"commentId": commentID})

		rec := httptest.NewRecorder()
		handler.Delete(rec, withViewer(req, ownerID))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected status 403 got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		handler.Delete(rec, withViewer(req, viewerID))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200 got %d", rec.Code)
		}
		if _, err := store.FindByID(context.Background(), commentID); err == nil {
			t.Fatal("expected comment removed")
		}

		rec = httptest.NewRecorder()
		handler.Delete(rec, withViewer(req, viewerID))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404 got %d", rec.Code)
		}
	})
}
