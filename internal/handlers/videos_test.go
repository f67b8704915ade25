package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tubeline/backend/internal/media"
	"github.com/tubeline/backend/internal/models"
)

const (
	ownerID   = "11111111-1111-1111-1111-111111111111"
	viewerID  = "22222222-2222-2222-2222-222222222222"
	videoID   = "33333333-3333-3333-3333-333333333333"
	draftID   = "44444444-4444-4444-4444-444444444444"
	missingID = "99999999-9999-9999-9999-999999999999"
)

func sampleVideo(id string, published bool) models.Video {
	return models.Video{
		ID:           id,
		OwnerID:      ownerID,
		VideoURL:     "https://cdn.test/videos/" + id + ".mp4",
		VideoKey:     "videos/" + id + ".mp4",
		ThumbnailURL: "https://cdn.test/thumbnails/" + id + ".png",
		ThumbnailKey: "thumbnails/" + id + ".png",
		Title:        "Title " + id[:4],
		Description:  "Description",
		Duration:     12.5,
		Views:        3,
		IsPublished:  published,
		CreatedAt:    fixedNow,
		UpdatedAt:    fixedNow,
	}
}

func newVideoHandler(videos ...models.Video) (VideoHandler, *inMemoryVideoStore, *janitorStub) {
	store := newInMemoryVideoStore(videos...)
	janitor := &janitorStub{}
	owner := models.Account{ID: ownerID, Handle: "owner", FullName: "Owner", Email: "owner@example.com", AvatarURL: "https://cdn.test/a.png"}
	return VideoHandler{
		Videos:   store,
		Accounts: newInMemoryAccountStore(owner),
		History:  &historyRecorderStub{},
		Uploader: newUploaderStub(),
		Janitor:  janitor,
		NowFunc:  fixedClock,
	}, store, janitor
}

func TestVideoHandlerList(t *testing.T) {
	handler, store, _ := newVideoHandler(sampleVideo(videoID, true), sampleVideo(draftID, false))

	tests := []struct {
		name        string
		viewer      string
		query       string
		wantStatus  int
		wantVideos  int
		wantDrafts  bool
		wantSortBy  string
		wantDescend bool
	}{
		{name: "defaults", query: "", wantStatus: http.StatusOK, wantVideos: 1, wantSortBy: "createdAt", wantDescend: true},
		{name: "ascending views", query: "?sortBy=views&sortType=asc", wantStatus: http.StatusOK, wantVideos: 1, wantSortBy: "views"},
		{name: "numeric sort type", query: "?sortType=1", wantStatus: http.StatusOK, wantVideos: 1, wantSortBy: "createdAt"},
		{name: "owner sees drafts", viewer: ownerID, query: "?userId=" + ownerID, wantStatus: http.StatusOK, wantVideos: 2, wantDrafts: true, wantSortBy: "createdAt", wantDescend: true},
		{name: "others do not", viewer: viewerID, query: "?userId=" + ownerID, wantStatus: http.StatusOK, wantVideos: 1, wantSortBy: "createdAt", wantDescend: true},
		{name: "bad sort field", query: "?sortBy=password", wantStatus: http.StatusBadRequest},
		{name: "bad sort type", query: "?sortType=sideways", wantStatus: http.StatusBadRequest},
		{name: "bad page", query: "?page=0", wantStatus: http.StatusBadRequest},
		{name: "bad user id", query: "?userId=nope", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withViewer(httptest.NewRequest(http.MethodGet, "/api/v1/videos"+tt.query, nil), tt.viewer)
			rec := httptest.NewRecorder()

			handler.List(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var page models.VideoPage
			decodeEnvelope(t, rec, &page)
			if len(page.Videos) != tt.wantVideos || page.TotalVideos != int64(tt.wantVideos) {
				t.Fatalf("expected %d videos, got %+v", tt.wantVideos, page)
			}
			if page.Page != 1 || page.Limit != defaultLimit || page.TotalPages != 1 || page.HasNextPage {
				t.Fatalf("unexpected pagination %+v", page)
			}
			if store.lastList.IncludeUnpublished != tt.wantDrafts {
				t.Fatalf("expected IncludeUnpublished=%v", tt.wantDrafts)
			}
			if store.lastList.SortBy != tt.wantSortBy || store.lastList.Descending != tt.wantDescend {
				t.Fatalf("unexpected sort options %+v", store.lastList)
			}
		})
	}
}

func TestVideoHandlerListPagination(t *testing.T) {
	var videos []models.Video
	for i := 0; i < 5; i++ {
		videos = append(videos, sampleVideo(fmt.Sprintf("%08d-0000-0000-0000-000000000000", i), true))
	}
	handler, _, _ := newVideoHandler(videos...)

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos?page=2&limit=2", nil))

	var page models.VideoPage
	decodeEnvelope(t, rec, &page)
	if len(page.Videos) != 2 || page.TotalVideos != 5 || page.TotalPages != 3 || !page.HasNextPage {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestVideoHandlerListEmptyIsArray(t *testing.T) {
	handler, _, _ := newVideoHandler()

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil))

	var page struct {
		Videos []models.VideoWithOwner `json:"videos"`
	}
	decodeEnvelope(t, rec, &page)
	if page.Videos == nil {
		t.Fatal("expected an empty array rather than null")
	}
}

func TestVideoHandlerPublish(t *testing.T) {
	handler, store, _ := newVideoHandler()
	req := multipartRequest(t, http.MethodPost, "/api/v1/videos",
		map[string]string{"title": "  First cut ", "description": "behind the scenes"},
		formFile{field: "videoFile", name: "clip.MP4", content: "frames"},
		formFile{field: "thumbnail", name: "thumb.png", content: "pixels"},
	)
	rec := httptest.NewRecorder()

	handler.Publish(rec, withViewer(req, ownerID))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var video models.Video
	decodeEnvelope(t, rec, &video)
	if video.Title != "First cut" || video.OwnerID != ownerID || video.Duration != 42 || !video.IsPublished {
		t.Fatalf("unexpected video %+v", video)
	}
	stored, err := store.FindByID(req.Context(), video.ID)
	if err != nil {
		t.Fatalf("expected video to be stored: %v", err)
	}
	if stored.VideoKey == "" || stored.ThumbnailKey == "" {
		t.Fatalf("expected object keys to be persisted, got %+v", stored)
	}
}

func TestVideoHandlerPublishRejectsUnreadableVideo(t *testing.T) {
	handler, _, _ := newVideoHandler()
	uploader := newUploaderStub()
	uploader.videoErr = fmt.Errorf("probe: %w", media.ErrProbeFailed)
	handler.Uploader = uploader

	req := multipartRequest(t, http.MethodPost, "/api/v1/videos",
		map[string]string{"title": "t", "description": "d"},
		formFile{field: "videoFile", name: "clip.mp4", content: "garbage"},
		formFile{field: "thumbnail", name: "thumb.png", content: "pixels"},
	)
	rec := httptest.NewRecorder()
	handler.Publish(rec, withViewer(req, ownerID))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
}

func TestVideoHandlerPublishValidation(t *testing.T) {
	handler, _, _ := newVideoHandler()

	tests := []struct {
		name   string
		fields map[string]string
		files  []formFile
	}{
		{name: "missing title", fields: map[string]string{"description": "d"}, files: []formFile{{"videoFile", "a.mp4", "x"}, {"thumbnail", "t.png", "x"}}},
		{name: "missing thumbnail", fields: map[string]string{"title": "t", "description": "d"}, files: []formFile{{"videoFile", "a.mp4", "x"}}},
		{name: "missing video", fields: map[string]string{"title": "t", "description": "d"}, files: []formFile{{"thumbnail", "t.png", "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Publish(rec, withViewer(multipartRequest(t, http.MethodPost, "/api/v1/videos", tt.fields, tt.files...), ownerID))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400 got %d", rec.Code)
			}
		})
	}
}

func TestVideoHandlerGet(t *testing.T) {
	handler, _, _ := newVideoHandler(sampleVideo(videoID, true), sampleVideo(draftID, false))

	tests := []struct {
		name       string
		id         string
		viewer     string
		wantStatus int
	}{
		{name: "published", id: videoID, wantStatus: http.StatusOK},
		{name: "draft hidden from others", id: draftID, viewer: viewerID, wantStatus: http.StatusNotFound},
		{name: "draft visible to owner", id: draftID, viewer: ownerID, wantStatus: http.StatusOK},
		{name: "unknown", id: missingID, wantStatus: http.StatusNotFound},
		{name: "malformed", id: "not-a-uuid", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withParams(httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+tt.id, nil), map[string]string{"videoId": tt.id})
			rec := httptest.NewRecorder()

			handler.Get(rec, withViewer(req, tt.viewer))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var video models.VideoWithOwner
			decodeEnvelope(t, rec, &video)
			if video.Owner.Handle != "owner" || video.Owner.Avatar == "" {
				t.Fatalf("expected embedded owner, got %+v", video.Owner)
			}
		})
	}
}

func TestVideoHandlerUpdate(t *testing.T) {
	t.Run("json title", func(t *testing.T) {
		handler, store, janitor := newVideoHandler(sampleVideo(videoID, true))
		req := withParams(jsonRequest(t, http.MethodPatch, "/api/v1/videos/"+videoID, updateVideoRequest{Title: "Renamed"}), map[string]string{"videoId": videoID})
		rec := httptest.NewRecorder()

		handler.Update(rec, withViewer(req, ownerID))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
		}
		stored, _ := store.FindByID(req.Context(), videoID)
		if stored.Title != "Renamed" || stored.Description != "Description" {
			t.Fatalf("unexpected stored video %+v", stored)
		}
		if len(janitor.scheduled()) != 0 {
			t.Fatalf("expected nothing scheduled, got %v", janitor.scheduled())
		}
	})

	t.Run("multipart thumbnail replaces the old object", func(t *testing.T) {
		handler, store, janitor := newVideoHandler(sampleVideo(videoID, true))
		req := multipartRequest(t, http.MethodPatch, "/api/v1/videos/"+videoID, nil,
			formFile{field: "thumbnail", name: "new.png", content: "pixels"})
		req = withParams(req, map[string]string{"videoId": videoID})
		rec := httptest.NewRecorder()

		handler.Update(rec, withViewer(req, ownerID))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
		}
		stored, _ := store.FindByID(req.Context(), videoID)
		if stored.ThumbnailKey == "thumbnails/"+videoID+".png" {
			t.Fatal("expected thumbnail key to change")
		}
		if got := janitor.scheduled(); len(got) != 1 || got[0] != "thumbnails/"+videoID+".png" {
			t.Fatalf("expected old thumbnail scheduled, got %v", got)
		}
	})

	t.Run("empty update", func(t *testing.T) {
		handler, _, _ := newVideoHandler(sampleVideo(videoID, true))
		req := withParams(jsonRequest(t, http.MethodPatch, "/", updateVideoRequest{}), map[string]string{"videoId": videoID})
		rec := httptest.NewRecorder()

		handler.Update(rec, withViewer(req, ownerID))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 got %d", rec.Code)
		}
	})

	t.Run("not the owner", func(t *testing.T) {
		handler, _, _ := newVideoHandler(sampleVideo(videoID, true))
		req := withParams(jsonRequest(t, http.MethodPatch, "/", updateVideoRequest{Title: "x"}), map[string]string{"videoId": videoID})
		rec := httptest.NewRecorder()

		handler.Update(rec, withViewer(req, viewerID))

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected status 403 got %d", rec.Code)
		}
	})
}

func TestVideoHandlerDelete(t *testing.T) {
	handler, store, janitor := newVideoHandler(sampleVideo(videoID, true))
	req := withParams(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+videoID, nil), map[string]string{"videoId": videoID})

	rec := httptest.NewRecorder()
	handler.Delete(rec, withViewer(req, viewerID))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for non-owner got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Delete(rec, withViewer(req, ownerID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if _, err := store.FindByID(req.Context(), videoID); err == nil {
		t.Fatal("expected video to be removed")
	}
	if got := janitor.scheduled(); len(got) != 2 {
		t.Fatalf("expected video and thumbnail scheduled for deletion, got %v", got)
	}
}

func TestVideoHandlerTogglePublish(t *testing.T) {
	handler, store, _ := newVideoHandler(sampleVideo(videoID, true))
	req := withViewer(withParams(httptest.NewRequest(http.MethodPatch, "/", nil), map[string]string{"videoId": videoID}), ownerID)

	for _, want := range []bool{false, true} {
		rec := httptest.NewRecorder()
		handler.TogglePublish(rec, req)

		var state publishState
		decodeEnvelope(t, rec, &state)
		if state.IsPublished != want {
			t.Fatalf("expected isPublished=%v got %v", want, state.IsPublished)
		}
		stored, _ := store.FindByID(req.Context(), videoID)
		if stored.IsPublished != want {
			t.Fatalf("expected stored isPublished=%v", want)
		}
	}
}

func TestVideoHandlerWatch(t *testing.T) {
	handler, store, _ := newVideoHandler(sampleVideo(videoID, true))
	history := handler.History.(*historyRecorderStub)
	req := withViewer(withParams(httptest.NewRequest(http.MethodPost, "/", nil), map[string]string{"videoId": videoID}), viewerID)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.Watch(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200 got %d", rec.Code)
		}
	}

	stored, _ := store.FindByID(req.Context(), videoID)
	if stored.Views != 5 {
		t.Fatalf("expected views to increase to 5, got %d", stored.Views)
	}
	if len(history.entries) != 2 || history.entries[0] != viewerID+":"+videoID {
		t.Fatalf("expected both watches in history, got %v", history.entries)
	}
}

func TestVideoHandlerStoreFailure(t *testing.T) {
	handler, store, _ := newVideoHandler()
	store.listErr = errors.New("connection reset")

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec, nil); env.Success || env.Message == "" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}
