package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tubeline/backend/internal/auth"
	"github.com/tubeline/backend/internal/media"
	"github.com/tubeline/backend/internal/models"
	"github.com/tubeline/backend/internal/repositories"
)

var fixedNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type inMemoryAccountStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	err      error

	// createErr fails only Create so lookups keep working.
	createErr error
}

func newInMemoryAccountStore(accounts ...models.Account) *inMemoryAccountStore {
	s := &inMemoryAccountStore{accounts: make(map[string]models.Account)}
	for _, a := range accounts {
		s.accounts[a.ID] = a
	}
	return s
}

func (s *inMemoryAccountStore) Create(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.accounts {
		if existing.Handle == account.Handle || existing.Email == account.Email {
			return repositories.ErrConflict
		}
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *inMemoryAccountStore) FindByID(_ context.Context, id string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.Account{}, s.err
	}
	a, ok := s.accounts[id]
	if !ok {
		return models.Account{}, repositories.ErrNotFound
	}
	return a, nil
}

func (s *inMemoryAccountStore) FindByHandleOrEmail(_ context.Context, login string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.Account{}, s.err
	}
	for _, a := range s.accounts {
		if a.Handle == login || a.Email == login {
			return a, nil
		}
	}
	return models.Account{}, repositories.ErrNotFound
}

func (s *inMemoryAccountStore) UpdateProfile(_ context.Context, id, fullName, email string, updatedAt time.Time) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return models.Account{}, repositories.ErrNotFound
	}
	for otherID, other := range s.accounts {
		if otherID != id && other.Email == email {
			return models.Account{}, repositories.ErrConflict
		}
	}
	a.FullName, a.Email, a.UpdatedAt = fullName, email, updatedAt
	s.accounts[id] = a
	return a, nil
}

func (s *inMemoryAccountStore) UpdatePassword(_ context.Context, id, hash string, updatedAt time.Time) error {
	return s.mutate(id, func(a *models.Account) { a.PasswordHash, a.UpdatedAt = hash, updatedAt })
}

func (s *inMemoryAccountStore) UpdateAvatar(_ context.Context, id, url, key string, updatedAt time.Time) error {
	return s.mutate(id, func(a *models.Account) { a.AvatarURL, a.AvatarKey, a.UpdatedAt = url, key, updatedAt })
}

func (s *inMemoryAccountStore) UpdateCoverImage(_ context.Context, id, url, key string, updatedAt time.Time) error {
	return s.mutate(id, func(a *models.Account) { a.CoverImageURL, a.CoverImageKey, a.UpdatedAt = url, key, updatedAt })
}

func (s *inMemoryAccountStore) mutate(id string, fn func(*models.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(&a)
	s.accounts[id] = a
	return nil
}

func (s *inMemoryAccountStore) get(id string) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id]
}

type inMemoryVideoStore struct {
	mu       sync.Mutex
	videos   map[string]models.Video
	lastList repositories.VideoListOptions
	listErr  error
}

func newInMemoryVideoStore(videos ...models.Video) *inMemoryVideoStore {
	s := &inMemoryVideoStore{videos: make(map[string]models.Video)}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return v, nil
}

func (s *inMemoryVideoStore) List(_ context.Context, opts repositories.VideoListOptions) ([]models.VideoWithOwner, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastList = opts
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	var matched []models.VideoWithOwner
	for _, v := range s.videos {
		if opts.OwnerID != "" && v.OwnerID != opts.OwnerID {
			continue
		}
		if !v.IsPublished && !opts.IncludeUnpublished {
			continue
		}
		matched = append(matched, models.VideoWithOwner{Video: v})
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	start := (opts.Page - 1) * opts.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + opts.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *inMemoryVideoStore) Update(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[video.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *inMemoryVideoStore) IncrementViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	v.Views++
	s.videos[id] = v
	return nil
}

type historyRecorderStub struct {
	mu      sync.Mutex
	entries []string
}

func (h *historyRecorderStub) Append(_ context.Context, accountID, videoID string, _ time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, accountID+":"+videoID)
	return nil
}

type uploaderStub struct {
	mu       sync.Mutex
	uploads  map[string]string
	duration float64
	err      error
	videoErr error
	seq      int
}

func newUploaderStub() *uploaderStub {
	return &uploaderStub{uploads: make(map[string]string), duration: 42}
}

func (u *uploaderStub) Upload(_ context.Context, kind media.Kind, filename string, r io.Reader) (media.Object, error) {
	if u.err != nil {
		return media.Object{}, u.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return media.Object{}, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.seq++
	key := fmt.Sprintf("%s/%d-%s", kind, u.seq, filename)
	u.uploads[key] = string(data)
	return media.Object{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (u *uploaderStub) UploadVideo(ctx context.Context, filename string, r io.Reader) (media.Object, float64, error) {
	if u.videoErr != nil {
		return media.Object{}, 0, u.videoErr
	}
	obj, err := u.Upload(ctx, media.KindVideo, filename, r)
	return obj, u.duration, err
}

type janitorStub struct {
	mu   sync.Mutex
	keys []string
}

func (j *janitorStub) Schedule(_ context.Context, keys ...string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, k := range keys {
		if k != "" {
			j.keys = append(j.keys, k)
		}
	}
	return nil
}

func (j *janitorStub) scheduled() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.keys...)
}

// withViewer attaches an authenticated viewer to the request context.
func withViewer(req *http.Request, viewerID string) *http.Request {
	return req.WithContext(auth.WithViewerID(req.Context(), viewerID))
}

// withParams injects chi URL parameters, as the router would.
func withParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type formFile struct {
	field, name, content string
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(part, f.content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// decodeEnvelope decodes the response envelope and its data into data when non-nil.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) apiResponse {
	t.Helper()
	var raw struct {
		StatusCode int             `json:"statusCode"`
		Data       json.RawMessage `json:"data"`
		Message    string          `json:"message"`
		Success    bool            `json:"success"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if raw.StatusCode != rec.Code {
		t.Fatalf("envelope status %d does not match response status %d", raw.StatusCode, rec.Code)
	}
	if data != nil {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("decode data %s: %v", raw.Data, err)
		}
	}
	return apiResponse{StatusCode: raw.StatusCode, Data: raw.Data, Message: raw.Message, Success: raw.Success}
}
