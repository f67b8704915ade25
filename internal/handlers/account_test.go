package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/tubeline/backend/internal/models"
)

func newAccountHandler(t *testing.T) (AccountHandler, *inMemoryAccountStore, *janitorStub) {
	t.Helper()
	me := hashedAccount(t, ownerID, "owner", "owner@example.com", "password123")
	me.AvatarURL, me.AvatarKey = "https://cdn.test/avatars/old.png", "avatars/old.png"
	other := hashedAccount(t, viewerID, "viewer", "viewer@example.com", "password123")

	store := newInMemoryAccountStore(me, other)
	janitor := &janitorStub{}
	return AccountHandler{Accounts: store, Uploader: newUploaderStub(), Janitor: janitor, NowFunc: fixedClock}, store, janitor
}

func TestAccountHandlerCurrent(t *testing.T) {
	handler, _, _ := newAccountHandler(t)

	rec := httptest.NewRecorder()
	handler.Current(rec, withViewer(httptest.NewRequest(http.MethodGet, "/api/v1/account", nil), ownerID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	var account models.Account
	decodeEnvelope(t, rec, &account)
	if account.ID != ownerID || account.Email != "owner@example.com" {
		t.Fatalf("expected own account with email, got %+v", account)
	}

	rec = httptest.NewRecorder()
	handler.Current(rec, withViewer(httptest.NewRequest(http.MethodGet, "/api/v1/account", nil), missingID))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for deleted account got %d", rec.Code)
	}
}

func TestAccountHandlerUpdateProfile(t *testing.T) {
	tests := []struct {
		name       string
		body       updateProfileRequest
		wantStatus int
	}{
		{name: "updates", body: updateProfileRequest{FullName: " New Name ", Email: "NEW@example.com"}, wantStatus: http.StatusOK},
		{name: "missing name", body: updateProfileRequest{Email: "new@example.com"}, wantStatus: http.StatusBadRequest},
		{name: "invalid email", body: updateProfileRequest{FullName: "x", Email: "nope"}, wantStatus: http.StatusBadRequest},
		{name: "email taken", body: updateProfileRequest{FullName: "x", Email: "viewer@example.com"}, wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, store, _ := newAccountHandler(t)
			rec := httptest.NewRecorder()

			handler.UpdateProfile(rec, withViewer(jsonRequest(t, http.MethodPatch, "/api/v1/account", tt.body), ownerID))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			stored := store.get(ownerID)
			if stored.FullName != "New Name" || stored.Email != "new@example.com" || !stored.UpdatedAt.Equal(fixedNow) {
				t.Fatalf("unexpected stored account %+v", stored)
			}
		})
	}
}

func TestAccountHandlerChangePassword(t *testing.T) {
	tests := []struct {
		name       string
		body       changePasswordRequest
		wantStatus int
	}{
		{name: "changes", body: changePasswordRequest{OldPassword: "password123", NewPassword: "n3wpassword", ConfirmPassword: "n3wpassword"}, wantStatus: http.StatusOK},
		{name: "wrong old", body: changePasswordRequest{OldPassword: "guess", NewPassword: "n3wpassword", ConfirmPassword: "n3wpassword"}, wantStatus: http.StatusBadRequest},
		{name: "mismatch", body: changePasswordRequest{OldPassword: "password123", NewPassword: "n3wpassword", ConfirmPassword: "other"}, wantStatus: http.StatusBadRequest},
		{name: "too short", body: changePasswordRequest{OldPassword: "password123", NewPassword: "short", ConfirmPassword: "short"}, wantStatus: http.StatusBadRequest},
		{name: "missing", body: changePasswordRequest{}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, store, _ := newAccountHandler(t)
			rec := httptest.NewRecorder()

			handler.ChangePassword(rec, withViewer(jsonRequest(t, http.MethodPost, "/api/v1/account/password", tt.body), ownerID))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if bcrypt.CompareHashAndPassword([]byte(store.get(ownerID).PasswordHash), []byte("n3wpassword")) != nil {
				t.Fatal("expected new password to be stored")
			}
		})
	}
}

func TestAccountHandlerReplaceImages(t *testing.T) {
	t.Run("avatar replaces previous object", func(t *testing.T) {
		handler, store, janitor := newAccountHandler(t)
		req := multipartRequest(t, http.MethodPatch, "/api/v1/account/avatar", nil, formFile{field: "avatar", name: "me.png", content: "pixels"})
		rec := httptest.NewRecorder()

		handler.UpdateAvatar(rec, withViewer(req, ownerID))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
		}
		stored := store.get(ownerID)
		if stored.AvatarKey == "avatars/old.png" || stored.AvatarURL == "" {
			t.Fatalf("expected new avatar stored, got %+v", stored)
		}
		if got := janitor.scheduled(); len(got) != 1 || got[0] != "avatars/old.png" {
			t.Fatalf("expected old avatar scheduled, got %v", got)
		}
	})

	t.Run("first cover image schedules nothing", func(t *testing.T) {
		handler, store, janitor := newAccountHandler(t)
		req := multipartRequest(t, http.MethodPatch, "/api/v1/account/cover-image", nil, formFile{field: "coverImage", name: "c.jpg", content: "pixels"})
		rec := httptest.NewRecorder()

		handler.UpdateCoverImage(rec, withViewer(req, ownerID))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
		}
		var account models.Account
		decodeEnvelope(t, rec, &account)
		if account.CoverImageURL == "" || store.get(ownerID).CoverImageKey == "" {
			t.Fatalf("expected cover image stored, got %+v", account)
		}
		if got := janitor.scheduled(); len(got) != 0 {
			t.Fatalf("expected nothing scheduled, got %v", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		handler, _, _ := newAccountHandler(t)
		req := multipartRequest(t, http.MethodPatch, "/api/v1/account/avatar", map[string]string{"note": "no file"})
		rec := httptest.NewRecorder()

		handler.UpdateAvatar(rec, withViewer(req, ownerID))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 got %d", rec.Code)
		}
	})
}
