package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tubeline/backend/internal/auth"
	"github.com/tubeline/backend/internal/logging"
	"github.com/tubeline/backend/internal/media"
	"github.com/tubeline/backend/internal/repositories"
)

// AccountHandler serves the signed-in account's own profile.
type AccountHandler struct {
	Accounts      AccountStore
	Uploader      MediaUploader
	Janitor       MediaJanitor
	MaxUploadSize int64
	NowFunc       func() time.Time
}

// Current handles GET /api/v1/account.
func (h AccountHandler) Current(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Accounts == nil {
		logger.Error("account store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "account services unavailable")
		return
	}

	account, err := h.Accounts.FindByID(ctx, auth.ViewerIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "account not found")
			return
		}
		logger.Error("load current account", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load account")
		return
	}

	respond(ctx, w, http.StatusOK, account, "Current user fetched successfully")
}

// UpdateProfile handles PATCH /api/v1/account.
func (h AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Accounts == nil {
		logger.Error("account store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "account services unavailable")
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid profile payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FullName == "" || req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullName and email are required")
		return
	}
	if !validEmail(req.Email) {
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	account, err := h.Accounts.UpdateProfile(ctx, auth.ViewerIDFromContext(ctx), req.FullName, req.Email, nowOrDefault(h.NowFunc))
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			respondError(ctx, w, http.StatusConflict, "email is already in use")
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "account not found")
		default:
			logger.Error("update profile", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "unable to update account")
		}
		return
	}

	respond(ctx, w, http.StatusOK, account, "Account details updated successfully")
}

// ChangePassword handles POST /api/v1/account/password.
func (h AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Accounts == nil {
		logger.Error("account store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "account services unavailable")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid password payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, http.StatusBadRequest, "oldPassword and newPassword are required")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		respondError(ctx, w, http.StatusBadRequest, "new password and confirm password must match")
		return
	}
	if msg := validatePassword(req.NewPassword); msg != "" {
		respondError(ctx, w, http.StatusBadRequest, msg)
		return
	}

	viewerID := auth.ViewerIDFromContext(ctx)
	account, err := h.Accounts.FindByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "account not found")
			return
		}
		logger.Error("password change lookup", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to change password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.OldPassword)); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid old password")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash new password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if err := h.Accounts.UpdatePassword(ctx, viewerID, string(hashed), nowOrDefault(h.NowFunc)); err != nil {
		logger.Error("store new password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to change password")
		return
	}

	respond(ctx, w, http.StatusOK, struct{}{}, "Password changed successfully")
}

// UpdateAvatar handles PATCH /api/v1/account/avatar.
func (h AccountHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", media.KindAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/account/cover-image.
func (h AccountHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", media.KindCover)
}

func (h AccountHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string, kind media.Kind) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Accounts == nil || h.Uploader == nil {
		logger.Error("account media dependencies unavailable", "hasAccounts", h.Accounts != nil, "hasUploader", h.Uploader != nil)
		respondError(ctx, w, http.StatusInternalServerError, "account services unavailable")
		return
	}

	if err := parseUpload(w, r, h.MaxUploadSize); err != nil {
		if isTooLarge(err) {
			respondError(ctx, w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	if !hasFormFile(r, field) {
		respondError(ctx, w, http.StatusBadRequest, field+" file is missing")
		return
	}

	viewerID := auth.ViewerIDFromContext(ctx)
	account, err := h.Accounts.FindByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "account not found")
			return
		}
		logger.Error("image update lookup", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update account")
		return
	}

	obj, err := storeFormFile(ctx, h.Uploader, r, field, kind)
	if err != nil {
		logger.Error("upload account image", "field", field, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload "+field)
		return
	}

	now := nowOrDefault(h.NowFunc)
	previousKey := account.AvatarKey
	update := h.Accounts.UpdateAvatar
	if kind == media.KindCover {
		previousKey = account.CoverImageKey
		update = h.Accounts.UpdateCoverImage
	}

	if err := update(ctx, viewerID, obj.Location, obj.Key, now); err != nil {
		discardObjects(ctx, h.Janitor, obj.Key)
		logger.Error("store account image", "field", field, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update account")
		return
	}
	discardObjects(ctx, h.Janitor, previousKey)

	if kind == media.KindCover {
		account.CoverImageURL, account.CoverImageKey = obj.Location, obj.Key
	} else {
		account.AvatarURL, account.AvatarKey = obj.Location, obj.Key
	}
	account.UpdatedAt = now

	respond(ctx, w, http.StatusOK, account, field+" updated successfully")
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}
