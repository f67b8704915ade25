package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tubeline/backend/internal/auth"
	"github.com/tubeline/backend/internal/logging"
	"github.com/tubeline/backend/internal/media"
	"github.com/tubeline/backend/internal/middleware"
	"github.com/tubeline/backend/internal/models"
	"github.com/tubeline/backend/internal/repositories"
)

const (
	refreshTokenCookie = "refreshToken"
	minPasswordLength  = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordLength = 72
)

var handlePattern = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)

// AuthHandler implements account registration and session endpoints.
type AuthHandler struct {
	Accounts      AccountStore
	Sessions      SessionManager
	Uploader      MediaUploader
	Janitor       MediaJanitor
	MaxUploadSize int64
	SecureCookies bool
	NowFunc       func() time.Time
}

// SignUp handles POST /api/v1/auth/signup multipart requests.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Accounts == nil || h.Sessions == nil || h.Uploader == nil {
		logger.Error("authentication dependencies unavailable", "hasAccounts", h.Accounts != nil, "hasSessions", h.Sessions != nil, "hasUploader", h.Uploader != nil)
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	if err := parseUpload(w, r, h.MaxUploadSize); err != nil {
		if isTooLarge(err) {
			respondError(ctx, w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		logger.Warn("invalid signup form", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	req := signUpRequest{
		Handle:   strings.ToLower(formValue(r, "username")),
		Email:    strings.ToLower(formValue(r, "email")),
		Password: r.FormValue("password"),
		FullName: formValue(r, "fullName"),
	}
	if msg := req.validate(); msg != "" {
		logger.Warn("signup validation failed", "reason", msg, "email", req.Email)
		respondError(ctx, w, http.StatusBadRequest, msg)
		return
	}
	if !hasFormFile(r, "avatar") {
		respondError(ctx, w, http.StatusBadRequest, "avatar file is required")
		return
	}

	if _, err := h.Accounts.FindByHandleOrEmail(ctx, req.Handle); err == nil {
		respondError(ctx, w, http.StatusConflict, "user with email or username already exists")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("signup account lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts")
		return
	}
	if _, err := h.Accounts.FindByHandleOrEmail(ctx, req.Email); err == nil {
		respondError(ctx, w, http.StatusConflict, "user with email or username already exists")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("signup account lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("signup failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	avatar, err := storeFormFile(ctx, h.Uploader, r, "avatar", media.KindAvatar)
	if err != nil {
		logger.Error("signup avatar upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload avatar")
		return
	}

	var cover media.Object
	if hasFormFile(r, "coverImage") {
		cover, err = storeFormFile(ctx, h.Uploader, r, "coverImage", media.KindCover)
		if err != nil {
			logger.Error("signup cover upload failed", "error", err)
			discardObjects(ctx, h.Janitor, avatar.Key)
			respondError(ctx, w, http.StatusInternalServerError, "failed to upload cover image")
			return
		}
	}

	now := nowOrDefault(h.NowFunc)
	account := models.Account{
		ID:            uuid.NewString(),
		Handle:        req.Handle,
		FullName:      req.FullName,
		Email:         req.Email,
		PasswordHash:  string(hashed),
		AvatarURL:     avatar.Location,
		AvatarKey:     avatar.Key,
		CoverImageURL: cover.Location,
		CoverImageKey: cover.Key,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Accounts.Create(ctx, account); err != nil {
		discardObjects(ctx, h.Janitor, avatar.Key, cover.Key)
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "user with email or username already exists")
			return
		}
		logger.Error("signup failed to create account", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, account.ID)
	if err != nil {
		logger.Error("signup failed to issue session", "error", err, "accountId", account.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	logger.Info("account registered", "accountId", account.ID)
	h.setSessionCookies(w, tokens)
	respond(ctx, w, http.StatusCreated, authResponse{User: account, Tokens: tokens}, "User registered successfully")
}

// Login handles POST /api/v1/auth/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Accounts == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasAccounts", h.Accounts != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	login := strings.ToLower(strings.TrimSpace(req.Username))
	if login == "" {
		login = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if login == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "username or email and password are required")
		return
	}

	account, err := h.Accounts.FindByHandleOrEmail(ctx, login)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "user does not exist")
			return
		}
		logger.Error("login account lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to sign in")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "accountId", account.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid user credentials")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, account.ID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "accountId", account.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.setSessionCookies(w, tokens)
	respond(ctx, w, http.StatusOK, authResponse{User: account, Tokens: tokens}, "User logged in successfully")
}

// Refresh exchanges a refresh token for a new session.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	var req refreshRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
			logger.Warn("invalid refresh payload", "error", err)
			respondError(ctx, w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
			token = strings.TrimSpace(cookie.Value)
		}
	}
	if token == "" {
		respondError(ctx, w, http.StatusUnauthorized, "refresh token is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			respondError(ctx, w, http.StatusUnauthorized, "refresh token is expired or used")
			return
		}
		logger.Error("refresh failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		return
	}

	h.setSessionCookies(w, tokens)
	respond(ctx, w, http.StatusOK, tokens, "Access token refreshed")
}

// Logout revokes every refresh session held by the viewer.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	viewerID := auth.ViewerIDFromContext(ctx)
	if viewerID == "" {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	if err := h.Sessions.RevokeAll(ctx, viewerID); err != nil {
		logger.Error("logout failed to revoke sessions", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to log out")
		return
	}

	h.clearSessionCookies(w)
	respond(ctx, w, http.StatusOK, struct{}{}, "User logged out")
}

func (h AuthHandler) setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt))
	http.SetCookie(w, h.cookie(refreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt))
}

func (h AuthHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		c := h.cookie(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h AuthHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

type signUpRequest struct {
	Handle   string
	Email    string
	Password string
	FullName string
}

func (req signUpRequest) validate() string {
	switch {
	case req.Handle == "" || req.Email == "" || req.Password == "" || req.FullName == "":
		return "all fields are required"
	case !handlePattern.MatchString(req.Handle):
		return "username must be 3-30 characters of letters, digits, '_' or '.'"
	case !validEmail(req.Email):
		return "invalid email address"
	}
	return validatePassword(req.Password)
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func validatePassword(password string) string {
	switch {
	case len(password) < minPasswordLength:
		return "password must be at least 8 characters"
	case len(password) > maxPasswordLength:
		return "password must be at most 72 bytes"
	}
	return ""
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	User   models.Account       `json:"user"`
	Tokens models.SessionTokens `json:"tokens"`
}
