package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tubeline/backend/internal/auth"
	"github.com/tubeline/backend/internal/logging"
)

// AccessTokenCookie is the cookie holding the access token for browser clients.
const AccessTokenCookie = "accessToken"

// TokenVerifier validates access tokens and returns the account id they carry.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authenticate resolves the viewer from the bearer token or access token cookie.
// When required is false anonymous and invalid tokens pass through without a viewer.
func Authenticate(verifier TokenVerifier, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token := accessToken(r)
			if token == "" {
				if required {
					logger.Warn("missing access token")
					writeError(w, http.StatusUnauthorized, "unauthorized request")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if verifier == nil {
				logger.Error("token verifier unavailable")
				writeError(w, http.StatusInternalServerError, "authentication services unavailable")
				return
			}

			viewerID, err := verifier.Verify(token)
			if err != nil {
				if !required {
					logger.Debug("ignoring invalid optional access token", "error", err)
					next.ServeHTTP(w, r)
					return
				}
				message := "invalid access token"
				if errors.Is(err, auth.ErrTokenExpired) {
					message = "access token expired"
				}
				logger.Warn("access token rejected", "error", err)
				writeError(w, http.StatusUnauthorized, message)
				return
			}

			ctx = auth.WithViewerID(ctx, viewerID)
			ctx = logging.With(ctx, "viewer_id", viewerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
