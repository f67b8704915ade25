package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tubeline/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Logger   *slog.Logger
	Verifier middleware.TokenVerifier
	Database Pinger

	Accounts      AccountStore
	Sessions      SessionManager
	Profiles      ProfileResolver
	History       HistoryExpander
	Subscriptions SubscriptionStore
	Videos        VideoStore
	WatchLog      HistoryRecorder
	Comments      CommentStore
	Likes         LikeStore
	Playlists     PlaylistStore
	Uploader      MediaUploader
	Janitor       MediaJanitor

	AuthLimiter       middleware.RateLimiter
	CORSOrigins       []string
	RequestsPerMinute int
	MaxUploadSize     int64
	SecureCookies     bool
}

// NewRouter wires every HTTP endpoint into a chi router.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authH := AuthHandler{
		Accounts:      deps.Accounts,
		Sessions:      deps.Sessions,
		Uploader:      deps.Uploader,
		Janitor:       deps.Janitor,
		MaxUploadSize: deps.MaxUploadSize,
		SecureCookies: deps.SecureCookies,
	}
	accountH := AccountHandler{Accounts: deps.Accounts, Uploader: deps.Uploader, Janitor: deps.Janitor, MaxUploadSize: deps.MaxUploadSize}
	channelH := ChannelHandler{Profiles: deps.Profiles, History: deps.History}
	subscriptionH := SubscriptionHandler{Subscriptions: deps.Subscriptions, Accounts: deps.Accounts}
	videoH := VideoHandler{
		Videos:        deps.Videos,
		Accounts:      deps.Accounts,
		History:       deps.WatchLog,
		Uploader:      deps.Uploader,
		Janitor:       deps.Janitor,
		MaxUploadSize: deps.MaxUploadSize,
	}
	commentH := CommentHandler{Comments: deps.Comments, Videos: deps.Videos}
	likeH := LikeHandler{Likes: deps.Likes}
	playlistH := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos}
	health := HealthHandler{Database: deps.Database}

	requireViewer := middleware.Authenticate(deps.Verifier, true)
	optionalViewer := middleware.Authenticate(deps.Verifier, false)

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.CleanPath)
	r.Use(chimw.Compress(5, "application/json"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", health.Handle)

	r.Route("/api/v1", func(r chi.Router) {
		if deps.RequestsPerMinute > 0 {
			r.Use(httprate.LimitByIP(deps.RequestsPerMinute, time.Minute))
		}

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.LimitByIP(deps.AuthLimiter, "signup")).Post("/signup", authH.SignUp)
			r.With(middleware.LimitByIP(deps.AuthLimiter, "login")).Post("/login", authH.Login)
			r.Post("/refresh", authH.Refresh)
			r.With(requireViewer).Post("/logout", authH.Logout)
		})

		// Anonymous viewers are allowed; a valid token personalises the response.
		r.Group(func(r chi.Router) {
			r.Use(optionalViewer)
			r.Get("/channel-profile/{handle}", channelH.Profile)
			r.Get("/videos", videoH.List)
			r.Get("/videos/{videoId}", videoH.Get)
			r.Get("/comments/{videoId}", commentH.List)
			r.Get("/subscriptions/c/{channelId}", subscriptionH.Subscribers)
			r.Get("/subscriptions/u/{subscriberId}", subscriptionH.SubscribedChannels)
			r.Get("/playlists/user/{userId}", playlistH.ListByUser)
			r.Get("/playlists/{playlistId}", playlistH.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireViewer)

			r.Get("/watch-history", channelH.WatchHistory)

			r.Get("/account", accountH.Current)
			r.Patch("/account", accountH.UpdateProfile)
			r.Post("/account/password", accountH.ChangePassword)
			r.Patch("/account/avatar", accountH.UpdateAvatar)
			r.Patch("/account/cover-image", accountH.UpdateCoverImage)

			r.Post("/subscriptions/c/{channelId}", subscriptionH.Toggle)

			r.Post("/videos", videoH.Publish)
			r.Patch("/videos/{videoId}", videoH.Update)
			r.Delete("/videos/{videoId}", videoH.Delete)
			r.Patch("/videos/toggle/publish/{videoId}", videoH.TogglePublish)
			r.Post("/videos/{videoId}/watch", videoH.Watch)

			r.Post("/comments/{videoId}", commentH.Add)
			r.Patch("/comments/c/{commentId}", commentH.Update)
			r.Delete("/comments/c/{commentId}", commentH.Delete)

			r.Post("/likes/toggle/v/{videoId}", likeH.ToggleVideo)
			r.Post("/likes/toggle/c/{commentId}", likeH.ToggleComment)
			r.Get("/likes/videos", likeH.LikedVideos)

			r.Post("/playlists", playlistH.Create)
			r.Patch("/playlists/{playlistId}", playlistH.Update)
			r.Delete("/playlists/{playlistId}", playlistH.Delete)
			r.Patch("/playlists/add/{videoId}/{playlistId}", playlistH.AddVideo)
			r.Patch("/playlists/remove/{videoId}/{playlistId}", playlistH.RemoveVideo)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(r.Context(), w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
