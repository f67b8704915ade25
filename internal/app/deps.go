package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/tubeline/backend/internal/auth"
	"github.com/tubeline/backend/internal/channels"
	"github.com/tubeline/backend/internal/config"
	"github.com/tubeline/backend/internal/db"
	"github.com/tubeline/backend/internal/handlers"
	"github.com/tubeline/backend/internal/media"
	"github.com/tubeline/backend/internal/middleware"
	"github.com/tubeline/backend/internal/repositories"
	"github.com/tubeline/backend/internal/storage"
)

const redisSessionPrefix = "tubeline:session:"

var _ channels.CatalogStore = (*repositories.Catalog)(nil)

// databasePool is the slice of *pgxpool.Pool the application depends on.
type databasePool interface {
	db.Pool
	handlers.Pinger
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// The returned cleanup drains background work and closes clients opened here; it
// does not close pool.
func buildDependencies(ctx context.Context, pool databasePool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var closers []func(context.Context) error

	sessionStore, closeSessions, err := buildSessionStore(pool, cfg)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}
	if closeSessions != nil {
		closers = append(closers, closeSessions)
	}

	store, err := storage.Open(ctx, cfg.StorageDriver, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("open media storage: %w", err)
	}
	uploader := media.NewUploader(store, media.NewProber(cfg.FFProbePath, cfg.FFProbeTimeout))
	janitor := media.NewJanitor(store, media.JanitorConfig{
		QueueSize: cfg.JanitorQueue,
		Workers:   cfg.JanitorWorkers,
	}, logger)
	// the janitor drains before the session client closes
	closers = append([]func(context.Context) error{janitor.Shutdown}, closers...)

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.AccessTTL)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure token signer: %w", err)
	}

	accounts := repositories.NewPostgresAccountRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	history := repositories.NewPostgresWatchHistoryRepository(pool)
	subscriptions := repositories.NewPostgresSubscriptionRepository(pool)
	catalog := repositories.NewCatalog(accounts, videos, history)

	cleanup := func(ctx context.Context) error {
		var errs []error
		for _, closeFn := range closers {
			if err := closeFn(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	return handlers.Dependencies{
		Logger:   logger,
		Verifier: signer,
		Database: pool,

		Accounts:      accounts,
		Sessions:      auth.NewManager(signer, cfg.RefreshTTL, sessionStore),
		Profiles:      channels.NewProfileResolver(subscriptions, catalog),
		History:       channels.NewHistoryExpander(catalog),
		Subscriptions: subscriptions,
		Videos:        videos,
		WatchLog:      history,
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Uploader:      uploader,
		Janitor:       janitor,

		AuthLimiter:       middleware.NewIPRateLimiter(cfg.AuthAttempts, cfg.AuthAttemptsWait, cfg.AuthAttempts, 10*cfg.AuthAttemptsWait),
		CORSOrigins:       cfg.CORSOrigins,
		RequestsPerMinute: cfg.RequestsPerMin,
		MaxUploadSize:     cfg.MaxUploadSize,
		SecureCookies:     cfg.SecureCookies,
	}, cleanup, nil
}

func buildSessionStore(pool db.Pool, cfg config.Config) (auth.SessionStore, func(context.Context) error, error) {
	switch cfg.SessionBackend {
	case "", "postgres":
		return repositories.NewPostgresSessionStore(pool), nil, nil
	case "memory":
		return auth.NewInMemorySessionStore(), nil, nil
	case "redis":
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Redis.Addr},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return auth.NewRedisSessionStore(client, redisSessionPrefix), func(context.Context) error {
			return client.Close()
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}
