package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tubeline/backend/internal/config"
	"github.com/tubeline/backend/internal/db"
	"github.com/tubeline/backend/internal/handlers"
	"github.com/tubeline/backend/internal/httpserver"
	"github.com/tubeline/backend/internal/logging"
)

// Run bootstraps the Tubeline backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     logging.ParseLevel(level),
	}))
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}

	deps, cleanup, err := buildDependencies(ctx, pool, cfg, logger)
	if err != nil {
		pool.Close()
		return err
	}

	srv := httpserver.New(cfg.AppPort, handlers.NewRouter(deps), logger)

	logger.Info("starting http server",
		"port", cfg.AppPort,
		"sessionBackend", cfg.SessionBackend,
		"storageDriver", cfg.StorageDriver,
	)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case serveErr = <-srvErr:
		if serveErr != nil {
			logger.Error("http server stopped", "error", serveErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	shutdownErr := httpserver.RunShutdown(shutdownCtx, logger,
		httpserver.Step{Name: "http server", Fn: srv.Shutdown},
		httpserver.Step{Name: "dependencies", Fn: cleanup},
		httpserver.Step{Name: "database", Fn: func(context.Context) error {
			pool.Close()
			return nil
		}},
	)
	return errors.Join(serveErr, shutdownErr)
}

func runMigrations(ctx context.Context, args []string) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	return withPool(ctx, cfg, func(pool *pgxpool.Pool) error {
		if err := db.Migrate(ctx, pool, command); err != nil {
			return err
		}
		fmt.Printf("migrate %s complete\n", command)
		return nil
	})
}

func runSeed(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected seed name (e.g. dev)")
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	seedPath, err := resolveSeed(cfg.SeedDir, args[0])
	if err != nil {
		return err
	}
	contents, err := os.ReadFile(seedPath)
	if err != nil {
		return fmt.Errorf("read seed %s: %w", filepath.Base(seedPath), err)
	}

	return withPool(ctx, cfg, func(pool *pgxpool.Pool) error {
		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply seed %s: %w", filepath.Base(seedPath), err)
		}
		fmt.Printf("applied seed %s\n", filepath.Base(seedPath))
		return nil
	})
}

// resolveSeed maps a seed name such as "dev" onto <dir>/dev_seed.sql. Relative
// directories resolve against the working directory.
func resolveSeed(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid seed name %q", name)
	}
	if !strings.HasSuffix(name, ".sql") {
		name = fmt.Sprintf("%s_seed.sql", name)
	}

	if !filepath.IsAbs(dir) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		dir = filepath.Join(wd, dir)
	}
	return filepath.Join(dir, name), nil
}

func withPool(ctx context.Context, cfg config.Config, fn func(*pgxpool.Pool) error) error {
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(pool)
}
