package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ShutdownTimeout controls how long to wait for graceful shutdowns.
var ShutdownTimeout = 15 * time.Second

// Step is one stage of a graceful shutdown.
type Step struct {
	Name string
	Fn   func(ctx context.Context) error
}

// RunShutdown runs steps in order under ctx. A failing step is logged and the
// remaining steps still run; the failures are joined into the returned error.
func RunShutdown(ctx context.Context, logger *slog.Logger, steps ...Step) error {
	if logger == nil {
		logger = slog.Default()
	}

	var errs []error
	for _, step := range steps {
		if step.Fn == nil {
			continue
		}
		start := time.Now()
		if err := step.Fn(ctx); err != nil {
			logger.Error("shutdown step failed", "step", step.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
			continue
		}
		logger.Info("shutdown step finished", "step", step.Name, "duration", time.Since(start))
	}
	return errors.Join(errs...)
}
