package media

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// JanitorConfig controls the concurrency characteristics of the janitor.
type JanitorConfig struct {
	QueueSize     int
	Workers       int
	DeleteTimeout time.Duration
}

// Janitor deletes replaced or orphaned objects in the background.
type Janitor struct {
	store   Store
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan string
	wg     sync.WaitGroup
	once   sync.Once
}

// NewJanitor starts a worker pool that removes objects from store.
func NewJanitor(store Store, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.DeleteTimeout <= 0 {
		cfg.DeleteTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	j := &Janitor{
		store:   store,
		logger:  logger,
		timeout: cfg.DeleteTimeout,
		jobs:    make(chan string, cfg.QueueSize),
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}
	return j
}

// Schedule queues keys for deletion. Blank keys are ignored.
func (j *Janitor) Schedule(ctx context.Context, keys ...string) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return errJanitorClosed
	}

	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j.jobs <- key:
		}
	}
	return nil
}

// Shutdown stops accepting work and waits for queued deletions to finish.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.once.Do(func() {
		j.mu.Lock()
		j.closed = true
		close(j.jobs)
		j.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (j *Janitor) worker() {
	defer j.wg.Done()
	for key := range j.jobs {
		j.remove(key)
	}
}

func (j *Janitor) remove(key string) {
	if j.store == nil {
		j.logger.Error("media janitor missing store", "key", key)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.store.Delete(ctx, key); err != nil {
		j.logger.Error("delete media object", "key", key, "error", err)
		return
	}
	j.logger.Debug("media object deleted", "key", key)
}
