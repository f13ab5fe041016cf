package core

// scheduler.go runs the import on a fixed interval for the long-running
// server. It imports once at start, then every Interval, and stops when
// its context is cancelled. A failed run is logged and retried on the
// next tick; it never stops the server.

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Locker is an advisory mutual-exclusion primitive shared by every process
// that may run an import.
type Locker interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// ErrImportLocked is returned by RunLocked when another import holds the lock.
var ErrImportLocked = errors.New("import already running")

// RunLocked runs one import of sourcePath while holding lock. A lock that
// is already held yields ErrImportLocked; the caller decides whether that is
// fatal.
func RunLocked(ctx context.Context, lock Locker, loader *Loader, sourcePath string) (*ImportResult, error) {
	if err := lock.Acquire(ctx); err != nil {
		return nil, err
	}
	defer func() {
		// Release must run even when ctx was cancelled mid-import.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil {
			loader.logger.Warn("release import lock", "error", err)
		}
	}()

	return loader.Import(ctx, sourcePath)
}

// SchedulerConfig holds configuration for the import scheduler.
type SchedulerConfig struct {
	SourcePath string        // File to import each run
	Interval   time.Duration // How often to run (default: 24h)
	Timeout    time.Duration // Upper bound for one run (default: none)
}

// Scheduler periodically imports the configured source.
type Scheduler struct {
	loader *Loader
	lock   Locker
	cfg    SchedulerConfig
	logger *slog.Logger
}

// NewScheduler returns a scheduler for loader guarded by lock.
func NewScheduler(loader *Loader, lock Locker, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{loader: loader, lock: lock, cfg: cfg, logger: logger}
}

// Run blocks until ctx is cancelled. It always returns nil so it can run
// inside an errgroup next to the HTTP server without tearing it down.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("import scheduler started",
		"source", s.cfg.SourcePath,
		"interval", s.cfg.Interval.String(),
	)

	s.runOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("import scheduler stopped")
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce performs one locked import.
func (s *Scheduler) runOnce(ctx context.Context) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := RunLocked(ctx, s.lock, s.loader, s.cfg.SourcePath)
	switch {
	case errors.Is(err, ErrImportLocked):
		s.logger.Info("scheduled import skipped, lock held elsewhere")
	case err != nil:
		// Loader.Import has already logged the details.
		s.logger.Error("scheduled import failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	default:
		s.logger.Info("scheduled import finished",
			"no_op", result.NoOp,
			"records_imported", result.RecordsImported,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
