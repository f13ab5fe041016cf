package lock

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/regsync/internal/core"
)

// FileLock is a lock file created with O_EXCL. The file holds the owner's
// pid and a token; Release only removes a file carrying its own token.
type FileLock struct {
	path   string
	maxAge time.Duration
	logger *slog.Logger

	mu    sync.Mutex
	token string
}

// NewFileLock returns a lock on path. A lock file older than maxAge is
// considered stale and replaced; maxAge <= 0 disables staleness.
func NewFileLock(path string, maxAge time.Duration, logger *slog.Logger) *FileLock {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileLock{path: path, maxAge: maxAge, logger: logger}
}

// Acquire creates the lock file, clearing a stale one first.
// It returns an error wrapping core.ErrImportLocked when the lock is held.
func (l *FileLock) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for attempt := 0; attempt < 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		token := uuid.NewString()
		err := l.create(token)
		if err == nil {
			l.token = token
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("create lock file: %w", err)
		}

		info, err := os.Stat(l.path)
		if errors.Is(err, fs.ErrNotExist) {
			continue // released between our create and stat
		}
		if err != nil {
			return fmt.Errorf("stat lock file: %w", err)
		}

		age := time.Since(info.ModTime())
		if l.maxAge <= 0 || age < l.maxAge {
			return fmt.Errorf("%w: %s held for %s", core.ErrImportLocked, l.path, age.Round(time.Second))
		}

		l.logger.Warn("removing stale import lock", "path", l.path, "age", age.Round(time.Second).String())
		if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale lock file: %w", err)
		}
	}

	return fmt.Errorf("%w: %s", core.ErrImportLocked, l.path)
}

func (l *FileLock) create(token string) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	_, werr := fmt.Fprintf(f, "%d\n%s\n", os.Getpid(), token)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(l.path)
		return errors.Join(werr, cerr)
	}
	return nil
}

// Release removes the lock file if this lock created it.
func (l *FileLock) Release(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.token == "" {
		return nil
	}
	token := l.token
	l.token = ""

	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read lock file: %w", err)
	}
	if !strings.Contains(string(data), token) {
		// Our lock went stale and another process took it over.
		return nil
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
