// Package lock provides the advisory lock that keeps two imports from
// running at once, whether they start from the scheduler, the CLI or
// another host.
//
// Both implementations treat a lock older than its maximum age as stale:
// FileLock removes it and retries, RedisLock lets the key expire.
package lock

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/regsync/internal/core"
)

// Backends accepted by New.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Options selects and configures a lock backend.
type Options struct {
	Backend  string
	Path     string        // lock file for the file backend
	RedisURL string        // connection URL for the redis backend
	Key      string        // redis key (default "regsync:import-lock")
	MaxAge   time.Duration // age after which a held lock is stale
	Logger   *slog.Logger
}

// New returns the configured lock. The returned close function releases
// backend resources (the Redis connection) and is never nil.
func New(opts Options) (core.Locker, func() error, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileLock(opts.Path, opts.MaxAge, opts.Logger), func() error { return nil }, nil
	case BackendRedis:
		client, err := NewRedisClient(opts.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisLock(client, opts.Key, opts.MaxAge), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown lock backend %q", opts.Backend)
	}
}
