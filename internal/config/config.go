// Package config provides centralized configuration management for regsync.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"time"
	"unicode/utf8"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Lock     LockConfig
	Query    QueryConfig
	Rate     RateLimitConfig
	Logging  LoggingConfig
	Tracing  TracingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 20s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"20s"`

	// TrustedProxies lists proxy CIDRs whose X-Real-IP / X-Forwarded-For
	// headers are believed (comma-separated, default: none)
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate applies pending migrations before serve and import (default: false)
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" default:"false"`
}

// ImportConfig holds register import settings.
type ImportConfig struct {
	// SourcePath is the register extract to import when no path is given
	SourcePath string `env:"IMPORT_SOURCE_PATH"`

	// BatchSize is the number of rows committed per transaction (default: 1000)
	BatchSize int `env:"IMPORT_BATCH_SIZE" default:"1000"`

	// Provenance is recorded with each version (default: the source path)
	Provenance string `env:"IMPORT_PROVENANCE"`

	// Delimiter is the single-character field separator (default: ",")
	Delimiter string `env:"IMPORT_DELIMITER" default:","`

	// SkipLogLimit is how many skipped rows are logged individually (default: 5)
	SkipLogLimit int `env:"IMPORT_SKIP_LOG_LIMIT" default:"5"`

	// ScheduleEnabled runs periodic imports inside serve (default: false)
	ScheduleEnabled bool `env:"IMPORT_SCHEDULE_ENABLED" default:"false"`

	// Interval is the time between scheduled imports (default: 24h)
	Interval time.Duration `env:"IMPORT_INTERVAL" default:"24h"`

	// Timeout bounds a single import run (default: 30m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"30m"`
}

// DelimiterRune returns the configured delimiter as a rune.
func (c *ImportConfig) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// LockConfig holds import lock settings.
type LockConfig struct {
	// Backend is "file" or "redis" (default: file)
	Backend string `env:"LOCK_BACKEND" default:"file"`

	// Path is the lock file used by the file backend
	Path string `env:"LOCK_PATH" default:"regsync-import.lock"`

	// MaxAge is when a held lock is considered stale (default: 2h)
	MaxAge time.Duration `env:"LOCK_MAX_AGE" default:"2h"`

	// RedisURL is the connection URL for the redis backend
	RedisURL string `env:"REDIS_URL"`
}

// QueryConfig holds query service settings.
type QueryConfig struct {
	// DefaultLimit is the page size when a search sets none (default: 10)
	DefaultLimit int `env:"QUERY_DEFAULT_LIMIT" default:"10"`

	// MaxLimit caps any requested page size (default: 100)
	MaxLimit int `env:"QUERY_MAX_LIMIT" default:"100"`

	// StatsCacheTTL is how long stats are cached; 0 disables (default: 1m)
	StatsCacheTTL time.Duration `env:"QUERY_STATS_CACHE_TTL" default:"1m"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// Burst is the number of requests allowed above the sustained rate (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	// Enabled turns on span export (default: false)
	Enabled bool `env:"TRACING_ENABLED" default:"false"`

	// Exporter is none, stdout or otlp (default: none)
	Exporter string `env:"TRACING_EXPORTER" default:"none"`

	// OTLPEndpoint is the collector address for the otlp exporter
	OTLPEndpoint string `env:"TRACING_OTLP_ENDPOINT" default:"localhost:4317"`

	// SampleRate is the fraction of root spans sampled, 0 to 1 (default: 1)
	SampleRate float64 `env:"TRACING_SAMPLE_RATE" default:"1"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
