package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/JonMunkholm/regsync/internal/metrics"
)

// Loader defaults.
const (
	DefaultBatchSize    = 1000
	DefaultSkipLogLimit = 5
)

// ContextCheckInterval is how often, in rows, the loader checks for
// context cancellation.
var ContextCheckInterval = 100

// RegistrationWriter is the write side of the registrations table.
type RegistrationWriter interface {
	// Clear removes every registration.
	Clear(ctx context.Context) error
	// UpsertBatch writes rows in one transaction. Later rows win over
	// earlier rows with the same registration number.
	UpsertBatch(ctx context.Context, rows []Registration) error
}

// Ledger is the part of the version ledger the loader needs.
type Ledger interface {
	HasVersion(ctx context.Context, hash string) (bool, error)
	RecordVersion(ctx context.Context, hash string, size, recordCount int64, provenance string) (int64, error)
}

// Loader imports a register extract into the store.
// A Loader runs one import at a time; callers serialize runs with a lock.
type Loader struct {
	store        RegistrationWriter
	ledger       Ledger
	parser       *FieldParser
	batchSize    int
	skipLogLimit int
	provenance   string
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	afterImport  []func(*ImportResult)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithBatchSize sets the rows committed per transaction.
func WithBatchSize(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithProvenance sets the origin recorded with each version. When unset the
// source path is recorded.
func WithProvenance(p string) LoaderOption {
	return func(l *Loader) { l.provenance = p }
}

// WithDelimiter sets the field delimiter (default ',').
func WithDelimiter(d rune) LoaderOption {
	return func(l *Loader) { l.parser = NewFieldParser(d, l.parser.quote) }
}

// WithSkipLogLimit sets how many skipped rows are logged individually.
func WithSkipLogLimit(n int) LoaderOption {
	return func(l *Loader) {
		if n >= 0 {
			l.skipLogLimit = n
		}
	}
}

// WithLogger sets the logger for import runs.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) LoaderOption {
	return func(l *Loader) { l.metrics = m }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) LoaderOption {
	return func(l *Loader) {
		if t != nil {
			l.tracer = t
		}
	}
}

// WithAfterImport registers a hook run after each import that changed the
// table: a successful import, or a failed one that had already cleared it.
func WithAfterImport(fn func(*ImportResult)) LoaderOption {
	return func(l *Loader) { l.afterImport = append(l.afterImport, fn) }
}

// NewLoader returns a Loader writing to store and recording in ledger.
func NewLoader(store RegistrationWriter, ledger Ledger, opts ...LoaderOption) *Loader {
	l := &Loader{
		store:        store,
		ledger:       ledger,
		parser:       NewFieldParser(',', '"'),
		batchSize:    DefaultBatchSize,
		skipLogLimit: DefaultSkipLogLimit,
		logger:       slog.Default(),
		tracer:       otel.Tracer("github.com/JonMunkholm/regsync/internal/core"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Import loads sourcePath into the store.
//
// A source whose fingerprint is already recorded is a no-op. Otherwise the
// table is cleared, rows are upserted in batches and a new active version is
// recorded. On failure the returned result still describes the batches
// committed before the error.
func (l *Loader) Import(ctx context.Context, sourcePath string) (*ImportResult, error) {
	start := time.Now()
	result := &ImportResult{
		RunID:  uuid.NewString(),
		Source: sourcePath,
	}

	ctx = ContextWithRunID(ctx, result.RunID)
	ctx, span := l.tracer.Start(ctx, "core.Loader.Import", trace.WithAttributes(
		attribute.String("import.run_id", result.RunID),
		attribute.String("import.source", sourcePath),
	))
	defer span.End()

	logger := l.logger.With("run_id", result.RunID, "source", sourcePath)
	logger.Info("import started", "batch_size", l.batchSize)

	cleared, err := l.run(ctx, logger, span, sourcePath, result)

	result.Duration = time.Since(start)
	result.DurationMs = result.Duration.Milliseconds()
	span.SetAttributes(
		attribute.Int("import.records_imported", result.RecordsImported),
		attribute.Int("import.records_skipped", result.RecordsSkipped),
		attribute.Bool("import.noop", result.NoOp),
	)

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.metrics.ObserveImport(start, metrics.OutcomeFailed, result.RecordsImported, result.RecordsSkipped)
		if cleared {
			l.runAfterImport(result)
		}
		logger.Error("import failed",
			"error", err,
			"records_imported", result.RecordsImported,
			"records_skipped", result.RecordsSkipped,
			"batches", result.Batches,
			"duration_ms", result.DurationMs,
		)
		return result, err
	case result.NoOp:
		span.SetStatus(codes.Ok, "")
		l.metrics.ObserveImport(start, metrics.OutcomeNoOp, 0, 0)
		logger.Info("import skipped, source already recorded",
			"fingerprint", result.Fingerprint,
			"duration_ms", result.DurationMs,
		)
		return result, nil
	}

	span.SetStatus(codes.Ok, "")
	l.metrics.ObserveImport(start, metrics.OutcomeImported, result.RecordsImported, result.RecordsSkipped)
	l.metrics.SetActiveVersion(result.VersionID, int64(result.RecordsImported))
	l.runAfterImport(result)

	logger.Info("import completed",
		"version_id", result.VersionID,
		"records_imported", result.RecordsImported,
		"records_skipped", result.RecordsSkipped,
		"batches", result.Batches,
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

func (l *Loader) runAfterImport(result *ImportResult) {
	for _, fn := range l.afterImport {
		fn(result)
	}
}

// run performs the import steps. cleared reports whether the table was
// truncated, so callers know the stored data changed even on failure.
func (l *Loader) run(ctx context.Context, logger *slog.Logger, span trace.Span, sourcePath string, result *ImportResult) (cleared bool, err error) {
	f, err := os.Open(sourcePath)
	if err != nil {
		return false, &IOError{Op: "open", Path: sourcePath, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, &IOError{Op: "stat", Path: sourcePath, Err: err}
	}
	if info.IsDir() {
		return false, &IOError{Op: "open", Path: sourcePath, Err: errors.New("is a directory")}
	}
	result.FileSize = info.Size()

	hash, _, err := Fingerprint(f)
	if err != nil {
		return false, &IOError{Op: "hash", Path: sourcePath, Err: err}
	}
	result.Fingerprint = hash
	span.SetAttributes(attribute.String("import.fingerprint", hash))

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false, &IOError{Op: "seek", Path: sourcePath, Err: err}
	}

	exists, err := l.ledger.HasVersion(ctx, hash)
	if err != nil {
		return false, fmt.Errorf("check version: %w", err)
	}
	if exists {
		result.NoOp = true
		return false, nil
	}

	if err := l.store.Clear(ctx); err != nil {
		return false, &TransactionError{Op: "clear", Err: err}
	}
	logger.Debug("registrations cleared", "fingerprint", hash)

	if err := l.stream(ctx, logger, f, sourcePath, result); err != nil {
		return true, err
	}

	provenance := l.provenance
	if provenance == "" {
		provenance = sourcePath
	}

	versionID, err := l.ledger.RecordVersion(ctx, hash, result.FileSize, int64(result.RecordsImported), provenance)
	switch {
	case errors.Is(err, ErrDuplicateVersion):
		logger.Warn("version recorded by a concurrent run", "fingerprint", hash)
	case err != nil:
		return true, fmt.Errorf("record version: %w", err)
	default:
		result.VersionID = versionID
	}
	return true, nil
}

// stream reads the header and every data line, committing full batches as
// they fill.
func (l *Loader) stream(ctx context.Context, logger *slog.Logger, f *os.File, sourcePath string, result *ImportResult) error {
	reader, counter := WrapForStreaming(f, result.FileSize)
	lines := NewLineReader(reader)

	if !nextNonBlank(lines) {
		if err := lines.Err(); err != nil {
			return &IOError{Op: "read", Path: sourcePath, Err: err}
		}
		logger.Info("source is empty")
		return nil
	}

	cols := NewColumnMap(l.parser.ParseLine(lines.Line()))
	if missing := cols.Missing(); len(missing) > 0 {
		logger.Warn("header is missing required columns, every row will be skipped",
			"missing", strings.Join(missing, ","))
	}

	batch := make([]Registration, 0, l.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		result.Batches++
		batchStart := time.Now()
		if err := l.store.UpsertBatch(ctx, batch); err != nil {
			return &TransactionError{Op: "commit", Batch: result.Batches, Rows: len(batch), Err: err}
		}
		l.metrics.ObserveBatch(batchStart)
		result.RecordsImported += len(batch)
		logger.Debug("batch committed",
			"batch", result.Batches,
			"rows", len(batch),
			"bytes_read", counter.BytesRead(),
			"progress_pct", counter.Progress(),
		)
		batch = batch[:0]
		return nil
	}

	rows := 0
	for lines.Next() {
		line := lines.Line()
		if strings.TrimSpace(line) == "" {
			continue
		}

		rows++
		if rows%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("import cancelled at line %d: %w", lines.Number(), err)
			}
		}

		reg := cols.Registration(l.parser.ParseLine(line))
		if reason := reg.skipReason(); reason != "" {
			result.RecordsSkipped++
			switch {
			case result.RecordsSkipped <= l.skipLogLimit:
				logger.Warn("row skipped", "line", lines.Number(), "reason", reason)
			case result.RecordsSkipped == l.skipLogLimit+1:
				logger.Warn("further skipped rows are counted but not logged", "limit", l.skipLogLimit)
			}
			continue
		}

		batch = append(batch, reg)
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if err := lines.Err(); err != nil {
		return &IOError{Op: "read", Path: sourcePath, Err: err}
	}
	return flush()
}

// nextNonBlank advances lines past blank lines. It reports whether a
// non-blank line is current.
func nextNonBlank(lines *LineReader) bool {
	for lines.Next() {
		if strings.TrimSpace(lines.Line()) != "" {
			return true
		}
	}
	return false
}
