package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/regsync/internal/database"
)

// hashConstraint is the unique constraint on data_versions.hash.
const hashConstraint = "data_versions_hash_key"

// VersionLedger tracks imported source fingerprints in data_versions.
// Exactly one row is active after every successful RecordVersion.
type VersionLedger struct {
	pool Pool
}

// NewVersionLedger returns a ledger backed by pool.
func NewVersionLedger(pool Pool) *VersionLedger {
	return &VersionLedger{pool: pool}
}

// HasVersion reports whether hash has been recorded.
func (l *VersionLedger) HasVersion(ctx context.Context, hash string) (bool, error) {
	if l.pool == nil {
		return false, ErrStoreNotInitialized
	}
	exists, err := database.New(l.pool).HasVersionHash(ctx, hash)
	if err != nil {
		return false, mapStoreError(err)
	}
	return exists, nil
}

// RecordVersion archives the active version and inserts hash as the new
// active version, in one transaction. It returns ErrDuplicateVersion if
// hash is already recorded; the ledger is unchanged in that case.
func (l *VersionLedger) RecordVersion(ctx context.Context, hash string, size, recordCount int64, provenance string) (int64, error) {
	if l.pool == nil {
		return 0, ErrStoreNotInitialized
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(l.pool).WithTx(tx)
	if _, err := q.ArchiveActiveVersions(ctx); err != nil {
		return 0, fmt.Errorf("archive active version: %w", mapStoreError(err))
	}

	id, err := q.InsertDataVersion(ctx, database.InsertDataVersionParams{
		Hash:        hash,
		FileSize:    size,
		RecordCount: recordCount,
		Provenance:  ToPgText(provenance),
	})
	if err != nil {
		if isUniqueViolation(err, hashConstraint) {
			return 0, ErrDuplicateVersion
		}
		return 0, fmt.Errorf("insert version: %w", mapStoreError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit version: %w", err)
	}
	return id, nil
}

// ActiveVersion returns the active version, or ErrNotFound before the first import.
func (l *VersionLedger) ActiveVersion(ctx context.Context) (*DataVersion, error) {
	return activeVersion(ctx, l.pool)
}

// ListVersions returns every version, newest first.
func (l *VersionLedger) ListVersions(ctx context.Context) ([]DataVersion, error) {
	return listVersions(ctx, l.pool)
}

func activeVersion(ctx context.Context, db DBTX) (*DataVersion, error) {
	if db == nil {
		return nil, ErrStoreNotInitialized
	}
	row, err := database.New(db).GetActiveVersion(ctx)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapStoreError(err)
	}
	v := fromDBVersion(row)
	return &v, nil
}

func listVersions(ctx context.Context, db DBTX) ([]DataVersion, error) {
	if db == nil {
		return nil, ErrStoreNotInitialized
	}
	rows, err := database.New(db).ListDataVersions(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	versions := make([]DataVersion, 0, len(rows))
	for _, row := range rows {
		versions = append(versions, fromDBVersion(row))
	}
	return versions, nil
}

// isUniqueViolation reports whether err is a unique violation, optionally
// on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// mapStoreError turns "relation does not exist" into ErrStoreNotInitialized
// so callers see a typed failure before migrations have run.
func mapStoreError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return fmt.Errorf("%w: %s", ErrStoreNotInitialized, pgErr.Message)
	}
	return err
}
