package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/regsync/internal/database"
)

// RegistrationStore is the PostgreSQL RegistrationWriter.
type RegistrationStore struct {
	pool Pool
}

// NewRegistrationStore returns a store backed by pool.
func NewRegistrationStore(pool Pool) *RegistrationStore {
	return &RegistrationStore{pool: pool}
}

// Clear truncates the registrations table.
func (s *RegistrationStore) Clear(ctx context.Context) error {
	if s.pool == nil {
		return ErrStoreNotInitialized
	}
	if err := database.New(s.pool).TruncateRegistrations(ctx); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// UpsertBatch writes rows in one transaction using a pipelined batch of
// INSERT ... ON CONFLICT statements. Statements run in order, so a key
// repeated within rows ends with its last values.
func (s *RegistrationStore) UpsertBatch(ctx context.Context, rows []Registration) error {
	if s.pool == nil {
		return ErrStoreNotInitialized
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	params := make([]database.UpsertRegistrationParams, len(rows))
	for i, r := range rows {
		params[i] = toUpsertParams(r)
	}

	var execErr error
	database.New(s.pool).WithTx(tx).UpsertRegistration(ctx, params).Exec(func(i int, err error) {
		if err != nil && execErr == nil {
			execErr = fmt.Errorf("upsert %s: %w", rows[i].RegistrationNumber, mapStoreError(err))
		}
	})
	if execErr != nil {
		return execErr
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
