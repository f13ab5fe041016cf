package core

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateVersion is returned when a fingerprint is already in the
	// ledger. Callers treat it as a completed no-op.
	ErrDuplicateVersion = errors.New("duplicate version: fingerprint already recorded")

	// ErrStoreNotInitialized is returned by queries issued before the store
	// is opened or migrated.
	ErrStoreNotInitialized = errors.New("store not initialized")

	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited is returned to clients over their request budget.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// IOError reports an unreadable source file. No store state has changed
// when it is returned.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// TransactionError reports a failed store write. Batch is 1-based; 0 means
// the failure happened while clearing the table.
type TransactionError struct {
	Op    string
	Batch int
	Rows  int
	Err   error
}

func (e *TransactionError) Error() string {
	if e.Batch == 0 {
		return fmt.Sprintf("transaction failed: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transaction failed: %s batch %d (%d rows): %v", e.Op, e.Batch, e.Rows, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// QueryError reports an invalid search or lookup argument.
type QueryError struct {
	Field  string
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid query: %s %s", e.Field, e.Reason)
}
