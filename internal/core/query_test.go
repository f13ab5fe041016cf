package core

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB answers the handful of statements QueryService issues.
type fakeDB struct {
	count     int64
	countErr  error
	queryErr  error
	rowCalls  int
	lastQuery string
}

func (f *fakeDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not implemented")
}

func (f *fakeDB) Query(_ context.Context, sql string, _ ...interface{}) (pgx.Rows, error) {
	f.lastQuery = sql
	return nil, f.queryErr
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, _ ...interface{}) pgx.Row {
	f.rowCalls++
	f.lastQuery = sql
	switch {
	case strings.Contains(sql, "COUNT(*)"):
		return fakeRow{scan: func(dest ...any) error {
			if f.countErr != nil {
				return f.countErr
			}
			*dest[0].(*int64) = f.count
			return nil
		}}
	default:
		return fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}
	}
}

func (f *fakeDB) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	return nil
}

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

func TestBuildSearch(t *testing.T) {
	s := NewQueryService(nil)

	tests := []struct {
		name      string
		filter    SearchFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "no filter uses default limit",
			filter:    SearchFilter{},
			wantWhere: " ORDER BY organisation_name ASC, registration_number ASC LIMIT $1 OFFSET $2",
			wantArgs:  []any{DefaultSearchLimit, 0},
		},
		{
			name:      "substring name and exact tier",
			filter:    SearchFilter{Name: " acme ", Tier: "Tier 2", Limit: 5, Offset: 10},
			wantWhere: ` WHERE organisation_name ILIKE $1 ESCAPE '\' AND tier = $2 ORDER BY organisation_name ASC, registration_number ASC LIMIT $3 OFFSET $4`,
			wantArgs:  []any{"%acme%", "Tier 2", 5, 10},
		},
		{
			name:      "limit clamped to max",
			filter:    SearchFilter{RegistrationNumber: "Z1", Limit: 5000},
			wantWhere: " WHERE registration_number = $1 ORDER BY organisation_name ASC, registration_number ASC LIMIT $2 OFFSET $3",
			wantArgs:  []any{"Z1", DefaultMaxLimit, 0},
		},
		{
			name:      "wildcards in postcode are literal",
			filter:    SearchFilter{Postcode: "SW1_%", PublicAuthority: "Y"},
			wantWhere: ` WHERE postcode ILIKE $1 ESCAPE '\' AND public_authority = $2 ORDER BY organisation_name ASC, registration_number ASC LIMIT $3 OFFSET $4`,
			wantArgs:  []any{`%SW1\_\%%`, "Y", DefaultSearchLimit, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := s.buildSearch(tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := strings.TrimPrefix(query, selectRegistrations); got != tt.wantWhere {
				t.Errorf("query tail = %q, want %q", got, tt.wantWhere)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuildSearch_RejectsNegative(t *testing.T) {
	s := NewQueryService(nil)

	for _, f := range []SearchFilter{{Limit: -1}, {Offset: -5}} {
		_, _, err := s.buildSearch(f)
		var qe *QueryError
		if !errors.As(err, &qe) {
			t.Errorf("buildSearch(%+v) error = %v, want QueryError", f, err)
		}
	}
}

func TestNewQueryService_Limits(t *testing.T) {
	s := NewQueryService(nil, WithLimits(50, 20))
	assert.Equal(t, 20, s.maxLimit)
	assert.Equal(t, 20, s.defaultLimit, "default limit is capped at the max")
}

func TestQueryService_NilStore(t *testing.T) {
	s := NewQueryService(nil)
	ctx := context.Background()

	_, err := s.Search(ctx, SearchFilter{})
	assert.ErrorIs(t, err, ErrStoreNotInitialized)

	_, err = s.GetByKey(ctx, "Z1")
	assert.ErrorIs(t, err, ErrStoreNotInitialized)

	_, err = s.GetByKey(ctx, "")
	assert.ErrorIs(t, err, ErrStoreNotInitialized, "store state is checked before arguments")

	_, err = s.GetStats(ctx)
	assert.ErrorIs(t, err, ErrStoreNotInitialized)

	_, err = s.ListVersions(ctx)
	assert.ErrorIs(t, err, ErrStoreNotInitialized)
}

func TestQueryService_GetByKeyRequiresKey(t *testing.T) {
	s := NewQueryService(&fakeDB{})

	_, err := s.GetByKey(context.Background(), "  ")
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "registration_number", qe.Field)
}

func TestQueryService_GetByKeyNotFound(t *testing.T) {
	s := NewQueryService(&fakeDB{})

	_, err := s.GetByKey(context.Background(), "Z404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueryService_MissingTable(t *testing.T) {
	db := &fakeDB{queryErr: &pgconn.PgError{Code: "42P01", Message: `relation "registrations" does not exist`}}
	s := NewQueryService(db)

	_, err := s.Search(context.Background(), SearchFilter{Name: "acme"})
	assert.ErrorIs(t, err, ErrStoreNotInitialized)
}

func TestQueryService_GetStats(t *testing.T) {
	db := &fakeDB{count: 42}
	s := NewQueryService(db)

	stats, err := s.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.RecordCount)
	assert.Nil(t, stats.ActiveVersion, "no active version before first import")
}

func TestQueryService_StatsCache(t *testing.T) {
	db := &fakeDB{count: 7}
	s := NewQueryService(db, WithStatsCacheTTL(time.Minute))
	ctx := context.Background()

	_, err := s.GetStats(ctx)
	require.NoError(t, err)
	calls := db.rowCalls

	db.count = 8
	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stats.RecordCount, "served from cache")
	assert.Equal(t, calls, db.rowCalls)

	s.InvalidateStats()
	stats, err = s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), stats.RecordCount)
}

func TestQueryService_StatsErrorNotCached(t *testing.T) {
	db := &fakeDB{countErr: errors.New("connection reset")}
	s := NewQueryService(db, WithStatsCacheTTL(time.Minute))
	ctx := context.Background()

	_, err := s.GetStats(ctx)
	require.Error(t, err)

	db.countErr = nil
	db.count = 3
	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.RecordCount)
}
