package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/regsync/internal/database"
	"github.com/JonMunkholm/regsync/internal/metrics"
)

// Query defaults.
const (
	DefaultSearchLimit = 10
	DefaultMaxLimit    = 100
)

// Reader is the read surface used by every adapter.
type Reader interface {
	Search(ctx context.Context, filter SearchFilter) ([]Registration, error)
	GetByKey(ctx context.Context, key string) (*Registration, error)
	GetStats(ctx context.Context) (*Stats, error)
	ListVersions(ctx context.Context) ([]DataVersion, error)
}

const selectRegistrations = `SELECT registration_number, organisation_name, address_line_1, address_line_2, address_line_3, address_line_4, address_line_5, postcode, public_authority, start_date, end_date, tier, company_number, trading_names, dpo_title, dpo_first_name, dpo_last_name, dpo_organisation, dpo_email, dpo_phone, dpo_address, dpo_postcode, public_register_url, updated_at FROM registrations`

// QueryService answers registry reads. It is safe for concurrent use.
type QueryService struct {
	db           DBTX
	defaultLimit int
	maxLimit     int
	stats        *statsCache
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// QueryOption configures a QueryService.
type QueryOption func(*QueryService)

// WithLimits sets the default and maximum page sizes.
func WithLimits(defaultLimit, maxLimit int) QueryOption {
	return func(s *QueryService) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

// WithStatsCacheTTL caches GetStats results for ttl. Zero disables caching.
func WithStatsCacheTTL(ttl time.Duration) QueryOption {
	return func(s *QueryService) { s.stats = newStatsCache(ttl) }
}

// WithQueryLogger sets the service logger.
func WithQueryLogger(logger *slog.Logger) QueryOption {
	return func(s *QueryService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithQueryMetrics enables query latency metrics.
func WithQueryMetrics(m *metrics.Metrics) QueryOption {
	return func(s *QueryService) { s.metrics = m }
}

// NewQueryService returns a service reading through db. A nil db yields a
// service whose every call fails with ErrStoreNotInitialized.
func NewQueryService(db DBTX, opts ...QueryOption) *QueryService {
	s := &QueryService{
		db:           db,
		defaultLimit: DefaultSearchLimit,
		maxLimit:     DefaultMaxLimit,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultLimit > s.maxLimit {
		s.defaultLimit = s.maxLimit
	}
	return s
}

// Search returns registrations matching every set field of filter, ordered
// by organisation name then registration number.
func (s *QueryService) Search(ctx context.Context, filter SearchFilter) ([]Registration, error) {
	if s.db == nil {
		return nil, ErrStoreNotInitialized
	}
	defer s.metrics.ObserveQuery("search", time.Now())

	query, args, err := s.buildSearch(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, s.storeError("search", err)
	}
	defer rows.Close()

	results := make([]Registration, 0)
	for rows.Next() {
		var row database.Registration
		if err := rows.Scan(
			&row.RegistrationNumber,
			&row.OrganisationName,
			&row.AddressLine1,
			&row.AddressLine2,
			&row.AddressLine3,
			&row.AddressLine4,
			&row.AddressLine5,
			&row.Postcode,
			&row.PublicAuthority,
			&row.StartDate,
			&row.EndDate,
			&row.Tier,
			&row.CompanyNumber,
			&row.TradingNames,
			&row.DpoTitle,
			&row.DpoFirstName,
			&row.DpoLastName,
			&row.DpoOrganisation,
			&row.DpoEmail,
			&row.DpoPhone,
			&row.DpoAddress,
			&row.DpoPostcode,
			&row.PublicRegisterUrl,
			&row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		results = append(results, fromDBRegistration(row))
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeError("search", err)
	}
	return results, nil
}

// buildSearch validates filter and returns the SQL and bound arguments.
func (s *QueryService) buildSearch(filter SearchFilter) (string, []any, error) {
	if filter.Limit < 0 {
		return "", nil, &QueryError{Field: "limit", Reason: "must not be negative"}
	}
	if filter.Offset < 0 {
		return "", nil, &QueryError{Field: "offset", Reason: "must not be negative"}
	}

	limit := filter.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	wb := NewWhereBuilder()
	wb.Add("registration_number", strings.TrimSpace(filter.RegistrationNumber))
	wb.AddContains("organisation_name", strings.TrimSpace(filter.Name))
	wb.AddContains("postcode", strings.TrimSpace(filter.Postcode))
	wb.Add("public_authority", strings.TrimSpace(filter.PublicAuthority))
	wb.Add("tier", strings.TrimSpace(filter.Tier))

	where, args := wb.Build()
	n := wb.NextArgIndex()
	query := selectRegistrations + where +
		fmt.Sprintf(" ORDER BY organisation_name ASC, registration_number ASC LIMIT $%d OFFSET $%d", n, n+1)

	return query, append(args, limit, filter.Offset), nil
}

// GetByKey returns the registration with the given number.
func (s *QueryService) GetByKey(ctx context.Context, key string) (*Registration, error) {
	if s.db == nil {
		return nil, ErrStoreNotInitialized
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, &QueryError{Field: "registration_number", Reason: "is required"}
	}
	defer s.metrics.ObserveQuery("get", time.Now())

	row, err := database.New(s.db).GetRegistration(ctx, key)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("registration %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, s.storeError("get", err)
	}
	reg := fromDBRegistration(row)
	return &reg, nil
}

// GetStats returns the row count and the active version. ActiveVersion is
// nil before the first import.
func (s *QueryService) GetStats(ctx context.Context) (*Stats, error) {
	if s.db == nil {
		return nil, ErrStoreNotInitialized
	}
	if cached, ok := s.stats.get(); ok {
		return cached, nil
	}
	defer s.metrics.ObserveQuery("stats", time.Now())

	count, err := database.New(s.db).CountRegistrations(ctx)
	if err != nil {
		return nil, s.storeError("stats", err)
	}

	stats := &Stats{RecordCount: count}
	active, err := activeVersion(ctx, s.db)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, s.storeError("stats", err)
	default:
		stats.ActiveVersion = active
	}

	s.stats.set(stats)
	return stats, nil
}

// ListVersions returns every recorded version, newest first.
func (s *QueryService) ListVersions(ctx context.Context) ([]DataVersion, error) {
	if s.db == nil {
		return nil, ErrStoreNotInitialized
	}
	defer s.metrics.ObserveQuery("versions", time.Now())

	versions, err := listVersions(ctx, s.db)
	if err != nil {
		return nil, s.storeError("versions", err)
	}
	return versions, nil
}

// InvalidateStats drops the cached stats. The loader calls it after each
// import that stored rows.
func (s *QueryService) InvalidateStats() {
	s.stats.invalidate()
}

func (s *QueryService) storeError(op string, err error) error {
	err = mapStoreError(err)
	if !errors.Is(err, ErrStoreNotInitialized) {
		s.logger.Error("query failed", "op", op, "error", err)
	}
	return err
}
