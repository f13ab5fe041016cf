// Package testutil holds test doubles shared by the adapter packages.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/regsync/internal/core"
)

// FakeReader is an in-memory core.Reader. Search applies the same filter
// semantics as the PostgreSQL query service. Set Err to fail every call.
type FakeReader struct {
	mu       sync.Mutex
	Regs     []core.Registration
	Versions []core.DataVersion
	Err      error
	Calls    []string
}

var _ core.Reader = (*FakeReader)(nil)

func (f *FakeReader) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op)
	return f.Err
}

// Search implements core.Reader.
func (f *FakeReader) Search(_ context.Context, filter core.SearchFilter) ([]core.Registration, error) {
	if err := f.record("search"); err != nil {
		return nil, err
	}
	if filter.Limit < 0 {
		return nil, &core.QueryError{Field: "limit", Reason: "must not be negative"}
	}
	if filter.Offset < 0 {
		return nil, &core.QueryError{Field: "offset", Reason: "must not be negative"}
	}

	matches := make([]core.Registration, 0)
	for _, r := range f.Regs {
		if filter.RegistrationNumber != "" && r.RegistrationNumber != filter.RegistrationNumber {
			continue
		}
		if filter.Name != "" && !containsFold(r.OrganisationName, filter.Name) {
			continue
		}
		if filter.Postcode != "" && !containsFold(r.Postcode, filter.Postcode) {
			continue
		}
		if filter.PublicAuthority != "" && r.PublicAuthority != filter.PublicAuthority {
			continue
		}
		if filter.Tier != "" && r.Tier != filter.Tier {
			continue
		}
		matches = append(matches, r)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].OrganisationName != matches[j].OrganisationName {
			return matches[i].OrganisationName < matches[j].OrganisationName
		}
		return matches[i].RegistrationNumber < matches[j].RegistrationNumber
	})

	limit := filter.Limit
	if limit == 0 {
		limit = core.DefaultSearchLimit
	}
	if filter.Offset >= len(matches) {
		return []core.Registration{}, nil
	}
	matches = matches[filter.Offset:]
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// GetByKey implements core.Reader.
func (f *FakeReader) GetByKey(_ context.Context, key string) (*core.Registration, error) {
	if err := f.record("get"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(key) == "" {
		return nil, &core.QueryError{Field: "registration_number", Reason: "is required"}
	}
	for _, r := range f.Regs {
		if r.RegistrationNumber == key {
			r := r
			return &r, nil
		}
	}
	return nil, fmt.Errorf("registration %s: %w", key, core.ErrNotFound)
}

// GetStats implements core.Reader.
func (f *FakeReader) GetStats(context.Context) (*core.Stats, error) {
	if err := f.record("stats"); err != nil {
		return nil, err
	}
	stats := &core.Stats{RecordCount: int64(len(f.Regs))}
	for _, v := range f.Versions {
		if v.Status == core.VersionActive {
			v := v
			stats.ActiveVersion = &v
		}
	}
	return stats, nil
}

// ListVersions implements core.Reader.
func (f *FakeReader) ListVersions(context.Context) ([]core.DataVersion, error) {
	if err := f.record("versions"); err != nil {
		return nil, err
	}
	return append([]core.DataVersion(nil), f.Versions...), nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
