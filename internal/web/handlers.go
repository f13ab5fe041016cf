package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/regsync/internal/core"
)

// SearchResponse is the body of GET /api/registrations.
type SearchResponse struct {
	Registrations []core.Registration `json:"registrations"`
	Count         int                 `json:"count"`
	Limit         int                 `json:"limit,omitempty"`
	Offset        int                 `json:"offset"`
}

// VersionsResponse is the body of GET /api/versions.
type VersionsResponse struct {
	Versions []core.DataVersion `json:"versions"`
}

// handleSearch serves GET /api/registrations.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSearchFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	regs, err := s.reader.Search(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, SearchResponse{
		Registrations: regs,
		Count:         len(regs),
		Limit:         filter.Limit,
		Offset:        filter.Offset,
	})
}

// parseSearchFilter reads the search parameters from the query string.
func parseSearchFilter(r *http.Request) (core.SearchFilter, error) {
	q := r.URL.Query()
	filter := core.SearchFilter{
		RegistrationNumber: q.Get("registration_number"),
		Name:               q.Get("name"),
		Postcode:           q.Get("postcode"),
		PublicAuthority:    q.Get("public_authority"),
		Tier:               q.Get("tier"),
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func intParam(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &core.QueryError{Field: name, Reason: "must be an integer"}
	}
	return n, nil
}

// handleGetRegistration serves GET /api/registrations/{key}.
func (s *Server) handleGetRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := s.reader.GetByKey(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, reg)
}

// handleStats serves GET /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.reader.GetStats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// handleVersions serves GET /api/versions.
func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.reader.ListVersions(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, VersionsResponse{Versions: versions})
}

// handleHealth serves GET /healthz by pinging the store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.health.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
