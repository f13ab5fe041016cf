package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
}

// Pool is a DBTX that can also open transactions. *pgxpool.Pool satisfies it.
type Pool interface {
	DBTX
	Begin(context.Context) (pgx.Tx, error)
}

// HeaderIndex maps normalized column names to their position in a row.
type HeaderIndex map[string]int

// Registration is one entry of the public register.
// Optional text fields are empty when absent from the source.
type Registration struct {
	RegistrationNumber string     `json:"registration_number"`
	OrganisationName   string     `json:"organisation_name"`
	AddressLine1       string     `json:"address_line_1,omitempty"`
	AddressLine2       string     `json:"address_line_2,omitempty"`
	AddressLine3       string     `json:"address_line_3,omitempty"`
	AddressLine4       string     `json:"address_line_4,omitempty"`
	AddressLine5       string     `json:"address_line_5,omitempty"`
	Postcode           string     `json:"postcode,omitempty"`
	PublicAuthority    string     `json:"public_authority,omitempty"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	Tier               string     `json:"tier,omitempty"`
	CompanyNumber      string     `json:"company_number,omitempty"`
	TradingNames       string     `json:"trading_names,omitempty"`
	DPOTitle           string     `json:"dpo_title,omitempty"`
	DPOFirstName       string     `json:"dpo_first_name,omitempty"`
	DPOLastName        string     `json:"dpo_last_name,omitempty"`
	DPOOrganisation    string     `json:"dpo_organisation,omitempty"`
	DPOEmail           string     `json:"dpo_email,omitempty"`
	DPOPhone           string     `json:"dpo_phone,omitempty"`
	DPOAddress         string     `json:"dpo_address,omitempty"`
	DPOPostcode        string     `json:"dpo_postcode,omitempty"`
	PublicRegisterURL  string     `json:"public_register_url,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at,omitzero"`
}

// skipReason returns why the row cannot be stored, or "" if it can.
func (r Registration) skipReason() string {
	switch {
	case r.RegistrationNumber == "" && r.OrganisationName == "":
		return "missing registration number and organisation name"
	case r.RegistrationNumber == "":
		return "missing registration number"
	case r.OrganisationName == "":
		return "missing organisation name"
	}
	return ""
}

// VersionStatus is the lifecycle state of a DataVersion.
type VersionStatus string

const (
	VersionActive   VersionStatus = "active"
	VersionArchived VersionStatus = "archived"
)

// DataVersion records one completed import.
type DataVersion struct {
	ID          int64         `json:"id"`
	ImportedAt  time.Time     `json:"imported_at"`
	Hash        string        `json:"hash"`
	FileSize    int64         `json:"file_size"`
	RecordCount int64         `json:"record_count"`
	Provenance  string        `json:"provenance,omitempty"`
	Status      VersionStatus `json:"status"`
}

// ImportResult summarizes one Loader run.
type ImportResult struct {
	RunID           string        `json:"run_id"`
	Source          string        `json:"source"`
	Fingerprint     string        `json:"fingerprint,omitempty"`
	FileSize        int64         `json:"file_size"`
	RecordsImported int           `json:"records_imported"`
	RecordsSkipped  int           `json:"records_skipped"`
	Batches         int           `json:"batches"`
	VersionID       int64         `json:"version_id,omitempty"`
	NoOp            bool          `json:"no_op"`
	Duration        time.Duration `json:"-"`
	DurationMs      int64         `json:"duration_ms"`
}

// Stats is the summary returned by GetStats.
type Stats struct {
	RecordCount   int64        `json:"record_count"`
	ActiveVersion *DataVersion `json:"active_version"`
}

// SearchFilter selects registrations. Empty fields apply no constraint.
type SearchFilter struct {
	RegistrationNumber string `json:"registration_number,omitempty" jsonschema:"description=Exact registration number"`
	Name               string `json:"name,omitempty" jsonschema:"description=Case-insensitive substring of the organisation name"`
	Postcode           string `json:"postcode,omitempty" jsonschema:"description=Case-insensitive substring of the postcode"`
	PublicAuthority    string `json:"public_authority,omitempty" jsonschema:"description=Exact public authority flag"`
	Tier               string `json:"tier,omitempty" jsonschema:"description=Exact fee tier"`
	Limit              int    `json:"limit,omitempty" jsonschema:"description=Maximum rows to return (default 10)"`
	Offset             int    `json:"offset,omitempty" jsonschema:"description=Rows to skip for pagination"`
}
