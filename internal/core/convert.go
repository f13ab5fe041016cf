package core

// convert.go converts register cells to typed values and back.
//
// The register is published with UK day-first dates, but older extracts
// and hand-edited files also carry ISO dates and textual months, so
// ParseDate tries every layout below. Anything it cannot read becomes a
// NULL date; a bad date never causes a row to be skipped.

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/regsync/internal/database"
)

// TwoDigitYearPivot: a 2-digit year that would land more than this many
// years in the future is read as the previous century.
var TwoDigitYearPivot = 20

var (
	fourDigitYearLayouts = []string{
		"02/01/2006", "2/1/2006", "02-01-2006", "2-1-2006", "02.01.2006",
		"2006-01-02", "2006/01/02",
		"2 January 2006", "2 Jan 2006", "02 Jan 2006",
		"2006-01-02T15:04:05Z07:00", "2006-01-02 15:04:05",
		"02/01/2006 15:04", "02/01/2006 15:04:05",
	}
	twoDigitYearLayouts = []string{
		"02/01/06", "2/1/06", "02-01-06",
	}
)

// ParseDate parses a register date. It returns nil for empty or
// unrecognised input.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := truncateToDate(t)
			return &d
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			d := truncateToDate(t)
			return &d
		}
	}

	return nil
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate converts an optional date to pgtype.Date.
func ToPgDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: *t, Valid: true}
}

func fromPgText(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func fromPgDate(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

// CleanCell trims whitespace and unwraps the ="..." text-formula wrapper
// that spreadsheets add to keep leading zeros. Any other content, including
// a leading '=', is kept as given.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}

// MakeHeaderIndex maps each header cell to its position. Names are
// normalized with normalizeHeader; the first occurrence of a name wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := idx[key]; dup || key == "" {
			continue
		}
		idx[key] = i
	}
	return idx
}

// normalizeHeader lowercases a header and folds spaces and hyphens to
// underscores, so "Organisation name" and "organisation_name" match.
func normalizeHeader(h string) string {
	h = strings.ToLower(CleanCell(h))
	h = strings.Trim(h, `"'`)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return '_'
		}
		return r
	}, h)
}

// toUpsertParams converts a registration to the batch upsert parameters.
func toUpsertParams(r Registration) database.UpsertRegistrationParams {
	return database.UpsertRegistrationParams{
		RegistrationNumber: r.RegistrationNumber,
		OrganisationName:   r.OrganisationName,
		AddressLine1:       ToPgText(r.AddressLine1),
		AddressLine2:       ToPgText(r.AddressLine2),
		AddressLine3:       ToPgText(r.AddressLine3),
		AddressLine4:       ToPgText(r.AddressLine4),
		AddressLine5:       ToPgText(r.AddressLine5),
		Postcode:           ToPgText(r.Postcode),
		PublicAuthority:    ToPgText(r.PublicAuthority),
		StartDate:          ToPgDate(r.StartDate),
		EndDate:            ToPgDate(r.EndDate),
		Tier:               ToPgText(r.Tier),
		CompanyNumber:      ToPgText(r.CompanyNumber),
		TradingNames:       ToPgText(r.TradingNames),
		DpoTitle:           ToPgText(r.DPOTitle),
		DpoFirstName:       ToPgText(r.DPOFirstName),
		DpoLastName:        ToPgText(r.DPOLastName),
		DpoOrganisation:    ToPgText(r.DPOOrganisation),
		DpoEmail:           ToPgText(r.DPOEmail),
		DpoPhone:           ToPgText(r.DPOPhone),
		DpoAddress:         ToPgText(r.DPOAddress),
		DpoPostcode:        ToPgText(r.DPOPostcode),
		PublicRegisterUrl:  ToPgText(r.PublicRegisterURL),
	}
}

// fromDBRegistration converts a stored row to the domain type.
func fromDBRegistration(row database.Registration) Registration {
	reg := Registration{
		RegistrationNumber: row.RegistrationNumber,
		OrganisationName:   row.OrganisationName,
		AddressLine1:       fromPgText(row.AddressLine1),
		AddressLine2:       fromPgText(row.AddressLine2),
		AddressLine3:       fromPgText(row.AddressLine3),
		AddressLine4:       fromPgText(row.AddressLine4),
		AddressLine5:       fromPgText(row.AddressLine5),
		Postcode:           fromPgText(row.Postcode),
		PublicAuthority:    fromPgText(row.PublicAuthority),
		StartDate:          fromPgDate(row.StartDate),
		EndDate:            fromPgDate(row.EndDate),
		Tier:               fromPgText(row.Tier),
		CompanyNumber:      fromPgText(row.CompanyNumber),
		TradingNames:       fromPgText(row.TradingNames),
		DPOTitle:           fromPgText(row.DpoTitle),
		DPOFirstName:       fromPgText(row.DpoFirstName),
		DPOLastName:        fromPgText(row.DpoLastName),
		DPOOrganisation:    fromPgText(row.DpoOrganisation),
		DPOEmail:           fromPgText(row.DpoEmail),
		DPOPhone:           fromPgText(row.DpoPhone),
		DPOAddress:         fromPgText(row.DpoAddress),
		DPOPostcode:        fromPgText(row.DpoPostcode),
		PublicRegisterURL:  fromPgText(row.PublicRegisterUrl),
	}
	if row.UpdatedAt.Valid {
		reg.UpdatedAt = row.UpdatedAt.Time
	}
	return reg
}

// fromDBVersion converts a stored ledger row to the domain type.
func fromDBVersion(row database.DataVersion) DataVersion {
	v := DataVersion{
		ID:          row.ID,
		Hash:        row.Hash,
		FileSize:    row.FileSize,
		RecordCount: row.RecordCount,
		Provenance:  fromPgText(row.Provenance),
		Status:      VersionStatus(row.Status),
	}
	if row.ImportedAt.Valid {
		v.ImportedAt = row.ImportedAt.Time
	}
	return v
}
