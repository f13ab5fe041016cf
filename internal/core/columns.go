package core

// columns.go resolves register fields by header name.
//
// Columns are looked up by name, never by position, so an extract with
// reordered or extra columns still loads. Each field accepts the published
// header plus the shorter names seen in older extracts.

// Required header columns. A file missing either loads no rows.
const (
	ColRegistrationNumber = "registration_number"
	ColOrganisationName   = "organisation_name"
)

type registrationField struct {
	names []string
	set   func(r *Registration, v string)
}

var registrationFields = []registrationField{
	{[]string{ColRegistrationNumber, "registration_no", "reference"}, func(r *Registration, v string) { r.RegistrationNumber = v }},
	{[]string{ColOrganisationName, "name"}, func(r *Registration, v string) { r.OrganisationName = v }},
	{[]string{"organisation_address_line_1", "address_line_1"}, func(r *Registration, v string) { r.AddressLine1 = v }},
	{[]string{"organisation_address_line_2", "address_line_2"}, func(r *Registration, v string) { r.AddressLine2 = v }},
	{[]string{"organisation_address_line_3", "address_line_3"}, func(r *Registration, v string) { r.AddressLine3 = v }},
	{[]string{"organisation_address_line_4", "address_line_4"}, func(r *Registration, v string) { r.AddressLine4 = v }},
	{[]string{"organisation_address_line_5", "address_line_5"}, func(r *Registration, v string) { r.AddressLine5 = v }},
	{[]string{"organisation_postcode", "postcode"}, func(r *Registration, v string) { r.Postcode = v }},
	{[]string{"public_authority"}, func(r *Registration, v string) { r.PublicAuthority = v }},
	{[]string{"start_date_of_registration", "start_date"}, func(r *Registration, v string) { r.StartDate = ParseDate(v) }},
	{[]string{"end_date_of_registration", "end_date"}, func(r *Registration, v string) { r.EndDate = ParseDate(v) }},
	{[]string{"payment_tier", "tier"}, func(r *Registration, v string) { r.Tier = v }},
	{[]string{"company_registration_number", "company_number"}, func(r *Registration, v string) { r.CompanyNumber = v }},
	{[]string{"trading_names", "trading_name"}, func(r *Registration, v string) { r.TradingNames = v }},
	{[]string{"dpo_or_person_responsible_for_dp_title", "dpo_title"}, func(r *Registration, v string) { r.DPOTitle = v }},
	{[]string{"dpo_or_person_responsible_for_dp_first_name", "dpo_first_name"}, func(r *Registration, v string) { r.DPOFirstName = v }},
	{[]string{"dpo_or_person_responsible_for_dp_last_name", "dpo_last_name"}, func(r *Registration, v string) { r.DPOLastName = v }},
	{[]string{"dpo_or_person_responsible_for_dp_organisation", "dpo_organisation"}, func(r *Registration, v string) { r.DPOOrganisation = v }},
	{[]string{"dpo_or_person_responsible_for_dp_email", "dpo_email"}, func(r *Registration, v string) { r.DPOEmail = v }},
	{[]string{"dpo_or_person_responsible_for_dp_phone", "dpo_phone"}, func(r *Registration, v string) { r.DPOPhone = v }},
	{[]string{"dpo_or_person_responsible_for_dp_address", "dpo_address"}, func(r *Registration, v string) { r.DPOAddress = v }},
	{[]string{"dpo_or_person_responsible_for_dp_postcode", "dpo_postcode"}, func(r *Registration, v string) { r.DPOPostcode = v }},
	{[]string{"public_register_entry_url", "public_register_url"}, func(r *Registration, v string) { r.PublicRegisterURL = v }},
}

// boundField is a registrationField resolved against one header.
type boundField struct {
	pos int
	set func(r *Registration, v string)
}

// ColumnMap maps a parsed row to a Registration using one file's header.
type ColumnMap struct {
	fields  []boundField
	missing []string
}

// NewColumnMap resolves every known field against header.
func NewColumnMap(header []string) *ColumnMap {
	idx := MakeHeaderIndex(header)
	m := &ColumnMap{}

	for _, f := range registrationFields {
		pos, ok := lookup(idx, f.names)
		if !ok {
			if f.names[0] == ColRegistrationNumber || f.names[0] == ColOrganisationName {
				m.missing = append(m.missing, f.names[0])
			}
			continue
		}
		m.fields = append(m.fields, boundField{pos: pos, set: f.set})
	}
	return m
}

func lookup(idx HeaderIndex, names []string) (int, bool) {
	for _, n := range names {
		if pos, ok := idx[n]; ok {
			return pos, true
		}
	}
	return 0, false
}

// Missing returns the required columns absent from the header.
func (m *ColumnMap) Missing() []string {
	return m.missing
}

// Registration builds a record from one parsed row. Cells beyond the end
// of a short row read as empty.
func (m *ColumnMap) Registration(row []string) Registration {
	var r Registration
	for _, f := range m.fields {
		if f.pos >= len(row) {
			continue
		}
		if v := CleanCell(row[f.pos]); v != "" {
			f.set(&r, v)
		}
	}
	return r
}
