package core

import (
	"reflect"
	"testing"
)

func TestColumnMap_PublishedHeader(t *testing.T) {
	header := []string{
		"Registration_number", "Organisation_name", "Organisation_address_line_1",
		"Organisation_postcode", "Public_authority", "Start_date_of_registration",
		"End_date_of_registration", "Payment_tier", "DPO_or_Person_responsible_for_DP_Email",
	}
	m := NewColumnMap(header)

	if len(m.Missing()) != 0 {
		t.Fatalf("Missing() = %v, want none", m.Missing())
	}

	r := m.Registration([]string{
		"Z1234567", "Acme Ltd", "1 High St", "AB1 2CD", "N", "01/04/2023", "31/03/2024", "Tier 1", "dpo@acme.test",
	})

	if r.RegistrationNumber != "Z1234567" || r.OrganisationName != "Acme Ltd" {
		t.Errorf("key fields = %q/%q", r.RegistrationNumber, r.OrganisationName)
	}
	if r.AddressLine1 != "1 High St" || r.Postcode != "AB1 2CD" || r.PublicAuthority != "N" {
		t.Errorf("address fields = %+v", r)
	}
	if r.StartDate == nil || r.StartDate.Format("2006-01-02") != "2023-04-01" {
		t.Errorf("StartDate = %v", r.StartDate)
	}
	if r.EndDate == nil || r.EndDate.Format("2006-01-02") != "2024-03-31" {
		t.Errorf("EndDate = %v", r.EndDate)
	}
	if r.Tier != "Tier 1" || r.DPOEmail != "dpo@acme.test" {
		t.Errorf("Tier/DPOEmail = %q/%q", r.Tier, r.DPOEmail)
	}
}

func TestColumnMap_ReorderedAndAliased(t *testing.T) {
	m := NewColumnMap([]string{"extra", "name", "postcode", "registration_no"})

	r := m.Registration([]string{"ignored", "Beta LLP", "XY9 9ZZ", "Z7654321"})
	if r.RegistrationNumber != "Z7654321" || r.OrganisationName != "Beta LLP" || r.Postcode != "XY9 9ZZ" {
		t.Errorf("got %+v", r)
	}
}

func TestColumnMap_Missing(t *testing.T) {
	m := NewColumnMap([]string{"Organisation_postcode"})

	want := []string{ColRegistrationNumber, ColOrganisationName}
	if !reflect.DeepEqual(m.Missing(), want) {
		t.Errorf("Missing() = %v, want %v", m.Missing(), want)
	}
	if reason := m.Registration([]string{"AB1"}).skipReason(); reason == "" {
		t.Error("row from header without key columns should be skipped")
	}
}

func TestColumnMap_ShortRowAndCleaning(t *testing.T) {
	m := NewColumnMap([]string{"Registration_number", "Organisation_name", "Payment_tier"})

	r := m.Registration([]string{`="00123"`, "  Gamma  "})
	if r.RegistrationNumber != "00123" {
		t.Errorf("RegistrationNumber = %q, want 00123", r.RegistrationNumber)
	}
	if r.OrganisationName != "Gamma" {
		t.Errorf("OrganisationName = %q, want Gamma", r.OrganisationName)
	}
	if r.Tier != "" {
		t.Errorf("Tier = %q, want empty for short row", r.Tier)
	}
}

func TestRegistration_SkipReason(t *testing.T) {
	tests := []struct {
		reg  Registration
		want string
	}{
		{Registration{RegistrationNumber: "Z1", OrganisationName: "A"}, ""},
		{Registration{OrganisationName: "A"}, "missing registration number"},
		{Registration{RegistrationNumber: "Z1"}, "missing organisation name"},
		{Registration{}, "missing registration number and organisation name"},
	}

	for _, tt := range tests {
		if got := tt.reg.skipReason(); got != tt.want {
			t.Errorf("skipReason(%+v) = %q, want %q", tt.reg, got, tt.want)
		}
	}
}
