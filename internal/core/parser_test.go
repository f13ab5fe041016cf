package core

import (
	"reflect"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestFieldParser_ParseLine(t *testing.T) {
	p := NewFieldParser(',', '"')

	tests := []struct {
		name string
		line string
		want []string
	}{
		{"simple", "a,b,c", []string{"a", "b", "c"}},
		{"empty line", "", []string{""}},
		{"empty middle field", "a,,c", []string{"a", "", "c"}},
		{"trailing delimiter", "a,", []string{"a", ""}},
		{"only delimiter", ",", []string{"", ""}},
		{"quoted delimiter", `"a,b",c`, []string{"a,b", "c"}},
		{"escaped quote", `"he said ""hi""",x`, []string{`he said "hi"`, "x"}},
		{"empty quoted field", `"",x`, []string{"", "x"}},
		{"unterminated quote closes at end", `"open,x`, []string{"open,x"}},
		{"unterminated after escaped quote", `"a""`, []string{`a"`}},
		{"mid-field quote is literal", `ab"c,d`, []string{`ab"c`, "d"}},
		{"text after closing quote", `"ab"c,d`, []string{"abc", "d"}},
		{"space before quote keeps quote", ` "a",b`, []string{` "a"`, "b"}},
		{"multibyte", "café,naïve", []string{"café", "naïve"}},
		{"quoted newline", "\"line1\nline2\",x", []string{"line1\nline2", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ParseLine(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseLine(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestFieldParser_CustomDelimiter(t *testing.T) {
	p := NewFieldParser('\t', '\'')

	got := p.ParseLine("a\t'b\tc'\t'it''s'")
	want := []string{"a", "b\tc", "it's"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFieldParser_PlainFieldsRoundTrip(t *testing.T) {
	p := NewFieldParser(',', '"')

	rapid.Check(t, func(t *rapid.T) {
		fields := rapid.SliceOfN(
			rapid.StringMatching(`[^,"]*`),
			1, 10,
		).Draw(t, "fields")

		got := p.ParseLine(strings.Join(fields, ","))
		if !reflect.DeepEqual(got, fields) {
			t.Fatalf("got %q, want %q", got, fields)
		}
	})
}

func TestFieldParser_QuotedFieldsRoundTrip(t *testing.T) {
	p := NewFieldParser(',', '"')

	rapid.Check(t, func(t *rapid.T) {
		fields := rapid.SliceOfN(rapid.String(), 1, 10).Draw(t, "fields")

		quoted := make([]string, len(fields))
		for i, f := range fields {
			quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		}

		got := p.ParseLine(strings.Join(quoted, ","))
		if !reflect.DeepEqual(got, fields) {
			t.Fatalf("got %q, want %q", got, fields)
		}
	})
}

func TestFieldParser_NeverEmpty(t *testing.T) {
	p := NewFieldParser(',', '"')

	rapid.Check(t, func(t *rapid.T) {
		line := rapid.String().Draw(t, "line")
		if got := p.ParseLine(line); len(got) == 0 {
			t.Fatalf("ParseLine(%q) returned no fields", line)
		}
	})
}
