package core

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestWhereBuilder_Empty(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("tier", "")
	wb.AddContains("organisation_name", "")

	where, args := wb.Build()
	if where != "" || args != nil {
		t.Errorf("Build() = %q, %v; want empty", where, args)
	}
	if wb.NextArgIndex() != 1 {
		t.Errorf("NextArgIndex() = %d, want 1", wb.NextArgIndex())
	}
}

func TestWhereBuilder_Conditions(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("registration_number", "Z1")
	wb.AddContains("organisation_name", "acme")
	wb.Add("tier", "")
	wb.Add("tier", "Tier 1")

	where, args := wb.Build()

	wantWhere := ` WHERE registration_number = $1 AND organisation_name ILIKE $2 ESCAPE '\' AND tier = $3`
	if where != wantWhere {
		t.Errorf("where = %q, want %q", where, wantWhere)
	}
	wantArgs := []any{"Z1", "%acme%", "Tier 1"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("args = %v, want %v", args, wantArgs)
	}
	if wb.NextArgIndex() != 4 {
		t.Errorf("NextArgIndex() = %d, want 4", wb.NextArgIndex())
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"50%", `50\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
	}

	for _, tt := range tests {
		if got := EscapeLike(tt.input); got != tt.want {
			t.Errorf("EscapeLike(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// Every non-empty value gets exactly one placeholder and values never
// appear in the SQL text.
func TestWhereBuilder_PlaceholdersProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOfN(rapid.String(), 0, 6).Draw(t, "values")
		contains := rapid.SliceOfN(rapid.Bool(), len(values), len(values)).Draw(t, "contains")

		wb := NewWhereBuilder()
		want := 0
		for i, v := range values {
			if contains[i] {
				wb.AddContains("col", v)
			} else {
				wb.Add("col", v)
			}
			if v != "" {
				want++
			}
		}

		where, args := wb.Build()
		if len(args) != want {
			t.Fatalf("len(args) = %d, want %d", len(args), want)
		}
		if wb.NextArgIndex() != want+1 {
			t.Fatalf("NextArgIndex() = %d, want %d", wb.NextArgIndex(), want+1)
		}
		for i := 1; i <= want; i++ {
			if !strings.Contains(where, fmt.Sprintf("$%d", i)) {
				t.Fatalf("where %q lacks $%d", where, i)
			}
		}
		if strings.Contains(where, fmt.Sprintf("$%d", want+1)) {
			t.Fatalf("where %q has an extra placeholder", where)
		}
	})
}

// Unescaping EscapeLike's output gives back the input, and no unescaped
// wildcard survives.
func TestEscapeLike_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		escaped := EscapeLike(s)

		var b strings.Builder
		for i := 0; i < len(escaped); i++ {
			c := escaped[i]
			switch c {
			case '\\':
				if i+1 >= len(escaped) {
					t.Fatalf("dangling escape in %q", escaped)
				}
				i++
				b.WriteByte(escaped[i])
			case '%', '_':
				t.Fatalf("unescaped %q in %q", c, escaped)
			default:
				b.WriteByte(c)
			}
		}
		if b.String() != s {
			t.Fatalf("round trip = %q, want %q", b.String(), s)
		}
	})
}
