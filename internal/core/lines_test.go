package core

import (
	"strings"
	"testing"
)

func TestLineReader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty input", "", nil},
		{"single line no terminator", "a,b", []string{"a,b"}},
		{"trailing newline", "a\n", []string{"a"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"mixed terminators", "a\nb\r\nc", []string{"a", "b", "c"}},
		{"blank lines kept", "a\n\nb", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := NewLineReader(strings.NewReader(tt.input))
			var got []string
			for lr.Next() {
				got = append(got, lr.Line())
				if lr.Number() != len(got) {
					t.Errorf("Number() = %d, want %d", lr.Number(), len(got))
				}
			}
			if err := lr.Err(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLineReader_NotRestartable(t *testing.T) {
	lr := NewLineReader(strings.NewReader("a"))
	if !lr.Next() {
		t.Fatal("expected a line")
	}
	if lr.Next() {
		t.Fatal("expected end of input")
	}
	if lr.Next() {
		t.Error("Next after end should stay false")
	}
}

func TestLineReader_LineTooLong(t *testing.T) {
	orig := MaxLineSize
	MaxLineSize = 70 * 1024
	t.Cleanup(func() { MaxLineSize = orig })

	input := "header\n" + strings.Repeat("x", 100*1024) + "\n"
	lr := NewLineReader(strings.NewReader(input))

	if !lr.Next() {
		t.Fatal("expected header line")
	}
	if lr.Next() {
		t.Fatal("expected overlong line to fail")
	}
	if lr.Err() == nil {
		t.Error("expected error for overlong line")
	}
}
