package core

import (
	"strings"
	"unicode/utf8"
)

// FieldParser splits one line of delimited text into fields.
//
// A field may be wrapped in the quote character; inside a quoted span the
// delimiter and newlines are literal and a doubled quote stands for one
// quote. A quoted span still open at end of line is closed implicitly.
// A quote that does not start a field is kept as a literal character.
// The parser never fails and does not check field counts.
type FieldParser struct {
	delimiter rune
	quote     rune
}

// NewFieldParser returns a parser for the given delimiter and quote.
func NewFieldParser(delimiter, quote rune) *FieldParser {
	return &FieldParser{delimiter: delimiter, quote: quote}
}

// ParseLine returns the fields of line in order. An empty line yields a
// single empty field.
func (p *FieldParser) ParseLine(line string) []string {
	fields := make([]string, 0, 24)

	var field strings.Builder
	inQuotes := false
	atFieldStart := true

	for i, w := 0, 0; i < len(line); i += w {
		r, size := utf8.DecodeRuneInString(line[i:])
		w = size

		if inQuotes {
			if r != p.quote {
				field.WriteRune(r)
				continue
			}
			if next, nsize := utf8.DecodeRuneInString(line[i+w:]); nsize > 0 && next == p.quote {
				field.WriteRune(p.quote)
				w += nsize
				continue
			}
			inQuotes = false
			continue
		}

		switch {
		case r == p.delimiter:
			fields = append(fields, field.String())
			field.Reset()
			atFieldStart = true
			continue
		case r == p.quote && atFieldStart:
			inQuotes = true
		default:
			field.WriteRune(r)
		}
		atFieldStart = false
	}

	return append(fields, field.String())
}
