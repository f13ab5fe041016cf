package core

// streaming.go holds the reader chain every import passes through:
//
//   - CountingReader: counts raw file bytes for progress logging
//   - BOMSkippingReader: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF)
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with '?'
//
// All three work in O(buffer) memory. Use WrapForStreaming to build the chain.

import (
	"bufio"
	"bytes"
	"io"
	"sync/atomic"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader strips a UTF-8 byte order mark from the start of a stream.
type BOMSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMSkippingReader wraps r.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		if head, err := r.br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			_, _ = r.br.Discard(len(utf8BOM))
		}
	}
	return r.br.Read(p)
}

// UTF8Sanitizer replaces each byte that is not part of a valid UTF-8
// sequence with '?'. Output length always equals input length, so the
// replacement happens in place. A multi-byte sequence split across two
// reads is held back until the rest of it arrives.
type UTF8Sanitizer struct {
	r       io.Reader
	pending []byte
	err     error
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for {
		n := copy(p, s.pending)
		s.pending = s.pending[:copy(s.pending, s.pending[n:])]

		if n < len(p) && s.err == nil {
			var m int
			m, s.err = s.r.Read(p[n:])
			n += m
		}

		drained := s.err != nil && len(s.pending) == 0
		keep := n
		if !drained {
			keep = n - incompleteTail(p[:n])
			// p too small to ever hold the whole sequence; pass it through.
			if keep == 0 && n == len(p) {
				keep = n
			}
		}
		if keep < n {
			s.pending = append(append(make([]byte, 0, utf8.UTFMax), p[keep:n]...), s.pending...)
		}

		sanitizeInPlace(p[:keep])

		if keep > 0 {
			if s.err != nil && len(s.pending) == 0 {
				return keep, s.err
			}
			return keep, nil
		}
		if s.err != nil && len(s.pending) == 0 {
			return 0, s.err
		}
	}
}

// sanitizeInPlace overwrites invalid bytes in b with '?'.
func sanitizeInPlace(b []byte) {
	if utf8.Valid(b) {
		return
	}
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			b[i] = '?'
		}
		i += size
	}
}

// incompleteTail returns how many trailing bytes of b form the start of a
// multi-byte sequence that is not yet complete.
func incompleteTail(b []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(b); i++ {
		c := b[len(b)-i]
		if c&0xC0 == 0x80 {
			continue
		}
		if c >= 0xC0 && sequenceLen(c) > i {
			return i
		}
		return 0
	}
	return 0
}

// sequenceLen returns the encoded length implied by a UTF-8 lead byte.
func sequenceLen(lead byte) int {
	switch {
	case lead < 0x80:
		return 1
	case lead < 0xE0:
		return 2
	case lead < 0xF0:
		return 3
	default:
		return 4
	}
}

// CountingReader counts bytes read through it. BytesRead is safe to call
// from other goroutines while reads are in progress.
type CountingReader struct {
	r     io.Reader
	n     atomic.Int64
	total int64
}

// NewCountingReader wraps r; total is the expected size or 0 if unknown.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{r: r, total: total}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (c *CountingReader) BytesRead() int64 {
	return c.n.Load()
}

// Progress returns read progress as a percentage, or 0 if total is unknown.
func (c *CountingReader) Progress() int {
	if c.total <= 0 {
		return 0
	}
	return int(c.n.Load() * 100 / c.total)
}

// WrapForStreaming builds the import reader chain over a raw file.
// The counter sits closest to the file so progress matches the file size;
// BOM removal runs before sanitization so the mark is never rewritten.
func WrapForStreaming(r io.Reader, totalSize int64) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r, totalSize)
	return NewUTF8Sanitizer(NewBOMSkippingReader(counter)), counter
}
