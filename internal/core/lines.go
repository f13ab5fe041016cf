package core

import (
	"bufio"
	"io"
)

// MaxLineSize is the longest physical line a LineReader accepts.
var MaxLineSize = 16 * 1024 * 1024

// LineReader yields the lines of a stream one at a time.
//
// It is pull-based: callers advance with Next and read the current line with
// Line. The sequence is finite and cannot be restarted. Line terminators
// (\n or \r\n) are stripped; a final line without a terminator is returned.
//
//	lines := NewLineReader(r)
//	for lines.Next() {
//	    handle(lines.Line())
//	}
//	if err := lines.Err(); err != nil { ... }
type LineReader struct {
	scanner *bufio.Scanner
	line    string
	number  int
	err     error
}

// NewLineReader returns a LineReader over r.
func NewLineReader(r io.Reader) *LineReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &LineReader{scanner: scanner}
}

// Next advances to the next line. It returns false at end of input or on a
// read error; check Err afterwards.
func (lr *LineReader) Next() bool {
	if lr.err != nil {
		return false
	}
	if !lr.scanner.Scan() {
		lr.err = lr.scanner.Err()
		lr.line = ""
		return false
	}
	lr.number++
	lr.line = lr.scanner.Text()
	return true
}

// Line returns the current line without its terminator.
func (lr *LineReader) Line() string {
	return lr.line
}

// Number returns the 1-based number of the current line.
func (lr *LineReader) Number() int {
	return lr.number
}

// Err returns the first read error, if any. End of input is not an error.
func (lr *LineReader) Err() error {
	return lr.err
}
