package core

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Fingerprint returns the hex SHA-256 of everything read from r and the
// number of bytes hashed. Memory use is constant in the size of r.
func Fingerprint(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
