// Package sha256 computes the content digests stored on weblink records.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher implements weblink.Hasher using SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the hex digest of data.
func (h *Hasher) Hash(data []byte) (string, error) {
	return Sum(string(data)), nil
}

// Sum returns the hex digest of s. Stores use it to build fixed-length keys from URLs.
func Sum(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
