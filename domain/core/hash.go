package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Fingerprint identifies a record set's contents. Marginal statistics are
// memoized per fingerprint: same fingerprint, same marginals.
type Fingerprint Hash

// NewFingerprint creates a fingerprint from serialized record content
func NewFingerprint(data []byte) Fingerprint {
	return Fingerprint(NewHash(data))
}

func (f Fingerprint) String() string { return Hash(f).String() }

// IsEmpty checks if the fingerprint is empty
func (f Fingerprint) IsEmpty() bool {
	return f == ""
}
