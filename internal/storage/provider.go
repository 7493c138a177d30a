// Package storage persists agent state as single JSON documents on disk.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
)

// Provider is the interface for loading and saving one persisted document.
type Provider interface {
	// Load returns the raw persisted document. When no document exists yet
	// the error satisfies errors.Is(err, fs.ErrNotExist).
	Load() ([]byte, error)
	// Save atomically replaces the persisted document.
	Save(data []byte) error
}

// Sum returns the hex-encoded SHA-256 digest of data. Used to detect whether
// an on-disk document differs from the state already held in memory.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
