package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentDigest computes the stable content hash used for duplicate detection:
// lowercase hex SHA-256 of the raw bytes.
func ContentDigest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
