// Package matrix assembles feature tables and labels into the
// entity-by-date matrices the pipeline exchanges with trainers, and
// gives every matrix a stable content-derived identity for caching.
package matrix

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ContentHash returns a filename-friendly hex digest of v's canonical
// JSON encoding. Map keys are sorted by the encoder, so logically equal
// values hash identically regardless of construction order.
func ContentHash(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHash, err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
