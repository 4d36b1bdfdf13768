package worldstate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Signature returns a canonical fingerprint of state. Two states with the
// same keys and deep-equal values share a signature regardless of the order
// their keys were inserted in. A key holding null signs the same as an
// absent key.
func Signature(state State) (string, error) {
	data, err := json.Marshal(state.compact())
	if err != nil {
		return "", fmt.Errorf("marshal state for signature: %w", err)
	}
	canonical, err := jcs.Transform(data)
	if err != nil {
		return "", fmt.Errorf("canonicalize state for signature: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
