package buildconfig

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
)

// Fingerprint identifies the record content. It is the Base58-encoded SHA256
// of the canonical JSON encoding, so two records with equal fields share a
// fingerprint regardless of the file format they were loaded from.
func (c *Config) Fingerprint() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encoding configuration: %w", err)
	}
	hash := sha256.Sum256(data)
	return base58.Encode(hash[:]), nil
}
