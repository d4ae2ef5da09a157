// Package digest computes the content hashes used for deduplication.
//
// The digest is MD5 rendered as lowercase hex. It identifies content; it is
// not a security boundary.
package digest

import (
	"bytes"
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Sum returns the hex digest of b.
func Sum(b []byte) string {
	sum := md5.Sum(b) //nolint:gosec

	return hex.EncodeToString(sum[:])
}

// Encode serializes v deterministically: object keys sorted, two space
// indentation, no HTML escaping and no trailing newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode canonical form: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Canonical encodes v with Encode and returns both the digest and the encoded bytes.
func Canonical(v any) (string, []byte, error) {
	encoded, err := Encode(v)
	if err != nil {
		return "", nil, err
	}

	return Sum(encoded), encoded, nil
}
