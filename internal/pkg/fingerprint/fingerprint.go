// Package fingerprint hashes charge inputs so a replay can tell whether the
// retried body matches the one that produced the stored response.
package fingerprint

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Of returns the hex blake2b-256 digest of parts joined by NUL.
func Of(parts ...string) string {
	h, _ := blake2b.New256(nil)
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
