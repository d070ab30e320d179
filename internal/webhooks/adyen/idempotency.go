package adyenwebhook

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ResolveEventKey derives the dedup key for one delivery. A caller-supplied
// idempotency token wins; otherwise the key is the SHA-256 of the raw body,
// so byte-identical redeliveries collapse to the same key without any
// cooperation from the sender.
func ResolveEventKey(idempotencyHeader string, rawBody []byte) string {
	if token := strings.TrimSpace(idempotencyHeader); token != "" {
		return token
	}
	sum := sha256.Sum256(rawBody)
	return hex.EncodeToString(sum[:])
}
