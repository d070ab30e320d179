package adyenwebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature checks the supplied hex signature against HMAC-SHA256 of
// the raw body. The body must be the exact bytes received on the wire;
// re-serialized JSON is not guaranteed to match what the PSP signed. With no
// secret configured every request is rejected.
func VerifySignature(secret string, rawBody []byte, suppliedHex string) bool {
	if secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(suppliedHex))))
}
