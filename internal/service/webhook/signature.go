package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const signaturePrefix = "sha256="

// Sign returns the X-Hub-Signature-256 value GitHub sends for body.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks signature against the HMAC-SHA256 of the raw body in
// constant time.
func Verify(signature string, body []byte, secret string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if !hmac.Equal([]byte(Sign(body, secret)), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
