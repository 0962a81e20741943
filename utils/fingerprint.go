package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// PhoneFingerprint returns a short stable hash of phone for log fields, so
// phone numbers never reach the logs in clear text.
func PhoneFingerprint(phone string) string {
	if phone == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(phone))
	return hex.EncodeToString(sum[:6])
}
