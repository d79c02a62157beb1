package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// FingerprintPrefix marks a fingerprint.
const FingerprintPrefix = "sha256:"

// fingerprintLen is the number of hex characters kept.
const fingerprintLen = 16

// Hash returns the hex encoded SHA-256 of credential.
func Hash(credential string) string {
	h := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(h[:])
}

// Fingerprint returns the short fingerprint of credential, or "" for an
// empty credential.
func Fingerprint(credential string) string {
	if credential == "" {
		return ""
	}
	return FingerprintPrefix + Hash(credential)[:fingerprintLen]
}

// Match reports whether credential has the given fingerprint.
func Match(credential, fingerprint string) bool {
	if credential == "" || !strings.HasPrefix(fingerprint, FingerprintPrefix) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Fingerprint(credential)), []byte(fingerprint)) == 1
}
