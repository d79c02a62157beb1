// Package token derives display-safe fingerprints of bearer credentials.
//
// A fingerprint is "sha256:" followed by the first 16 hex characters of
// the SHA-256 of the credential. It identifies a credential in logs and
// status output without revealing it; comparison is constant time.
package token
