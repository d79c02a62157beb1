package adaptive

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	sealVersion = "v1"
	saltSize    = 16

	// argon2id parameters (RFC 9106 second recommended option, reduced memory).
	kdfTime    = 1
	kdfMemory  = 64 * 1024
	kdfThreads = 4
)

var (
	// ErrMalformed is returned when a blob cannot be parsed.
	ErrMalformed = errors.New("adaptive: malformed sealed blob")

	// ErrOpen is returned when authentication fails, usually a wrong passphrase.
	ErrOpen = errors.New("adaptive: cannot open sealed blob")
)

// algorithm tags used inside the blob.
var algTags = map[CipherType]string{
	CipherAESGCM:   "a",
	CipherChaCha20: "c",
}

// DeriveKey derives a KeySize key from passphrase and salt with argon2id.
func DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, kdfTime, kdfMemory, kdfThreads, KeySize)
}

// IsSealed reports whether s looks like a blob produced by Seal.
func IsSealed(s string) bool {
	return strings.HasPrefix(s, sealVersion+".")
}

// Seal encrypts plaintext under a passphrase-derived key.
// The result has the form "v1.<alg>.<base64url(salt||nonce||ciphertext)>".
func Seal(passphrase string, plaintext, additionalData []byte) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	typ := Preferred()
	c, err := NewWithType(DeriveKey(passphrase, salt), typ)
	if err != nil {
		return "", err
	}
	ct, err := c.Encrypt(plaintext, additionalData)
	if err != nil {
		return "", err
	}

	raw := append(salt, ct...)
	return sealVersion + "." + algTags[typ] + "." + base64.RawURLEncoding.EncodeToString(raw), nil
}

// Open reverses Seal. The additional data must match the value used to seal.
func Open(passphrase, blob string, additionalData []byte) ([]byte, error) {
	parts := strings.SplitN(blob, ".", 3)
	if len(parts) != 3 || parts[0] != sealVersion {
		return nil, ErrMalformed
	}

	var typ CipherType
	for t, tag := range algTags {
		if tag == parts[1] {
			typ = t
		}
	}
	if typ == "" {
		return nil, fmt.Errorf("%w: unknown algorithm %q", ErrMalformed, parts[1])
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil || len(raw) < saltSize {
		return nil, ErrMalformed
	}

	c, err := NewWithType(DeriveKey(passphrase, raw[:saltSize]), typ)
	if err != nil {
		return nil, err
	}
	plaintext, err := c.Decrypt(raw[saltSize:], additionalData)
	if err != nil {
		if errors.Is(err, ErrCiphertextTooShort) {
			return nil, ErrMalformed
		}
		return nil, ErrOpen
	}
	return plaintext, nil
}
