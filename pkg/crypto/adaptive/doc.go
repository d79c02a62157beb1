// Package adaptive provides authenticated encryption with hardware-aware
// algorithm selection and passphrase sealing for small secrets.
//
// Supported Algorithms:
//
//   - AES-256-GCM: preferred when hardware AES support is available
//   - ChaCha20-Poly1305: fallback for other architectures
//
// Seal derives a 32-byte key from a passphrase with argon2id and a random
// per-call salt. The resulting blob records the algorithm so it opens on any
// host regardless of which cipher that host would select.
//
// Usage:
//
//	blob, err := adaptive.Seal(passphrase, secret, []byte("slot"))
//	secret, err := adaptive.Open(passphrase, blob, []byte("slot"))
package adaptive
