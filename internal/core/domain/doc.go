// Package domain defines the core domain models for adminctl.
//
// Domain models are pure values without any IO dependencies or
// framework coupling. This package contains:
//
//   - Session: the credential and identity pair of a logged-in principal
//   - Identity: the authenticated principal as reported by the login endpoint
//   - Errors: the tagged error taxonomy shared by every layer
package domain
