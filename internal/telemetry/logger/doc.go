// Package logger provides structured logging for adminctl.
//
//   - logger.go: slog-backed Logger, level control and the process default
//   - context.go: context-carried logger and request IDs
//   - redact.go: masking of credentials and secrets
//
// Output goes to stderr so command output on stdout stays machine-readable.
package logger
