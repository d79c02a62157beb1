// Package command provides CLI command definitions for adminctl.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: root command, global flags, runtime wiring
//   - auth.go: login, logout, whoami and status
//   - call.go: authenticated requests against the administrative API
//   - metrics.go: process metrics dump
//   - repl.go: interactive mode
//   - config.go: configuration subcommand group
//   - version.go: build information
//
// Commands that talk to the server share one Runtime per process: the
// session store, the auth gateway and the intercepted HTTP client.
package command
