// Package main is the adminctl entry point.
//
// adminctl is a command-line client for an administrative HTTP API. It
// logs in once, keeps the session on disk and attaches it to every call,
// in single-command mode or in the interactive REPL.
//
// Usage:
//
//	adminctl login -e ada@example.com
//	adminctl call GET /api/users
//	adminctl repl
package main
