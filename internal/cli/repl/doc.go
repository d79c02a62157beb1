// Package repl provides the interactive mode of adminctl.
//
//   - repl.go: read-eval-print loop, login mode and command dispatch
//   - split.go: shell-style tokenizing of input lines
//   - completer.go: command prefix completion, used by help
//   - history.go: command history persistence
//
// A REPL is an auth.Navigator: when the server rejects the session the
// loop switches to login mode and prompts for credentials before it
// accepts any further command.
package repl
