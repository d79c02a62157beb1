// Package confloader layers configuration sources with koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables (ADMINCTL_ prefix)
//  3. Configuration file (YAML)
//  4. Defaults
//
// Environment names map to keys by lowercasing and turning a double
// underscore into a dot: ADMINCTL_SESSION__KEY_PREFIX is session.key_prefix,
// ADMINCTL_LOGIN_PATH is login_path.
//
// Watcher reports writes to a configuration file so a long-running process
// (the REPL) can reapply settings such as the log level.
package confloader
