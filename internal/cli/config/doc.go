// Package config defines the adminctl configuration file and its loading.
//
// Sources are layered by confloader: defaults, ~/.adminctl/config.yaml,
// ADMINCTL_* environment variables, then command-line flags.
package config
