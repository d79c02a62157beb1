// Package metric provides the client-side Prometheus metrics of adminctl.
//
// Metrics include:
//
//   - adminctl_http_requests_total{method,code}
//   - adminctl_http_request_duration_seconds{method}
//   - adminctl_auth_logins_total{result}
//   - adminctl_auth_terminations_total
//   - adminctl_session_active
//
// A CLI process has no scrape endpoint; Dump renders a registry in the
// Prometheus text format for the REPL "metrics" command.
package metric
