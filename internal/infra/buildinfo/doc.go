// Package buildinfo exposes build-time information injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/adminctl/internal/infra/buildinfo.Version=v1.0.0"
//
// UserAgent renders it for the User-Agent header of every outgoing call.
package buildinfo
