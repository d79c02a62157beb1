package httpclient

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/adminctl/internal/session"
	"github.com/yndnr/adminctl/internal/telemetry/logger"
	"github.com/yndnr/adminctl/internal/telemetry/metric"
)

// HeaderRequestID carries the per-call request id.
const HeaderRequestID = "X-Request-ID"

// RequestInterceptor augments a request before dispatch. It may return the
// same request or a shallow copy carrying a derived context.
type RequestInterceptor func(*http.Request) *http.Request

// ResponseInterceptor observes the outcome of a dispatched request.
// resp is nil when err is non-nil.
type ResponseInterceptor func(req *http.Request, resp *http.Response, err error)

// ChainRequest runs interceptors in order. Nil entries are skipped.
func ChainRequest(interceptors ...RequestInterceptor) RequestInterceptor {
	return func(req *http.Request) *http.Request {
		for _, ic := range interceptors {
			if ic != nil {
				req = ic(req)
			}
		}
		return req
	}
}

// ChainResponse runs interceptors in order. Nil entries are skipped.
func ChainResponse(interceptors ...ResponseInterceptor) ResponseInterceptor {
	return func(req *http.Request, resp *http.Response, err error) {
		for _, ic := range interceptors {
			if ic != nil {
				ic(req, resp, err)
			}
		}
	}
}

// ============================================================================
// Request interceptors
// ============================================================================

// SessionSource provides the current session snapshot. *session.Store implements it.
type SessionSource interface {
	Snapshot() session.Snapshot
}

// Bearer attaches the stored credential as "Authorization: Bearer <credential>".
//
// The snapshot is taken on every call, so a logout between two calls is
// seen by the second. Without a session the headers are left untouched.
// The snapshot revision is recorded in the request context for AuthFailure.
func Bearer(src SessionSource) RequestInterceptor {
	return func(req *http.Request) *http.Request {
		snap := src.Snapshot()
		if snap.Session != nil {
			req.Header.Set("Authorization", snap.Session.AuthorizationHeader())
		}
		return req.WithContext(session.WithRevision(req.Context(), snap.Revision))
	}
}

// RequestID sets X-Request-ID to a new lowercase ULID unless the caller set one.
// The id is also attached to the request context for logging.
func RequestID() RequestInterceptor {
	return func(req *http.Request) *http.Request {
		id := req.Header.Get(HeaderRequestID)
		if id == "" {
			id = strings.ToLower(ulid.Make().String())
			req.Header.Set(HeaderRequestID, id)
		}
		return req.WithContext(logger.WithRequestID(req.Context(), id))
	}
}

// UserAgent sets the User-Agent header when the request has none.
func UserAgent(ua string) RequestInterceptor {
	return func(req *http.Request) *http.Request {
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", ua)
		}
		return req
	}
}

// ============================================================================
// Response interceptors
// ============================================================================

// Terminator runs the termination sequence for the session revision a
// rejected call was dispatched under. *auth.Gateway implements it.
type Terminator interface {
	Terminate(ctx context.Context, rev uint64) error
}

// AuthFailure terminates the session when a call is answered 401.
// The response itself is left for the caller. Requests that did not pass
// through Bearer carry no revision and are ignored.
func AuthFailure(t Terminator) ResponseInterceptor {
	return func(req *http.Request, resp *http.Response, err error) {
		if err != nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
			return
		}

		ctx := req.Context()
		rev, ok := session.RevisionFromContext(ctx)
		if !ok {
			logger.L(ctx).Warn("401 on a request without session revision", "path", req.URL.Path)
			return
		}

		// The caller may cancel its context as soon as it has the response.
		if err := t.Terminate(context.WithoutCancel(ctx), rev); err != nil {
			logger.L(ctx).Error("termination failed", "error", err)
		}
	}
}

// Logging logs every call at debug level, and transport failures at warn.
func Logging(log logger.Logger) ResponseInterceptor {
	return func(req *http.Request, resp *http.Response, err error) {
		l := log
		if id := logger.RequestIDFromContext(req.Context()); id != "" {
			l = l.With("request_id", id)
		}
		elapsed := Elapsed(req)

		if err != nil {
			l.Warn("request failed",
				"method", req.Method,
				"path", req.URL.Path,
				"duration", elapsed,
				"error", err,
			)
			return
		}
		l.Debug("request completed",
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.StatusCode,
			"duration", elapsed,
		)
	}
}

// Metrics records request counts and latencies.
func Metrics(m *metric.Registry) ResponseInterceptor {
	return func(req *http.Request, resp *http.Response, err error) {
		code := 0
		if err == nil && resp != nil {
			code = resp.StatusCode
		}
		m.ObserveRequest(req.Method, code, Elapsed(req))
	}
}

// ============================================================================
// Dispatch time
// ============================================================================

type startKey struct{}

func withStart(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startKey{}, t)
}

// Elapsed returns the time since the request entered Client.Do, or 0.
func Elapsed(req *http.Request) time.Duration {
	start, ok := req.Context().Value(startKey{}).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(start)
}
