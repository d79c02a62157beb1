package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/yndnr/adminctl/internal/core/domain"
	"github.com/yndnr/adminctl/internal/session"
	"github.com/yndnr/adminctl/internal/telemetry/logger"
	"github.com/yndnr/adminctl/internal/telemetry/metric"
	"github.com/yndnr/adminctl/pkg/token"
)

// DefaultLoginPath is the login endpoint relative to the server URL.
const DefaultLoginPath = "/api/auth/login"

// maxLoginResponse caps the login response body read into memory.
const maxLoginResponse = 1 << 20

// Doer sends a request. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Config configures a Gateway.
type Config struct {
	// BaseURL is the server root, e.g. "https://admin.example.com".
	BaseURL string

	// LoginPath defaults to DefaultLoginPath.
	LoginPath string

	// LoginRate is the sustained login attempts per second; 0 disables throttling.
	LoginRate float64

	// LoginBurst is the number of attempts allowed at once. Default: 1
	LoginBurst int

	// UserAgent is sent with the login request when set.
	UserAgent string
}

// Option configures optional Gateway collaborators.
type Option func(*Gateway)

// WithNavigator sets the navigation effect of the termination sequence.
func WithNavigator(n Navigator) Option {
	return func(g *Gateway) {
		g.navigator = n
	}
}

// WithLogger sets the gateway logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

// WithMetrics records login and termination counters.
func WithMetrics(m *metric.Registry) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// Gateway performs login and logout against a session.Store.
type Gateway struct {
	cfg       Config
	transport Doer
	store     *session.Store
	navigator Navigator
	logger    logger.Logger
	metrics   *metric.Registry
	limiter   *rate.Limiter

	// termination state
	termMu        sync.Mutex
	terminated    bool
	terminatedRev uint64

	obsMu     sync.Mutex
	observers []func()
}

// NewGateway creates a Gateway. transport must not carry the
// authentication interceptors: a 401 at login is a failed login.
func NewGateway(cfg Config, transport Doer, store *session.Store, opts ...Option) *Gateway {
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if transport == nil {
		transport = http.DefaultClient
	}

	g := &Gateway{
		cfg:       cfg,
		transport: transport,
		store:     store,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.navigator == nil {
		g.navigator = nopNavigator
	}
	if g.logger == nil {
		g.logger = logger.Default()
	}
	if cfg.LoginRate > 0 {
		burst := cfg.LoginBurst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.LoginRate), burst)
	}

	return g
}

// ============================================================================
// Login
// ============================================================================

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Credential string `json:"credential"`
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Role       string `json:"role"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Login exchanges email and password for a session and stores it.
//
// On success the store has been written exactly once. Every failure is
// reported as domain.ErrLoginFailed and leaves the store untouched.
func (g *Gateway) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	if g.limiter != nil && !g.limiter.Allow() {
		g.countLogin(metric.LoginThrottled)
		return nil, domain.ErrLoginFailed.WithCause(domain.ErrLoginThrottled)
	}

	sess, err := g.exchange(ctx, email, password)
	if err != nil {
		g.countLogin(metric.LoginFailure)
		logger.L(ctx).Warn("login failed", "email", email, "error", err)
		return nil, err
	}

	if err := g.store.Write(ctx, sess); err != nil {
		g.countLogin(metric.LoginFailure)
		return nil, domain.ErrLoginFailed.WithCause(err)
	}

	g.countLogin(metric.LoginSuccess)
	logger.L(ctx).Info("login succeeded",
		"email", sess.Identity.Email,
		"role", sess.Identity.Role,
		"fingerprint", token.Fingerprint(sess.Credential),
	)
	return sess.Clone(), nil
}

// exchange performs the HTTP round trip and validates the response.
func (g *Gateway) exchange(ctx context.Context, email, password string) (*domain.Session, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, domain.ErrLoginFailed.WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.loginURL(), bytes.NewReader(body))
	if err != nil {
		return nil, domain.ErrLoginFailed.WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", g.cfg.UserAgent)
	}

	resp, err := g.transport.Do(req)
	if err != nil {
		return nil, domain.ErrLoginFailed.WithCause(domain.ErrTransport.WithCause(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLoginResponse))
	if err != nil {
		return nil, domain.ErrLoginFailed.WithCause(domain.ErrTransport.WithCause(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		details := fmt.Sprintf("status %d", resp.StatusCode)
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Message != "" {
			details += ": " + errResp.Message
		}
		return nil, domain.ErrLoginFailed.WithDetails(details)
	}

	var lr loginResponse
	if err := json.Unmarshal(data, &lr); err != nil {
		return nil, domain.ErrLoginFailed.WithDetails("malformed response").WithCause(err)
	}

	sess, err := domain.NewSession(lr.Credential, domain.Identity{
		ID:        lr.ID,
		Email:     lr.Email,
		FirstName: lr.FirstName,
		LastName:  lr.LastName,
		Role:      lr.Role,
	})
	if err != nil {
		return nil, domain.ErrLoginFailed.WithDetails("incomplete response").WithCause(err)
	}
	return sess, nil
}

func (g *Gateway) loginURL() string {
	return strings.TrimRight(g.cfg.BaseURL, "/") + "/" + strings.TrimLeft(g.cfg.LoginPath, "/")
}

func (g *Gateway) countLogin(result string) {
	if g.metrics != nil {
		g.metrics.LoginsTotal.WithLabelValues(result).Inc()
	}
}

// ============================================================================
// Logout / identity
// ============================================================================

// Logout clears the session. Logging out while logged out is a no-op.
func (g *Gateway) Logout(ctx context.Context) error {
	removed, err := g.store.Clear(ctx)
	if err != nil {
		return err
	}
	if removed {
		logger.L(ctx).Info("logged out")
		g.notifyLogout()
	}
	return nil
}

// OnLogout registers fn to run each time a session is removed, by Logout
// or by Terminate.
func (g *Gateway) OnLogout(fn func()) {
	g.obsMu.Lock()
	defer g.obsMu.Unlock()
	g.observers = append(g.observers, fn)
}

func (g *Gateway) notifyLogout() {
	g.obsMu.Lock()
	observers := append([]func(){}, g.observers...)
	g.obsMu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

// CurrentIdentity returns the identity of the stored session, or nil.
func (g *Gateway) CurrentIdentity() *domain.Identity {
	sess := g.store.Read()
	if sess == nil {
		return nil
	}
	return &sess.Identity
}

// ============================================================================
// Termination
// ============================================================================

// Terminate ends the session a request was dispatched under after the
// server rejected its credential.
//
// rev is the store revision observed at dispatch. If the store has moved
// on since (a newer login, or an earlier termination), the call is stale
// and does nothing. Otherwise the session is cleared and the navigator is
// invoked, once per revision however many calls fail concurrently.
// The navigator runs with the termination lock held.
func (g *Gateway) Terminate(ctx context.Context, rev uint64) error {
	g.termMu.Lock()
	defer g.termMu.Unlock()

	if current := g.store.Revision(); current != rev {
		logger.L(ctx).Debug("ignoring stale authentication failure", "revision", rev, "current", current)
		return nil
	}
	if g.terminated && g.terminatedRev == rev {
		return nil
	}

	removed, err := g.store.ClearRevision(ctx, rev)
	if err != nil {
		logger.L(ctx).Error("terminate session", "error", err)
		return err
	}
	if removed {
		g.notifyLogout()
	}

	g.terminated, g.terminatedRev = true, rev
	if g.metrics != nil {
		g.metrics.TerminationsTotal.Inc()
	}
	logger.L(ctx).Warn("session terminated by server", "revision", rev)

	g.navigator.GoToLogin()
	return nil
}
