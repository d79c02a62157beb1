package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/adminctl/internal/core/domain"
	"github.com/yndnr/adminctl/internal/session"
	"github.com/yndnr/adminctl/internal/storage"
	"github.com/yndnr/adminctl/internal/telemetry/logger"
	"github.com/yndnr/adminctl/internal/telemetry/metric"
)

const validLoginBody = `{"credential":"T","id":1,"email":"a@b.com","firstName":"A","lastName":"B","role":"staff"}`

type testEnv struct {
	server  *httptest.Server
	store   *session.Store
	engine  *storage.MemoryEngine
	gateway *Gateway
	metrics *metric.Registry
	navs    *atomic.Int32
}

func newTestEnv(t *testing.T, handler http.HandlerFunc, cfg Config) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	engine := storage.NewMemoryEngine()
	store, err := session.Open(context.Background(), engine, session.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("session.Open() error = %v", err)
	}

	navs := new(atomic.Int32)
	m := metric.NewRegistry(prometheus.NewRegistry())
	cfg.BaseURL = server.URL

	g := NewGateway(cfg, server.Client(), store,
		WithNavigator(NavigatorFunc(func() { navs.Add(1) })),
		WithLogger(logger.Nop()),
		WithMetrics(m),
	)

	return &testEnv{server: server, store: store, engine: engine, gateway: g, metrics: m, navs: navs}
}

func loginHandler(t *testing.T, status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != DefaultLoginPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode login request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestGateway_LoginRoundTrip(t *testing.T) {
	ctx := context.Background()
	var gotReq loginRequest
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("login request must not carry a credential")
		}
		_, _ = w.Write([]byte(validLoginBody))
	}, Config{})

	sess, err := env.gateway.Login(ctx, "a@b.com", "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if gotReq.Email != "a@b.com" || gotReq.Password != "pw" {
		t.Errorf("request body = %+v", gotReq)
	}

	want := domain.Session{
		Credential: "T",
		Identity:   domain.Identity{ID: 1, Email: "a@b.com", FirstName: "A", LastName: "B", Role: "staff"},
	}
	if *sess != want {
		t.Errorf("Login() = %+v, want %+v", sess, want)
	}
	if got := env.store.Read(); got == nil || *got != want {
		t.Errorf("store.Read() = %+v, want %+v", got, want)
	}
	if env.store.Revision() != 1 {
		t.Errorf("store written %d times, want exactly once", env.store.Revision())
	}
	if id := env.gateway.CurrentIdentity(); id == nil || id.Email != "a@b.com" {
		t.Errorf("CurrentIdentity() = %+v", id)
	}

	if err := env.gateway.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if env.store.Read() != nil {
		t.Error("store should be empty after Logout")
	}
	if env.gateway.CurrentIdentity() != nil {
		t.Error("CurrentIdentity() should be nil after Logout")
	}

	if got := testutil.ToFloat64(env.metrics.LoginsTotal.WithLabelValues(metric.LoginSuccess)); got != 1 {
		t.Errorf("logins_total{success} = %v", got)
	}
}

func TestGateway_LoginFailed(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"code":"bad_credentials","message":"wrong password"}`},
		{"server error", http.StatusInternalServerError, ``},
		{"malformed body", http.StatusOK, `{not json`},
		{"missing credential", http.StatusOK, `{"id":1,"email":"a@b.com","firstName":"A","lastName":"B","role":"staff"}`},
		{"missing identity field", http.StatusOK, `{"credential":"T","id":1,"email":"a@b.com","firstName":"A","lastName":"B"}`},
		{"zero id", http.StatusOK, `{"credential":"T","id":0,"email":"a@b.com","firstName":"A","lastName":"B","role":"staff"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, loginHandler(t, tt.status, tt.body), Config{})

			sess, err := env.gateway.Login(context.Background(), "a@b.com", "pw")
			if !errors.Is(err, domain.ErrLoginFailed) {
				t.Fatalf("Login() error = %v, want ErrLoginFailed", err)
			}
			if sess != nil {
				t.Errorf("Login() returned session %+v on failure", sess)
			}
			if env.store.Read() != nil || env.engine.Len() != 0 || env.store.Revision() != 0 {
				t.Error("failed login must not write the store")
			}
			if env.navs.Load() != 0 {
				t.Error("failed login must not navigate")
			}
		})
	}
}

func TestGateway_LoginTransportError(t *testing.T) {
	env := newTestEnv(t, loginHandler(t, http.StatusOK, validLoginBody), Config{})
	env.server.Close()

	_, err := env.gateway.Login(context.Background(), "a@b.com", "pw")
	if !errors.Is(err, domain.ErrLoginFailed) {
		t.Fatalf("Login() error = %v, want ErrLoginFailed", err)
	}
	if !errors.Is(err, domain.ErrTransport) {
		t.Errorf("Login() error = %v, want ErrTransport in chain", err)
	}
	if env.store.Read() != nil {
		t.Error("store must stay empty")
	}
}

func TestGateway_LoginNoRetry(t *testing.T) {
	var calls atomic.Int32
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, Config{})

	_, _ = env.gateway.Login(context.Background(), "a@b.com", "pw")
	if calls.Load() != 1 {
		t.Errorf("endpoint called %d times, want 1", calls.Load())
	}
}

func TestGateway_LoginThrottled(t *testing.T) {
	var calls atomic.Int32
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}, Config{LoginRate: 0.001, LoginBurst: 2})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := env.gateway.Login(ctx, "a@b.com", "pw")
		if errors.Is(err, domain.ErrLoginThrottled) {
			t.Fatalf("attempt %d throttled within burst", i)
		}
	}

	_, err := env.gateway.Login(ctx, "a@b.com", "pw")
	if !errors.Is(err, domain.ErrLoginFailed) || !errors.Is(err, domain.ErrLoginThrottled) {
		t.Fatalf("Login() error = %v, want ErrLoginFailed wrapping ErrLoginThrottled", err)
	}
	if calls.Load() != 2 {
		t.Errorf("endpoint called %d times, want 2", calls.Load())
	}
	if got := testutil.ToFloat64(env.metrics.LoginsTotal.WithLabelValues(metric.LoginThrottled)); got != 1 {
		t.Errorf("logins_total{throttled} = %v", got)
	}
}

func TestGateway_LoginOverwrites(t *testing.T) {
	var credential atomic.Value
	credential.Store("first")
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"credential":"` + credential.Load().(string) + `","id":1,"email":"a@b.com","firstName":"A","lastName":"B","role":"staff"}`))
	}, Config{})

	ctx := context.Background()
	_, _ = env.gateway.Login(ctx, "a@b.com", "pw")
	credential.Store("second")
	_, _ = env.gateway.Login(ctx, "a@b.com", "pw")

	if got := env.store.Read(); got == nil || got.Credential != "second" {
		t.Errorf("store.Read() = %+v, want second session", got)
	}
}

func TestGateway_LogoutIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, loginHandler(t, http.StatusOK, validLoginBody), Config{})

	var notified int
	env.gateway.OnLogout(func() { notified++ })

	if err := env.gateway.Logout(ctx); err != nil {
		t.Fatalf("Logout() while logged out error = %v", err)
	}
	if notified != 0 {
		t.Error("Logout of nothing should not notify")
	}

	_, _ = env.gateway.Login(ctx, "a@b.com", "pw")
	for i := 0; i < 3; i++ {
		if err := env.gateway.Logout(ctx); err != nil {
			t.Fatalf("Logout() #%d error = %v", i, err)
		}
	}
	if notified != 1 {
		t.Errorf("OnLogout notified %d times, want 1", notified)
	}
}

func TestGateway_TerminateOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, loginHandler(t, http.StatusOK, validLoginBody), Config{})
	_, _ = env.gateway.Login(ctx, "a@b.com", "pw")
	rev := env.store.Revision()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := env.gateway.Terminate(ctx, rev); err != nil {
				t.Errorf("Terminate() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if env.store.Read() != nil {
		t.Error("store should be empty after termination")
	}
	if env.navs.Load() != 1 {
		t.Errorf("navigations = %d, want 1", env.navs.Load())
	}
	if got := testutil.ToFloat64(env.metrics.TerminationsTotal); got != 1 {
		t.Errorf("terminations_total = %v, want 1", got)
	}
}

func TestGateway_TerminateStale(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, loginHandler(t, http.StatusOK, validLoginBody), Config{})

	_, _ = env.gateway.Login(ctx, "a@b.com", "pw")
	oldRev := env.store.Revision()
	_, _ = env.gateway.Login(ctx, "a@b.com", "pw")

	if err := env.gateway.Terminate(ctx, oldRev); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	if env.store.Read() == nil {
		t.Error("stale termination removed the newer session")
	}
	if env.navs.Load() != 0 {
		t.Error("stale termination must not navigate")
	}
}

func TestGateway_TerminateWhileLoggedOut(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, loginHandler(t, http.StatusOK, validLoginBody), Config{})

	var notified int
	env.gateway.OnLogout(func() { notified++ })

	rev := env.store.Revision()
	for i := 0; i < 2; i++ {
		if err := env.gateway.Terminate(ctx, rev); err != nil {
			t.Fatalf("Terminate() error = %v", err)
		}
	}

	if env.navs.Load() != 1 {
		t.Errorf("navigations = %d, want 1", env.navs.Load())
	}
	if notified != 0 {
		t.Error("nothing was removed, observers should not run")
	}
}

func TestNavigatorFunc(t *testing.T) {
	called := false
	var n Navigator = NavigatorFunc(func() { called = true })
	n.GoToLogin()
	if !called {
		t.Error("NavigatorFunc did not call through")
	}
}
