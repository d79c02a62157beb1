package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/adminctl/internal/storage"
)

// adminServer is a fake administrative API.
type adminServer struct {
	*httptest.Server

	mu       sync.Mutex
	issued   int
	valid    map[string]bool
	lastReq  *http.Request
	lastBody []byte
}

func newAdminServer(t *testing.T) *adminServer {
	t.Helper()

	s := &adminServer{valid: make(map[string]bool)}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("/api/items", s.protected(s.items))
	mux.HandleFunc("/api/boom", s.protected(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusInternalServerError, map[string]string{"message": "kaboom"})
	}))
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *adminServer) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != "secret" {
		errorResponse(w, http.StatusUnauthorized, "AUTH", "bad credentials")
		return
	}

	s.mu.Lock()
	s.issued++
	token := fmt.Sprintf("tok-%d", s.issued)
	s.valid[token] = true
	s.mu.Unlock()

	jsonResponse(w, http.StatusOK, map[string]any{
		"credential": token,
		"id":         42,
		"email":      req.Email,
		"firstName":  "Ada",
		"lastName":   "Lovelace",
		"role":       "admin",
	})
}

func (s *adminServer) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		s.lastReq = r.Clone(r.Context())
		s.lastBody = body
		ok := s.valid[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
		s.mu.Unlock()

		if !ok {
			errorResponse(w, http.StatusUnauthorized, "AUTH", "token expired")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next(w, r)
	}
}

func (s *adminServer) items(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.Copy(w, r.Body)
		return
	}
	jsonResponse(w, http.StatusOK, []map[string]any{
		{"id": 1, "name": "alpha"},
		{"id": 2, "name": "beta"},
	})
}

// revokeAll makes every issued token invalid.
func (s *adminServer) revokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valid = make(map[string]bool)
}

func (s *adminServer) lastRequest() (*http.Request, []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReq, s.lastBody
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorResponse writes an error response.
func errorResponse(w http.ResponseWriter, status int, code, message string) {
	jsonResponse(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// testEnv is one user's home: a config file and a badger session directory
// shared by every invocation.
type testEnv struct {
	t          *testing.T
	server     *adminServer
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`log:
  level: error
session:
  backend: badger
  dir: %s
login:
  rate: 0
`, filepath.Join(dir, "session"))
	if err := os.WriteFile(configPath, []byte(cfg), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &testEnv{t: t, server: newAdminServer(t), configPath: configPath}
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes one adminctl process with input as stdin.
func (e *testEnv) run(input string, args ...string) result {
	e.t.Helper()
	return runApp(App(), e.configPath, e.server.URL, input, args...)
}

// runWithEngine executes one process against engine instead of badger.
func (e *testEnv) runWithEngine(engine storage.KVEngine, input string, args ...string) result {
	e.t.Helper()
	return runApp(App(WithEngine(engine)), e.configPath, e.server.URL, input, args...)
}

func runApp(app *cli.App, configPath, server, input string, args ...string) result {
	var stdout, stderr bytes.Buffer
	app.Reader = strings.NewReader(input)
	app.Writer = &stdout
	app.ErrWriter = &stderr

	argv := append([]string{app.Name, "--config", configPath, "--server", server}, args...)
	err := app.Run(argv)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// mustLogin logs in with the valid password.
func (e *testEnv) mustLogin() {
	e.t.Helper()
	if res := e.run("", "login", "-e", "ada@example.com", "-p", "secret"); res.err != nil {
		e.t.Fatalf("login: %v (stderr %q)", res.err, res.stderr)
	}
}
