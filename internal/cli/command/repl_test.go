package command

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func (e *testEnv) repl(input string) result {
	e.t.Helper()
	return e.run(input, "repl", "--history-file", filepath.Join(e.t.TempDir(), "history"))
}

func TestRepl_StartsInLoginModeWhenLoggedOut(t *testing.T) {
	env := newTestEnv(t)

	res := env.repl("ada@example.com\nsecret\nwhoami\nexit\n")
	if res.err != nil {
		t.Fatalf("repl: %v", res.err)
	}
	if !strings.HasPrefix(res.stdout, "email: ") {
		t.Errorf("expected email prompt first, got %q", res.stdout)
	}
	for _, want := range []string{"logged in as ada@example.com", "Lovelace"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestRepl_UnauthorizedReturnsToLogin(t *testing.T) {
	env := newTestEnv(t)
	env.mustLogin()
	env.server.revokeAll()

	input := strings.Join([]string{
		"call GET /api/items",
		"ada@example.com",
		"secret",
		"call GET /api/items",
		"exit",
	}, "\n") + "\n"

	res := env.repl(input)
	if res.err != nil {
		t.Fatalf("repl: %v", res.err)
	}

	if got := strings.Count(res.stdout, "session expired, please log in again"); got != 1 {
		t.Errorf("expiry notice printed %d times, want 1:\n%s", got, res.stdout)
	}
	if !strings.Contains(res.stdout, "Error: [ADM-AUTH-4011]") {
		t.Errorf("first call should still report the 401:\n%s", res.stdout)
	}
	if !strings.Contains(res.stdout, "alpha") {
		t.Errorf("call after re-login should succeed:\n%s", res.stdout)
	}
	if req, _ := env.server.lastRequest(); req.Header.Get("Authorization") != "Bearer tok-2" {
		t.Errorf("Authorization = %q, want the new credential", req.Header.Get("Authorization"))
	}
}

func TestRepl_LoginCommandPrompts(t *testing.T) {
	env := newTestEnv(t)
	env.mustLogin()

	res := env.repl("login\nada@example.com\nsecret\nstatus\nexit\n")
	if res.err != nil {
		t.Fatalf("repl: %v", res.err)
	}
	if !strings.Contains(res.stdout, "email: ") {
		t.Errorf("login did not prompt:\n%s", res.stdout)
	}
}

func TestRepl_RejectsNesting(t *testing.T) {
	env := newTestEnv(t)
	env.mustLogin()

	res := env.repl("repl\nexit\n")
	if res.err != nil {
		t.Fatalf("repl: %v", res.err)
	}
	if !strings.Contains(res.stdout, "already in interactive mode") {
		t.Errorf("stdout = %q", res.stdout)
	}
}

func TestRepl_SavesHistory(t *testing.T) {
	env := newTestEnv(t)
	env.mustLogin()
	file := filepath.Join(t.TempDir(), "history")

	res := env.run("status\nlogin -e ada@example.com -p secret\nexit\n", "repl", "--history-file", file)
	if res.err != nil {
		t.Fatalf("repl: %v", res.err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	if string(data) != "status\nexit\n" {
		t.Errorf("history = %q", data)
	}
}
