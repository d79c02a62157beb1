package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Prompts.
const (
	Prompt         = "adminctl> "
	EmailPrompt    = "email: "
	PasswordPrompt = "password: "
)

// Executor runs one tokenized command line.
type Executor func(ctx context.Context, args []string) error

// LoginFunc exchanges credentials for a session.
type LoginFunc func(ctx context.Context, email, password string) error

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithHistory replaces the default history.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// WithLogin sets the function used in login mode.
func WithLogin(fn LoginFunc) Option {
	return func(r *REPL) {
		r.login = fn
	}
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	completer *Completer
	history   *History
	exec      Executor
	login     LoginFunc

	outMu     sync.Mutex
	loginMode atomic.Bool
}

// New creates a new REPL that hands every non-builtin line to exec.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		completer: NewCompleter(),
		history:   NewHistory(""),
		exec:      exec,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GoToLogin switches the loop to login mode. It implements auth.Navigator.
func (r *REPL) GoToLogin() {
	if r.loginMode.Swap(true) {
		return
	}
	r.println("session expired, please log in again")
}

// SetLoginMode sets whether the next prompt asks for credentials.
func (r *REPL) SetLoginMode(on bool) {
	r.loginMode.Store(on)
}

// LoginMode reports whether the loop is waiting for credentials.
func (r *REPL) LoginMode() bool {
	return r.loginMode.Load()
}

// History returns the command history.
func (r *REPL) History() *History {
	return r.history
}

// Run starts the REPL loop. It returns nil on exit, quit, end of input
// or cancellation of ctx.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for ctx.Err() == nil {
		if r.loginMode.Load() {
			done, err := r.promptLogin(ctx, reader)
			if err != nil || done {
				return err
			}
			continue
		}

		r.print(Prompt)
		line, err := readLine(reader)
		if errors.Is(err, io.EOF) {
			r.println("")
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}

		r.history.Add(line)

		if line == "exit" || line == "quit" {
			return nil
		}

		if err := r.execute(ctx, line); err != nil {
			r.printf("Error: %v\n", err)
		}
	}
	return nil
}

// promptLogin asks for email and password and runs the login function.
// done is true when the user asked to leave.
func (r *REPL) promptLogin(ctx context.Context, reader *bufio.Reader) (done bool, err error) {
	r.print(EmailPrompt)
	email, err := readLine(reader)
	if errors.Is(err, io.EOF) {
		r.println("")
		return true, nil
	}
	if err != nil {
		return true, err
	}
	switch email {
	case "":
		return false, nil
	case "exit", "quit":
		return true, nil
	}

	r.print(PasswordPrompt)
	password, err := readLine(reader)
	if errors.Is(err, io.EOF) {
		r.println("")
		return true, nil
	}
	if err != nil {
		return true, err
	}

	if r.login != nil {
		if err := r.login(ctx, email, password); err != nil {
			r.printf("Error: %v\n", err)
			return false, nil
		}
	}
	r.loginMode.Store(false)
	r.printf("logged in as %s\n", email)
	return false, nil
}

func (r *REPL) execute(ctx context.Context, line string) error {
	args, err := Split(line)
	if err != nil {
		return err
	}

	switch args[0] {
	case "help":
		prefix := strings.Join(args[1:], " ")
		for _, cmd := range r.completer.Complete(prefix) {
			r.println("  " + cmd)
		}
		return nil
	case "history":
		for i, entry := range r.history.Entries() {
			r.printf("%4d  %s\n", i+1, entry)
		}
		return nil
	}

	if r.exec == nil {
		return fmt.Errorf("unknown command %q", args[0])
	}
	return r.exec(ctx, args)
}

func (r *REPL) print(s string) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprint(r.output, s)
}

func (r *REPL) println(s string) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintln(r.output, s)
}

func (r *REPL) printf(format string, args ...any) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.output, format, args...)
}

// readLine reads one line and trims surrounding whitespace. A final line
// without a newline is returned as is; io.EOF is reported only when
// nothing was read.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
