package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/adminctl/internal/core/domain"
	"github.com/yndnr/adminctl/pkg/token"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Account email (prompted when omitted)",
				EnvVars: []string{"ADMINCTL_EMAIL"},
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (prompted when omitted)",
				EnvVars: []string{"ADMINCTL_PASSWORD"},
			},
		},
		Action: login,
	}
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the stored session",
		Action: logout,
	}
}

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the logged-in identity",
		Action: whoami,
	}
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show server and session status",
		Action: status,
	}
}

func login(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(c.App.Reader)
	email := c.String("email")
	if email == "" {
		if email, err = prompt(c.App.Writer, reader, "email: "); err != nil {
			return err
		}
	}
	password := c.String("password")
	if password == "" {
		if password, err = prompt(c.App.Writer, reader, "password: "); err != nil {
			return err
		}
	}
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}

	sess, err := rt.Gateway.Login(c.Context, email, password)
	if err != nil {
		return err
	}

	id := sess.Identity
	fmt.Fprintf(c.App.Writer, "Logged in as %s <%s> (%s)\n", id.DisplayName(), id.Email, id.Role)
	return nil
}

func logout(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	if !rt.Store.Snapshot().LoggedIn() {
		fmt.Fprintln(c.App.Writer, "Not logged in")
		return nil
	}
	if err := rt.Gateway.Logout(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Logged out")
	return nil
}

func whoami(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	id := rt.Gateway.CurrentIdentity()
	if id == nil {
		return domain.ErrNotLoggedIn
	}

	f, err := formatter(c)
	if err != nil {
		return err
	}
	return f.Format(c.App.Writer, id)
}

// statusView is what the status command prints.
type statusView struct {
	Server      string `json:"server" yaml:"server"`
	Backend     string `json:"backend" yaml:"backend"`
	LoggedIn    bool   `json:"logged_in" yaml:"logged_in"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
	Role        string `json:"role,omitempty" yaml:"role,omitempty"`
	Revision    uint64 `json:"revision" yaml:"revision"`
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Sealed      bool   `json:"sealed" yaml:"sealed"`
}

func status(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	snap := rt.Store.Snapshot()
	view := statusView{
		Server:   rt.Config.Server,
		Backend:  strings.ToLower(rt.Config.Session.Backend),
		LoggedIn: snap.LoggedIn(),
		Revision: snap.Revision,
		Sealed:   rt.Config.Session.Passphrase != "",
	}
	if snap.LoggedIn() {
		view.Email = snap.Session.Identity.Email
		view.Role = snap.Session.Identity.Role
		view.Fingerprint = token.Fingerprint(snap.Session.Credential)
	}

	f, err := formatter(c)
	if err != nil {
		return err
	}
	return f.Format(c.App.Writer, view)
}

// prompt writes label and reads one trimmed line.
func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s %w", strings.TrimSuffix(label, " "), err)
	}
	return strings.TrimSpace(line), nil
}
