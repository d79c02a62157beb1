package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/adminctl/internal/cli/config"
	"github.com/yndnr/adminctl/internal/cli/repl"
	"github.com/yndnr/adminctl/internal/infra/confloader"
	"github.com/yndnr/adminctl/internal/telemetry/logger"
)

// ReplCommand returns the interactive mode command.
func ReplCommand() *cli.Command {
	return &cli.Command{
		Name:    "repl",
		Aliases: []string{"shell"},
		Usage:   "Start interactive mode",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history-file",
				Usage: "History file (default: ~/.adminctl/history)",
			},
		},
		Action: runRepl,
	}
}

func runRepl(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	rt.interactive = true
	defer rt.Close(context.WithoutCancel(c.Context))

	historyFile := c.String("history-file")
	if historyFile == "" {
		historyFile = filepath.Join(config.HomeDir(), "history")
	}
	history := repl.NewHistory(historyFile)
	if err := history.Load(); err != nil {
		rt.Log.Warn("load history", "file", historyFile, "error", err)
	}

	app := c.App
	var r *repl.REPL
	exec := func(ctx context.Context, args []string) error {
		switch {
		case args[0] == "repl" || args[0] == "shell":
			return errors.New("already in interactive mode")
		case args[0] == "login" && len(args) == 1:
			// Prompting here would compete with the REPL for input.
			r.SetLoginMode(true)
			return nil
		}
		return app.RunContext(ctx, append([]string{app.Name}, args...))
	}

	r = repl.New(exec,
		repl.WithIO(app.Reader, app.Writer),
		repl.WithHistory(history),
		repl.WithLogin(func(ctx context.Context, email, password string) error {
			_, err := rt.Gateway.Login(ctx, email, password)
			return err
		}),
	)
	r.SetLoginMode(!rt.Store.Snapshot().LoggedIn())

	rt.nav.set(r)
	defer rt.nav.set(nil)

	if stop := watchLogLevel(c, rt.Log); stop != nil {
		defer stop()
	}

	runErr := r.Run(c.Context)
	if err := history.Save(); err != nil {
		rt.Log.Warn("save history", "file", historyFile, "error", err)
	}
	return runErr
}

// watchLogLevel reloads log.level whenever the config file changes.
// It returns nil when there is no file to watch.
func watchLogLevel(c *cli.Context, log logger.Logger) func() {
	path := resolveConfigPath(c)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	overrides := ParseGlobalFlags(c).overrides()

	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		log.Warn("config watcher unavailable", "error", err)
		return nil
	}
	if err := w.Watch(path); err != nil {
		log.Debug("config file not watched", "path", path, "error", err)
		w.Stop()
		return nil
	}

	w.OnChange(func(string) {
		cfg, err := config.Load(path, overrides)
		if err != nil {
			log.Warn("reload config", "path", path, "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		log.Info("config reloaded", "log_level", logger.GetLevel())
	})
	w.StartAsync()

	return func() { _ = w.Stop() }
}
