package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/adminctl/internal/auth"
	"github.com/yndnr/adminctl/internal/cli/config"
	"github.com/yndnr/adminctl/internal/cli/output"
	"github.com/yndnr/adminctl/internal/httpclient"
	"github.com/yndnr/adminctl/internal/infra/buildinfo"
	"github.com/yndnr/adminctl/internal/infra/shutdown"
	"github.com/yndnr/adminctl/internal/session"
	"github.com/yndnr/adminctl/internal/storage"
	"github.com/yndnr/adminctl/internal/telemetry/logger"
	"github.com/yndnr/adminctl/internal/telemetry/metric"
)

const (
	metaConfig  = "config"
	metaLogger  = "logger"
	metaRuntime = "runtime"

	shutdownTimeout = 5 * time.Second
)

// Option customizes App. Tests use it to inject a storage engine.
type Option func(*appOptions)

type appOptions struct {
	engine storage.KVEngine
}

// WithEngine makes every command use engine instead of opening the
// configured one. The engine is still closed on exit.
func WithEngine(engine storage.KVEngine) Option {
	return func(o *appOptions) {
		o.engine = engine
	}
}

// App creates the CLI application.
func App(opts ...Option) *cli.App {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}

	app := &cli.App{
		Name:     buildinfo.Name,
		Usage:    "Administrative API client with a persistent login session",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			LoginCommand(),
			LogoutCommand(),
			WhoamiCommand(),
			StatusCommand(),
			CallCommand(),
			MetricsCommand(),
			ReplCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			return before(c, o)
		},
		After: func(c *cli.Context) error {
			rt, ok := c.App.Metadata[metaRuntime].(*Runtime)
			if !ok || rt.interactive {
				return nil
			}
			return rt.Close(c.Context)
		},
		CommandNotFound: func(c *cli.Context, name string) {
			fmt.Fprintf(c.App.ErrWriter, "unknown command %q, see '%s help'\n", name, c.App.Name)
		},
		// Errors are reported by the caller; the REPL must survive them.
		ExitErrHandler: func(*cli.Context, error) {},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Administrative API base URL (e.g., https://admin.example.com)",
			EnvVars: []string{"ADMINCTL_SERVER"},
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (default: ~/.adminctl/config.yaml)",
			EnvVars: []string{"ADMINCTL_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server     string
	ConfigPath string
	Output     string
	Verbose    bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server:     c.String("server"),
		ConfigPath: c.String("config"),
		Output:     c.String("output"),
		Verbose:    c.Bool("verbose"),
	}
}

// overrides maps flags onto config keys. Unset flags are empty and
// skipped by the loader.
func (f *GlobalFlags) overrides() map[string]any {
	m := map[string]any{
		"server": f.Server,
		"output": f.Output,
	}
	if f.Verbose {
		m["log.level"] = "debug"
	}
	return m
}

// before loads the configuration and the logger. The runtime is built
// lazily so config and version work without a session medium.
func before(c *cli.Context, o *appOptions) error {
	c.App.Metadata["options"] = o
	if _, ok := c.App.Metadata[metaRuntime]; ok {
		// Nested run from the REPL.
		return nil
	}

	flags := ParseGlobalFlags(c)
	cfg, err := config.Load(flags.ConfigPath, flags.overrides())
	if err != nil {
		if !offline(c.Args().First()) {
			return err
		}
		// config validate reports the error itself; init creates the file.
		cfg = config.Default()
	}
	cfg.Server = httpclient.NormalizeBaseURL(cfg.Server)

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return err
	}
	logger.SetDefault(log)

	c.App.Metadata[metaConfig] = cfg
	c.App.Metadata[metaLogger] = log
	return nil
}

// offline reports whether a command runs without the session layer.
func offline(command string) bool {
	switch command {
	case "config", "cfg", "version", "help", "h":
		return true
	}
	return false
}

// Runtime is the wired session layer of one process.
type Runtime struct {
	Config   *config.Config
	Log      logger.Logger
	Engine   storage.KVEngine
	Store    *session.Store
	Gateway  *auth.Gateway
	Client   *httpclient.Client
	Metrics  *metric.Registry
	Gatherer prometheus.Gatherer

	nav         *navigator
	shutdown    *shutdown.Handler
	interactive bool
}

// Close runs the shutdown hooks once.
func (rt *Runtime) Close(ctx context.Context) error {
	return rt.shutdown.Shutdown(ctx)
}

// GetConfig returns the configuration loaded by Before.
func GetConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// GetRuntime returns the process runtime, building it on first use.
func GetRuntime(c *cli.Context) (*Runtime, error) {
	if rt, ok := c.App.Metadata[metaRuntime].(*Runtime); ok {
		return rt, nil
	}

	o, _ := c.App.Metadata["options"].(*appOptions)
	if o == nil {
		o = &appOptions{}
	}
	log, ok := c.App.Metadata[metaLogger].(logger.Logger)
	if !ok {
		log = logger.Default()
	}

	rt, err := newRuntime(c.Context, GetConfig(c), log, o.engine, c.App.ErrWriter)
	if err != nil {
		return nil, err
	}
	c.App.Metadata[metaRuntime] = rt
	return rt, nil
}

func newRuntime(ctx context.Context, cfg *config.Config, log logger.Logger, engine storage.KVEngine, errOut io.Writer) (*Runtime, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	if engine == nil {
		engine, err = storage.Open(ctx, cfg.KVConfig(), log)
		if err != nil {
			return nil, fmt.Errorf("open session storage: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	metrics := metric.NewRegistry(registry)
	if badger, ok := engine.(*storage.BadgerEngine); ok {
		badger.RegisterMetrics(registry)
	}

	storeOpts := []session.Option{
		session.WithLogger(log),
		session.WithPassphrase(cfg.Session.Passphrase),
		session.WithObserver(func(s session.Snapshot) {
			metrics.SetSessionActive(s.LoggedIn())
		}),
	}
	if cfg.Session.KeyPrefix != "" {
		storeOpts = append(storeOpts, session.WithKeyPrefix(cfg.Session.KeyPrefix))
	}
	store, err := session.Open(ctx, engine, storeOpts...)
	if err != nil {
		engine.Close()
		return nil, err
	}

	ua := buildinfo.UserAgent()
	transport := httpclient.NewTransport(timeout)
	nav := &navigator{out: errOut}
	gateway := auth.NewGateway(cfg.AuthConfig(ua), transport, store,
		auth.WithNavigator(nav),
		auth.WithLogger(log),
		auth.WithMetrics(metrics),
	)

	client := httpclient.Wrap(transport,
		httpclient.ChainRequest(
			httpclient.RequestID(),
			httpclient.UserAgent(ua),
			httpclient.Bearer(store),
		),
		httpclient.ChainResponse(
			httpclient.Logging(log),
			httpclient.Metrics(metrics),
			httpclient.AuthFailure(gateway),
		),
		httpclient.WithBaseURL(cfg.Server),
	)

	sh := shutdown.NewHandler(shutdownTimeout)
	sh.OnShutdown(func(context.Context) error {
		transport.CloseIdleConnections()
		return engine.Close()
	})

	return &Runtime{
		Config:   cfg,
		Log:      log,
		Engine:   engine,
		Store:    store,
		Gateway:  gateway,
		Client:   client,
		Metrics:  metrics,
		Gatherer: registry,
		nav:      nav,
		shutdown: sh,
	}, nil
}

// navigator routes termination to the REPL when one runs, otherwise it
// tells the user to log in again.
type navigator struct {
	mu     sync.Mutex
	target auth.Navigator
	out    io.Writer
}

func (n *navigator) GoToLogin() {
	n.mu.Lock()
	target := n.target
	n.mu.Unlock()

	if target != nil {
		target.GoToLogin()
		return
	}
	out := n.out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "session expired, run '%s login' to sign in again\n", buildinfo.Name)
}

func (n *navigator) set(target auth.Navigator) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.target = target
}

// formatter returns the formatter selected by --output or the config.
func formatter(c *cli.Context) (output.Formatter, error) {
	name := GetConfig(c).Output
	if o := c.String("output"); o != "" {
		name = o
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(format), nil
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
