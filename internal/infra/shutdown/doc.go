// Package shutdown runs cleanup hooks once when the process ends, either
// after a command returns or on SIGINT/SIGTERM.
//
// Usage:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return engine.Close() })
//	defer h.Shutdown(context.Background())
package shutdown
