package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/adminctl/internal/cli/command"
	"github.com/yndnr/adminctl/internal/infra/shutdown"
)

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	err := command.App().RunContext(ctx, os.Args)
	stop()

	if err != nil {
		command.PrintError("%v", err)
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) && exitErr.ExitCode() != 0 {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}
