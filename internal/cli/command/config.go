package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/adminctl/internal/cli/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"cfg"},
		Usage:   "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration file",
				Action: configValidate,
			},
			{
				Name:  "init",
				Usage: "Write a default configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
			{
				Name:   "path",
				Usage:  "Print the configuration file path",
				Action: configPath,
			},
		},
	}
}

func resolveConfigPath(c *cli.Context) string {
	if path := c.String("config"); path != "" {
		return path
	}
	return config.DefaultConfigPath()
}

func configShow(c *cli.Context) error {
	data, err := config.Marshal(GetConfig(c).Redacted())
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(data)
	return err
}

func configValidate(c *cli.Context) error {
	path := resolveConfigPath(c)
	if _, err := config.Load(path, nil); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s: OK\n", path)
	return nil
}

func configInit(c *cli.Context) error {
	path := resolveConfigPath(c)

	_, err := os.Stat(path)
	switch {
	case err == nil && !c.Bool("force"):
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return err
	}

	if err := config.Save(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

func configPath(c *cli.Context) error {
	fmt.Fprintln(c.App.Writer, resolveConfigPath(c))
	return nil
}
