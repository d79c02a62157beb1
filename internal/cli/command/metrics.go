package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/adminctl/internal/telemetry/metric"
)

// MetricsCommand returns the metrics command. Counters are per process,
// so the output is mostly useful from the REPL.
func MetricsCommand() *cli.Command {
	return &cli.Command{
		Name:  "metrics",
		Usage: "Print client metrics in Prometheus text format",
		Action: func(c *cli.Context) error {
			rt, err := GetRuntime(c)
			if err != nil {
				return err
			}
			return metric.Dump(c.App.Writer, rt.Gatherer)
		},
	}
}
