// Command tspice reads a netlist file, runs the transient simulation
// engine over it, and prints the resulting per-unknown time series as a
// table, optionally also rendering an SVG waveform chart.
package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/urfave/cli/v2"

	"tspice/pkg/engine"
	"tspice/pkg/netlist"
	"tspice/pkg/util"
	"tspice/pkg/waveform"
)

func main() {
	if err := application().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func application() *cli.App {
	return &cli.App{
		Name:      "tspice",
		Usage:     "run a transient simulation over a netlist file",
		ArgsUsage: "<netlist-file>",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "dt",
				Usage: "timestep size in seconds",
				Value: 1.0 / 48000.0,
			},
			&cli.IntFlag{
				Name:  "steps",
				Usage: "number of timesteps to simulate",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  "o",
				Usage: "write an SVG waveform chart to this path",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "print the assembled linear system before solving",
			},
		},
		Action: runCommand,
	}
}

func runCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("tspice: missing netlist file argument")
	}
	dt := c.Float64("dt")
	steps := c.Int("steps")
	if dt <= 0 {
		return fmt.Errorf("tspice: -dt must be positive")
	}
	if steps <= 0 {
		return fmt.Errorf("tspice: -steps must be positive")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("tspice: %w", err)
	}
	defer f.Close()

	nl, err := netlist.Parse(f)
	if err != nil {
		return fmt.Errorf("tspice: %w", err)
	}

	eng, err := engine.Compile(nl)
	if err != nil {
		return fmt.Errorf("tspice: %w", err)
	}

	if c.Bool("debug") {
		fmt.Fprintln(c.App.Writer, "assembled system (t=0):")
		fmt.Fprint(c.App.Writer, eng.DebugSystem(0))
	}

	series, err := eng.Simulate(dt, steps)
	if err != nil {
		return fmt.Errorf("tspice: %w", err)
	}

	printResults(c, series, dt, steps)

	if out := c.String("o"); out != "" {
		if err := waveform.Plot(out, series, dt, 0, path); err != nil {
			return fmt.Errorf("tspice: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "wrote waveform chart to %s\n", out)
	}

	return nil
}

// printResults formats one row per timestep, one column per unknown, with
// columns sorted for stable, diffable output.
func printResults(c *cli.Context, series map[string][]float64, dt float64, steps int) {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprint(c.App.Writer, "time")
	for _, name := range names {
		fmt.Fprintf(c.App.Writer, "\t%s", name)
	}
	fmt.Fprintln(c.App.Writer)

	for k := 0; k < steps; k++ {
		t := float64(k) * dt
		fmt.Fprint(c.App.Writer, util.FormatValueFactor(t, "s"))
		for _, name := range names {
			fmt.Fprintf(c.App.Writer, "\t%.6g", series[name][k])
		}
		fmt.Fprintln(c.App.Writer)
	}
}
