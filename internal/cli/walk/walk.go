// Package walk implements bfr's default action: find the leaf projects under
// a folder and run the given commands in each of them.
package walk

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/bfr/internal/core/config"
	"github.com/nightconcept/bfr/internal/core/dispatch"
	"github.com/nightconcept/bfr/internal/core/project"
	"github.com/nightconcept/bfr/internal/core/runner"
	"github.com/nightconcept/bfr/internal/core/walker"
)

// ArgsUsage documents the positional arguments of the walk action.
const ArgsUsage = "<folder> [clean|build|flasherase|flashrun|run]..."

var (
	leafColor   = color.New(color.FgCyan, color.Bold)
	okColor     = color.New(color.FgGreen, color.Bold)
	failColor   = color.New(color.FgRed, color.Bold)
	detailColor = color.New(color.FgHiBlack)
)

// Flags returns the flags understood by Action.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the config file (default: bfr.toml in the working directory, optional)",
		},
		&cli.StringFlag{
			Name:    "gdb-script",
			Usage:   "GDB command script used by flashrun, relative to the working directory",
			EnvVars: []string{"BFR_GDB_SCRIPT"},
		},
		&cli.BoolFlag{
			Name:    "dry-run",
			Aliases: []string{"n"},
			Usage:   "Print the tool invocations instead of running them",
		},
		&cli.BoolFlag{
			Name:  "fail-fast",
			Usage: "Stop at the first tool that exits with a nonzero status",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable verbose output",
		},
	}
}

// Action walks the folder given as first argument and dispatches the
// remaining arguments as commands to every leaf project found.
func Action(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit(fmt.Sprintf("Error: Missing folder argument. Usage: %s %s", c.App.Name, ArgsUsage), 1)
	}
	out := c.App.Writer
	verbose := c.Bool("verbose")

	root, err := os.Getwd()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: cannot determine working directory: %v", err), 1)
	}

	cfg, err := loadConfig(root, c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	if script := c.String("gdb-script"); script != "" {
		cfg.Debug.GDBScript = script
	}

	fs := afero.NewOsFs()
	leaves, err := walker.FindLeaves(fs, root, c.Args().First())
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	if verbose {
		_, _ = fmt.Fprintf(out, "Found %d leaf project(s) under %s\n", len(leaves), c.Args().First())
	}

	var r runner.Runner = runner.NewExecRunner(out, c.App.ErrWriter)
	if c.Bool("dry-run") {
		r = &runner.DryRunner{Out: out}
	}
	d := &dispatch.Dispatcher{
		Runner:   r,
		Actions:  dispatch.NewTable(cfg, root),
		Fs:       fs,
		Out:      out,
		FailFast: c.Bool("fail-fast"),
		Verbose:  verbose,
	}

	commands := c.Args().Tail()
	var reports []*dispatch.Report
	for _, leaf := range leaves {
		_, _ = leafColor.Fprintln(out, leaf.Name)
		report, err := d.Dispatch(c.Context, leaf.Dir, commands)
		reports = append(reports, report)
		if err != nil {
			printSummary(out, reports)
			if errors.Is(err, dispatch.ErrStepFailed) {
				return cli.Exit(fmt.Sprintf("Error: stopping after failure: %v", err), 1)
			}
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}
	}

	if len(commands) > 0 {
		printSummary(out, reports)
	}
	return nil
}

func loadConfig(root, path string) (*project.Config, error) {
	if path == "" {
		return config.LoadConfigOrDefault(config.ResolvePath(root, config.ConfigFileName))
	}
	cfg, err := config.LoadConfigFile(config.ResolvePath(root, path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file %s not found", path)
	}
	return cfg, err
}

// printSummary reports how many tools ran across all leaves and lists the
// ones that failed.
func printSummary(out io.Writer, reports []*dispatch.Report) {
	steps, badArgs := 0, 0
	var failed []*runner.Result
	var aborted []string
	for _, r := range reports {
		steps += len(r.Results)
		badArgs += len(r.BadArgs)
		failed = append(failed, r.Failed()...)
		for _, name := range r.Aborted {
			aborted = append(aborted, fmt.Sprintf("%s in %s", name, r.Dir))
		}
	}

	_, _ = fmt.Fprintln(out)
	if len(failed) == 0 && len(aborted) == 0 {
		_, _ = okColor.Fprintf(out, "%d leaf project(s), %d tool run(s), no failures\n", len(reports), steps)
	} else {
		_, _ = failColor.Fprintf(out, "%d leaf project(s), %d tool run(s), %d failed, %d aborted\n", len(reports), steps, len(failed), len(aborted))
	}
	for _, res := range failed {
		_, _ = detailColor.Fprintf(out, "  exit %d: %s (in %s)\n", res.ExitCode, res.Invocation, res.Invocation.Dir)
	}
	for _, a := range aborted {
		_, _ = detailColor.Fprintf(out, "  aborted: %s\n", a)
	}
	if badArgs > 0 {
		_, _ = detailColor.Fprintf(out, "  %d unrecognized command(s) skipped\n", badArgs)
	}
}
