package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/afero"

	"github.com/nightconcept/bfr/internal/core/hasher"
	"github.com/nightconcept/bfr/internal/core/runner"
)

// ErrStepFailed is returned in fail-fast mode when a tool exits nonzero.
var ErrStepFailed = errors.New("step failed")

var (
	stepColor = color.New(color.FgBlue)
	failColor = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
)

// Report collects what happened while dispatching commands to one leaf.
type Report struct {
	Dir     string
	Results []*runner.Result
	BadArgs []string // Unknown command tokens, in order of appearance
	Aborted []string // Actions cut short by a missing required file
}

// Failed returns the results whose tool exited nonzero.
func (r *Report) Failed() []*runner.Result {
	var failed []*runner.Result
	for _, res := range r.Results {
		if !res.Success() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Dispatcher executes command lists against leaf projects.
type Dispatcher struct {
	Runner  runner.Runner
	Actions map[string]Action
	Fs      afero.Fs
	Out     io.Writer

	// FailFast stops at the first tool exiting nonzero. Otherwise failures
	// are recorded and processing continues.
	FailFast bool
	Verbose  bool
}

// Dispatch runs commands in order against the leaf at dir. Unknown commands
// are reported and skipped. The returned error is non-nil only for failures
// that end the whole run: a tool that could not be started, a cancelled
// context, or a failed step in fail-fast mode. The Report is always returned.
func (d *Dispatcher) Dispatch(ctx context.Context, dir string, commands []string) (*Report, error) {
	report := &Report{Dir: dir}
	for _, name := range commands {
		action, ok := d.Actions[name]
		if !ok {
			report.BadArgs = append(report.BadArgs, name)
			_, _ = fmt.Fprintf(d.Out, "bad arg: %s\n", name)
			continue
		}
		if err := d.runAction(ctx, dir, action, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (d *Dispatcher) runAction(ctx context.Context, leafDir string, action Action, report *Report) error {
	background := make(map[string]runner.Process)
	defer func() {
		for _, p := range background {
			if err := p.Stop(); err != nil {
				_, _ = warnColor.Fprintf(d.Out, "Warning: %v\n", err)
			}
		}
	}()

	for _, step := range action.Steps {
		dir := leafDir
		if step.Subdir != "" {
			dir = filepath.Join(leafDir, step.Subdir)
		}
		inv := runner.Invocation{Name: step.Tool, Args: step.Args, Dir: dir}

		switch step.Kind {
		case StepRun:
			if d.Verbose {
				_, _ = stepColor.Fprintf(d.Out, "$ %s\n", inv)
			}
			res, err := d.Runner.Run(ctx, inv)
			if err != nil {
				return err
			}
			report.Results = append(report.Results, res)
			if res.Success() {
				continue
			}
			_, _ = failColor.Fprintf(d.Out, "%s exited with status %d\n", inv, res.ExitCode)
			if d.FailFast {
				return fmt.Errorf("%w: %s in %s exited with status %d", ErrStepFailed, inv, dir, res.ExitCode)
			}

		case StepStart:
			if d.Verbose {
				_, _ = stepColor.Fprintf(d.Out, "$ %s &\n", inv)
			}
			p, err := d.Runner.Start(ctx, inv)
			if err != nil {
				return err
			}
			background[step.Tool] = p

		case StepStop:
			p, ok := background[step.Tool]
			if !ok {
				continue
			}
			delete(background, step.Tool)
			if err := p.Stop(); err != nil {
				_, _ = warnColor.Fprintf(d.Out, "Warning: %v\n", err)
			}

		case StepRequire:
			path := stepPath(dir, step.Path)
			if _, err := d.Fs.Stat(path); err != nil {
				_, _ = failColor.Fprintf(d.Out, "Error: %s '%s' not found.\n", step.Label, path)
				report.Aborted = append(report.Aborted, action.Name)
				return nil
			}

		case StepDigest:
			if !d.Verbose {
				continue
			}
			path := stepPath(dir, step.Path)
			sum, err := hasher.HashFile(d.Fs, path)
			if err != nil {
				_, _ = warnColor.Fprintf(d.Out, "Warning: cannot hash %s %s: %v\n", step.Label, path, err)
				continue
			}
			_, _ = fmt.Fprintf(d.Out, "%s %s %s\n", step.Label, path, sum)
		}
	}
	return nil
}

func stepPath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
