// Package runner invokes external toolchain programs and reports how they
// finished. A nonzero exit status is a result, not an error: callers decide
// whether a failed tool stops anything.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// stopGrace bounds how long Stop waits for a killed background process to
// release its output pipes.
const stopGrace = 2 * time.Second

// Invocation describes one program run. Dir is the working directory of the
// child; a relative Name containing a path separator resolves against Dir.
type Invocation struct {
	Name string
	Args []string
	Dir  string
}

// String renders the invocation as a shell-like command line.
func (i Invocation) String() string {
	return strings.Join(append([]string{i.Name}, i.Args...), " ")
}

// Result is the outcome of a finished Invocation.
type Result struct {
	Invocation Invocation
	ExitCode   int
	Stdout     []byte
	Stderr     []byte
	Duration   time.Duration
}

// Success reports whether the program exited with status 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Process is a program running in the background.
type Process interface {
	Invocation() Invocation
	// Stop kills the process and waits for it to exit. Calling it again is a no-op.
	Stop() error
}

// Runner runs invocations.
type Runner interface {
	// Run starts inv and waits for it. The error is non-nil only when the
	// program could not be started or ctx ended first.
	Run(ctx context.Context, inv Invocation) (*Result, error)
	// Start launches inv without waiting for it.
	Start(ctx context.Context, inv Invocation) (Process, error)
}

// ExecRunner runs real processes. Child output is captured into the Result
// and copied live to Stdout and Stderr when they are set.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns an ExecRunner streaming child output to stdout and stderr.
func NewExecRunner(stdout, stderr io.Writer) *ExecRunner {
	return &ExecRunner{Stdout: stdout, Stderr: stderr}
}

func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = tee(&stdout, r.Stdout)
	cmd.Stderr = tee(&stderr, r.Stderr)

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Invocation: inv,
		Stdout:     stdout.Bytes(),
		Stderr:     stderr.Bytes(),
		Duration:   time.Since(start),
	}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("runner: %s: %w", inv, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return nil, fmt.Errorf("runner: starting %s: %w", inv, err)
}

func (r *ExecRunner) Start(ctx context.Context, inv Invocation) (Process, error) {
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.WaitDelay = stopGrace

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("runner: starting %s: %w", inv, err)
	}
	return &execProcess{inv: inv, cmd: cmd}, nil
}

type execProcess struct {
	inv  Invocation
	cmd  *exec.Cmd
	once sync.Once
	err  error
}

func (p *execProcess) Invocation() Invocation { return p.inv }

func (p *execProcess) Stop() error {
	p.once.Do(func() {
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.err = fmt.Errorf("runner: stopping %s: %w", p.inv.Name, err)
			return
		}
		// The exit status of a killed process carries no information.
		_ = p.cmd.Wait()
	})
	return p.err
}

func tee(capture *bytes.Buffer, live io.Writer) io.Writer {
	if live == nil {
		return capture
	}
	return io.MultiWriter(capture, live)
}
