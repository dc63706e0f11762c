package runner

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// DryRunner prints each invocation instead of executing it. Every Run
// reports success.
type DryRunner struct {
	Out io.Writer
}

var dryColor = color.New(color.Faint)

func (r *DryRunner) Run(_ context.Context, inv Invocation) (*Result, error) {
	_, _ = dryColor.Fprintf(r.Out, "+ (%s) %s\n", inv.Dir, inv)
	return &Result{Invocation: inv}, nil
}

func (r *DryRunner) Start(_ context.Context, inv Invocation) (Process, error) {
	_, _ = dryColor.Fprintf(r.Out, "+ (%s) %s &\n", inv.Dir, inv)
	return &dryProcess{inv: inv, out: r.Out}, nil
}

type dryProcess struct {
	inv     Invocation
	out     io.Writer
	stopped bool
}

func (p *dryProcess) Invocation() Invocation { return p.inv }

func (p *dryProcess) Stop() error {
	if p.stopped {
		return nil
	}
	p.stopped = true
	_, err := fmt.Fprintf(p.out, "+ kill %s\n", p.inv.Name)
	return err
}
