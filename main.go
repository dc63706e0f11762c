// Command bfr builds, flashes and runs every leaf project under a folder by
// driving make, st-flash, openocd and gdb-multiarch.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/nightconcept/bfr/internal/cli/initcmd"
	"github.com/nightconcept/bfr/internal/cli/self"
	"github.com/nightconcept/bfr/internal/cli/walk"
)

// version is overridden at release time with -ldflags "-X main.version=...".
var version = "v0.1.0"

func main() {
	app := &cli.App{
		Name:      "bfr",
		Usage:     "Build, flash and run embedded test projects",
		UsageText: "bfr [global options] " + walk.ArgsUsage,
		ArgsUsage: walk.ArgsUsage,
		Version:   version,
		Flags:     walk.Flags(),
		Action:    walk.Action,
		Commands: []*cli.Command{
			initcmd.NewInitCommand(),
			self.NewSelfCommand(),
		},
	}

	// Interrupting bfr kills the tool it is waiting on.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
