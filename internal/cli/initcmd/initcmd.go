// Package initcmd implements "bfr init", which writes a bfr.toml describing
// the local flashing toolchain.
package initcmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/nightconcept/bfr/internal/core/config"
	"github.com/nightconcept/bfr/internal/core/project"
)

// promptWithDefault asks for one value on w and reads the answer from reader.
// An empty answer or end of input keeps defaultValue.
func promptWithDefault(reader *bufio.Reader, w io.Writer, promptText string, defaultValue string) (string, error) {
	if defaultValue != "" {
		_, _ = fmt.Fprintf(w, "%s (default: %s): ", promptText, defaultValue)
	} else {
		_, _ = fmt.Fprintf(w, "%s: ", promptText)
	}

	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input for '%s': %w", promptText, err)
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue, nil
	}
	return input, nil
}

// NewInitCommand returns the definition for the "init" command.
func NewInitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a bfr.toml with the toolchain settings for this project tree",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Accept all defaults without prompting",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Overwrite an existing bfr.toml",
			},
		},
		Action: initAction,
	}
}

func initAction(c *cli.Context) error {
	out := c.App.Writer

	if !c.Bool("force") {
		if _, err := os.Stat(config.ConfigFileName); err == nil {
			return cli.Exit(fmt.Sprintf("Error: %s already exists. Use --force to overwrite it.", config.ConfigFileName), 1)
		}
	}

	cfg := project.NewConfig()
	if !c.Bool("yes") {
		reader := bufio.NewReader(c.App.Reader)
		prompts := []struct {
			text  string
			value *string
		}{
			{"GDB script", &cfg.Debug.GDBScript},
			{"Flash address", &cfg.Flash.Address},
			{"Flash image", &cfg.Flash.Image},
			{"ELF image", &cfg.Debug.ELF},
			{"OpenOCD target config", &cfg.Debug.OpenOCDConfigs[1]},
			{"GDB executable", &cfg.Tools.GDB},
		}
		for _, p := range prompts {
			answer, err := promptWithDefault(reader, out, p.text, *p.value)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			*p.value = answer
		}
	}

	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	if err := config.WriteConfig(".", cfg); err != nil {
		return cli.Exit(fmt.Sprintf("Error writing %s: %v", config.ConfigFileName, err), 1)
	}

	_, _ = fmt.Fprintf(out, "\nWrote %s\n", config.ConfigFileName)
	return nil
}
