package self

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/urfave/cli/v2"
)

// DefaultRepo is the GitHub repository bfr releases are published to.
const DefaultRepo = "nightconcept/bfr"

// NewSelfCommand creates a new command for self-management.
func NewSelfCommand() *cli.Command {
	return &cli.Command{
		Name:  "self",
		Usage: "Manage the bfr CLI application itself",
		Subcommands: []*cli.Command{
			{
				Name:  "update",
				Usage: "Update bfr to the latest release",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Automatically confirm the update",
					},
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Check for available updates without installing",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Custom GitHub update source as 'owner/repo'",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Enable verbose output",
					},
				},
				Action: updateAction,
			},
		},
	}
}

// parseVersion accepts versions with or without a leading "v".
func parseVersion(v string) (*semver.Version, error) {
	parsed, err := semver.NewVersion(strings.TrimPrefix(v, "v"))
	if err != nil {
		return nil, fmt.Errorf("parsing version '%s': %w", v, err)
	}
	return parsed, nil
}

// parseRepoSlug validates an "owner/repo" source, falling back to DefaultRepo
// when source is empty.
func parseRepoSlug(source string) (string, error) {
	if source == "" {
		return DefaultRepo, nil
	}
	parts := strings.Split(source, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("invalid --source format. Expected 'owner/repo', got: %s", source)
	}
	return source, nil
}

func updateAction(c *cli.Context) error {
	out := c.App.Writer
	verbose := c.Bool("verbose")
	currentVersionStr := c.App.Version

	currentSemVer, err := parseVersion(currentVersionStr)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v. Ensure version is like vX.Y.Z or X.Y.Z.", err), 1)
	}

	repoSlug, err := parseRepoSlug(c.String("source"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v.", err), 1)
	}
	if verbose {
		_, _ = fmt.Fprintf(out, "bfr current version: %s\n", currentSemVer)
		_, _ = fmt.Fprintf(out, "Using GitHub source: %s\n", repoSlug)
	}

	ghSource, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error creating GitHub source: %v", err), 1)
	}
	updater, err := selfupdate.NewUpdater(selfupdate.Config{Source: ghSource})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to initialize updater: %v", err), 1)
	}

	latest, found, err := updater.DetectLatest(c.Context, selfupdate.ParseSlug(repoSlug))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error detecting latest version: %v", err), 1)
	}
	if !found || !latest.GreaterThan(currentSemVer.String()) {
		_, _ = fmt.Fprintf(out, "Current version %s is already the latest.\n", currentVersionStr)
		return nil
	}
	if verbose && latest.ReleaseNotes != "" {
		_, _ = fmt.Fprintf(out, "Release Notes:\n%s\n", latest.ReleaseNotes)
	}

	_, _ = fmt.Fprintf(out, "New version available: %s (current: %s)\n", latest.Version(), currentVersionStr)
	if c.Bool("check") {
		return nil
	}

	if !c.Bool("yes") {
		_, _ = fmt.Fprint(out, "Do you want to update? (y/N): ")
		input, _ := bufio.NewReader(c.App.Reader).ReadString('\n')
		if strings.TrimSpace(strings.ToLower(input)) != "y" {
			_, _ = fmt.Fprintln(out, "Update cancelled.")
			return nil
		}
	}

	execPath, err := os.Executable()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Could not get executable path: %v", err), 1)
	}
	if err := updater.UpdateTo(c.Context, latest, execPath); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to update: %v", err), 1)
	}

	_, _ = fmt.Fprintf(out, "Successfully updated to version %s.\n", latest.Version())
	return nil
}
