package initcmd

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/bfr/internal/core/config"
	"github.com/nightconcept/bfr/internal/core/project"
)

// runInitCommand runs "init" inside dir with input fed to the prompts and
// returns what the command printed.
func runInitCommand(t *testing.T, dir string, input string, args ...string) (string, error) {
	t.Helper()

	originalWd, err := os.Getwd()
	require.NoError(t, err, "Failed to get current working directory")
	require.NoError(t, os.Chdir(dir), "Failed to change to temporary directory")
	defer func() {
		require.NoError(t, os.Chdir(originalWd), "Failed to restore original working directory")
	}()

	var out bytes.Buffer
	app := &cli.App{
		Name:           "bfr-test-init",
		Commands:       []*cli.Command{NewInitCommand()},
		Reader:         strings.NewReader(input),
		Writer:         &out,
		ErrWriter:      &out,
		ExitErrHandler: func(context *cli.Context, err error) {},
	}

	cliArgs := append([]string{"bfr-test-init", "init"}, args...)
	err = app.Run(cliArgs)
	return out.String(), err
}

func TestInitCommand_Prompts(t *testing.T) {
	tempDir := t.TempDir()

	simulatedInputs := []string{
		"/mnt/raiddrive/MLibs/gdbscript", // GDB script
		"",                               // Flash address: keep default
		"blinky.bin",                     // Flash image
		"blinky.elf",                     // ELF image
		"target/stm32f1x.cfg",            // OpenOCD target config
		"",                               // GDB executable: keep default
	}
	output, err := runInitCommand(t, tempDir, strings.Join(simulatedInputs, "\n")+"\n")
	require.NoError(t, err)
	assert.Contains(t, output, "GDB script (default: gdbscript): ")
	assert.Contains(t, output, "Wrote bfr.toml")

	cfg, err := config.LoadConfig(tempDir)
	require.NoError(t, err)
	assert.Equal(t, "/mnt/raiddrive/MLibs/gdbscript", cfg.Debug.GDBScript)
	assert.Equal(t, "0x08000000", cfg.Flash.Address)
	assert.Equal(t, "blinky.bin", cfg.Flash.Image)
	assert.Equal(t, "blinky.elf", cfg.Debug.ELF)
	assert.Equal(t, []string{"interface/stlink.cfg", "target/stm32f1x.cfg"}, cfg.Debug.OpenOCDConfigs)
	assert.Equal(t, "gdb-multiarch", cfg.Tools.GDB)
}

func TestInitCommand_YesUsesDefaults(t *testing.T) {
	tempDir := t.TempDir()

	output, err := runInitCommand(t, tempDir, "", "--yes")
	require.NoError(t, err)
	assert.NotContains(t, output, "default:")

	cfg, err := config.LoadConfig(tempDir)
	require.NoError(t, err)
	assert.Equal(t, project.NewConfig(), cfg)
}

func TestInitCommand_EOFKeepsDefaults(t *testing.T) {
	tempDir := t.TempDir()

	_, err := runInitCommand(t, tempDir, "")
	require.NoError(t, err)

	cfg, err := config.LoadConfig(tempDir)
	require.NoError(t, err)
	assert.Equal(t, project.NewConfig(), cfg)
}

func TestInitCommand_RefusesToOverwrite(t *testing.T) {
	tempDir := t.TempDir()
	existing := "[run]\nprogram = \"./unit\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, config.ConfigFileName), []byte(existing), 0644))

	_, err := runInitCommand(t, tempDir, "", "--yes")
	require.Error(t, err)
	assert.Equal(t, "Error: bfr.toml already exists. Use --force to overwrite it.", err.Error())
	assert.Equal(t, 1, err.(cli.ExitCoder).ExitCode())

	content, err := os.ReadFile(filepath.Join(tempDir, config.ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, existing, string(content))
}

func TestInitCommand_ForceOverwrites(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, config.ConfigFileName), []byte("[run]\nprogram = \"./unit\"\n"), 0644))

	_, err := runInitCommand(t, tempDir, "", "--yes", "--force")
	require.NoError(t, err)

	cfg, err := config.LoadConfig(tempDir)
	require.NoError(t, err)
	assert.Equal(t, "./test", cfg.Run.Program)
}

func TestPromptWithDefault(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("  custom  \n\n"))

	got, err := promptWithDefault(reader, &out, "Flash address", "0x08000000")
	require.NoError(t, err)
	assert.Equal(t, "custom", got)

	got, err = promptWithDefault(reader, &out, "Description", "")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	assert.Equal(t, "Flash address (default: 0x08000000): Description: ", out.String())
}
