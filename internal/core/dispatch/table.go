// Package dispatch maps command names to the external tool invocations they
// stand for and executes them against a leaf project.
package dispatch

import (
	"path/filepath"
	"strings"

	"github.com/nightconcept/bfr/internal/core/config"
	"github.com/nightconcept/bfr/internal/core/project"
)

// StepKind selects what a Step does.
type StepKind int

const (
	// StepRun runs a tool and waits for it.
	StepRun StepKind = iota
	// StepStart launches a tool in the background.
	StepStart
	// StepStop kills the background process started for Tool.
	StepStop
	// StepRequire aborts the rest of the action unless Path exists.
	StepRequire
	// StepDigest prints the SHA256 of Path in verbose mode.
	StepDigest
)

func (k StepKind) String() string {
	switch k {
	case StepRun:
		return "run"
	case StepStart:
		return "start"
	case StepStop:
		return "stop"
	case StepRequire:
		return "require"
	case StepDigest:
		return "digest"
	}
	return "unknown"
}

// Step is one unit of an Action. It describes an invocation or a check; it
// holds no state.
type Step struct {
	Kind   StepKind
	Tool   string
	Args   []string
	Subdir string // Relative to the leaf; empty means the leaf itself
	Path   string // Checked file for StepRequire and StepDigest, relative to the step directory unless absolute
	Label  string // Human name of Path used in error messages
}

// Action is the ordered list of steps a command expands to.
type Action struct {
	Name  string
	Steps []Step
}

// Command names understood by the dispatcher.
const (
	CmdClean      = "clean"
	CmdBuild      = "build"
	CmdFlashErase = "flasherase"
	CmdFlashRun   = "flashrun"
	CmdRun        = "run"
)

// NewTable builds the dispatch table from cfg. Relative GDB script paths are
// resolved against root.
func NewTable(cfg *project.Config, root string) map[string]Action {
	tools := cfg.Tools
	debugDir := cfg.Debug.Dir
	gdbScript := config.ResolvePath(root, cfg.Debug.GDBScript)

	openocdArgs := make([]string, 0, 2*len(cfg.Debug.OpenOCDConfigs))
	for _, c := range cfg.Debug.OpenOCDConfigs {
		openocdArgs = append(openocdArgs, "-f", c)
	}

	return map[string]Action{
		CmdClean: {Name: CmdClean, Steps: []Step{
			{Kind: StepRun, Tool: tools.Make, Args: []string{"clean"}},
		}},
		CmdBuild: {Name: CmdBuild, Steps: []Step{
			{Kind: StepRun, Tool: tools.Make},
		}},
		CmdFlashErase: {Name: CmdFlashErase, Steps: []Step{
			{Kind: StepRun, Tool: tools.STFlash, Args: []string{"erase"}},
		}},
		CmdFlashRun: {Name: CmdFlashRun, Steps: []Step{
			{Kind: StepDigest, Subdir: debugDir, Path: cfg.Flash.Image, Label: "image"},
			{Kind: StepRun, Tool: tools.STFlash, Args: []string{"write", dotSlash(cfg.Flash.Image), cfg.Flash.Address}, Subdir: debugDir},
			{Kind: StepRun, Tool: tools.STFlash, Args: []string{"reset"}, Subdir: debugDir},
			{Kind: StepStart, Tool: tools.OpenOCD, Args: openocdArgs, Subdir: debugDir},
			{Kind: StepRequire, Subdir: debugDir, Path: gdbScript, Label: "GDB script"},
			{Kind: StepRun, Tool: tools.GDB, Args: []string{"--batch", "--command=" + gdbScript, dotSlash(cfg.Debug.ELF)}, Subdir: debugDir},
			{Kind: StepStop, Tool: tools.OpenOCD, Subdir: debugDir},
		}},
		CmdRun: {Name: CmdRun, Steps: []Step{
			{Kind: StepRun, Tool: cfg.Run.Program},
		}},
	}
}

// dotSlash prefixes bare file names with "./" so tools read them from their
// working directory.
func dotSlash(p string) string {
	if filepath.IsAbs(p) || strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../") {
		return p
	}
	return "./" + p
}
