// Package walker finds the leaf project folders under a target directory.
package walker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DebugMarker is the build-output folder whose presence marks its parent as a
// leaf project. It is matched case-insensitively.
const DebugMarker = "Debug"

// Leaf is a project folder that commands are dispatched to.
type Leaf struct {
	Dir  string // Absolute path of the project folder
	Name string // Display name: the target as given, or the child folder name
}

// FindLeaves resolves target against root and returns its leaf projects in
// lexical order of the target's subdirectories.
//
// A target without subdirectories is itself the only leaf. Each child named
// Debug (any case) yields the target as a leaf; every other child is a leaf
// in its own right. Only one level is inspected: a child that contains
// further projects is still reported as a single leaf.
func FindLeaves(fs afero.Fs, root, target string) ([]Leaf, error) {
	name := strings.TrimRight(target, "/")
	if name == "" {
		name = target
	}
	targetDir := name
	if !filepath.IsAbs(targetDir) {
		targetDir = filepath.Join(root, targetDir)
	}

	subdirs, err := listSubdirs(fs, targetDir)
	if err != nil {
		return nil, err
	}

	if len(subdirs) == 0 {
		return []Leaf{{Dir: targetDir, Name: name}}, nil
	}

	leaves := make([]Leaf, 0, len(subdirs))
	for _, sub := range subdirs {
		if strings.EqualFold(sub, DebugMarker) {
			leaves = append(leaves, Leaf{Dir: targetDir, Name: name})
			continue
		}
		leaves = append(leaves, Leaf{Dir: filepath.Join(targetDir, sub), Name: sub})
	}
	return leaves, nil
}

// listSubdirs returns the names of the immediate child directories of dir,
// following symlinks.
func listSubdirs(fs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("walker: reading %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		isDir := e.IsDir()
		if e.Mode()&os.ModeSymlink != 0 {
			if fi, err := fs.Stat(filepath.Join(dir, e.Name())); err == nil {
				isDir = fi.IsDir()
			}
		}
		if isDir {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
