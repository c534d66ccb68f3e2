// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package workspace locates the directories the bridge exchanges files through.
//
// A workspace root holds the worker engine and a shared-data area:
//
//	<root>/engine/             worker entry points
//	<root>/shared-data/input/  request files
//	<root>/shared-data/output/ response files and chart artifacts
//	<root>/shared-data/temp/   reserved
//
// The root is discovered from the current working directory so the CLI behaves the
// same whether it is started from the repository root, the UI module, or a
// subdirectory of either.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ferrors "finbridge/cli/internal/errors"
)

// Layout names the well-known directories and the marker that identifies an engine.
type Layout struct {
	EngineDir   string
	SharedDir   string
	Marker      string
	UIModuleDir string
	MaxDepth    int
}

// DefaultLayout returns the standard directory names.
func DefaultLayout() Layout {
	return Layout{
		EngineDir:   "engine",
		SharedDir:   "shared-data",
		Marker:      "api_entry.py",
		UIModuleDir: "desktop-app",
		MaxDepth:    5,
	}
}

// Workspace holds the absolute paths fixed for one bridge instance.
type Workspace struct {
	Root      string
	EngineDir string
	SharedDir string
	InputDir  string
	OutputDir string
	TempDir   string
}

// Resolve finds the workspace root starting at cwd.
//
// The strict pass walks up at most l.MaxDepth levels looking for an engine
// directory that contains the marker script. If the start directory is the UI
// module, the walk begins at its parent. The relaxed pass then accepts cwd or
// its parent when either merely has an engine directory.
func Resolve(cwd string, l Layout) (string, error) {
	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return "", ferrors.Wrap(ferrors.WorkspaceNotFound, "cannot resolve working directory", err)
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultLayout().MaxDepth
	}

	dir := cwd
	if l.UIModuleDir != "" && filepath.Base(dir) == l.UIModuleDir {
		dir = filepath.Dir(dir)
	}
	for i := 0; i < l.MaxDepth; i++ {
		engine := filepath.Join(dir, l.EngineDir)
		if isDir(engine) && hasMarker(engine, l.Marker) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	for _, candidate := range []string{cwd, filepath.Dir(cwd)} {
		if isDir(filepath.Join(candidate, l.EngineDir)) {
			return candidate, nil
		}
	}

	return "", ferrors.New(ferrors.WorkspaceNotFound,
		fmt.Sprintf("no %s directory found within %d levels of %s", l.EngineDir, l.MaxDepth, cwd))
}

// Open fixes the workspace paths under root and makes sure the shared-data
// subdirectories exist. It is safe to call repeatedly.
func Open(root string, l Layout) (Workspace, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return Workspace{}, ferrors.Wrap(ferrors.WorkspaceNotFound, "cannot resolve workspace root", err)
	}
	shared := filepath.Join(root, l.SharedDir)
	ws := Workspace{
		Root:      root,
		EngineDir: filepath.Join(root, l.EngineDir),
		SharedDir: shared,
		InputDir:  filepath.Join(shared, "input"),
		OutputDir: filepath.Join(shared, "output"),
		TempDir:   filepath.Join(shared, "temp"),
	}
	if err := ws.Ensure(); err != nil {
		return Workspace{}, err
	}
	return ws, nil
}

// Discover resolves the root from the process working directory and opens it.
func Discover(l Layout) (Workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Workspace{}, ferrors.Wrap(ferrors.WorkspaceNotFound, "cannot read working directory", err)
	}
	root, err := Resolve(cwd, l)
	if err != nil {
		return Workspace{}, err
	}
	return Open(root, l)
}

// Ensure creates the input, output and temp directories if missing.
func (w Workspace) Ensure() error {
	for _, dir := range []string{w.InputDir, w.OutputDir, w.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ferrors.Wrap(ferrors.WorkspaceNotFound, "cannot create "+dir, err)
		}
	}
	return nil
}

// RequestPath is the request file for a request id.
func (w Workspace) RequestPath(id string) string {
	return filepath.Join(w.InputDir, "request_"+id+".json")
}

// ResponsePath is the response file the worker is asked to write for a request id.
func (w Workspace) ResponsePath(id string) string {
	return filepath.Join(w.OutputDir, "response_"+id+".json")
}

func isDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// hasMarker reports whether the marker exists in dir. A marker without an
// extension matches any "marker.*" file.
func hasMarker(dir, marker string) bool {
	if marker == "" {
		return true
	}
	if filepath.Ext(marker) != "" {
		st, err := os.Stat(filepath.Join(dir, marker))
		return err == nil && !st.IsDir()
	}
	matches, _ := filepath.Glob(filepath.Join(dir, marker+".*"))
	for _, m := range matches {
		if !strings.HasSuffix(m, "~") {
			return true
		}
	}
	return false
}
