// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workspace

import (
	"os"
	"path/filepath"
	"testing"

	ferrors "finbridge/cli/internal/errors"
)

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", p, err)
		}
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolve(t *testing.T) {
	l := DefaultLayout()

	// repo/
	//   engine/api_entry.py
	//   desktop-app/src/main
	//   docs/
	repo := t.TempDir()
	mkdirs(t,
		filepath.Join(repo, "engine"),
		filepath.Join(repo, "desktop-app", "src", "main"),
		filepath.Join(repo, "docs"),
	)
	touch(t, filepath.Join(repo, "engine", "api_entry.py"))

	tests := []struct {
		name string
		cwd  string
	}{
		{name: "from root", cwd: repo},
		{name: "from ui module", cwd: filepath.Join(repo, "desktop-app")},
		{name: "from nested directory", cwd: filepath.Join(repo, "desktop-app", "src", "main")},
		{name: "from engine directory", cwd: filepath.Join(repo, "engine")},
		{name: "from sibling directory", cwd: filepath.Join(repo, "docs")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.cwd, l)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != repo {
				t.Errorf("Resolve() = %q, want %q", got, repo)
			}
		})
	}
}

func TestResolve_DepthCap(t *testing.T) {
	repo := t.TempDir()
	mkdirs(t, filepath.Join(repo, "engine"))
	touch(t, filepath.Join(repo, "engine", "api_entry.py"))

	deep := filepath.Join(repo, "a", "b", "c", "d", "e", "f")
	mkdirs(t, deep)

	_, err := Resolve(deep, DefaultLayout())
	if ferrors.KindOf(err) != ferrors.WorkspaceNotFound {
		t.Fatalf("Resolve() error = %v, want %s", err, ferrors.WorkspaceNotFound)
	}
}

func TestResolve_RelaxedFallback(t *testing.T) {
	// engine exists but carries no marker script yet
	repo := t.TempDir()
	mkdirs(t, filepath.Join(repo, "engine"), filepath.Join(repo, "tools"))

	got, err := Resolve(filepath.Join(repo, "tools"), DefaultLayout())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != repo {
		t.Errorf("Resolve() = %q, want parent %q", got, repo)
	}
}

func TestResolve_MarkerWithoutExtension(t *testing.T) {
	repo := t.TempDir()
	mkdirs(t, filepath.Join(repo, "engine"), filepath.Join(repo, "x", "y"))
	touch(t, filepath.Join(repo, "engine", "api_entry.sh"))

	l := DefaultLayout()
	l.Marker = "api_entry"

	got, err := Resolve(filepath.Join(repo, "x", "y"), l)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != repo {
		t.Errorf("Resolve() = %q, want %q", got, repo)
	}
}

func TestResolve_NotFound(t *testing.T) {
	_, err := Resolve(t.TempDir(), DefaultLayout())
	if err == nil {
		t.Fatal("expected error but got none")
	}
	if ferrors.KindOf(err) != ferrors.WorkspaceNotFound {
		t.Errorf("KindOf() = %q, want %q", ferrors.KindOf(err), ferrors.WorkspaceNotFound)
	}
}

func TestOpen_EnsuresSharedDirs(t *testing.T) {
	root := t.TempDir()

	ws, err := Open(root, DefaultLayout())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	for _, dir := range []string{ws.InputDir, ws.OutputDir, ws.TempDir} {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			t.Errorf("directory %s not created", dir)
		}
	}

	// second call must not fail on existing directories
	if _, err := Open(root, DefaultLayout()); err != nil {
		t.Errorf("second Open() error = %v", err)
	}

	if got, want := ws.RequestPath("42"), filepath.Join(root, "shared-data", "input", "request_42.json"); got != want {
		t.Errorf("RequestPath() = %q, want %q", got, want)
	}
	if got, want := ws.ResponsePath("42"), filepath.Join(root, "shared-data", "output", "response_42.json"); got != want {
		t.Errorf("ResponsePath() = %q, want %q", got, want)
	}
}
