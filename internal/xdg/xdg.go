// Package xdg provides helpers to resolve XDG Base Directory paths for finbridge.
// Configuration lives under the config home and the debug log under the state
// home, falling back to the traditional ~/.config and ~/.local/state locations
// when the XDG environment variables are unset.
package xdg

import (
	"os"
	"path/filepath"
)

// appName is the directory created under each XDG base.
const appName = "finbridge"

// ConfigDir returns the XDG config directory for finbridge.
// The directory is created with private permissions (0700) if missing.
func ConfigDir() (string, error) {
	return ensure("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for finbridge.
// The directory is created with private permissions (0700) if missing.
func StateDir() (string, error) {
	return ensure("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func ensure(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
