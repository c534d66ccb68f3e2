// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finbridge/cli/internal/xdg"

	"github.com/rs/zerolog"
)

// VerboseEnv enables console debug output for every command when set to "1".
const VerboseEnv = "FINBRIDGE_VERBOSE"

// IsVerbose reports whether verbose mode is enabled via the environment.
func IsVerbose() bool {
	return os.Getenv(VerboseEnv) == "1"
}

// New returns a zerolog logger writing JSON lines to w at the given level.
// Unknown levels fall back to info.
func New(level string, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel converts a config level string to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Setup builds the process logger. Verbose runs log human-readable debug output to
// stderr; otherwise entries are appended as JSON to finbridge.log in the XDG state
// directory. The returned closer releases the log file.
func Setup(verbose bool, level string) (zerolog.Logger, func() error) {
	if verbose {
		cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
		return zerolog.New(cw).Level(zerolog.DebugLevel).With().Timestamp().Logger(), func() error { return nil }
	}

	dir, err := xdg.StateDir()
	if err != nil {
		return zerolog.Nop(), func() error { return nil }
	}
	f, err := os.OpenFile(filepath.Join(dir, "finbridge.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return zerolog.Nop(), func() error { return nil }
	}
	return New(level, f), f.Close
}
