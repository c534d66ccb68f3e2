// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package runner launches worker entry points as short-lived child processes.
//
// A run captures the complete stdout and stderr of the process and its exit code
// into a model.ProcessResult. Failures that prevent a process from running at all
// (missing script, spawn error, timeout) are still described by a ProcessResult
// with ExitCode -1 and additionally returned as a typed error, so callers can
// branch on the error kind while always having text to show the user.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"finbridge/cli/internal/bridge/model"
	ferrors "finbridge/cli/internal/errors"

	"github.com/rs/zerolog"
)

// DefaultInterpreters maps script extensions to the program that runs them.
// Scripts with other extensions are executed directly.
func DefaultInterpreters() map[string]string {
	return map[string]string{
		".py": "python3",
		".sh": "sh",
	}
}

// Options configures a Runner.
type Options struct {
	// Interpreters maps lowercase extensions (".py") to a program name or path.
	Interpreters map[string]string
	// Env is appended to the parent environment.
	Env []string
	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Runner starts scripts that live in one engine directory.
type Runner struct {
	engineDir string
	opts      Options
}

// New creates a Runner for scripts under engineDir.
func New(engineDir string, opts Options) *Runner {
	if opts.Interpreters == nil {
		opts.Interpreters = DefaultInterpreters()
	}
	return &Runner{engineDir: engineDir, opts: opts}
}

// EngineDir returns the directory scripts are resolved against and run in.
func (r *Runner) EngineDir() string { return r.engineDir }

// ScriptPath returns the absolute path a script name refers to, whether or not it
// exists. A name without an extension resolves to the first "name.*" match.
func (r *Runner) ScriptPath(name string) string {
	path := filepath.Join(r.engineDir, name)
	if filepath.Ext(name) != "" {
		return path
	}
	matches, _ := filepath.Glob(path + ".*")
	sort.Strings(matches)
	for _, m := range matches {
		if isFile(m) {
			return m
		}
	}
	return path
}

// Exists reports whether the named script is present.
func (r *Runner) Exists(name string) bool {
	return isFile(r.ScriptPath(name))
}

// Run executes the named script with args and blocks until it exits.
// The working directory is the engine directory.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (model.ProcessResult, error) {
	script := r.ScriptPath(name)
	if !isFile(script) {
		msg := fmt.Sprintf("worker script not found: %s", script)
		return model.ProcessResult{ExitCode: -1, Error: msg}, ferrors.New(ferrors.ScriptNotFound, msg)
	}

	parent := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	program, argv := r.command(script, args)
	cmd := exec.CommandContext(ctx, program, argv...)
	cmd.Dir = r.engineDir
	cmd.Env = append(os.Environ(), r.opts.Env...)
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log := r.opts.Logger.With().Str("script", filepath.Base(script)).Logger()
	log.Debug().Str("program", program).Strs("args", args).Msg("starting worker")
	started := time.Now()

	err := cmd.Run()
	res := model.ProcessResult{
		ExitCode: 0,
		Output:   stdout.String(),
		Error:    stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			res.ExitCode = -1
			kind, msg := r.stopReason(parent, ctx)
			res.Error = appendLine(res.Error, msg)
			log.Warn().Dur("duration", time.Since(started)).Msg(msg)
			return res, ferrors.Wrap(kind, msg, ctx.Err())
		case errors.As(err, &exitErr):
			res.ExitCode = exitErr.ExitCode()
		default:
			res.ExitCode = -1
			msg := fmt.Sprintf("could not start worker %s", filepath.Base(script))
			res.Error = appendLine(res.Error, fmt.Sprintf("%s: %v", msg, err))
			log.Error().Err(err).Msg("worker spawn failed")
			return res, ferrors.Wrap(ferrors.SpawnFailed, msg, err)
		}
	}

	log.Debug().
		Int("exit_code", res.ExitCode).
		Dur("duration", time.Since(started)).
		Int("stdout_bytes", stdout.Len()).
		Int("stderr_bytes", stderr.Len()).
		Msg("worker exited")
	return res, nil
}

// stopReason explains why ctx ended a run. parent is the caller's context and
// ctx the one the process ran under, which carries the configured timeout.
func (r *Runner) stopReason(parent, ctx context.Context) (ferrors.Kind, string) {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return ferrors.WorkerCancelled, "worker was cancelled"
	case parent.Err() == nil && r.opts.Timeout > 0:
		return ferrors.WorkerTimeout, fmt.Sprintf("worker exceeded %s and was stopped", r.opts.Timeout)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ferrors.WorkerTimeout, "worker was stopped at the caller's deadline"
	default:
		return ferrors.WorkerCancelled, "worker was cancelled"
	}
}

// command picks the interpreter for script by extension.
func (r *Runner) command(script string, args []string) (string, []string) {
	ext := strings.ToLower(filepath.Ext(script))
	if interp, ok := r.opts.Interpreters[ext]; ok && interp != "" {
		return interp, append([]string{script}, args...)
	}
	return script, args
}

func appendLine(s, line string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s + line
	}
	return s + "\n" + line
}

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
