// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package runner

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	ferrors "finbridge/cli/internal/errors"

	"github.com/rs/zerolog"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("worker stubs are POSIX shell scripts")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestRun_CapturesStreamsAndExitCode(t *testing.T) {
	requireShell(t)
	engine := t.TempDir()
	writeScript(t, engine, "job.sh", `echo "args: $1 $2"; echo "warn" >&2; exit 3`)

	r := New(engine, Options{Logger: zerolog.Nop()})
	res, err := r.Run(context.Background(), "job.sh", "a", "b")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if strings.TrimSpace(res.Output) != "args: a b" {
		t.Errorf("Output = %q", res.Output)
	}
	if strings.TrimSpace(res.Error) != "warn" {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestRun_WorkingDirectoryIsEngine(t *testing.T) {
	requireShell(t)
	engine := t.TempDir()
	writeScript(t, engine, "pwd.sh", `pwd -P`)

	r := New(engine, Options{Logger: zerolog.Nop()})
	res, err := r.Run(context.Background(), "pwd.sh")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want, _ := filepath.EvalSymlinks(engine)
	if got := strings.TrimSpace(res.Output); got != want {
		t.Errorf("worker cwd = %q, want %q", got, want)
	}
}

func TestRun_PassesEnv(t *testing.T) {
	requireShell(t)
	engine := t.TempDir()
	writeScript(t, engine, "env.sh", `printf "%s" "$ANTHROPIC_API_KEY"`)

	r := New(engine, Options{Env: []string{"ANTHROPIC_API_KEY=sk-test"}, Logger: zerolog.Nop()})
	res, err := r.Run(context.Background(), "env.sh")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Output != "sk-test" {
		t.Errorf("Output = %q, want sk-test", res.Output)
	}
}

func TestRun_ScriptNotFound(t *testing.T) {
	engine := t.TempDir()
	r := New(engine, Options{Logger: zerolog.Nop()})

	res, err := r.Run(context.Background(), "api_entry.py", "in.json", "out.json")
	if ferrors.KindOf(err) != ferrors.ScriptNotFound {
		t.Fatalf("error kind = %q, want %q", ferrors.KindOf(err), ferrors.ScriptNotFound)
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", res.ExitCode)
	}
	want := filepath.Join(engine, "api_entry.py")
	if !strings.Contains(res.Error, want) {
		t.Errorf("Error = %q, want it to name %q", res.Error, want)
	}
}

func TestRun_SpawnFailed(t *testing.T) {
	engine := t.TempDir()
	writeScript(t, engine, "job.py", `print("hi")`)

	r := New(engine, Options{
		Interpreters: map[string]string{".py": "definitely-not-a-real-interpreter-xyz"},
		Logger:       zerolog.Nop(),
	})
	res, err := r.Run(context.Background(), "job.py")
	if ferrors.KindOf(err) != ferrors.SpawnFailed {
		t.Fatalf("error kind = %q, want %q", ferrors.KindOf(err), ferrors.SpawnFailed)
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", res.ExitCode)
	}
	if res.Error == "" {
		t.Error("Error is empty, want OS diagnostic")
	}
}

func TestRun_Timeout(t *testing.T) {
	requireShell(t)
	engine := t.TempDir()
	writeScript(t, engine, "slow.sh", `exec sleep 5`)

	r := New(engine, Options{Timeout: 200 * time.Millisecond, Logger: zerolog.Nop()})
	started := time.Now()
	res, err := r.Run(context.Background(), "slow.sh")
	if ferrors.KindOf(err) != ferrors.WorkerTimeout {
		t.Fatalf("error kind = %q, want %q", ferrors.KindOf(err), ferrors.WorkerTimeout)
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", res.ExitCode)
	}
	if time.Since(started) > 4*time.Second {
		t.Errorf("Run() did not stop the worker promptly")
	}
}

func TestRun_StopReason(t *testing.T) {
	requireShell(t)
	engine := t.TempDir()
	writeScript(t, engine, "slow.sh", `exec sleep 5`)

	tests := []struct {
		name     string
		timeout  time.Duration
		ctx      func() (context.Context, context.CancelFunc)
		wantKind ferrors.Kind
		wantMsg  string
	}{
		{
			name:     "configured timeout",
			timeout:  200 * time.Millisecond,
			ctx:      func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) },
			wantKind: ferrors.WorkerTimeout,
			wantMsg:  "worker exceeded 200ms and was stopped",
		},
		{
			name: "caller deadline without configured timeout",
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 200*time.Millisecond)
			},
			wantKind: ferrors.WorkerTimeout,
			wantMsg:  "worker was stopped at the caller's deadline",
		},
		{
			name:    "caller cancels",
			timeout: time.Minute,
			ctx: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				time.AfterFunc(200*time.Millisecond, cancel)
				return ctx, cancel
			},
			wantKind: ferrors.WorkerCancelled,
			wantMsg:  "worker was cancelled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.ctx()
			defer cancel()
			r := New(engine, Options{Timeout: tt.timeout, Logger: zerolog.Nop()})

			started := time.Now()
			res, err := r.Run(ctx, "slow.sh")

			if ferrors.KindOf(err) != tt.wantKind {
				t.Fatalf("error kind = %q, want %q (%v)", ferrors.KindOf(err), tt.wantKind, err)
			}
			if got := ferrors.MessageOf(err); got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
			if strings.Contains(ferrors.MessageOf(err), " 0s") {
				t.Errorf("message mentions a zero limit: %q", ferrors.MessageOf(err))
			}
			if res.ExitCode != -1 {
				t.Errorf("ExitCode = %d, want -1", res.ExitCode)
			}
			if time.Since(started) > 4*time.Second {
				t.Error("Run() did not stop the worker promptly")
			}
		})
	}
}

func TestScriptPath_GlobWithoutExtension(t *testing.T) {
	engine := t.TempDir()
	writeScript(t, engine, "selftest.sh", `exit 0`)

	r := New(engine, Options{Logger: zerolog.Nop()})
	if got, want := r.ScriptPath("selftest"), filepath.Join(engine, "selftest.sh"); got != want {
		t.Errorf("ScriptPath() = %q, want %q", got, want)
	}
	if !r.Exists("selftest") {
		t.Error("Exists(selftest) = false, want true")
	}
	if r.Exists("api_entry") {
		t.Error("Exists(api_entry) = true, want false")
	}
}
