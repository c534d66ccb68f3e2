// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package oneshot

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"finbridge/cli/internal/bridge/model"
	"finbridge/cli/internal/bridge/runner"
	"finbridge/cli/internal/workspace"

	"github.com/rs/zerolog"
)

func newTransport(t *testing.T, script string) (*Transport, workspace.Workspace) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("worker stubs are POSIX shell scripts")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	ws, err := workspace.Open(t.TempDir(), workspace.DefaultLayout())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(ws.EngineDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ws.EngineDir, "entry.sh"), []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	r := runner.New(ws.EngineDir, runner.Options{Timeout: 10 * time.Second, Logger: zerolog.Nop()})
	return New(ws, r, "entry.sh", zerolog.Nop()), ws
}

func TestSend_UnreadableResponseKeepsBothFiles(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{name: "not json", script: `echo 'Traceback (most recent call last)' > "$2"`},
		{name: "missing status", script: `printf '{"id":"req-1","message":"hi"}' > "$2"`},
		{name: "unknown status", script: `printf '{"id":"req-1","status":"pending","message":"hi"}' > "$2"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ws := newTransport(t, tt.script)

			resp := tr.Send(context.Background(), model.Request{ID: "req-1", Kind: model.KindChat, Message: "hi"})

			if resp.Status != model.StatusError || resp.ID != "req-1" {
				t.Fatalf("resp = %+v, want error for req-1", resp)
			}
			if resp.Error == "" {
				t.Error("diagnostic is empty")
			}
			for _, p := range []string{ws.RequestPath("req-1"), ws.ResponsePath("req-1")} {
				if _, err := os.Stat(p); err != nil {
					t.Errorf("%s removed, want kept: %v", filepath.Base(p), err)
				}
			}
		})
	}
}

func TestSend_EmptyResponseIDTakesRequestID(t *testing.T) {
	tr, ws := newTransport(t, `printf '{"id":"","status":"success","message":"ok","charts":null}' > "$2"`)

	resp := tr.Send(context.Background(), model.Request{ID: "req-2", Kind: model.KindChat, Message: "hi"})

	if !resp.OK() {
		t.Fatalf("resp = %+v, want success", resp)
	}
	if resp.ID != "req-2" {
		t.Errorf("ID = %q, want req-2", resp.ID)
	}
	if resp.Charts == nil || len(resp.Charts) != 0 {
		t.Errorf("Charts = %#v, want empty slice", resp.Charts)
	}
	for _, p := range []string{ws.RequestPath("req-2"), ws.ResponsePath("req-2")} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s not cleaned up: %v", filepath.Base(p), err)
		}
	}
}

func TestSend_TimeoutReportsStoppedWorker(t *testing.T) {
	tr, _ := newTransport(t, `exec sleep 5`)
	tr.runner = runner.New(tr.runner.EngineDir(), runner.Options{Timeout: 200 * time.Millisecond, Logger: zerolog.Nop()})

	start := time.Now()
	resp := tr.Send(context.Background(), model.Request{ID: "req-3", Kind: model.KindChat, Message: "hi"})

	if time.Since(start) > 4*time.Second {
		t.Errorf("Send took %v, want the timeout to stop the worker", time.Since(start))
	}
	if resp.Status != model.StatusError || !strings.Contains(resp.Message, "stopped") {
		t.Errorf("resp = %+v, want timeout error", resp)
	}
}
