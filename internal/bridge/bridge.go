// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge lets the CLI hand analysis work to an external worker process
// and get a structured answer back.
//
// A Bridge owns the fixed workspace paths and a Transport. Every public operation
// builds a fresh Request, sends it, and returns a Response; none of them return an
// error. Failures of any kind (missing script, crashed worker, unreadable output,
// filesystem trouble, even a panic) come back as a Response with StatusError and a
// short Message plus a longer Error diagnostic, so callers can render all outcomes
// the same way.
//
// Calls block for the lifetime of the worker process. Callers that must stay
// responsive use Go to run a call in the background and receive the Response on a
// channel. Concurrent calls are safe: each uses its own request id and files.
package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"finbridge/cli/internal/bridge/model"
	"finbridge/cli/internal/bridge/oneshot"
	"finbridge/cli/internal/bridge/runner"
	"finbridge/cli/internal/workspace"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Transport delivers a request to a worker and returns its response.
// Implementations report every failure as an error Response.
type Transport interface {
	Send(ctx context.Context, req model.Request) model.Response
}

// Recorder receives every completed exchange, e.g. to keep a history.
type Recorder interface {
	Record(ctx context.Context, req model.Request, resp model.Response, elapsed time.Duration) error
}

// Options configures a Bridge.
type Options struct {
	EntryScript    string
	SelfTestScript string
	Interpreters   map[string]string
	// Env is passed to every worker process in addition to the parent environment.
	Env     []string
	Timeout time.Duration
	Logger  zerolog.Logger
	// Transport replaces the default one-shot file transport.
	Transport Transport
	Recorder  Recorder
}

// Bridge dispatches analysis requests to the worker.
type Bridge struct {
	ws        workspace.Workspace
	runner    *runner.Runner
	transport Transport
	recorder  Recorder
	entry     string
	selftest  string
	log       zerolog.Logger
}

// New creates a Bridge for an opened workspace.
func New(ws workspace.Workspace, opts Options) *Bridge {
	if opts.EntryScript == "" {
		opts.EntryScript = "api_entry.py"
	}
	if opts.SelfTestScript == "" {
		opts.SelfTestScript = "selftest.py"
	}
	log := opts.Logger.With().Str("component", "bridge").Logger()
	r := runner.New(ws.EngineDir, runner.Options{
		Interpreters: opts.Interpreters,
		Env:          opts.Env,
		Timeout:      opts.Timeout,
		Logger:       log,
	})
	t := opts.Transport
	if t == nil {
		t = oneshot.New(ws, r, opts.EntryScript, log)
	}
	return &Bridge{
		ws:        ws,
		runner:    r,
		transport: t,
		recorder:  opts.Recorder,
		entry:     opts.EntryScript,
		selftest:  opts.SelfTestScript,
		log:       log,
	}
}

// Workspace returns the paths this bridge exchanges files through.
func (b *Bridge) Workspace() workspace.Workspace { return b.ws }

// ProcessChatMessage asks the worker a question, optionally about a data file.
func (b *Bridge) ProcessChatMessage(ctx context.Context, message string, fileData *model.FileDescriptor) model.Response {
	return b.Send(ctx, model.KindChat, message, fileData, nil)
}

// LoadDataFile hands a data file to the worker. The file type is inferred from
// the extension of path.
func (b *Bridge) LoadDataFile(ctx context.Context, path string) model.Response {
	fd := model.NewFileDescriptor(path)
	return b.Send(ctx, model.KindLoadData, model.LoadDataMessage, &fd, nil)
}

// GenerateChart asks the worker to draw a chart described by message.
func (b *Bridge) GenerateChart(ctx context.Context, message string, fileData *model.FileDescriptor) model.Response {
	return b.Send(ctx, model.KindGenerateChart, message, fileData, nil)
}

// Summarize asks the worker for a summary of the data it has loaded, or of
// fileData when given.
func (b *Bridge) Summarize(ctx context.Context, fileData *model.FileDescriptor) model.Response {
	return b.Send(ctx, model.KindChat, model.SummaryMessage, fileData, map[string]string{
		model.ParamCommand: model.CommandSummary,
	})
}

// Send builds a request with a fresh id and delivers it through the transport.
func (b *Bridge) Send(ctx context.Context, kind model.Kind, message string, fileData *model.FileDescriptor, params map[string]string) (resp model.Response) {
	req := model.Request{
		ID:         uuid.NewString(),
		Kind:       kind,
		Message:    message,
		FileData:   fileData,
		Parameters: map[string]string{},
	}
	for k, v := range params {
		req.Parameters[k] = v
	}

	started := time.Now()
	defer func() {
		if p := recover(); p != nil {
			b.log.Error().Str("request_id", req.ID).Interface("panic", p).Msg("bridge call panicked")
			resp = model.ErrorResponse(req.ID, "internal error while contacting the worker", fmt.Sprint(p))
		}
		b.record(ctx, req, resp, time.Since(started))
	}()

	resp = b.transport.Send(ctx, req)
	if resp.Charts == nil {
		resp.Charts = []string{}
	}
	return resp
}

// Go runs call on its own goroutine and delivers the result on the returned
// channel, which receives exactly one Response and is then closed.
func (b *Bridge) Go(ctx context.Context, call func(context.Context) model.Response) <-chan model.Response {
	out := make(chan model.Response, 1)
	go func() {
		defer close(out)
		defer func() {
			if p := recover(); p != nil {
				b.log.Error().Interface("panic", p).Msg("background bridge call panicked")
				out <- model.ErrorResponse("", "internal error while contacting the worker", fmt.Sprint(p))
			}
		}()
		out <- call(ctx)
	}()
	return out
}

// ListGeneratedCharts returns the chart images currently in the output directory,
// sorted by name. It does not contact the worker.
func (b *Bridge) ListGeneratedCharts() ([]string, error) {
	entries, err := os.ReadDir(b.ws.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("list charts in %s: %w", b.ws.OutputDir, err)
	}
	var charts []string
	for _, e := range entries {
		if e.IsDir() || !isChart(e.Name()) {
			continue
		}
		charts = append(charts, filepath.Join(b.ws.OutputDir, e.Name()))
	}
	sort.Strings(charts)
	return charts, nil
}

// recordTimeout bounds how long a Recorder may hold up the call that finished.
const recordTimeout = 5 * time.Second

func (b *Bridge) record(ctx context.Context, req model.Request, resp model.Response, elapsed time.Duration) {
	if b.recorder == nil {
		return
	}
	// Cancelled and timed out calls are recorded too, so detach from the call's ctx.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := b.recorder.Record(rctx, req, resp, elapsed); err != nil {
		b.log.Warn().Err(err).Str("request_id", req.ID).Msg("record exchange")
	}
}

func isChart(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, c := range model.ChartExtensions {
		if ext == c {
			return true
		}
	}
	return false
}
