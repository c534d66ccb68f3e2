// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package oneshot provides the file-exchange implementation of the bridge transport.
// Every request spawns a fresh worker process: the request is written to the
// workspace input directory, the worker is invoked with the request and response
// paths, and the response file is read back once the worker exits.
//
// Files are named after the request id, so concurrent sends never touch each
// other's files. Both files are removed after a successful exchange; on any
// failure they stay on disk for inspection.
package oneshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"finbridge/cli/internal/bridge/codec"
	"finbridge/cli/internal/bridge/model"
	"finbridge/cli/internal/bridge/runner"
	ferrors "finbridge/cli/internal/errors"
	"finbridge/cli/internal/logging"
	"finbridge/cli/internal/workspace"

	"github.com/rs/zerolog"
)

// ExecutionFailed is the message of a response synthesized when the worker left no response file.
const ExecutionFailed = "execution failed"

// Transport sends requests to a one-shot worker through files.
type Transport struct {
	ws     workspace.Workspace
	runner *runner.Runner
	entry  string
	log    zerolog.Logger
}

// New creates a Transport that invokes entryScript through r.
func New(ws workspace.Workspace, r *runner.Runner, entryScript string, log zerolog.Logger) *Transport {
	return &Transport{ws: ws, runner: r, entry: entryScript, log: log}
}

// Send performs one request/response exchange. It never returns a nil-status
// response: every failure is reported as a Response with StatusError.
func (t *Transport) Send(ctx context.Context, req model.Request) model.Response {
	log := t.log.With().Str("request_id", req.ID).Str("kind", string(req.Kind)).Logger()
	reqPath := t.ws.RequestPath(req.ID)
	respPath := t.ws.ResponsePath(req.ID)

	payload, err := codec.Encode(req)
	if err != nil {
		log.Error().Err(err).Msg("encode request")
		return model.ErrorResponse(req.ID, "could not encode request", err.Error())
	}
	if err := os.WriteFile(reqPath, payload, 0o644); err != nil {
		e := ferrors.Wrap(ferrors.ExchangeIO, "could not write request file", err)
		log.Error().Err(e).Str("path", reqPath).Msg("persist request")
		return model.ErrorResponse(req.ID, e.Message, err.Error())
	}

	started := time.Now()
	res, runErr := t.runner.Run(ctx, t.entry, reqPath, respPath)
	log = log.With().Int("exit_code", res.ExitCode).Dur("duration", time.Since(started)).Logger()

	data, readErr := os.ReadFile(respPath)
	if readErr != nil {
		if !errors.Is(readErr, os.ErrNotExist) {
			e := ferrors.Wrap(ferrors.ExchangeIO, "could not read response file", readErr)
			log.Error().Err(e).Str("path", respPath).Msg("collect response")
			return model.ErrorResponse(req.ID, e.Message, readErr.Error())
		}
		return t.missingResponse(log, req, res, runErr, reqPath)
	}

	resp, err := codec.Decode(data)
	if err == nil && resp.ID != req.ID {
		if resp.ID == "" {
			resp.ID = req.ID
		} else {
			err = ferrors.New(ferrors.MalformedResponse, fmt.Sprintf("response id %q does not match request", resp.ID))
		}
	}
	if err != nil {
		log.Warn().Err(err).Str("request_file", reqPath).Str("response_file", respPath).Msg("malformed response kept for inspection")
		diag := err.Error()
		if d := res.Diagnostic(); d != "" {
			diag += "\n" + logging.Mask(d)
		}
		return model.ErrorResponse(req.ID, "worker returned an unreadable response", diag)
	}

	for _, p := range []string{reqPath, respPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", p).Msg("cleanup exchange file")
		}
	}
	log.Info().Str("status", string(resp.Status)).Int("charts", len(resp.Charts)).Msg("exchange complete")
	return resp
}

// missingResponse builds the error response for a worker that produced no
// response file. The request file is left in place.
func (t *Transport) missingResponse(log zerolog.Logger, req model.Request, res model.ProcessResult, runErr error, reqPath string) model.Response {
	message := ExecutionFailed
	if runErr != nil {
		message = ferrors.MessageOf(runErr)
	}
	diag := logging.Mask(res.Diagnostic())
	if diag == "" {
		diag = fmt.Sprintf("worker exited with code %d without writing a response", res.ExitCode)
	}
	log.Warn().
		Str("error_kind", string(ferrors.KindOf(runErr))).
		Str("request_file", reqPath).
		Msg("no response file; request kept for inspection")
	return model.ErrorResponse(req.ID, message, diag)
}
