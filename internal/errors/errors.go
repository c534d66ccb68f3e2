// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure the worker bridge can run into carries a machine-readable Kind so
// callers can decide how to present it, while the human message stays short enough
// for a one-line status.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// so errors.Is and errors.As from the standard library keep working on the chain.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// WorkspaceNotFound indicates no directory layout could be established.
	WorkspaceNotFound Kind = "workspace_not_found"
	// ScriptNotFound indicates the worker entry point is missing under the engine directory.
	ScriptNotFound Kind = "script_not_found"
	// SpawnFailed indicates the operating system could not start the worker process.
	SpawnFailed Kind = "spawn_failed"
	// MalformedResponse indicates the worker wrote a response the codec cannot accept.
	MalformedResponse Kind = "malformed_response"
	// WorkerTimeout indicates the worker was killed after exceeding its time budget.
	WorkerTimeout Kind = "worker_timeout"
	// WorkerCancelled indicates the caller cancelled the call and the worker was stopped.
	WorkerCancelled Kind = "worker_cancelled"
	// ExchangeIO indicates a filesystem failure while writing or reading exchange files.
	ExchangeIO Kind = "exchange_io"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *E) Unwrap() error { return e.Err }

// Is matches another *E with the same Kind, so sentinel-style checks such as
// errors.Is(err, errors.New(errors.ScriptNotFound, "")) work.
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the Kind of the first *E in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the human-friendly message of the first *E in err's chain,
// falling back to err.Error() for foreign errors.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *E
	if stderrors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
