// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package model defines shared data structures for bridge communication.
// It provides the request and response types exchanged with the analysis worker,
// the descriptor for data files handed to it, and the transient results the
// bridge builds while running a worker process.
//
// The types in this package are designed to be transport-agnostic: the JSON tags
// are the on-disk wire names, but nothing here knows about files or processes.
package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the kind of work a Request asks the worker to do.
type Kind string

const (
	KindChat          Kind = "chat"
	KindLoadData      Kind = "load_data"
	KindGenerateChart Kind = "generate_chart"
)

// FileType is the data file category inferred from its extension.
type FileType string

const (
	FileTypeCSV     FileType = "csv"
	FileTypePDF     FileType = "pdf"
	FileTypeExcel   FileType = "excel"
	FileTypeUnknown FileType = "unknown"
)

// Status is the outcome reported in a Response.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// LoadDataMessage is the message text convention for load_data requests.
const LoadDataMessage = "Load data from file"

// SummaryMessage is the chat message sent with the summary command parameter.
const SummaryMessage = "Summarize loaded data"

// ParamCommand names a worker command in Request.Parameters. The worker treats
// a chat request carrying it as that command instead of a free-form question.
const (
	ParamCommand   = "command"
	CommandSummary = "summary"
)

// ChartExtensions lists the image extensions treated as chart artifacts.
var ChartExtensions = []string{".png", ".jpg", ".jpeg", ".svg"}

// FileDescriptor describes a data file handed to the worker.
// Build it with NewFileDescriptor; it is not modified afterwards.
type FileDescriptor struct {
	Name string   `json:"name"`
	Path string   `json:"path"`
	Type FileType `json:"type"`
	Size *int64   `json:"size,omitempty"`
}

// NewFileDescriptor builds a descriptor for path. The type comes from the
// extension (case-insensitive); the size is filled in only when the file exists.
func NewFileDescriptor(path string) FileDescriptor {
	abs := path
	if p, err := filepath.Abs(path); err == nil {
		abs = p
	}
	fd := FileDescriptor{
		Name: filepath.Base(path),
		Path: abs,
		Type: DetectFileType(path),
	}
	if st, err := os.Stat(abs); err == nil && st.Mode().IsRegular() {
		size := st.Size()
		fd.Size = &size
	}
	return fd
}

// DetectFileType maps a file extension to a FileType.
func DetectFileType(path string) FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FileTypeCSV
	case ".pdf":
		return FileTypePDF
	case ".xls", ".xlsx":
		return FileTypeExcel
	default:
		return FileTypeUnknown
	}
}

// Request is a unit of work sent to the worker.
type Request struct {
	ID         string            `json:"id"`
	Kind       Kind              `json:"kind"`
	Message    string            `json:"message"`
	FileData   *FileDescriptor   `json:"fileData,omitempty"`
	Parameters map[string]string `json:"parameters"`
}

// Response is the worker's answer to a Request.
type Response struct {
	ID        string          `json:"id"`
	Status    Status          `json:"status"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	TableData string          `json:"tableData,omitempty"`
	Charts    []string        `json:"charts"`
	Error     string          `json:"error,omitempty"`
}

// OK reports whether the response carries a successful result.
func (r Response) OK() bool { return r.Status == StatusSuccess }

// ErrorResponse builds an error Response for request id.
// message is the one-line user-facing text, diagnostic the longer detail.
func ErrorResponse(id, message, diagnostic string) Response {
	return Response{
		ID:      id,
		Status:  StatusError,
		Message: message,
		Charts:  []string{},
		Error:   diagnostic,
	}
}

// ProcessResult is what a worker process left behind: its exit code and the
// full text of its standard streams. ExitCode is -1 when no process ran to completion.
type ProcessResult struct {
	ExitCode int
	Output   string
	Error    string
}

// Diagnostic returns the most useful captured text for an error report:
// stderr when present, otherwise stdout.
func (p ProcessResult) Diagnostic() string {
	if s := strings.TrimSpace(p.Error); s != "" {
		return s
	}
	return strings.TrimSpace(p.Output)
}

// SetupStatus describes whether the worker environment is usable.
type SetupStatus struct {
	Available         bool
	WorkerVersionInfo string
	Message           string
}
