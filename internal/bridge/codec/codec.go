// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package codec converts bridge messages to and from their on-disk JSON form.
//
// Requests are written pretty-printed so a failed exchange can be read by eye.
// Responses are decoded leniently: fields the bridge does not know about are
// ignored, but id, status and message must be present and well-typed.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"finbridge/cli/internal/bridge/model"
	ferrors "finbridge/cli/internal/errors"
)

// Encode serializes a request as indented JSON terminated by a newline.
// Parameters are always emitted as an object, never null.
func Encode(req model.Request) ([]byte, error) {
	if req.Parameters == nil {
		req.Parameters = map[string]string{}
	}
	b, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode request %s: %w", req.ID, err)
	}
	return append(b, '\n'), nil
}

// wireResponse mirrors model.Response with pointers on the required fields so
// absence can be told apart from an empty value.
type wireResponse struct {
	ID        *string         `json:"id"`
	Status    *string         `json:"status"`
	Message   *string         `json:"message"`
	Data      json.RawMessage `json:"data"`
	TableData string          `json:"tableData"`
	Charts    []string        `json:"charts"`
	Error     string          `json:"error"`
}

// Decode parses a response document. Any structural problem is reported as a
// MalformedResponse error.
func Decode(data []byte) (model.Response, error) {
	var w wireResponse
	if len(bytes.TrimSpace(data)) == 0 {
		return model.Response{}, ferrors.New(ferrors.MalformedResponse, "response file is empty")
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return model.Response{}, ferrors.Wrap(ferrors.MalformedResponse, "response is not valid JSON", err)
	}

	switch {
	case w.ID == nil:
		return model.Response{}, ferrors.New(ferrors.MalformedResponse, "response is missing id")
	case w.Status == nil:
		return model.Response{}, ferrors.New(ferrors.MalformedResponse, "response is missing status")
	case w.Message == nil:
		return model.Response{}, ferrors.New(ferrors.MalformedResponse, "response is missing message")
	}

	status := model.Status(*w.Status)
	if status != model.StatusSuccess && status != model.StatusError {
		return model.Response{}, ferrors.New(ferrors.MalformedResponse, fmt.Sprintf("response has unknown status %q", *w.Status))
	}

	resp := model.Response{
		ID:        *w.ID,
		Status:    status,
		Message:   *w.Message,
		TableData: w.TableData,
		Charts:    w.Charts,
		Error:     w.Error,
	}
	if len(w.Data) > 0 && !bytes.Equal(bytes.TrimSpace(w.Data), []byte("null")) {
		resp.Data = w.Data
	}
	if resp.Charts == nil {
		resp.Charts = []string{}
	}
	if resp.Status == model.StatusError && resp.Message == "" {
		resp.Message = resp.Error
		if resp.Message == "" {
			resp.Message = "worker reported an error"
		}
	}
	return resp, nil
}

// EncodeResponse serializes a response the same way requests are written.
// The CLI prints it for machine-readable output. Charts are always an array.
func EncodeResponse(resp model.Response) ([]byte, error) {
	if resp.Charts == nil {
		resp.Charts = []string{}
	}
	b, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode response %s: %w", resp.ID, err)
	}
	return append(b, '\n'), nil
}
