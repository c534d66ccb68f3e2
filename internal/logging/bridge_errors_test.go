// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"
	"strings"
	"testing"

	"finbridge/cli/internal/bridge/model"
	ferrors "finbridge/cli/internal/errors"
)

func TestParseFailure(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		diagnostic string
		want       FailureType
	}{
		{"missing script", "worker script not found: /w/engine/api_entry.py", "", FailureScriptMissing},
		{"spawn", "could not start worker api_entry.py", "exec: \"python3\": not found", FailureSpawn},
		{"timeout", "worker exceeded 10m0s and was stopped", "", FailureTimeout},
		{"caller deadline", "worker was stopped at the caller's deadline", "", FailureTimeout},
		{"cancelled", "worker was cancelled", "context canceled", FailureCancelled},
		{"malformed", "worker returned an unreadable response", "malformed_response: response is missing id", FailureMalformed},
		{"crash", "execution failed", "Traceback (most recent call last)", FailureCrash},
		{"auth", "execution failed", "anthropic.AuthenticationError: invalid api key", FailureAuth},
		{"worker business error", "No data loaded. Please load a file first.", "", FailureWorker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFailure(tt.message, tt.diagnostic); got != tt.want {
				t.Errorf("ParseFailure() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatBridgeError_MasksDetails(t *testing.T) {
	resp := model.ErrorResponse("1", "execution failed", "ANTHROPIC_API_KEY=sk-ant-secret rejected")

	out := FormatBridgeError(resp)
	if strings.Contains(out, "sk-ant-secret") {
		t.Errorf("FormatBridgeError() leaked the key:\n%s", out)
	}
	if !strings.Contains(out, "Technical details") {
		t.Errorf("FormatBridgeError() missing technical details:\n%s", out)
	}
}

func TestPresentError(t *testing.T) {
	if got := PresentError("x", nil); got != "" {
		t.Errorf("PresentError(nil) = %q, want empty", got)
	}
	if got := PresentError("connect", errors.New("dial postgres://bob:pw@db/x: refused")); got != "connect: dial postgres://*:*@db/x: refused" {
		t.Errorf("PresentError() = %q", got)
	}
	typed := ferrors.New(ferrors.WorkspaceNotFound, "no engine directory found")
	if got := PresentError("", typed); got != "no engine directory found" {
		t.Errorf("PresentError(typed) = %q", got)
	}
}
