// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	"finbridge/cli/internal/bridge/model"

	"github.com/pterm/pterm"
)

// FailureType represents the category of a failed bridge exchange
type FailureType int

const (
	FailureWorker FailureType = iota
	FailureScriptMissing
	FailureSpawn
	FailureTimeout
	FailureMalformed
	FailureCrash
	FailureAuth
	FailureCancelled
)

// ParseFailure categorizes an error response from its message and diagnostic
func ParseFailure(message, diagnostic string) FailureType {
	lower := strings.ToLower(message)
	detail := strings.ToLower(diagnostic)

	if strings.Contains(lower, "script not found") {
		return FailureScriptMissing
	}
	if strings.Contains(lower, "could not start worker") {
		return FailureSpawn
	}
	if strings.Contains(lower, "cancelled") {
		return FailureCancelled
	}
	if strings.Contains(lower, "exceeded") || strings.Contains(lower, "timed out") || strings.Contains(lower, "deadline") {
		return FailureTimeout
	}
	if strings.Contains(lower, "unreadable response") {
		return FailureMalformed
	}
	if strings.Contains(detail, "authentication") || strings.Contains(detail, "api key") ||
		strings.Contains(detail, "api_key") || strings.Contains(detail, "401") {
		return FailureAuth
	}
	if lower == "execution failed" {
		return FailureCrash
	}

	return FailureWorker
}

// FormatBridgeError formats an error response in a user-friendly way
func FormatBridgeError(resp model.Response) string {
	kind := ParseFailure(resp.Message, resp.Error)

	var builder strings.Builder

	// Title
	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(Mask(resp.Message)))
	builder.WriteString("\n\n")

	switch kind {
	case FailureScriptMissing:
		builder.WriteString("The analysis engine is not installed where finbridge expects it.\n")
		builder.WriteString("Check that:\n")
		builder.WriteString("  • You are running from inside the project (or set FINBRIDGE_ROOT)\n")
		builder.WriteString("  • The engine directory contains the configured entry script\n")

	case FailureSpawn:
		builder.WriteString("The worker process could not be started.\n")
		builder.WriteString("This usually means:\n")
		builder.WriteString("  • The interpreter (e.g. python3) is not installed or not on PATH\n")
		builder.WriteString("  • The entry script is not executable\n")

	case FailureTimeout:
		builder.WriteString("The analysis took longer than the configured limit and was stopped.\n")
		builder.WriteString("You can:\n")
		builder.WriteString("  • Ask a narrower question or load a smaller file\n")
		builder.WriteString("  • Raise worker.timeout_seconds in the config file\n")

	case FailureCancelled:
		builder.WriteString("The request was cancelled and the worker was stopped.\n")
		builder.WriteString("The request file was kept in shared-data/input for inspection.\n")

	case FailureMalformed:
		builder.WriteString("The worker finished but its answer could not be read.\n")
		builder.WriteString("The request and response files were kept in shared-data for inspection.\n")

	case FailureCrash:
		builder.WriteString("The worker stopped before writing an answer.\n")
		builder.WriteString("The request file was kept in shared-data/input for inspection.\n")

	case FailureAuth:
		builder.WriteString("The worker could not authenticate with the AI provider.\n")
		builder.WriteString("To fix this:\n")
		builder.WriteString("  • Run 'finbridge apikey set' to store a valid key\n")
		builder.WriteString("  • Or export ANTHROPIC_API_KEY before starting finbridge\n")

	default:
		builder.WriteString("The analysis engine reported a problem with this request.\n")
	}

	builder.WriteString("\n")

	// Action to take
	if kind == FailureScriptMissing || kind == FailureSpawn {
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Run 'finbridge setup' to check the worker environment"))
	} else {
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please try again"))
	}

	builder.WriteString("\n")

	// Technical details (optional, for debugging)
	if strings.TrimSpace(resp.Error) != "" {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(resp.Error)))
	}

	return builder.String()
}

// PresentBridgeError displays a formatted bridge error
func PresentBridgeError(resp model.Response) {
	fmt.Println()
	fmt.Println(FormatBridgeError(resp))
	fmt.Println()
}
