// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bridge

import (
	"context"
	"fmt"
	"strings"

	"finbridge/cli/internal/bridge/model"
	"finbridge/cli/internal/logging"
)

// CheckSetup verifies the worker can be used without doing real work: both the
// entry point and the self-test script must exist, and the self-test must exit 0.
// The self-test's stdout is reported as the worker version.
func (b *Bridge) CheckSetup(ctx context.Context) (status model.SetupStatus) {
	defer func() {
		if p := recover(); p != nil {
			b.log.Error().Interface("panic", p).Msg("setup check panicked")
			status = model.SetupStatus{Available: false, Message: fmt.Sprintf("setup check failed: %v", p)}
		}
	}()

	for _, name := range []string{b.entry, b.selftest} {
		if !b.runner.Exists(name) {
			return model.SetupStatus{
				Available: false,
				Message:   fmt.Sprintf("%s not found (expected at %s)", name, b.runner.ScriptPath(name)),
			}
		}
	}

	res, err := b.runner.Run(ctx, b.selftest)
	if err != nil || res.ExitCode != 0 {
		detail := logging.Mask(res.Diagnostic())
		if detail == "" {
			detail = fmt.Sprintf("exit code %d", res.ExitCode)
		}
		b.log.Warn().Err(err).Int("exit_code", res.ExitCode).Msg("worker self-test failed")
		return model.SetupStatus{
			Available: false,
			Message:   "Worker self-test failed: " + detail,
		}
	}

	version := strings.TrimSpace(res.Output)
	b.log.Debug().Str("version", version).Msg("worker self-test passed")
	return model.SetupStatus{
		Available:         true,
		WorkerVersionInfo: version,
		Message:           "Worker environment is ready",
	}
}
