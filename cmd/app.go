// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"finbridge/cli/internal/bridge"
	"finbridge/cli/internal/dsn"
	"finbridge/cli/internal/history"
	"finbridge/cli/internal/keychain"
	"finbridge/cli/internal/workspace"
)

const (
	envAPIKey     = "ANTHROPIC_API_KEY"
	envHistoryDSN = "FINBRIDGE_HISTORY_DSN"
)

// app bundles what a command needs to talk to the worker.
type app struct {
	bridge  *bridge.Bridge
	history *history.Store
}

// openApp resolves the workspace and builds the bridge. With withHistory set
// the exchange journal is attached when a DSN is configured; a journal that
// cannot be reached is logged and skipped.
func openApp(ctx context.Context, withHistory bool) (*app, error) {
	ws, err := openWorkspace()
	if err != nil {
		return nil, err
	}

	opts := bridge.Options{
		EntryScript:    cfg.Worker.EntryScript,
		SelfTestScript: cfg.Worker.SelfTestScript,
		Interpreters:   cfg.Worker.Interpreters,
		Timeout:        cfg.Timeout(),
		Logger:         logger,
	}
	if key := workerAPIKey(); key != "" {
		opts.Env = append(opts.Env, envAPIKey+"="+key)
	}

	a := &app{}
	if withHistory {
		if journal := historyDSN(); journal != "" {
			hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			store, err := history.Open(hctx, journal, history.Options{Logger: logger})
			cancel()
			if err != nil {
				logger.Warn().Err(err).Msg("history disabled")
			} else {
				a.history = store
				opts.Recorder = store
			}
		}
	}
	a.bridge = bridge.New(ws, opts)
	logger.Debug().Str("root", ws.Root).Bool("history", a.history != nil).Msg("bridge ready")
	return a, nil
}

func (a *app) Close() {
	if a.history != nil {
		a.history.Close()
	}
}

func openWorkspace() (workspace.Workspace, error) {
	if cfg.Workspace.Root != "" {
		return workspace.Open(cfg.Workspace.Root, cfg.Layout())
	}
	return workspace.Discover(cfg.Layout())
}

// workerAPIKey returns the key to hand to the worker. An exported
// ANTHROPIC_API_KEY is inherited by the worker already, so only a
// keychain-stored key needs passing explicitly.
func workerAPIKey() string {
	if strings.TrimSpace(os.Getenv(envAPIKey)) != "" {
		return ""
	}
	km, err := keychain.GetManager(logger)
	if err != nil {
		logger.Debug().Err(err).Msg("keychain unavailable")
		return ""
	}
	key, err := km.LoadAPIKey()
	if err != nil && !errors.Is(err, keychain.ErrNotFound) {
		logger.Debug().Err(err).Msg("load api key")
	}
	return key
}

// historyDSN returns the configured journal DSN. URL-form values are
// normalized; libpq key=value strings are passed through unchanged.
func historyDSN() string {
	if raw := strings.TrimSpace(os.Getenv(envHistoryDSN)); raw != "" {
		if norm, err := dsn.Normalize(raw); err == nil {
			return norm
		}
		return raw
	}
	km, err := keychain.GetManager(logger)
	if err != nil {
		return ""
	}
	stored, _ := km.LoadHistoryDSN()
	return stored
}
