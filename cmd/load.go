// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"finbridge/cli/internal/bridge"
	"finbridge/cli/internal/bridge/model"
	"finbridge/cli/internal/terminal"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var loadFailFast bool

var loadCmd = &cobra.Command{
	Use:   "load <file>...",
	Short: "Load CSV, PDF or Excel files into the analysis engine",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		stop := func() {}
		if terminal.IsInteractive() {
			stop = startInlineSpinner(os.Stderr, fmt.Sprintf("loading %d file(s)", len(args)), spinnerFrames, 100*time.Millisecond)
		}
		resps, err := loadFiles(ctx, a.bridge, args, cfg.Concurrency, loadFailFast)
		stop()
		renderLoadSummary(os.Stdout, args, resps)
		if err != nil {
			return err
		}
		for _, r := range resps {
			if !r.OK() {
				return errors.New("some files could not be loaded")
			}
		}
		return nil
	},
}

// loadFiles sends one load request per path, at most limit at a time. Results
// are returned in path order. With failFast the first failed load cancels the
// ones still running and its message is returned as the error.
func loadFiles(ctx context.Context, b *bridge.Bridge, paths []string, limit int, failFast bool) ([]model.Response, error) {
	resps := make([]model.Response, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, p := range paths {
		g.Go(func() error {
			if gctx.Err() != nil {
				resps[i] = model.ErrorResponse("", "skipped", gctx.Err().Error())
				return nil
			}
			logger.Debug().Str("path", p).Msg("loading file")
			resps[i] = b.LoadDataFile(gctx, p)
			if failFast && !resps[i].OK() {
				return fmt.Errorf("%s: %s", p, resps[i].Message)
			}
			return nil
		})
	}
	return resps, g.Wait()
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().BoolVar(&loadFailFast, "fail-fast", false, "Stop remaining loads after the first failure")
}
