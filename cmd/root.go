// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the finbridge command-line interface. Every command that
// talks to the analysis engine goes through the file-exchange bridge: it opens the
// workspace, sends one request per worker run and renders the response with pterm.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"finbridge/cli/internal/config"
	"finbridge/cli/internal/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	showVersion bool
	verbose     bool
	rootDir     string

	cfg       config.Config
	logger    = zerolog.Nop()
	closeLogs = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:           "finbridge",
	Short:         "Ask the financial analysis engine questions about your data",
	Long:          `finbridge hands questions, data files and chart requests to the local analysis engine and shows its answers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			os.Setenv(logging.VerboseEnv, "1")
		}
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if rootDir != "" {
			c.Workspace.Root = rootDir
		}
		cfg = c
		logger, closeLogs = logging.Setup(logging.IsVerbose(), cfg.LogLevel)
		logger.Debug().Str("command", cmd.CommandPath()).Msg("start")
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLogs()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !showVersion {
			return cmd.Help()
		}
		fmt.Printf("finbridge %s\n", Version)

		a, err := openApp(cmd.Context(), false)
		if err != nil {
			fmt.Printf("worker    unknown (%s)\n", logging.PresentError("", err))
			return nil
		}
		defer a.Close()
		st := a.bridge.CheckSetup(cmd.Context())
		if !st.Available {
			fmt.Printf("worker    unavailable (%s)\n", logging.Mask(st.Message))
			return nil
		}
		fmt.Printf("worker    %s\n", st.WorkerVersionInfo)
		return nil
	},
}

// Execute runs the CLI. An interrupt cancels the running command, which stops any
// worker process it started.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		closeLogs()
		fmt.Fprintln(os.Stderr, logging.PresentError("", err))
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI and worker version information")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Workspace root (skips discovery; also "+config.EnvRoot+")")
}
