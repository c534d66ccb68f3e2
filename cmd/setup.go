// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"

	"finbridge/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Check that the analysis engine is installed and working",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			pterm.Error.Println(logging.PresentError("workspace", err))
			pterm.Println(pterm.Gray("Run finbridge from inside the project, or pass --root / set FINBRIDGE_ROOT."))
			return errors.New("workspace not found")
		}
		defer a.Close()

		ws := a.bridge.Workspace()
		pterm.DefaultSection.Println("Workspace")
		_ = pterm.DefaultTable.WithData(pterm.TableData{
			{"root", ws.Root},
			{"engine", ws.EngineDir},
			{"input", ws.InputDir},
			{"output", ws.OutputDir},
		}).Render()

		spinner, _ := pterm.DefaultSpinner.Start("Running worker self-test")
		st := a.bridge.CheckSetup(cmd.Context())
		if !st.Available {
			spinner.Fail(logging.Mask(st.Message))
			return errors.New("worker environment is not ready")
		}
		spinner.Success(st.Message)
		if st.WorkerVersionInfo != "" {
			pterm.Println(pterm.Gray(st.WorkerVersionInfo))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
