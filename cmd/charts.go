package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"finbridge/cli/internal/bridge"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "List chart images produced by the analysis engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()
		return printCharts(a.bridge)
	},
}

func printCharts(b *bridge.Bridge) error {
	charts, err := b.ListGeneratedCharts()
	if err != nil {
		return err
	}
	if len(charts) == 0 {
		pterm.Info.Println("No charts generated yet.")
		return nil
	}

	rows := pterm.TableData{{"Chart", "Size", "Modified"}}
	for _, c := range charts {
		size, modified := "-", "-"
		if fi, err := os.Stat(c); err == nil {
			size = fmt.Sprintf("%.1f KB", float64(fi.Size())/1024)
			modified = fi.ModTime().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{filepath.Base(c), size, modified})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		return err
	}
	pterm.Println(pterm.Gray(b.Workspace().OutputDir))
	return nil
}

func init() {
	rootCmd.AddCommand(chartsCmd)
}
