package cmd

import (
	"fmt"
	"strconv"

	"finbridge/cli/internal/config"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the settings in effect",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.Path()
		if err != nil {
			return err
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(configRows(cfg)).Render(); err != nil {
			return err
		}
		pterm.Println(pterm.Gray(p))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting in the config file",
	Long: `Change a setting in the config file. Environment overrides are not written back.

Keys: log_level, concurrency, workspace.root, worker.entry_script,
worker.selftest_script, worker.timeout (seconds or a duration like 90s; 0 disables).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadFile()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := config.Save(c); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		logger.Debug().Str("key", args[0]).Msg("config updated")
		pterm.Success.Printfln("%s updated", args[0])
		return nil
	},
}

func configRows(c config.Config) pterm.TableData {
	root := c.Workspace.Root
	if root == "" {
		root = "(discover)"
	}
	timeout := "unlimited"
	if d := c.Timeout(); d > 0 {
		timeout = d.String()
	}
	return pterm.TableData{
		{"Setting", "Value"},
		{"log_level", c.LogLevel},
		{"concurrency", strconv.Itoa(c.Concurrency)},
		{"workspace.root", root},
		{"worker.entry_script", c.Worker.EntryScript},
		{"worker.selftest_script", c.Worker.SelfTestScript},
		{"worker.timeout", timeout},
	}
}

func init() {
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
