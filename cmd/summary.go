package cmd

import (
	"context"
	"errors"
	"os"

	"finbridge/cli/internal/bridge"
	"finbridge/cli/internal/bridge/model"

	"github.com/spf13/cobra"
)

var summaryFile string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the data loaded into the analysis engine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		var fd *model.FileDescriptor
		if summaryFile != "" {
			d := model.NewFileDescriptor(summaryFile)
			fd = &d
		}
		resp := summarize(ctx, a.bridge, fd)
		if err := writeResponse(os.Stdout, resp, jsonOutput); err != nil {
			return err
		}
		if !resp.OK() {
			return errors.New("summary failed")
		}
		return nil
	},
}

func summarize(ctx context.Context, b *bridge.Bridge, fd *model.FileDescriptor) model.Response {
	return await(ctx, b, "summarizing", func(ctx context.Context) model.Response {
		return b.Summarize(ctx, fd)
	})
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the response document as JSON")
	summaryCmd.Flags().StringVarP(&summaryFile, "file", "f", "", "Summarize this data file instead of everything loaded")
}
