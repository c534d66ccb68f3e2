// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"finbridge/cli/internal/bridge"
	"finbridge/cli/internal/bridge/model"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	chatFile  string
	chatChart bool

	// jsonOutput prints one-shot responses as JSON documents.
	jsonOutput bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask the analysis engine a question",
	Long: `Send a question to the analysis engine and print its answer.

With no message, chat starts an interactive session. Inside a session:
  /load <file>     load a data file
  /chart <text>    ask for a chart
  /charts          list generated charts
  /summary         summarize the loaded data
  /exit            leave the session`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		var fd *model.FileDescriptor
		if chatFile != "" {
			d := model.NewFileDescriptor(chatFile)
			fd = &d
		}

		if len(args) > 0 {
			resp := ask(ctx, a.bridge, strings.Join(args, " "), fd, chatChart)
			if err := writeResponse(os.Stdout, resp, jsonOutput); err != nil {
				return err
			}
			if !resp.OK() {
				return errors.New("request failed")
			}
			return nil
		}
		return chatLoop(ctx, a.bridge, fd)
	},
}

func ask(ctx context.Context, b *bridge.Bridge, message string, fd *model.FileDescriptor, chart bool) model.Response {
	if chart {
		return await(ctx, b, "drawing chart", func(ctx context.Context) model.Response {
			return b.GenerateChart(ctx, message, fd)
		})
	}
	return await(ctx, b, "thinking", func(ctx context.Context) model.Response {
		return b.ProcessChatMessage(ctx, message, fd)
	})
}

func chatLoop(ctx context.Context, b *bridge.Bridge, fd *model.FileDescriptor) error {
	pterm.DefaultBasicText.Println(pterm.Gray("finbridge chat. Type /exit to leave."))
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Print(pterm.Cyan("› "))
		if !in.Scan() {
			fmt.Println()
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}

		cmdName, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		var resp model.Response
		switch cmdName {
		case "/exit", "/quit":
			return nil
		case "/charts":
			if err := printCharts(b); err != nil {
				pterm.Error.Println(err)
			}
			continue
		case "/summary":
			resp = summarize(ctx, b, fd)
		case "/load":
			if rest == "" {
				pterm.Warning.Println("usage: /load <file>")
				continue
			}
			resp = await(ctx, b, "loading "+rest, func(ctx context.Context) model.Response {
				return b.LoadDataFile(ctx, rest)
			})
		case "/chart":
			if rest == "" {
				pterm.Warning.Println("usage: /chart <description>")
				continue
			}
			resp = ask(ctx, b, rest, fd, true)
		default:
			resp = ask(ctx, b, line, fd, false)
		}
		renderResponse(os.Stdout, resp)
		fmt.Println()
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatFile, "file", "f", "", "Data file the question refers to")
	chatCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the response document as JSON (with a message argument)")
	chatCmd.Flags().BoolVar(&chatChart, "chart", false, "Ask for a chart instead of a text answer")
}
