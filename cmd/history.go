// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finbridge/cli/internal/bridge/model"
	"finbridge/cli/internal/history"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var historyLimit int

var errNoHistory = errors.New("no history database configured; run 'finbridge connect' or set " + envHistoryDSN)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent questions and answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			pterm.Info.Println("No history yet.")
			return nil
		}
		return pterm.DefaultTable.WithHasHeader().WithData(historyRows(entries)).Render()
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the conversation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Clear(cmd.Context())
		if err != nil {
			return err
		}
		pterm.Success.Printf("Removed %d entries.\n", n)
		return nil
	},
}

func openHistory(ctx context.Context) (*history.Store, error) {
	dsn := historyDSN()
	if dsn == "" {
		return nil, errNoHistory
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return history.Open(ctx, dsn, history.Options{Logger: logger})
}

func historyRows(entries []history.Entry) pterm.TableData {
	rows := pterm.TableData{{"When", "Kind", "Question", "Status", "Answer", "Took"}}
	for _, e := range entries {
		status := pterm.Green(e.Status)
		if e.Status != string(model.StatusSuccess) {
			status = pterm.Red(e.Status)
		}
		question := e.Message
		if e.FileName != nil {
			question = fmt.Sprintf("%s [%s]", question, *e.FileName)
		}
		rows = append(rows, []string{
			e.CreatedAt.Local().Format("01-02 15:04"),
			e.Kind,
			ellipsize(firstLine(question), 40),
			status,
			ellipsize(firstLine(e.ResponseMessage), 50),
			e.Elapsed().Round(100 * time.Millisecond).String(),
		})
	}
	return rows
}

func ellipsize(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", history.DefaultLimit, "Number of entries to show")
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
