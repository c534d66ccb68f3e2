// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"finbridge/cli/internal/bridge/codec"
	"finbridge/cli/internal/bridge/model"
	"finbridge/cli/internal/logging"

	"github.com/pterm/pterm"
)

// renderResponse prints a worker response: the answer text, any table and
// structured data, then the charts it produced. Error responses are rendered
// through the bridge error presenter.
func renderResponse(w io.Writer, resp model.Response) {
	if !resp.OK() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, logging.FormatBridgeError(resp))
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintln(w, strings.TrimRight(resp.Message, "\n"))

	if t := strings.TrimSpace(resp.TableData); t != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, pterm.DefaultBox.WithTitle("Table").Sprint(t))
	}

	if len(resp.Data) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, resp.Data, "", "  "); err == nil {
			fmt.Fprintln(w)
			fmt.Fprintln(w, pterm.NewStyle(pterm.FgGray).Sprint(buf.String()))
		}
	}

	if len(resp.Charts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Charts"))
		for _, c := range resp.Charts {
			fmt.Fprintf(w, "  • %s\n", c)
		}
	}
}

// writeResponse prints resp as its JSON document when asJSON is set and
// renders it for people otherwise. Secrets in the error detail are masked
// either way.
func writeResponse(w io.Writer, resp model.Response, asJSON bool) error {
	if !asJSON {
		renderResponse(w, resp)
		return nil
	}
	resp.Message = logging.Mask(resp.Message)
	resp.Error = logging.Mask(resp.Error)
	doc, err := codec.EncodeResponse(resp)
	if err != nil {
		return err
	}
	_, err = w.Write(doc)
	return err
}

// renderLoadSummary prints one row per loaded file.
func renderLoadSummary(w io.Writer, paths []string, resps []model.Response) {
	rows := pterm.TableData{{"File", "Result", "Message"}}
	for i, p := range paths {
		result := pterm.Green("loaded")
		msg := resps[i].Message
		if !resps[i].OK() {
			result = pterm.Red("failed")
			msg = logging.Mask(msg)
		}
		rows = append(rows, []string{filepath.Base(p), result, firstLine(msg)})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return
	}
	fmt.Fprintln(w, out)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
