package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"finbridge/cli/internal/bridge"
	"finbridge/cli/internal/bridge/model"
	"finbridge/cli/internal/terminal"

	"atomicgo.dev/cursor"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// startInlineSpinner animates frames followed by text on a single line until the
// returned stop function is called. The line is cleared on stop.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	text = fitWidth(text, terminal.Width()-4)
	cursor.Hide()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
				fmt.Fprintf(w, "\r%*s\r", utf8.RuneCountInString(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], text)
				i++
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
			cursor.Show()
		})
	}
}

// fitWidth cuts text to at most limit runes. A limit of zero or less leaves it whole.
func fitWidth(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}

// await runs call in the background and shows a spinner until its response
// arrives. The spinner is skipped when stderr is not a terminal.
func await(ctx context.Context, b *bridge.Bridge, label string, call func(context.Context) model.Response) model.Response {
	done := b.Go(ctx, call)
	if !terminal.IsInteractive() {
		return <-done
	}
	stop := startInlineSpinner(os.Stderr, label, spinnerFrames, 100*time.Millisecond)
	defer stop()
	return <-done
}
