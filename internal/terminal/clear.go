// Package terminal provides small helpers for raw terminal output.
package terminal

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/term"
)

const defaultWidth = 80

// Width returns the width of stdout in columns, or 80 when stdout is not a terminal.
func Width() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return defaultWidth
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// LinesFor returns how many terminal rows text of textLength characters occupies
// at the given width.
func LinesFor(textLength, width int) int {
	if width <= 0 {
		width = defaultWidth
	}
	lines := int(math.Ceil(float64(textLength) / float64(width)))
	if lines < 1 {
		return 1
	}
	return lines
}

// ClearPreviousLines erases text the user just typed, such as a secret entered
// at a prompt. textLength is the prompt plus the input. One extra line is
// cleared for the newline produced by Enter.
func ClearPreviousLines(textLength int) {
	linesToClear := LinesFor(textLength, Width()) + 1

	for i := 0; i < linesToClear; i++ {
		fmt.Print("\r\x1b[2K")
		if i < linesToClear-1 {
			fmt.Print("\x1b[1A")
		}
	}
}
