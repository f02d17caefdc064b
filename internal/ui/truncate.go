package ui

import (
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// TruncateLine cuts a possibly-styled line to the given display width,
// preserving ANSI escape sequences and appending the tail when content
// was removed.
func TruncateLine(line string, width int, tail string) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(line) <= width {
		return line
	}
	return ansi.Truncate(line, width, tail)
}

// PadRight pads a plain string to the given display width.
func PadRight(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	padded := make([]byte, 0, len(s)+gap)
	padded = append(padded, s...)
	for i := 0; i < gap; i++ {
		padded = append(padded, ' ')
	}
	return string(padded)
}

// DisplayWidth measures the terminal cell width of a styled string.
func DisplayWidth(s string) int {
	return ansi.StringWidth(s)
}
