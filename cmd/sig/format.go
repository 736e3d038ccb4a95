package main

import (
	"os"

	"golang.org/x/term"
)

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// titleWidth sizes a free-text table column to the terminal, leaving room
// for the fixed columns beside it. Falls back to 40 when stdout is not a
// terminal or the terminal is too narrow to matter.
func titleWidth() int {
	const fixed = 70
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w-fixed > 40 {
		return w - fixed
	}
	return 40
}
