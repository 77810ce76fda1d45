// Package util provides small string helpers shared by the CLI and sinks.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "..."

// Truncate shortens s to at most maxLen runes, ending in "..." when cut.
// It ignores ANSI escape codes; use TruncateWidth for styled text.
func Truncate(s string, maxLen int) string {
	if maxLen <= len(ellipsis) {
		return ellipsis
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-len(ellipsis)]) + ellipsis
}

// TruncateWidth shortens s to maxWidth terminal columns, keeping escape
// sequences intact. A non-positive maxWidth disables truncation.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 || lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth <= len(ellipsis) {
		return ellipsis
	}
	return ansi.Truncate(s, maxWidth, ellipsis)
}
