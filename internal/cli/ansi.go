// pattern: Functional Core
package cli

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// StripANSI removes ANSI escape sequences from the given string.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// TruncatePath shortens s to at most width cells, marking the cut with an
// ellipsis. A width below 1 leaves s unchanged.
func TruncatePath(s string, width int) string {
	if width < 1 || ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// indent prefixes every non-empty line of s.
func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
