// pattern: Imperative Shell
package cli

import (
	"context"
	"fmt"
	"io"

	"venvscout/internal/logging"
)

// StreamEntries writes log entries at or above threshold to w, one per line,
// until entries is closed or ctx ends. It backs the --verbose flag.
func StreamEntries(ctx context.Context, entries <-chan logging.LogEntry, w io.Writer, threshold string, styles *Styles) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if !entry.AtLeast(threshold) {
				continue
			}
			line := entry.String()
			switch entry.Level {
			case "ERROR":
				line = styles.ErrorStyle().Render(line)
			case "WARN":
				line = styles.WarnStyle().Render(line)
			default:
				line = styles.MutedStyle().Render(line)
			}
			fmt.Fprintln(w, line)
		}
	}
}
