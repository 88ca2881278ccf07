// pattern: Functional Core

package logging

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// LogEntry is one parsed log record.
type LogEntry struct {
	Timestamp time.Time
	Level     string // DEBUG, INFO, WARN, ERROR
	Scope     string // e.g. "finder", "creator"
	Message   string
	Fields    map[string]any
}

// String renders the entry on one line with fields sorted by key.
func (e LogEntry) String() string {
	var sb strings.Builder
	sb.WriteString(e.Timestamp.Format("15:04:05"))
	sb.WriteString(" ")
	sb.WriteString(e.Level)
	sb.WriteString(" [")
	sb.WriteString(e.Scope)
	sb.WriteString("] ")
	sb.WriteString(e.Message)
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		fmt.Fprintf(&sb, " %s=%v", k, e.Fields[k])
	}
	return sb.String()
}

// AtLeast reports whether the entry's level is at or above threshold.
func (e LogEntry) AtLeast(threshold string) bool {
	return levelRank(e.Level) >= levelRank(ParseLevel(threshold))
}

// ParseLevel normalizes a level name to upper case, defaulting to INFO.
func ParseLevel(level string) string {
	switch strings.ToLower(level) {
	case "debug":
		return "DEBUG"
	case "warn", "warning":
		return "WARN"
	case "error", "dpanic", "panic", "fatal":
		return "ERROR"
	default:
		return "INFO"
	}
}

func levelRank(level string) int {
	switch level {
	case "DEBUG":
		return 0
	case "WARN":
		return 2
	case "ERROR":
		return 3
	default:
		return 1
	}
}
