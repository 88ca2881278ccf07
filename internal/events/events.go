// Package events contains the messages a running task delivers to its caller.
package events

import "venvscout/internal/venv"

// ScanProgressMsg carries a heuristic progress report.
type ScanProgressMsg struct {
	TaskID   int
	Progress venv.Progress
}

// LogLineMsg is a human-readable diagnostic line from a task.
type LogLineMsg struct {
	TaskID int
	Text   string
}

// ScanCompleteMsg is the last message of a scan task. Environments is nil
// when Err is set.
type ScanCompleteMsg struct {
	TaskID       int
	Root         string
	Environments []venv.DiscoveredEnvironment
	Err          error
}

// CreateCompleteMsg is the last message of a create task. ProjectPath is
// empty when Err is set.
type CreateCompleteMsg struct {
	TaskID      int
	Message     string
	ProjectPath string
	Err         error
}
