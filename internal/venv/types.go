// pattern: Functional Core

package venv

// MarkerFile is the file whose presence makes a directory an environment root.
const MarkerFile = "pyvenv.cfg"

// DiscoveredEnvironment is one environment found by a scan.
type DiscoveredEnvironment struct {
	ProjectName string     `json:"project_name"` // Name of the directory containing the environment
	Path        string     `json:"path"`         // The environment directory itself
	Config      *EnvConfig `json:"config,omitempty"`
}

// Progress is a heuristic scan progress report. Percent is
// Processed*100/Visited and may move backwards as new directories are
// discovered; it is not guaranteed to reach 100 before the scan completes.
type Progress struct {
	Visited   int `json:"visited"`
	Processed int `json:"processed"`
	Percent   int `json:"percent"`
}

// CreateResult describes a successful environment creation.
type CreateResult struct {
	Message     string `json:"message"`
	ProjectPath string `json:"project_path"`
	EnvPath     string `json:"env_path"`
}

// Reporter receives intermediate scan events. Implementations must not block
// for long; they are called from the scanning goroutine.
type Reporter interface {
	Progress(p Progress)
	LogLine(text string)
}

// ReporterFuncs adapts plain functions to Reporter. Nil fields are skipped.
type ReporterFuncs struct {
	OnProgress func(Progress)
	OnLogLine  func(string)
}

func (r ReporterFuncs) Progress(p Progress) {
	if r.OnProgress != nil {
		r.OnProgress(p)
	}
}

func (r ReporterFuncs) LogLine(text string) {
	if r.OnLogLine != nil {
		r.OnLogLine(text)
	}
}

func percent(processed, visited int) int {
	if visited <= 0 {
		return 0
	}
	p := processed * 100 / visited
	return max(0, min(100, p))
}
