//go:build e2e
// +build e2e

package e2e

import (
	"os/exec"
	"runtime"
	"testing"

	"venvscout/internal/logging"
	"venvscout/internal/process"
	"venvscout/internal/session"
	"venvscout/internal/venv"
)

// RequirePython returns a Python interpreter that has the venv module, or
// skips the test.
func RequirePython(t *testing.T) string {
	t.Helper()
	candidates := []string{"python3", "python"}
	if runtime.GOOS == "windows" {
		candidates = []string{"python", "python3"}
	}
	for _, name := range candidates {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		if err := exec.Command(path, "-m", "venv", "--help").Run(); err == nil {
			return path
		}
	}
	t.Skip("Skipping test: no Python with the venv module found in PATH")
	return ""
}

// TestLogManager creates a log manager that is closed with the test.
func TestLogManager(t *testing.T) *logging.TestLogManager {
	t.Helper()
	lm := logging.NewTestLogManager(1000)
	t.Cleanup(func() { _ = lm.Close() })
	return lm
}

// NewSession wires a Session with a real Creator for python.
func NewSession(t *testing.T, python string) (*session.Session, *process.Runner) {
	t.Helper()
	lm := TestLogManager(t)
	runner := process.NewRunner(lm.For("process"))
	creator := venv.NewCreator(venv.CreatorConfig{
		Python:  python,
		EnvName: "myenv",
		LockDir: t.TempDir(),
	}, runner, lm.For("creator"))

	s := session.New(venv.NewFinder(lm.For("finder")), creator, lm.For("session"))
	t.Cleanup(s.Close)
	return s, runner
}
