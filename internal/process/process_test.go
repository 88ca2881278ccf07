package process

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"venvscout/internal/logging"
)

func testRunner(t *testing.T) (*Runner, *logging.TestLogManager) {
	t.Helper()
	lm := logging.NewTestLogManager(100)
	t.Cleanup(func() { _ = lm.Close() })
	return NewRunner(lm.For("process")), lm
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX sh")
	}
}

func TestRunner_Success(t *testing.T) {
	skipOnWindows(t)
	r, lm := testRunner(t)

	res, err := r.Run(context.Background(), Command{
		Name:   "echo",
		Binary: "sh",
		Args:   []string{"-c", "echo hello; echo warn >&2"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if res.Stdout != "hello\n" {
		t.Errorf("Stdout = %q", res.Stdout)
	}
	if res.Stderr != "warn\n" {
		t.Errorf("Stderr = %q", res.Stderr)
	}

	var sawLine bool
	for _, e := range lm.Drain() {
		if e.Message == "hello" && e.Fields["stream"] == "stdout" {
			sawLine = true
		}
	}
	if !sawLine {
		t.Error("stdout line was not logged")
	}
}

func TestRunner_RunsInDir(t *testing.T) {
	skipOnWindows(t)
	r, _ := testRunner(t)
	dir := t.TempDir()

	res, err := r.Run(context.Background(), Command{Name: "pwd", Binary: "pwd", Dir: dir})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got, _ := filepath.EvalSymlinks(strings.TrimSpace(res.Stdout))
	want, _ := filepath.EvalSymlinks(dir)
	if got != want {
		t.Errorf("pwd = %q, want %q", got, want)
	}
}

func TestRunner_PassesEnv(t *testing.T) {
	skipOnWindows(t)
	r, _ := testRunner(t)

	res, err := r.Run(context.Background(), Command{
		Name:   "env",
		Binary: "sh",
		Args:   []string{"-c", `printf %s "$VENVSCOUT_TEST"`},
		Env:    []string{"VENVSCOUT_TEST=yes"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "yes" {
		t.Errorf("Stdout = %q, want yes", res.Stdout)
	}
}

func TestRunner_NonZeroExit(t *testing.T) {
	skipOnWindows(t)
	r, _ := testRunner(t)

	res, err := r.Run(context.Background(), Command{
		Name:   "fail",
		Binary: "sh",
		Args:   []string{"-c", "echo 'Error: boom' >&2; exit 3"},
	})
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *exec.ExitError, got %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if res.Stderr != "Error: boom\n" {
		t.Errorf("Stderr = %q", res.Stderr)
	}
}

func TestRunner_LaunchFailure(t *testing.T) {
	r, _ := testRunner(t)

	res, err := r.Run(context.Background(), Command{
		Name:   "missing",
		Binary: "venvscout-definitely-not-installed",
	})
	if err == nil {
		t.Fatal("expected launch error")
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", res.ExitCode)
	}
}

func TestRunner_Timeout(t *testing.T) {
	skipOnWindows(t)
	r, _ := testRunner(t)

	start := time.Now()
	_, err := r.Run(context.Background(), Command{
		Name:    "sleeper",
		Binary:  "sleep",
		Args:    []string{"30"},
		Timeout: 100 * time.Millisecond,
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Error("timeout did not stop the process promptly")
	}
}

func TestCommand_String(t *testing.T) {
	c := Command{Binary: "python3", Args: []string{"-m", "venv", "myenv"}}
	if got := c.String(); got != "python3 -m venv myenv" {
		t.Errorf("String() = %q", got)
	}
}

func TestLineWriter_CapsCapture(t *testing.T) {
	w := newLineWriter(logging.NopLogger(), "big", "stdout")
	chunk := strings.Repeat("x", 1024) + "\n"
	for i := 0; i < 100; i++ {
		_, _ = w.Write([]byte(chunk))
	}
	if got := len(w.String()); got != maxCapture {
		t.Errorf("captured %d bytes, want %d", got, maxCapture)
	}
}
