// pattern: Imperative Shell

package venv

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"venvscout/internal/process"
)

// ActivationScript returns the activation script inside envPath for goos.
func ActivationScript(envPath, goos string) string {
	if goos == "windows" {
		return filepath.Join(envPath, "Scripts", "activate.bat")
	}
	return filepath.Join(envPath, "bin", "activate")
}

// BinDir returns the directory holding the environment's executables.
func BinDir(envPath, goos string) string {
	if goos == "windows" {
		return filepath.Join(envPath, "Scripts")
	}
	return filepath.Join(envPath, "bin")
}

// Activator hands activation scripts to external shells. It never changes
// the current process's environment.
type Activator struct {
	runner *process.Runner
	goos   string
	shell  string
}

// NewActivator creates an Activator for the running platform. shell is the
// interactive shell used by Shell; empty means $SHELL, then "sh".
func NewActivator(runner *process.Runner, shell string) *Activator {
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "sh"
	}
	return &Activator{runner: runner, goos: runtime.GOOS, shell: shell}
}

// Activate runs envPath's activation script in a child shell. Its effect is
// confined to that shell.
func (a *Activator) Activate(ctx context.Context, envPath string) (string, error) {
	script, err := a.script(envPath)
	if err != nil {
		return "", err
	}

	cmd := process.Command{Name: "activate"}
	if a.goos == "windows" {
		cmd.Binary, cmd.Args = "cmd", []string{"/C", script}
	} else {
		cmd.Binary, cmd.Args = "sh", []string{"-c", `. "$0"`, script}
	}

	res, err := a.runner.Run(ctx, cmd)
	if err != nil {
		return script, &ExternalProcessError{Command: cmd.String(), ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}
	return script, nil
}

// Shell starts an interactive shell with envPath active: VIRTUAL_ENV is set
// and the environment's bin directory leads PATH. It returns the shell's
// exit code.
func (a *Activator) Shell(ctx context.Context, envPath string, stdin *os.File, out io.Writer) (int, error) {
	if _, err := a.script(envPath); err != nil {
		return -1, err
	}
	abs, err := filepath.Abs(envPath)
	if err != nil {
		return -1, &InvalidPathError{Path: envPath, Reason: "cannot resolve", Err: err}
	}

	cmd := process.Command{
		Name:   "shell",
		Binary: a.shell,
		Env: []string{
			"VIRTUAL_ENV=" + abs,
			"PATH=" + BinDir(abs, a.goos) + string(os.PathListSeparator) + os.Getenv("PATH"),
		},
	}
	return a.runner.Interactive(ctx, cmd, stdin, out)
}

func (a *Activator) script(envPath string) (string, error) {
	script := ActivationScript(envPath, a.goos)
	info, err := os.Stat(script)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", &InvalidPathError{Path: script, Reason: "activation script not found", Err: err}
	case err != nil:
		return "", &InvalidPathError{Path: script, Reason: "cannot stat", Err: err}
	case info.IsDir():
		return "", &InvalidPathError{Path: script, Reason: "activation script is a directory"}
	}
	return script, nil
}
