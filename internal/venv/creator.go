// pattern: Imperative Shell

package venv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"venvscout/internal/instance"
	"venvscout/internal/logging"
	"venvscout/internal/process"
)

// CreatorConfig configures a Creator.
type CreatorConfig struct {
	Python  string        // Environment tool, e.g. "python3"
	EnvName string        // Directory created inside the project, e.g. "myenv"
	Timeout time.Duration // Bound on the tool run; zero waits indefinitely
	LockDir string        // Directory for per-project lock files; empty disables locking
}

// Creator makes a project directory and runs "<python> -m venv <env>" in it.
type Creator struct {
	cfg    CreatorConfig
	runner *process.Runner
	logger *logging.ScopedLogger
}

// NewCreator creates a Creator.
func NewCreator(cfg CreatorConfig, runner *process.Runner, logger *logging.ScopedLogger) *Creator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if runner == nil {
		runner = process.NewRunner(logger)
	}
	return &Creator{cfg: cfg, runner: runner, logger: logger}
}

// Create validates name, creates parent/name if needed and runs the
// environment tool there. Failures are *InvalidNameError, *InvalidPathError
// or *ExternalProcessError; a failed tool run is never retried.
func (c *Creator) Create(ctx context.Context, parent, name string) (CreateResult, error) {
	name, err := ValidateProjectName(name)
	if err != nil {
		return CreateResult{}, err
	}

	info, err := os.Stat(parent)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return CreateResult{}, &InvalidPathError{Path: parent, Reason: "does not exist", Err: err}
	case err != nil:
		return CreateResult{}, &InvalidPathError{Path: parent, Reason: "cannot stat", Err: err}
	case !info.IsDir():
		return CreateResult{}, &InvalidPathError{Path: parent, Reason: "not a directory"}
	}

	projectPath := filepath.Join(parent, name)
	if err := os.MkdirAll(projectPath, 0o755); err != nil {
		return CreateResult{}, fmt.Errorf("create project directory: %w", err)
	}

	if c.cfg.LockDir != "" {
		fl, err := instance.Acquire(ctx, c.cfg.LockDir, lockName(projectPath))
		if err != nil {
			return CreateResult{}, fmt.Errorf("lock project %s: %w", projectPath, err)
		}
		defer instance.Release(fl)
	}

	cmd := process.Command{
		Name:    "venv",
		Binary:  c.cfg.Python,
		Args:    []string{"-m", "venv", c.cfg.EnvName},
		Dir:     projectPath,
		Timeout: c.cfg.Timeout,
	}
	c.logger.Info("creating environment", "project", projectPath, "command", cmd.String())

	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		perr := &ExternalProcessError{
			Command:  cmd.String(),
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
			Err:      err,
		}
		c.logger.Error("environment creation failed", "project", projectPath, "error", perr)
		return CreateResult{}, perr
	}

	envPath := filepath.Join(projectPath, c.cfg.EnvName)
	c.logger.Info("environment created", "env", envPath)
	return CreateResult{
		Message:     "virtual environment created at " + envPath,
		ProjectPath: projectPath,
		EnvPath:     envPath,
	}, nil
}

// ValidateProjectName trims name and checks that it names a path inside the
// parent folder. It returns the trimmed name.
func ValidateProjectName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", &InvalidNameError{Name: name, Reason: "must not be empty"}
	}
	if !filepath.IsLocal(trimmed) {
		return "", &InvalidNameError{Name: name, Reason: "must stay inside the parent folder"}
	}
	return trimmed, nil
}

func lockName(projectPath string) string {
	sum := sha256.Sum256([]byte(RealPath(projectPath)))
	return "create-" + hex.EncodeToString(sum[:8])
}
