package venv

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDepth is returned for a negative recursion bound.
var ErrInvalidDepth = errors.New("max depth must not be negative")

// InvalidPathError reports a root or parent folder that is missing or is not
// a directory.
type InvalidPathError struct {
	Path   string
	Reason string
	Err    error
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

func (e *InvalidPathError) Unwrap() error { return e.Err }

// AccessDeniedError reports a directory the scan could not read. It is never
// returned from Find; scans log it and move on.
type AccessDeniedError struct {
	Path string
	Err  error
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("cannot access %s: %v", e.Path, e.Err)
}

func (e *AccessDeniedError) Unwrap() error { return e.Err }

// InvalidNameError reports an unusable project name.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid project name %q: %s", e.Name, e.Reason)
}

// ExternalProcessError reports a tool that failed to launch, exited non-zero,
// or was stopped by a timeout. Stderr holds the tool's diagnostics verbatim.
type ExternalProcessError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalProcessError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return fmt.Sprintf("%s failed: %s", e.Command, msg)
	}
	return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
}

func (e *ExternalProcessError) Unwrap() error { return e.Err }
