// pattern: Imperative Shell

package venv

import (
	"context"
	"path/filepath"

	"venvscout/internal/process"
)

// Opener shows a location in the file manager or an editor.
type Opener struct {
	runner      *process.Runner
	fileManager string
	editor      string
}

// NewOpener creates an Opener using the given executables.
func NewOpener(runner *process.Runner, fileManager, editor string) *Opener {
	return &Opener{runner: runner, fileManager: fileManager, editor: editor}
}

// Explorer opens the directory containing path in the file manager and
// returns the directory it opened.
func (o *Opener) Explorer(ctx context.Context, path string) (string, error) {
	return o.open(ctx, "explorer", o.fileManager, path)
}

// Editor opens the directory containing path in the editor and returns the
// directory it opened.
func (o *Opener) Editor(ctx context.Context, path string) (string, error) {
	return o.open(ctx, "editor", o.editor, path)
}

func (o *Opener) open(ctx context.Context, name, binary, path string) (string, error) {
	target := ParentDir(path)
	cmd := process.Command{Name: name, Binary: binary, Args: []string{target}}

	res, err := o.runner.Run(ctx, cmd)
	// Windows Explorer exits 1 even when the window opened.
	if err != nil && binary == "explorer" && res.ExitCode == 1 {
		err = nil
	}
	if err != nil {
		return target, &ExternalProcessError{Command: cmd.String(), ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}
	return target, nil
}

// ParentDir returns the symlink-resolved parent directory of path. When
// resolution fails the absolute, unresolved parent is returned.
func ParentDir(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	parent := filepath.Dir(abs)
	if resolved, err := filepath.EvalSymlinks(parent); err == nil {
		return resolved
	}
	return parent
}
