package venv

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"venvscout/internal/logging"
)

// makeEnv creates dir (and parents) with a pyvenv.cfg inside.
func makeEnv(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	cfg := "home = /usr/bin\ninclude-system-site-packages = false\nversion = 3.12.1\n"
	if err := os.WriteFile(filepath.Join(dir, MarkerFile), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
}

func makeDir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
}

func testLogger(t *testing.T) *logging.ScopedLogger {
	t.Helper()
	lm := logging.NewTestLogManager(500)
	t.Cleanup(func() { _ = lm.Close() })
	return lm.For("test")
}

// recorder collects Reporter events.
type recorder struct {
	progress []Progress
	lines    []string
}

func (r *recorder) Progress(p Progress) { r.progress = append(r.progress, p) }
func (r *recorder) LogLine(s string)    { r.lines = append(r.lines, s) }

func (r *recorder) hasLine(s string) bool {
	for _, l := range r.lines {
		if l == s {
			return true
		}
	}
	return false
}

// writeScript writes an executable POSIX shell script and returns its path.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stand-in tools are POSIX shell scripts")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}
