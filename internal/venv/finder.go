// pattern: Imperative Shell

package venv

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"venvscout/internal/logging"
)

// Finder walks a directory tree looking for environment roots.
type Finder struct {
	logger *logging.ScopedLogger

	// ReadDetails makes Find parse each environment's pyvenv.cfg into
	// DiscoveredEnvironment.Config.
	ReadDetails bool
}

// NewFinder creates a Finder. A nil logger discards log output.
func NewFinder(logger *logging.ScopedLogger) *Finder {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Finder{logger: logger}
}

// Find scans root to maxDepth levels and returns every environment directory
// in walk order (entries sorted by name at each level). A directory holding
// MarkerFile is reported and not descended into; its siblings are still
// scanned. Unreadable directories are reported through rep and skipped.
//
// A missing or non-directory root fails with *InvalidPathError before any
// event is emitted. If ctx ends mid-scan, Find returns ctx.Err() and no
// results. rep may be nil.
func (f *Finder) Find(ctx context.Context, root string, maxDepth int, rep Reporter) ([]DiscoveredEnvironment, error) {
	if maxDepth < 0 {
		return nil, ErrInvalidDepth
	}
	info, err := os.Stat(root)
	if err != nil {
		reason := "cannot stat"
		if errors.Is(err, fs.ErrNotExist) {
			reason = "does not exist"
		}
		return nil, &InvalidPathError{Path: root, Reason: reason, Err: err}
	}
	if !info.IsDir() {
		return nil, &InvalidPathError{Path: root, Reason: "not a directory"}
	}
	if rep == nil {
		rep = ReporterFuncs{}
	}

	s := &scan{
		finder:   f,
		rep:      rep,
		maxDepth: maxDepth,
		found:    []DiscoveredEnvironment{},
	}

	s.log("scanning: " + root)
	f.logger.Info("scan started", "root", root, "max_depth", maxDepth)

	if err := s.walk(ctx, root, RealPath(root), 0, nil); err != nil {
		f.logger.Info("scan cancelled", "root", root, "visited", s.visited)
		return nil, err
	}

	f.logger.Info("scan finished", "root", root, "visited", s.visited, "found", len(s.found))
	return s.found, nil
}

// scan holds the state of one Find call.
type scan struct {
	finder   *Finder
	rep      Reporter
	maxDepth int

	visited   int
	processed int
	found     []DiscoveredEnvironment
}

// walk lists dir, whose symlink-free location is real. ancestors holds the
// real paths of every directory above dir on the current descent.
func (s *scan) walk(ctx context.Context, dir, real string, depth int, ancestors []string) error {
	if depth > s.maxDepth {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.unreadable(dir, err)
		// ReadDir returns whatever it read before failing.
		if len(entries) == 0 {
			return nil
		}
	}

	ancestors = append(ancestors, real)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(dir, entry.Name())
		childReal, ok := DirectoryTarget(path, real, entry)
		if !ok {
			continue
		}

		s.visited++
		s.log("scanning: " + path)

		switch {
		case IsEnvironment(path):
			s.record(dir, path)
		case slices.Contains(ancestors, childReal):
			s.log("skipping symlink loop: " + path)
			s.finder.logger.Warn("symlink loop skipped", "path", path, "target", childReal)
		default:
			if err := s.walk(ctx, path, childReal, depth+1, ancestors); err != nil {
				return err
			}
		}

		s.processed++
		s.rep.Progress(Progress{
			Visited:   s.visited,
			Processed: s.processed,
			Percent:   percent(s.processed, s.visited),
		})
	}
	return nil
}

func (s *scan) record(parent, path string) {
	env := DiscoveredEnvironment{
		ProjectName: projectName(parent),
		Path:        path,
	}
	if s.finder.ReadDetails {
		if cfg, err := ReadConfig(path); err == nil {
			env.Config = &cfg
		}
	}
	s.found = append(s.found, env)
	s.log("found environment: " + env.ProjectName + " (" + env.Path + ")")
	s.finder.logger.Info("environment found", "project", env.ProjectName, "path", env.Path)
}

func (s *scan) unreadable(dir string, err error) {
	if errors.Is(err, fs.ErrPermission) {
		denied := &AccessDeniedError{Path: dir, Err: err}
		s.log("cannot access: " + dir)
		s.finder.logger.Warn("directory skipped", "path", dir, "error", denied)
		return
	}
	s.log("cannot read: " + dir)
	s.finder.logger.Warn("directory unreadable", "path", dir, "error", err)
}

func (s *scan) log(text string) {
	s.rep.LogLine(text)
}

// DirectoryTarget reports whether the entry at path is a directory, following
// symlinks, and returns its symlink-free location. parentReal is the
// symlink-free location of the directory holding entry.
func DirectoryTarget(path, parentReal string, entry fs.DirEntry) (string, bool) {
	if entry.IsDir() {
		return filepath.Join(parentReal, entry.Name()), true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return RealPath(path), true
}

// IsEnvironment reports whether dir holds a regular MarkerFile.
func IsEnvironment(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, MarkerFile))
	return err == nil && info.Mode().IsRegular()
}

// projectName is the display name for environments directly inside dir.
func projectName(dir string) string {
	name := filepath.Base(dir)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		if abs, err := filepath.Abs(dir); err == nil {
			name = filepath.Base(abs)
		}
	}
	return name
}

// RealPath returns the absolute, symlink-free form of path, or the absolute
// path when resolution fails.
func RealPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
