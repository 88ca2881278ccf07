// pattern: Imperative Shell

// Package watch rescans a directory tree when it changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"venvscout/internal/logging"
	"venvscout/internal/session"
	"venvscout/internal/venv"
)

const (
	DefaultDebounce     = 300 * time.Millisecond
	DefaultPollInterval = 5 * time.Second
)

// Options tunes a Watcher. Zero durations select the defaults.
type Options struct {
	MaxDepth     int
	Debounce     time.Duration
	PollInterval time.Duration
}

// Watcher watches every directory the Finder would list under root and
// starts a fresh scan through its Session after changes settle. A polling
// safeguard catches changes that produce no events, such as on network
// mounts.
type Watcher struct {
	root    string
	opts    Options
	session *session.Session
	logger  *logging.ScopedLogger
	fsw     *fsnotify.Watcher

	// state maps every directory seen up to MaxDepth+1 to whether it is an
	// environment. Only non-environment directories are watched.
	state map[string]bool
}

// New creates a Watcher for root.
func New(root string, opts Options, sess *session.Session, logger *logging.ScopedLogger) (*Watcher, error) {
	if opts.MaxDepth < 0 {
		return nil, venv.ErrInvalidDepth
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		root:    root,
		opts:    opts,
		session: sess,
		logger:  logger.With("root", root),
		fsw:     fsw,
		state:   map[string]bool{},
	}, nil
}

// Run starts an initial scan and then rescans after every settled change,
// passing each new task to onScan. onScan runs on the watch loop and must not
// block; consume the task on another goroutine. Run returns ctx.Err() when
// ctx ends.
func (w *Watcher) Run(ctx context.Context, onScan func(*session.ScanTask)) error {
	defer func() { _ = w.fsw.Close() }()

	if _, err := w.refresh(); err != nil {
		return err
	}
	w.logger.Info("watching", "directories", w.watchedCount())
	start := func(reason string) {
		w.logger.Info("scanning", "reason", reason)
		onScan(w.session.StartScan(ctx, w.root, w.opts.MaxDepth))
	}
	start("initial")

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	debounce := time.NewTimer(w.opts.Debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if relevant(event) {
				w.logger.Debug("change", "path", event.Name, "op", event.Op.String())
				debounce.Reset(w.opts.Debounce)
			}

		case <-debounce.C:
			if _, err := w.refresh(); err != nil {
				w.logger.Warn("refresh failed", "error", err)
			}
			start("change")

		case <-ticker.C:
			// Polling safeguard: rescan if the tree changed without events
			changed, err := w.refresh()
			if err != nil {
				w.logger.Warn("refresh failed", "error", err)
				continue
			}
			if changed {
				start("poll")
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			// Transient watcher errors do not stop the loop
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// refresh re-reads the tree, syncs the watch list and reports whether
// anything differs from the previous snapshot.
func (w *Watcher) refresh() (bool, error) {
	next, err := Snapshot(w.root, w.opts.MaxDepth)
	if err != nil {
		return false, err
	}

	for dir, isEnv := range w.state {
		if isEnv {
			continue
		}
		if nowEnv, ok := next[dir]; !ok || nowEnv {
			// Removed directories drop their watch on their own.
			_ = w.fsw.Remove(dir)
		}
	}
	for dir, isEnv := range next {
		if isEnv {
			continue
		}
		if wasEnv, ok := w.state[dir]; ok && !wasEnv {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			w.logger.Debug("cannot watch", "path", dir, "error", err)
		}
	}

	changed := !maps.Equal(w.state, next)
	w.state = next
	return changed, nil
}

func (w *Watcher) watchedCount() int {
	n := 0
	for _, isEnv := range w.state {
		if !isEnv {
			n++
		}
	}
	return n
}

// Snapshot lists root and the directories below it that a scan of maxDepth
// would look at, mapped to whether each is an environment. Like the Finder it
// follows symlinked directories, skips links back to a directory on the
// current descent and does not descend into environments.
func Snapshot(root string, maxDepth int) (map[string]bool, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, &venv.InvalidPathError{Path: root, Reason: "does not exist", Err: err}
	case err != nil:
		return nil, &venv.InvalidPathError{Path: root, Reason: "cannot stat", Err: err}
	case !info.IsDir():
		return nil, &venv.InvalidPathError{Path: root, Reason: "not a directory"}
	}

	state := map[string]bool{root: false}
	snapshotDir(state, root, venv.RealPath(root), 0, maxDepth, nil)
	return state, nil
}

// snapshotDir records the subdirectories of dir, whose symlink-free location
// is real, and descends into those that are not environments.
func snapshotDir(state map[string]bool, dir, real string, depth, maxDepth int, ancestors []string) {
	if depth > maxDepth {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil && len(entries) == 0 {
		return
	}

	ancestors = append(ancestors, real)
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		childReal, ok := venv.DirectoryTarget(path, real, entry)
		if !ok {
			continue
		}
		isEnv := venv.IsEnvironment(path)
		if !isEnv && slices.Contains(ancestors, childReal) {
			continue
		}
		state[path] = isEnv
		if !isEnv {
			snapshotDir(state, path, childReal, depth+1, maxDepth, ancestors)
		}
	}
}

// relevant filters out metadata-only events.
func relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return true
	}
	return event.Has(fsnotify.Write) && filepath.Base(event.Name) == venv.MarkerFile
}
