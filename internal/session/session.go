// pattern: Imperative Shell

package session

import (
	"context"
	"sync"

	"venvscout/internal/events"
	"venvscout/internal/logging"
	"venvscout/internal/venv"
)

// DefaultBuffer is the event buffer size of each task.
const DefaultBuffer = 256

// Session runs Finder and Creator work off the caller's goroutine. At most
// one scan is active: starting a scan cancels the previous one and waits for
// it to stop before the new one begins.
type Session struct {
	finder  *venv.Finder
	creator *venv.Creator
	logger  *logging.ScopedLogger
	buffer  int

	mu     sync.Mutex
	nextID int
	scan   *ScanTask
}

// New creates a Session. creator may be nil when only scanning is needed.
func New(finder *venv.Finder, creator *venv.Creator, logger *logging.ScopedLogger) *Session {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Session{finder: finder, creator: creator, logger: logger, buffer: DefaultBuffer}
}

// StartScan begins scanning root in the background and returns at once.
func (s *Session) StartScan(ctx context.Context, root string, maxDepth int) *ScanTask {
	s.mu.Lock()
	s.nextID++
	task := newTask[[]venv.DiscoveredEnvironment](ctx, s.nextID, s.buffer)
	prev := s.scan
	s.scan = task
	s.mu.Unlock()

	log := s.logger.With("task", task.id, "root", root)
	go func() {
		if prev != nil {
			prev.Cancel()
			<-prev.Done()
			log.Debug("previous scan stopped", "previous", prev.id)
		}

		rep := venv.ReporterFuncs{
			OnProgress: func(p venv.Progress) {
				task.emit(events.ScanProgressMsg{TaskID: task.id, Progress: p})
			},
			OnLogLine: func(text string) {
				task.emit(events.LogLineMsg{TaskID: task.id, Text: text})
			},
		}

		log.Info("scan task started", "max_depth", maxDepth)
		envs, err := s.finder.Find(task.ctx, root, maxDepth, rep)
		if err != nil {
			log.Info("scan task ended", "error", err)
			envs = nil
		} else {
			log.Info("scan task finished", "found", len(envs), "dropped_events", task.Dropped())
		}
		task.finish(envs, err, events.ScanCompleteMsg{
			TaskID:       task.id,
			Root:         root,
			Environments: envs,
			Err:          err,
		})

		s.mu.Lock()
		if s.scan == task {
			s.scan = nil
		}
		s.mu.Unlock()
	}()
	return task
}

// StartCreate begins creating parent/name in the background. Creations run
// independently of scans and of each other.
func (s *Session) StartCreate(ctx context.Context, parent, name string) *CreateTask {
	s.mu.Lock()
	s.nextID++
	task := newTask[venv.CreateResult](ctx, s.nextID, s.buffer)
	s.mu.Unlock()

	log := s.logger.With("task", task.id, "parent", parent, "name", name)
	go func() {
		task.emit(events.LogLineMsg{TaskID: task.id, Text: "creating virtual environment in " + parent})
		log.Info("create task started")

		res, err := s.creator.Create(task.ctx, parent, name)
		msg := events.CreateCompleteMsg{TaskID: task.id, Message: res.Message, ProjectPath: res.ProjectPath}
		if err != nil {
			msg.Message = "creating virtual environment failed: " + err.Error()
			msg.ProjectPath = ""
			msg.Err = err
			log.Warn("create task failed", "error", err)
		} else {
			log.Info("create task finished", "project", res.ProjectPath)
		}
		task.finish(res, err, msg)
	}()
	return task
}

// ActiveScan returns the current scan task, or nil.
func (s *Session) ActiveScan() *ScanTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan
}

// Close cancels the active scan and waits for it to stop.
func (s *Session) Close() {
	if task := s.ActiveScan(); task != nil {
		task.Cancel()
		<-task.Done()
	}
}
