// pattern: Imperative Shell

package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"venvscout/internal/logging"
)

// maxCapture bounds how much of each output stream is kept in a Result.
const maxCapture = 64 << 10

// waitDelay is how long Wait keeps reading output after the child exits or
// is killed, in case a grandchild still holds the pipes open.
const waitDelay = 5 * time.Second

// Command describes a one-shot external program invocation.
type Command struct {
	Name    string   // Label used in log entries
	Binary  string   // Executable name or path
	Args    []string // Arguments, not including Binary
	Dir     string   // Working directory (empty = inherit)
	Env     []string // Extra KEY=VALUE pairs appended to the current environment
	Timeout time.Duration
}

// String renders the command line for messages.
func (c Command) String() string {
	return strings.TrimSpace(c.Binary + " " + strings.Join(c.Args, " "))
}

// Result is what a finished (or failed-to-start) command reported.
type Result struct {
	ExitCode int // -1 when the process never ran or was killed
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner executes external programs and mirrors their output into a logger.
type Runner struct {
	logger *logging.ScopedLogger
}

// NewRunner creates a Runner. A nil logger discards output logging.
func NewRunner(logger *logging.ScopedLogger) *Runner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Runner{logger: logger}
}

// Run starts cmd and waits for it. The returned error is nil only for a zero
// exit status; otherwise it is the launch error, an *exec.ExitError, or the
// context error when the timeout or ctx ended the run.
func (r *Runner) Run(ctx context.Context, cmd Command) (Result, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(c.Environ(), cmd.Env...)
	}
	c.WaitDelay = waitDelay

	stdout := newLineWriter(r.logger, cmd.Name, "stdout")
	stderr := newLineWriter(r.logger, cmd.Name, "stderr")
	c.Stdout = stdout
	c.Stderr = stderr

	r.logger.Info("starting process", "process", cmd.Name, "command", cmd.String(), "dir", cmd.Dir)

	start := time.Now()
	err := c.Run()
	stdout.flush()
	stderr.flush()

	res := Result{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		res.ExitCode = 0
		r.logger.Info("process exited cleanly", "process", cmd.Name, "duration", res.Duration)
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		r.logger.Warn("process stopped", "process", cmd.Name, "error", ctxErr)
		return res, fmt.Errorf("%s: %w", cmd.Name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		r.logger.Warn("process exited", "process", cmd.Name, "exit_code", res.ExitCode)
		return res, err
	}

	r.logger.Error("failed to start process", "process", cmd.Name, "error", err)
	return res, err
}

// lineWriter logs each complete line it receives and keeps a bounded copy
// of everything written.
type lineWriter struct {
	logger  *logging.ScopedLogger
	process string
	stream  string

	mu      sync.Mutex
	partial []byte
	kept    bytes.Buffer
}

func newLineWriter(logger *logging.ScopedLogger, process, stream string) *lineWriter {
	return &lineWriter{logger: logger, process: process, stream: stream}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if room := maxCapture - w.kept.Len(); room > 0 {
		w.kept.Write(p[:min(room, len(p))])
	}

	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		w.emit(w.partial[:i])
		w.partial = w.partial[i+1:]
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.partial) > 0 {
		w.emit(w.partial)
		w.partial = nil
	}
}

// emit must be called with w.mu held.
func (w *lineWriter) emit(line []byte) {
	text := strings.TrimRight(string(line), "\r")
	if text == "" {
		return
	}
	w.logger.Info(text, "stream", w.stream, "process", w.process)
}

func (w *lineWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.kept.String()
}
