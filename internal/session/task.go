// pattern: Imperative Shell

package session

import (
	"context"
	"sync"

	"venvscout/internal/venv"
)

// Task is a background operation: a future for its result plus a stream of
// events ending with a completion message.
type Task[T any] struct {
	id     int
	ctx    context.Context
	cancel context.CancelFunc
	events chan any
	done   chan struct{}

	mu      sync.Mutex
	result  T
	err     error
	dropped int
}

// ScanTask finds environments.
type ScanTask = Task[[]venv.DiscoveredEnvironment]

// CreateTask creates one environment.
type CreateTask = Task[venv.CreateResult]

func newTask[T any](parent context.Context, id, buffer int) *Task[T] {
	ctx, cancel := context.WithCancel(parent)
	return &Task[T]{
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		// One extra slot is reserved for the completion message.
		events: make(chan any, buffer+1),
		done:   make(chan struct{}),
	}
}

// ID identifies the task within its Session.
func (t *Task[T]) ID() int { return t.id }

// Events returns the event stream. It is closed after the completion
// message, which is always delivered. Progress and log messages are dropped
// while the buffer is full, so the task never waits for a reader.
func (t *Task[T]) Events() <-chan any { return t.events }

// Done is closed when the task has finished and its result is available.
// Reading Events is not required for Done to close.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Cancel asks the task to stop at its next checkpoint.
func (t *Task[T]) Cancel() { t.cancel() }

// Wait blocks until the task finishes and returns its result.
func (t *Task[T]) Wait() (T, error) {
	<-t.done
	return t.Result()
}

// Result returns the stored result; it is only meaningful after Done.
func (t *Task[T]) Result() (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

// Dropped counts the progress and log messages lost to a full buffer.
func (t *Task[T]) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// emit delivers msg if a slot other than the reserved one is free. Only the
// task goroutine sends, so the check cannot race with another sender.
func (t *Task[T]) emit(msg any) {
	if len(t.events) < cap(t.events)-1 {
		t.events <- msg
		return
	}
	t.mu.Lock()
	t.dropped++
	t.mu.Unlock()
}

// finish stores the result, emits the completion message into the reserved
// slot and closes the task.
func (t *Task[T]) finish(result T, err error, complete any) {
	t.mu.Lock()
	t.result, t.err = result, err
	t.mu.Unlock()

	t.events <- complete
	close(t.events)
	t.cancel()
	close(t.done)
}
