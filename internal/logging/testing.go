// pattern: Imperative Shell

package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestLogManager is a LoggerProvider for tests. It logs at debug level to a
// channel only.
type TestLogManager struct {
	sink  *ChannelSink
	base  *zap.Logger
	cache scopeCache
}

// NewTestLogManager creates a TestLogManager with the given buffer size.
func NewTestLogManager(bufferSize int) *TestLogManager {
	sink := NewChannelSink(bufferSize)
	return &TestLogManager{
		sink: sink,
		base: zap.New(zapcore.NewCore(jsonEncoder(), sink, zapcore.DebugLevel)),
	}
}

// For returns the cached logger for scope.
func (m *TestLogManager) For(scope string) *ScopedLogger {
	return m.cache.get(scope, func() *ScopedLogger {
		return newScoped(m.base.Named(scope), zapcore.DebugLevel, scope)
	})
}

// Channel returns the entries logged so far and from now on.
func (m *TestLogManager) Channel() <-chan LogEntry {
	return m.sink.Entries()
}

// Drain returns every entry currently buffered without blocking.
func (m *TestLogManager) Drain() []LogEntry {
	var out []LogEntry
	for {
		select {
		case e, ok := <-m.sink.Entries():
			if !ok {
				return out
			}
			out = append(out, e)
		default:
			return out
		}
	}
}

// Close closes the entry channel.
func (m *TestLogManager) Close() error {
	return m.sink.Close()
}
