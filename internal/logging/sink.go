// pattern: Imperative Shell

package logging

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

var errSinkClosed = errors.New("logging: write to closed sink")

// ChannelSink is a zapcore.WriteSyncer that parses each JSON line written by
// zap into a LogEntry and delivers it on a buffered channel. Writes never
// block: when the buffer is full the oldest entry is discarded.
type ChannelSink struct {
	mu      sync.Mutex
	entries chan LogEntry
	closed  bool
}

// NewChannelSink creates a sink with the given buffer size.
func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{entries: make(chan LogEntry, size)}
}

// Write implements io.Writer.
func (s *ChannelSink) Write(p []byte) (int, error) {
	entry, err := parseEntry(p)
	if err != nil {
		// Unparseable lines are dropped; logging must not fail the caller.
		return len(p), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errSinkClosed
	}
	s.push(entry)
	return len(p), nil
}

// push must be called with s.mu held.
func (s *ChannelSink) push(entry LogEntry) {
	select {
	case s.entries <- entry:
		return
	default:
	}
	select {
	case <-s.entries:
	default:
	}
	select {
	case s.entries <- entry:
	default:
	}
}

// Sync implements zapcore.WriteSyncer.
func (s *ChannelSink) Sync() error { return nil }

// Close closes the entry channel. Safe to call more than once.
func (s *ChannelSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.entries)
	}
	return nil
}

// Entries returns the receive side of the entry channel.
func (s *ChannelSink) Entries() <-chan LogEntry {
	return s.entries
}

func parseEntry(data []byte) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogEntry{}, err
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "INFO",
		Scope:     "app",
		Fields:    make(map[string]any),
	}
	if msg, ok := raw["msg"].(string); ok {
		entry.Message = msg
	}
	if level, ok := raw["level"].(string); ok {
		entry.Level = ParseLevel(level)
	}
	if name, ok := raw["logger"].(string); ok {
		entry.Scope = name
	}
	if ts, ok := raw["ts"].(float64); ok {
		sec := int64(ts)
		entry.Timestamp = time.Unix(sec, int64((ts-float64(sec))*1e9))
	}

	for k, v := range raw {
		switch k {
		case "msg", "level", "logger", "ts", "caller", "stacktrace":
			continue
		}
		entry.Fields[k] = v
	}
	return entry, nil
}
