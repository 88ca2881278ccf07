// pattern: Imperative Shell

package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds configuration for the Manager.
type Config struct {
	FilePath       string // Path to the rotated JSON log file
	MaxSizeMB      int    // Max size in MB before rotation
	MaxBackups     int    // Max number of rotated files to keep
	MaxAgeDays     int    // Max days to keep rotated files
	Level          string // Minimum level (debug, info, warn, error)
	ChannelBufSize int    // Buffer size of the entry channel (default 256)
}

// LoggerProvider hands out scoped loggers.
// Manager and TestLogManager both implement it.
type LoggerProvider interface {
	For(scope string) *ScopedLogger
}

// ScopedLogger is a slog facade over a named zap logger.
// The zero value and NopLogger() discard everything.
type ScopedLogger struct {
	slog  *slog.Logger
	scope string
}

func (l *ScopedLogger) Debug(msg string, args ...any) {
	if l != nil && l.slog != nil {
		l.slog.Debug(msg, args...)
	}
}

func (l *ScopedLogger) Info(msg string, args ...any) {
	if l != nil && l.slog != nil {
		l.slog.Info(msg, args...)
	}
}

func (l *ScopedLogger) Warn(msg string, args ...any) {
	if l != nil && l.slog != nil {
		l.slog.Warn(msg, args...)
	}
}

func (l *ScopedLogger) Error(msg string, args ...any) {
	if l != nil && l.slog != nil {
		l.slog.Error(msg, args...)
	}
}

// With returns a logger that adds the given key-value pairs to every entry.
func (l *ScopedLogger) With(args ...any) *ScopedLogger {
	if l == nil || l.slog == nil {
		return l
	}
	return &ScopedLogger{slog: l.slog.With(args...), scope: l.scope}
}

// Scope returns the logger's scope name.
func (l *ScopedLogger) Scope() string {
	if l == nil {
		return ""
	}
	return l.scope
}

// NopLogger returns a logger that discards all output.
func NopLogger() *ScopedLogger {
	return &ScopedLogger{}
}

// Manager writes every entry to a rotated JSON file and to an entry channel
// that the CLI drains for --verbose output.
type Manager struct {
	base       *zap.Logger
	sink       *ChannelSink
	fileWriter *lumberjack.Logger
	level      zapcore.Level
	cache      scopeCache
}

// NewManager creates a Manager from cfg, filling in rotation defaults.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("logging: FilePath is required")
	}
	if cfg.ChannelBufSize <= 0 {
		cfg.ChannelBufSize = 256
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 5
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 14
	}

	level := ParseZapLevel(cfg.Level)

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("logging: create log directory: %w", err)
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	sink := NewChannelSink(cfg.ChannelBufSize)

	enc := jsonEncoder()
	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.AddSync(fileWriter), level),
		zapcore.NewCore(enc.Clone(), sink, level),
	)

	return &Manager{
		base:       zap.New(core),
		sink:       sink,
		fileWriter: fileWriter,
		level:      level,
	}, nil
}

// For returns the cached logger for scope, creating it on first use.
func (m *Manager) For(scope string) *ScopedLogger {
	return m.cache.get(scope, func() *ScopedLogger {
		return newScoped(m.base.Named(scope), m.level, scope)
	})
}

// Entries returns the channel of parsed log entries.
func (m *Manager) Entries() <-chan LogEntry {
	return m.sink.Entries()
}

// Sync flushes buffered entries.
func (m *Manager) Sync() error {
	return m.base.Sync()
}

// Close flushes and releases the file and the entry channel.
func (m *Manager) Close() error {
	_ = m.Sync()
	_ = m.sink.Close()
	return m.fileWriter.Close()
}

// ParseZapLevel maps a config level name to a zap level, defaulting to info.
func ParseZapLevel(name string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func jsonEncoder() zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.EpochTimeEncoder
	encoderCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapcore.NewJSONEncoder(encoderCfg)
}

func newScoped(z *zap.Logger, level zapcore.Level, scope string) *ScopedLogger {
	return &ScopedLogger{
		slog:  slog.New(&zapHandler{zap: z, level: level}),
		scope: scope,
	}
}

// scopeCache memoizes scoped loggers by name.
type scopeCache struct {
	mu      sync.RWMutex
	loggers map[string]*ScopedLogger
}

func (c *scopeCache) get(scope string, build func() *ScopedLogger) *ScopedLogger {
	c.mu.RLock()
	logger, ok := c.loggers[scope]
	c.mu.RUnlock()
	if ok {
		return logger
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if logger, ok := c.loggers[scope]; ok {
		return logger
	}
	if c.loggers == nil {
		c.loggers = make(map[string]*ScopedLogger)
	}
	logger = build()
	c.loggers[scope] = logger
	return logger
}
