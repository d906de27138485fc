package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides leveled logging with verbose mode support.
// Debug messages are only emitted in verbose mode.
type Logger struct {
	mu    sync.RWMutex
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
	out   zapcore.WriteSyncer
}

var (
	loggerInstance *Logger
	once           sync.Once
)

// GetLogger returns the singleton logger instance, writing to stderr.
func GetLogger() *Logger {
	once.Do(func() {
		loggerInstance = newLogger(zapcore.Lock(os.Stderr))
	})
	return loggerInstance
}

func newLogger(out zapcore.WriteSyncer) *Logger {
	l := &Logger{level: zap.NewAtomicLevelAt(zapcore.InfoLevel)}
	l.setOutput(out)
	return l
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.CallerKey = ""
	return cfg
}

func (l *Logger) setOutput(out zapcore.WriteSyncer) {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), out, l.level)
	l.out = out
	l.sugar = zap.New(core).Sugar()
}

// SetOutput redirects log output. Used by tests and by the TUI, which owns the terminal.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setOutput(zapcore.Lock(zapcore.AddSync(w)))
}

// SetVerboseMode sets the verbose mode globally.
func SetVerboseMode(verbose bool) {
	GetLogger().SetVerbose(verbose)
}

// SetVerbose toggles debug output for this logger instance.
func (l *Logger) SetVerbose(verbose bool) {
	if verbose {
		l.level.SetLevel(zapcore.DebugLevel)
		return
	}
	l.level.SetLevel(zapcore.InfoLevel)
}

// IsVerbose returns whether verbose mode is enabled.
func (l *Logger) IsVerbose() bool {
	return l.level.Enabled(zapcore.DebugLevel)
}

func (l *Logger) logger() *zap.SugaredLogger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sugar
}

// formatMessage formats a message with optional printf-style arguments.
func formatMessage(msgOrFormat string, args ...interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(msgOrFormat, args...)
	}
	return msgOrFormat
}

// Debug logs a debug message (only shown when verbose=true).
func (l *Logger) Debug(msgOrFormat string, args ...interface{}) {
	l.logger().Debug(formatMessage(msgOrFormat, args...))
}

// Info logs an info message.
func (l *Logger) Info(msgOrFormat string, args ...interface{}) {
	l.logger().Info(formatMessage(msgOrFormat, args...))
}

// Warn logs a warning message.
func (l *Logger) Warn(msgOrFormat string, args ...interface{}) {
	l.logger().Warn(formatMessage(msgOrFormat, args...))
}

// Error logs an error message.
func (l *Logger) Error(msgOrFormat string, args ...interface{}) {
	l.logger().Error(formatMessage(msgOrFormat, args...))
}

// With returns a sugared logger carrying structured fields, e.g. With("key", key).
func (l *Logger) With(keysAndValues ...interface{}) *zap.SugaredLogger {
	return l.logger().With(keysAndValues...)
}

// Sync flushes buffered output.
func (l *Logger) Sync() {
	_ = l.logger().Sync()
}

// Debugf is a convenience function that logs a debug message using the global logger.
func Debugf(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

// Infof is a convenience function that logs an info message using the global logger.
func Infof(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

// Warnf is a convenience function that logs a warning message using the global logger.
func Warnf(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

// Errorf is a convenience function that logs an error message using the global logger.
func Errorf(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}

// LogToFile redirects the global logger to an append-only file and returns it for closing.
// On failure the logger keeps its current output.
func LogToFile(path string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	GetLogger().SetOutput(f)
	return f, nil
}
