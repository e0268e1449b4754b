// Package logging provides structured logging with secret redaction for portalpass.
package logging

import (
	"context"
	"io"
	"maps"
	"os"
	"slices"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity level of a log entry.
type LogLevel string

// Log severity levels.
const (
	// LevelDebug enables debug-level logging.
	LevelDebug LogLevel = "debug"
	// LevelInfo enables info-level logging.
	LevelInfo LogLevel = "info"
	// LevelWarn enables warn-level logging.
	LevelWarn LogLevel = "warn"
	// LevelError enables error-level logging.
	LevelError LogLevel = "error"
)

// LogFormat represents the output format for log entries.
type LogFormat string

// Log output formats.
const (
	// FormatJSON outputs logs as JSON.
	FormatJSON LogFormat = "json"
	// FormatHuman outputs logs in human-readable console format.
	FormatHuman LogFormat = "human"
)

// fieldsKey nests caller-supplied fields under one JSON object.
const fieldsKey = "fields"

// Logger provides structured logging with secret redaction on top of zap.
type Logger struct {
	level    LogLevel
	format   LogFormat
	redactor *Redactor

	mu   sync.RWMutex
	base *zap.Logger
}

// New creates a new Logger writing to stdout, with errors going to stderr.
func New(level LogLevel, format LogFormat) *Logger {
	l := &Logger{
		level:    level,
		format:   format,
		redactor: NewRedactor(),
	}
	l.base = l.build(os.Stdout, os.Stderr)
	return l
}

// NewNop creates a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{
		level:    LevelError,
		format:   FormatJSON,
		redactor: NewRedactor(),
		base:     zap.NewNop(),
	}
}

// ParseLevel converts a config string to a LogLevel, defaulting to info.
func ParseLevel(level string) LogLevel {
	switch LogLevel(level) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return LogLevel(level)
	default:
		return LevelInfo
	}
}

// ParseFormat converts a config string to a LogFormat, defaulting to human.
func ParseFormat(format string) LogFormat {
	if LogFormat(format) == FormatJSON {
		return FormatJSON
	}
	return FormatHuman
}

// RedactKeys adds field names whose values are replaced before logging.
// It must be called before the logger is shared between goroutines.
func (l *Logger) RedactKeys(keys ...string) {
	for _, key := range keys {
		l.redactor.AddSensitiveKey(key)
	}
}

// SetOutput sets custom output writers for testing.
func (l *Logger) SetOutput(stdout, stderr io.Writer) {
	base := l.build(stdout, stderr)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.base = base
}

// build assembles a zap logger that sends error entries to stderr and
// everything below error to stdout.
func (l *Logger) build(stdout, stderr io.Writer) *zap.Logger {
	minLevel := zapLevel(l.level)

	low := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= minLevel && lvl < zapcore.ErrorLevel
	})
	high := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= minLevel && lvl >= zapcore.ErrorLevel
	})

	encoder := l.encoder()
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(stdout), low),
		zapcore.NewCore(encoder.Clone(), zapcore.AddSync(stderr), high),
	)

	return zap.New(core)
}

func (l *Logger) encoder() zapcore.Encoder {
	if l.format == FormatJSON {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "timestamp"
		cfg.MessageKey = "message"
		cfg.EncodeTime = zapcore.RFC3339TimeEncoder
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func zapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Debug logs a debug-level message.
func (l *Logger) Debug(msg string, fields ...map[string]any) {
	l.log(zapcore.DebugLevel, msg, mergeFields(fields...))
}

// DebugContext logs a debug-level message with context.
func (l *Logger) DebugContext(_ context.Context, msg string, fields ...map[string]any) {
	l.log(zapcore.DebugLevel, msg, mergeFields(fields...))
}

// Info logs an info-level message.
func (l *Logger) Info(msg string, fields ...map[string]any) {
	l.log(zapcore.InfoLevel, msg, mergeFields(fields...))
}

// InfoContext logs an info-level message with context.
func (l *Logger) InfoContext(_ context.Context, msg string, fields ...map[string]any) {
	l.log(zapcore.InfoLevel, msg, mergeFields(fields...))
}

// Warn logs a warn-level message.
func (l *Logger) Warn(msg string, fields ...map[string]any) {
	l.log(zapcore.WarnLevel, msg, mergeFields(fields...))
}

// Error logs an error-level message.
func (l *Logger) Error(msg string, fields ...map[string]any) {
	l.log(zapcore.ErrorLevel, msg, mergeFields(fields...))
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.base.Sync()
}

func (l *Logger) log(level zapcore.Level, msg string, fields map[string]any) {
	l.mu.RLock()
	base := l.base
	l.mu.RUnlock()

	ce := base.Check(level, msg)
	if ce == nil {
		return
	}

	ce.Write(l.zapFields(fields)...)
}

// zapFields redacts fields and converts them in key order.
func (l *Logger) zapFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	redacted := l.redactor.RedactFields(fields)
	keys := make([]string, 0, len(redacted))
	for k := range redacted {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]zap.Field, 0, len(keys)+1)
	out = append(out, zap.Namespace(fieldsKey))
	for _, k := range keys {
		if err, ok := redacted[k].(error); ok {
			out = append(out, zap.String(k, err.Error()))
			continue
		}
		out = append(out, zap.Any(k, redacted[k]))
	}

	return out
}

// mergeFields merges multiple field maps into one.
func mergeFields(fields ...map[string]any) map[string]any {
	if len(fields) == 0 {
		return nil
	}

	merged := make(map[string]any)
	for _, f := range fields {
		maps.Copy(merged, f)
	}

	return merged
}

// WithFields creates a new logger with additional fields.
func (l *Logger) WithFields(fields map[string]any) *ContextLogger {
	return &ContextLogger{
		logger: l,
		fields: fields,
	}
}

// ContextLogger wraps a Logger with context-specific fields.
type ContextLogger struct {
	logger *Logger
	fields map[string]any
}

// Debug logs a debug-level message with context fields.
func (cl *ContextLogger) Debug(msg string, fields ...map[string]any) {
	cl.logger.Debug(msg, cl.merge(fields))
}

// Info logs an info-level message with context fields.
func (cl *ContextLogger) Info(msg string, fields ...map[string]any) {
	cl.logger.Info(msg, cl.merge(fields))
}

// Warn logs a warn-level message with context fields.
func (cl *ContextLogger) Warn(msg string, fields ...map[string]any) {
	cl.logger.Warn(msg, cl.merge(fields))
}

// Error logs an error-level message with context fields.
func (cl *ContextLogger) Error(msg string, fields ...map[string]any) {
	cl.logger.Error(msg, cl.merge(fields))
}

func (cl *ContextLogger) merge(fields []map[string]any) map[string]any {
	return mergeFields(append([]map[string]any{cl.fields}, fields...)...)
}
