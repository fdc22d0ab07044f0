// Package logging provides structured logging for all soundalike components.
// It exposes a small Logger interface so packages never depend on a concrete
// logging backend; the default implementation is backed by zap.
package logging

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields represents structured log fields
type Fields map[string]any

// Logger is the logging interface used throughout the application
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)
	WithFields(fields Fields) Logger
}

// defaultLogger is the process-wide logger used by WithFields when no
// explicit logger was injected. Swapped atomically so tests can replace it.
var defaultLogger atomic.Pointer[zapLogger]

func init() {
	defaultLogger.Store(newZapLogger("info"))
}

// SetLevel reconfigures the process-wide default logger level
func SetLevel(level string) {
	defaultLogger.Store(newZapLogger(level))
}

// NewDefaultLogger returns the process-wide default logger
func NewDefaultLogger() Logger {
	return defaultLogger.Load()
}

// WithFields returns the default logger with the given fields attached
func WithFields(fields Fields) Logger {
	return defaultLogger.Load().WithFields(fields)
}

// zapLogger implements Logger on top of a zap.SugaredLogger
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func newZapLogger(level string) *zapLogger {
	lvl := zapcore.InfoLevel
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		lvl,
	)

	return &zapLogger{sugar: zap.New(core).Sugar()}
}

func (l *zapLogger) flatten(fields []Fields) []any {
	var kv []any
	for _, f := range fields {
		for k, v := range f {
			kv = append(kv, k, v)
		}
	}
	return kv
}

func (l *zapLogger) Debug(msg string, fields ...Fields) {
	l.sugar.Debugw(msg, l.flatten(fields)...)
}

func (l *zapLogger) Info(msg string, fields ...Fields) {
	l.sugar.Infow(msg, l.flatten(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...Fields) {
	l.sugar.Warnw(msg, l.flatten(fields)...)
}

func (l *zapLogger) Error(err error, msg string, fields ...Fields) {
	kv := l.flatten(fields)
	if err != nil {
		kv = append(kv, "error", err.Error())
	}
	l.sugar.Errorw(msg, kv...)
}

func (l *zapLogger) WithFields(fields Fields) Logger {
	kv := l.flatten([]Fields{fields})
	return &zapLogger{sugar: l.sugar.With(kv...)}
}
