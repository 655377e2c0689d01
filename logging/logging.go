// Package logging contains the structured logger used across pose refinement.
package logging

import (
	"context"
	"os"
	"testing"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// Logger is handed to every component explicitly; there is no process-wide logger.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	// CDebugw logs at debug level when the logger allows it or when ctx was marked with
	// EnableDebugMode.
	CDebugw(ctx context.Context, msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Named returns a logger whose entries carry name appended to this logger's name. Both share
	// one level.
	Named(name string) Logger
	SetLevel(level zapcore.Level)
	Sync() error
}

type zLogger struct {
	level *atomic.Int32
	sugar *zap.SugaredLogger
}

func newLogger(core zapcore.Core, level zapcore.Level) *zLogger {
	return &zLogger{
		level: atomic.NewInt32(int32(level)),
		sugar: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar(),
	}
}

// NewLogger returns a logger that writes Info+ entries to stdout.
func NewLogger(name string) Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stdout), zapcore.DebugLevel)
	return newLogger(core, zapcore.InfoLevel).Named(name)
}

// NewTestLogger returns a logger that writes Debug+ entries to the test log.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also keeps every entry in memory.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	observerCore, logs := observer.New(zapcore.DebugLevel)
	testCore := zaptest.NewLogger(tb, zaptest.Level(zapcore.DebugLevel)).Core()
	return newLogger(zapcore.NewTee(testCore, observerCore), zapcore.DebugLevel), logs
}

func (l *zLogger) enabled(level zapcore.Level) bool {
	return level >= zapcore.Level(l.level.Load())
}

func (l *zLogger) Debugw(msg string, keysAndValues ...interface{}) {
	if l.enabled(zapcore.DebugLevel) {
		l.sugar.Debugw(msg, keysAndValues...)
	}
}

func (l *zLogger) CDebugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	if l.enabled(zapcore.DebugLevel) {
		l.sugar.Debugw(msg, keysAndValues...)
		return
	}
	if name := debugName(ctx); name != "" {
		fields := append(keysAndValues[:len(keysAndValues):len(keysAndValues)], "debug", name)
		l.sugar.Debugw(msg, fields...)
	}
}

func (l *zLogger) Infow(msg string, keysAndValues ...interface{}) {
	if l.enabled(zapcore.InfoLevel) {
		l.sugar.Infow(msg, keysAndValues...)
	}
}

func (l *zLogger) Warnw(msg string, keysAndValues ...interface{}) {
	if l.enabled(zapcore.WarnLevel) {
		l.sugar.Warnw(msg, keysAndValues...)
	}
}

func (l *zLogger) Errorw(msg string, keysAndValues ...interface{}) {
	if l.enabled(zapcore.ErrorLevel) {
		l.sugar.Errorw(msg, keysAndValues...)
	}
}

func (l *zLogger) Named(name string) Logger {
	return &zLogger{level: l.level, sugar: l.sugar.Named(name)}
}

func (l *zLogger) SetLevel(level zapcore.Level) {
	l.level.Store(int32(level))
}

func (l *zLogger) Sync() error {
	return l.sugar.Sync()
}
