package logging

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestLevels(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugw("debug")
	logger.Infow("info")
	test.That(t, logs.Len(), test.ShouldEqual, 2)

	logger.SetLevel(zapcore.WarnLevel)
	logger.Debugw("dropped")
	logger.Infow("dropped")
	logger.Warnw("warn", "k", 1)
	logger.Errorw("error")
	test.That(t, logs.FilterMessage("dropped").Len(), test.ShouldEqual, 0)
	test.That(t, logs.FilterMessage("warn").FilterFieldKey("k").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("error").All()[0].Level, test.ShouldEqual, zapcore.ErrorLevel)
}

func TestContextDebugMode(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.SetLevel(zapcore.InfoLevel)

	ctx := context.Background()
	test.That(t, IsDebugMode(ctx), test.ShouldBeFalse)
	logger.CDebugw(ctx, "dropped")
	test.That(t, logs.Len(), test.ShouldEqual, 0)

	kvs := make([]interface{}, 2, 4)
	kvs[0], kvs[1] = "iteration", 3
	traced := EnableDebugMode(ctx, "")
	test.That(t, IsDebugMode(traced), test.ShouldBeTrue)
	logger.CDebugw(traced, "traced", kvs...)
	entries := logs.FilterMessage("traced").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].ContextMap()["debug"], test.ShouldEqual, "debug")
	test.That(t, entries[0].ContextMap()["iteration"], test.ShouldEqual, int64(3))
	// the caller's key-value slice is left alone
	test.That(t, kvs[:cap(kvs)][2], test.ShouldBeNil)

	logger.CDebugw(EnableDebugMode(ctx, "posefit"), "named")
	test.That(t, logs.FilterMessage("named").All()[0].ContextMap()["debug"], test.ShouldEqual, "posefit")
}

func TestNamed(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Named("posefit")
	sub.Infow("hello")
	test.That(t, logs.All()[0].LoggerName, test.ShouldEqual, "posefit")

	// a named logger follows its parent's level
	logger.SetLevel(zapcore.ErrorLevel)
	sub.Warnw("dropped")
	test.That(t, logs.Len(), test.ShouldEqual, 1)
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger("inerf")
	logger.Infow("started", "seed", 1)
	logger.Debugw("not shown")
}
