// Package trace provides the interpreter's leveled diagnostic
// logger. Level 0 costs nothing on the hot path (backed by
// zap.NewNop()); levels 1-3 progressively widen what gets logged.
package trace

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LevelSilent = 0 // no output, zap.NewNop()
	LevelInfo   = 1 // class loads
	LevelDebug  = 2 // + caught exceptions, main's return value
	LevelTrace  = 3 // + per-instruction dispatch
)

// Logger wraps a zap.SugaredLogger with the four interpreter levels
// above, plus the atomic level its zap core was built with.
type Logger struct {
	level   int
	sugar   *zap.SugaredLogger
	atomLvl zap.AtomicLevel
}

// New builds a Logger for the given level (0-3), clamped into range.
func New(level int) *Logger {
	if level < LevelSilent {
		level = LevelSilent
	}
	if level > LevelTrace {
		level = LevelTrace
	}
	if level == LevelSilent {
		return &Logger{level: level, sugar: zap.NewNop().Sugar()}
	}

	atomLvl := zap.NewAtomicLevel()
	atomLvl.SetLevel(zapcore.DebugLevel)

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(zapcore.AddSync(os.Stderr)), atomLvl)
	logger := zap.New(core)
	return &Logger{level: level, sugar: logger.Sugar(), atomLvl: atomLvl}
}

func (l *Logger) Level() int { return l.level }

func (l *Logger) Infof(format string, args ...any) {
	if l.level >= LevelInfo {
		l.sugar.Infof(format, args...)
	}
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.level >= LevelDebug {
		l.sugar.Debugf(format, args...)
	}
}

func (l *Logger) Tracef(format string, args ...any) {
	if l.level >= LevelTrace {
		l.sugar.Debugf(format, args...)
	}
}

func (l *Logger) Errorf(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}
