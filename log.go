package sketchvm

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with sketchvm-specific helpers, adapted from
// zboralski-galago/internal/log's Logger (SPEC_FULL.md §2, Logging).
type Logger struct {
	*zap.Logger
	onEmit func(kind CommandKind, fields map[string]any)
}

var (
	// L is the global logger instance, initialized once per process
	// (mirrors the teacher's package-level L/once pattern).
	L    *Logger
	once sync.Once
)

// InitLogging initializes the global logger. Safe to call multiple
// times; only the first call takes effect.
func InitLogging(debug bool) {
	once.Do(func() {
		L = NewLogger(debug)
	})
}

// NewLogger creates a standalone Logger instance.
func NewLogger(debug bool) *Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		logger = zap.NewNop()
	}
	return &Logger{Logger: logger}
}

// NewNopLogger creates a no-op logger, used by tests and by every
// Engine until SetLogger installs another.
func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// SetOnEmit installs a callback invoked for every emitted command,
// adapted from the teacher's SetOnTrace hook (internal/log/log.go).
func (l *Logger) SetOnEmit(fn func(kind CommandKind, fields map[string]any)) {
	l.onEmit = fn
}

func (l *Logger) notifyEmit(kind CommandKind, fields map[string]any) {
	if l != nil && l.onEmit != nil {
		l.onEmit(kind, fields)
	}
}

// StateTransition logs an execution-controller state change (C9), one
// line per transition, adapted from the teacher's DetectorActivate
// structured-field style (internal/log/logger.go).
func (l *Logger) StateTransition(from, to EngineState) {
	if l == nil || l.Logger == nil {
		return
	}
	l.Info("state transition",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}

// RecoverableError logs a non-fatal engine error recovered at a
// statement boundary (spec §4.9/§7): the offending expression yields
// unit and execution continues to the next statement.
func (l *Logger) RecoverableError(kind ErrorKind, message string) {
	if l == nil || l.Logger == nil {
		return
	}
	l.Warn("recovered error",
		zap.String("kind", string(kind)),
		zap.String("msg", message),
	)
}

// FatalError logs an engine error that transitions the controller to
// ERROR (ConfigurationError, InternalInvariant — spec §7).
func (l *Logger) FatalError(kind ErrorKind, message string) {
	if l == nil || l.Logger == nil {
		return
	}
	l.Error("fatal error",
		zap.String("kind", string(kind)),
		zap.String("msg", message),
	)
}
