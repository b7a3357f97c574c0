// Package logger holds the process-wide zap logger.
package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logMu sync.RWMutex
	log   *zap.Logger
)

// Init builds a logger at the given level ("debug", "info", "warn",
// "error") and installs it as the zap global. Development loggers write
// human readable console output; production loggers write JSON.
func Init(level string, development bool) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set replaces the logger, flushing the previous one.
func Set(l *zap.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	zap.ReplaceGlobals(l)
	if log != nil {
		_ = log.Sync()
	}
	log = l
}

// Log returns the current logger, falling back to the zap global (a no-op
// logger until Init is called).
func Log() *zap.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	if log != nil {
		return log
	}
	return zap.L()
}

// Sync flushes buffered log entries.
func Sync() {
	logMu.RLock()
	defer logMu.RUnlock()
	if log != nil {
		_ = log.Sync()
	}
}
