// Package logging provides categorized structured logging for tablechat.
// Each subsystem logs through a named zap logger for its category. Until
// Initialize is called every category logger is a no-op, so library use and
// tests stay silent.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup, config resolution
	CategoryEngine     Category = "engine"     // Dispatch routing and provider state
	CategoryPerception Category = "perception" // Text -> intent interpretation
	CategoryAPI        Category = "api"        // LLM provider calls
	CategoryUI         Category = "ui"         // Interactive chat
	CategoryExport     Category = "export"     // Spreadsheet export
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	File   string // Empty means stderr
}

var (
	root      = zap.NewNop()
	loggers   = make(map[Category]*zap.Logger)
	loggersMu sync.RWMutex
)

// Initialize builds the root logger. Safe to call more than once; the last
// call wins and previously handed out category loggers are replaced.
func Initialize(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	var cfg zap.Config
	if strings.EqualFold(opts.Format, "console") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{opts.File}
	}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	SetRoot(logger)
	return nil
}

// SetRoot installs logger as the root. Tests use it with zaptest loggers.
func SetRoot(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loggersMu.Lock()
	defer loggersMu.Unlock()
	root = logger
	loggers = make(map[Category]*zap.Logger)
}

// ParseLevel maps a config level string onto a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// Get returns (or creates) the logger for a category.
func Get(category Category) *zap.Logger {
	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := root.Named(string(category))
	loggers[category] = l
	return l
}

// Sync flushes the root logger.
func Sync() {
	loggersMu.RLock()
	defer loggersMu.RUnlock()
	_ = root.Sync()
}

// Engine returns the engine category logger.
func Engine() *zap.Logger { return Get(CategoryEngine) }

// Perception returns the perception category logger.
func Perception() *zap.Logger { return Get(CategoryPerception) }

// API returns the provider API category logger.
func API() *zap.Logger { return Get(CategoryAPI) }

// Boot returns the startup category logger.
func Boot() *zap.Logger { return Get(CategoryBoot) }

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("operation completed", zap.String("op", t.op), zap.Duration("elapsed", elapsed))
	return elapsed
}

// StopWithThreshold logs a warning if the duration exceeds threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("slow operation",
			zap.String("op", t.op),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", threshold))
	} else {
		Get(t.category).Debug("operation completed", zap.String("op", t.op), zap.Duration("elapsed", elapsed))
	}
	return elapsed
}
