// Package logging provides per-component structured loggers on top of
// charmbracelet/log.
//
// Basic usage:
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    return err
//	}
//
//	logger := logging.Get("diff")
//	logger.Info("comparing", "root", root)
//
// Before Init is called every logger is silent.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// Config configures the logging system.
type Config struct {
	// Level is the default log level (debug, info, warn, error). Empty means warn.
	Level string

	// Writer receives log output. Nil means stderr.
	Writer io.Writer

	// Components maps component names to level overrides.
	Components map[string]string

	// Timestamps adds a short time stamp to each line.
	Timestamps bool
}

// LevelForVerbosity maps the number of -v flags to a level name.
func LevelForVerbosity(count int) string {
	switch {
	case count <= 0:
		return "warn"
	case count == 1:
		return "info"
	default:
		return "debug"
	}
}

// ParseLevel parses a level name.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "", "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.WarnLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

type state struct {
	mu          sync.RWMutex
	initialized bool
	writer      io.Writer
	level       log.Level
	components  map[string]log.Level
	timestamps  bool
	loggers     map[string]*log.Logger
}

var globalState = &state{
	loggers:    make(map[string]*log.Logger),
	components: make(map[string]log.Level),
}

// Init configures the logging system. Loggers handed out earlier are
// reconfigured in place.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]log.Level, len(cfg.Components))

	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}

		components[comp] = parsed
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	globalState.initialized = true
	globalState.writer = writer
	globalState.level = level
	globalState.components = components
	globalState.timestamps = cfg.Timestamps

	for component, logger := range globalState.loggers {
		configure(logger, component)
	}

	return nil
}

// Get returns the logger for a component, creating it on first use.
func Get(component string) *log.Logger {
	globalState.mu.RLock()
	logger, ok := globalState.loggers[component]
	globalState.mu.RUnlock()

	if ok {
		return logger
	}

	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if logger, ok := globalState.loggers[component]; ok {
		return logger
	}

	logger = log.NewWithOptions(io.Discard, log.Options{Prefix: component})
	configure(logger, component)
	globalState.loggers[component] = logger

	return logger
}

// configure must be called with globalState.mu held.
func configure(logger *log.Logger, component string) {
	if !globalState.initialized {
		logger.SetOutput(io.Discard)
		return
	}

	level := globalState.level
	if override, ok := globalState.components[component]; ok {
		level = override
	}

	logger.SetOutput(globalState.writer)
	logger.SetLevel(level)
	logger.SetReportTimestamp(globalState.timestamps)
	logger.SetTimeFormat(time.TimeOnly)
}
