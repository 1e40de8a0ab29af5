// Package logging wraps charmbracelet/log behind one AppLogger shared by the
// CLI, the TUI, and the MCP server. Without RULESMITH_DEBUG only warnings and
// errors reach stderr, keeping command output and TUI frames clean; with it,
// everything including per-message TUI traffic goes to a log file in the
// user's state directory.
package logging

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// AppLogger is the application logger. The debug flag gates the noisy
// helpers (Debug, LogMessage, DebugObject and friends) so their fmt.Sprintf
// arguments are never formatted in normal runs.
type AppLogger struct {
	logger *log.Logger
	debug  bool
}

// NewAppLogger builds the logger according to RULESMITH_DEBUG.
func NewAppLogger() *AppLogger {
	if os.Getenv("RULESMITH_DEBUG") != "" {
		return &AppLogger{logger: newDebugFileLogger(), debug: true}
	}
	return &AppLogger{logger: newStderrLogger(), debug: false}
}

// newDebugFileLogger logs everything to ~/.local/state/rulesmith/rulesmith.log
// (or the platform equivalent), truncated per run so a debug session reads
// from the top.
func newDebugFileLogger() *log.Logger {
	logPath, err := xdg.StateFile(filepath.Join("rulesmith", "rulesmith.log"))
	if err != nil {
		logPath = "rulesmith.log"
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		panic(fmt.Sprintf("Failed to create debug log file: %v", err))
	}

	logger := log.NewWithOptions(logFile, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "Rulesmith",
	})
	logger.SetLevel(log.DebugLevel)
	logger.Info("Debug logging enabled", "log_file", logPath)
	return logger
}

func newStderrLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "Rulesmith",
	})
	logger.SetLevel(log.WarnLevel)
	return logger
}

func (l *AppLogger) Info(msg string, keyvals ...any)  { l.logger.Info(msg, keyvals...) }
func (l *AppLogger) Warn(msg string, keyvals ...any)  { l.logger.Warn(msg, keyvals...) }
func (l *AppLogger) Error(msg string, keyvals ...any) { l.logger.Error(msg, keyvals...) }

// Debug logs only when debug mode is on, regardless of the underlying level.
func (l *AppLogger) Debug(msg string, keyvals ...any) {
	if l.debug {
		l.logger.Debug(msg, keyvals...)
	}
}

// LogMessage traces one bubbletea message. Wired into the TUI update loops,
// so it stays a no-op outside debug mode.
func (l *AppLogger) LogMessage(msg tea.Msg) {
	if !l.debug {
		return
	}
	l.logger.Debug("Message received",
		"type", fmt.Sprintf("%T", msg),
		"content", fmt.Sprintf("%+v", msg),
	)
}

// DebugObject dumps a value with %+v under a name.
func (l *AppLogger) DebugObject(name string, obj any) {
	if l.debug {
		l.logger.Debug("Object dump", "name", name, "object", fmt.Sprintf("%+v", obj))
	}
}

// LogPerformance records the time elapsed since start for an operation.
func (l *AppLogger) LogPerformance(operation string, start time.Time) {
	if l.debug {
		l.logger.Debug("Performance",
			"operation", operation,
			"duration", time.Since(start),
		)
	}
}

// LogStateTransition records a TUI state change.
func (l *AppLogger) LogStateTransition(component, from, to string) {
	if l.debug {
		l.logger.Debug("State transition",
			"component", component,
			"from", from,
			"to", to,
		)
	}
}

var (
	defaultLogger *AppLogger
	once          sync.Once
)

// GetDefault returns the process-wide logger, building it on first use.
func GetDefault() *AppLogger {
	once.Do(func() {
		defaultLogger = NewAppLogger()
	})
	return defaultLogger
}

// Package-level shortcuts on the default logger.

func Info(msg string, keyvals ...any)  { GetDefault().Info(msg, keyvals...) }
func Warn(msg string, keyvals ...any)  { GetDefault().Warn(msg, keyvals...) }
func Error(msg string, keyvals ...any) { GetDefault().Error(msg, keyvals...) }
func Debug(msg string, keyvals ...any) { GetDefault().Debug(msg, keyvals...) }

func LogMessage(msg tea.Msg) { GetDefault().LogMessage(msg) }

func LogPerformance(operation string, start time.Time) {
	GetDefault().LogPerformance(operation, start)
}

// NewTestLogger returns a debug-enabled logger writing into the returned
// buffer. Timestamps and caller reporting are off so tests can match output
// verbatim.
func NewTestLogger() (*AppLogger, *bytes.Buffer) {
	var buf bytes.Buffer

	logger := log.NewWithOptions(&buf, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
		Prefix:          "Test",
	})
	logger.SetLevel(log.DebugLevel)

	return &AppLogger{logger: logger, debug: true}, &buf
}
