package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// productionLogger builds an AppLogger with debug off but an underlying
// logger that would show debug lines, so the tests see exactly what the
// debug gate suppresses.
func productionLogger() (*AppLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
	})
	logger.SetLevel(log.DebugLevel)
	return &AppLogger{logger: logger, debug: false}, &buf
}

func TestDebugGateSuppressesInProduction(t *testing.T) {
	appLogger, buf := productionLogger()

	appLogger.Debug("hidden debug line")
	appLogger.LogMessage(tea.KeyMsg{Type: tea.KeySpace})
	appLogger.DebugObject("obj", struct{ X int }{1})
	appLogger.LogPerformance("op", time.Now())
	appLogger.LogStateTransition("MainModel", "StateMenu", "StateReview")

	if got := buf.String(); got != "" {
		t.Errorf("expected no output with debug off, got: %s", got)
	}
}

func TestInfoAndWarnBypassTheDebugGate(t *testing.T) {
	appLogger, buf := productionLogger()

	appLogger.Info("informational line")
	appLogger.Warn("warning line")
	appLogger.Error("error line")

	output := buf.String()
	for _, want := range []string{"informational line", "warning line", "error line"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got: %s", want, output)
		}
	}
}

func TestLogMessage(t *testing.T) {
	logger, buf := NewTestLogger()

	logger.LogMessage(tea.KeyMsg{
		Type:  tea.KeySpace,
		Runes: []rune{' '},
	})

	output := buf.String()
	if !strings.Contains(output, "Message received") {
		t.Errorf("expected 'Message received' in output, got: %s", output)
	}
	if !strings.Contains(output, "tea.KeyMsg") {
		t.Errorf("expected message type 'tea.KeyMsg' in output, got: %s", output)
	}
}

func TestDebugObject(t *testing.T) {
	logger, buf := NewTestLogger()

	logger.DebugObject("scan_result", struct {
		Name  string
		Value int
	}{Name: "pom.xml", Value: 42})

	output := buf.String()
	if !strings.Contains(output, "Object dump") {
		t.Errorf("expected 'Object dump' in output, got: %s", output)
	}
	if !strings.Contains(output, "scan_result") {
		t.Errorf("expected the object name in output, got: %s", output)
	}
	if !strings.Contains(output, "pom.xml") {
		t.Errorf("expected the object data in output, got: %s", output)
	}
}

func TestLogPerformance(t *testing.T) {
	logger, buf := NewTestLogger()

	start := time.Now()
	time.Sleep(time.Millisecond)
	logger.LogPerformance("classify_project", start)

	output := buf.String()
	if !strings.Contains(output, "Performance") {
		t.Errorf("expected 'Performance' in output, got: %s", output)
	}
	if !strings.Contains(output, "classify_project") {
		t.Errorf("expected the operation name in output, got: %s", output)
	}
	if !strings.Contains(output, "duration") {
		t.Errorf("expected a duration field in output, got: %s", output)
	}
}

func TestLogStateTransition(t *testing.T) {
	logger, buf := NewTestLogger()

	logger.LogStateTransition("MainModel", "StateMenu", "StateAnalyze")

	output := buf.String()
	for _, want := range []string{"State transition", "MainModel", "StateMenu", "StateAnalyze"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func resetDefaultLogger() {
	defaultLogger = nil
	once = sync.Once{}
}

func TestPackageLevelFallbacks(t *testing.T) {
	resetDefaultLogger()

	// Production mode: warnings and errors go to stderr, nothing panics.
	Info("fallback info")
	Warn("fallback warn")
	Error("fallback error")
	Debug("fallback debug")
	LogMessage(tea.KeyMsg{Type: tea.KeyEnter})
	LogPerformance("fallback_operation", time.Now())

	if GetDefault() == nil {
		t.Fatal("package-level calls should have initialized the default logger")
	}
}

func TestGetDefaultReturnsOneInstance(t *testing.T) {
	resetDefaultLogger()

	if GetDefault() != GetDefault() {
		t.Error("GetDefault() should always return the same instance")
	}
}

func BenchmarkInfo(b *testing.B) {
	logger, _ := NewTestLogger()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark line", "iteration", i)
	}
}

func BenchmarkSuppressedDebug(b *testing.B) {
	logger, _ := productionLogger()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug("benchmark debug message", "iteration", i)
	}
}
