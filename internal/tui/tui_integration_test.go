package tui

import (
	"strings"
	"testing"
	"time"

	"rulesmith/internal/logging"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
)

func setTestHome(t *testing.T) string {
	t.Helper()

	tempHome := t.TempDir()
	// Registered before t.Setenv so it runs after HOME is restored.
	t.Cleanup(xdg.Reload)
	t.Setenv("HOME", tempHome)
	xdg.Reload()
	return tempHome
}

func startMainModel(t *testing.T) *teatest.TestModel {
	t.Helper()

	logger, _ := logging.NewTestLogger()
	model := NewMainModel(createTestConfig(t), logger)
	return teatest.NewTestModel(t, model, teatest.WithInitialTermSize(100, 35))
}

// TestMenuQuitFlow walks the shortest user journey: open the menu, quit.
func TestMenuQuitFlow(t *testing.T) {
	tm := startMainModel(t)

	waitForString(t, tm, "Generate rules")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	waitForString(t, tm, "Thank you for using Rulesmith!")

	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second*2))
}

// TestMenuToAnalyzeFlow navigates to the analyze view and runs a scan of an
// empty project directory.
func TestMenuToAnalyzeFlow(t *testing.T) {
	setTestHome(t)
	t.Chdir(t.TempDir())

	tm := startMainModel(t)

	waitForString(t, tm, "Generate rules")

	// Second menu entry is the analyze view
	tm.Send(tea.KeyMsg{Type: tea.KeyDown})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitForString(t, tm, "Analyze Project")
	waitForString(t, tm, "No supported technologies detected")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second*2))
}

// TestMenuToBrowseFlow navigates to the template browser and waits for the
// embedded library to load.
func TestMenuToBrowseFlow(t *testing.T) {
	setTestHome(t)
	t.Setenv("RULESMITH_STYLE", "notty")

	tm := startMainModel(t)

	waitForString(t, tm, "Generate rules")

	// Third menu entry is the template browser
	tm.Send(tea.KeyMsg{Type: tea.KeyDown})
	tm.Send(tea.KeyMsg{Type: tea.KeyDown})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitForString(t, tm, "Browse Templates")
	waitForString(t, tm, "Baseline")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second*2))
}

// waitForString polls the program output until s shows up.
func waitForString(t *testing.T, tm *teatest.TestModel, s string) {
	t.Helper()
	teatest.WaitFor(
		t,
		tm.Output(),
		func(b []byte) bool {
			return strings.Contains(string(b), s)
		},
		teatest.WithCheckInterval(time.Millisecond*100),
		teatest.WithDuration(time.Second*3),
	)
}
