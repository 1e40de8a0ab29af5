package analyzemenu

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rulesmith/internal/classify"
	"rulesmith/internal/logging"
	"rulesmith/internal/tui/helpers"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
)

func createTestLogger(t *testing.T) *logging.AppLogger {
	t.Helper()
	logger, _ := logging.NewTestLogger()
	return logger
}

func createTestUIContext(t *testing.T) helpers.UIContext {
	t.Helper()
	return helpers.NewUIContext(100, 30, nil, createTestLogger(t))
}

// setTestHome points HOME at a temp dir so the engine's default overlay
// lookups never touch the real user directories.
func setTestHome(t *testing.T) string {
	t.Helper()

	tempHome := t.TempDir()
	// Registered before t.Setenv so it runs after HOME is restored.
	t.Cleanup(xdg.Reload)
	t.Setenv("HOME", tempHome)
	xdg.Reload()
	return tempHome
}

func sampleProfiles() []classify.Profile {
	return []classify.Profile{
		{
			Name:       classify.TechSpringBoot,
			Version:    "3.2.0",
			Confidence: classify.ConfidenceHigh,
			Features:   classify.FeatureSet{"has-security": true},
			Evidence: []classify.Evidence{
				{Path: "pom.xml", Detail: "spring-boot-starter-parent 3.2.0", Weight: 5},
			},
		},
		{
			Name:       classify.TechGitLabCI,
			Version:    classify.VersionUnknown,
			Confidence: classify.ConfidenceMedium,
			Evidence: []classify.Evidence{
				{Path: ".gitlab-ci.yml", Detail: "pipeline manifest", Weight: 3},
			},
		},
	}
}

func TestNewAnalyzeModel(t *testing.T) {
	m := NewAnalyzeModel(createTestUIContext(t))

	if m.state != StateLoading {
		t.Errorf("expected initial state StateLoading, got %v", m.state)
	}
	if m.logger == nil {
		t.Error("expected logger to be set")
	}
	if m.profiles != nil {
		t.Error("expected no profiles before analysis")
	}
}

func TestInitReturnsCommand(t *testing.T) {
	m := NewAnalyzeModel(createTestUIContext(t))
	if m.Init() == nil {
		t.Error("expected Init to start the analysis")
	}
}

func TestAnalyzeCompleteShowsResults(t *testing.T) {
	m := NewAnalyzeModel(createTestUIContext(t))

	updated, _ := m.Update(AnalyzeCompleteMsg{Root: "/work/demo", Profiles: sampleProfiles()})
	m = updated.(AnalyzeModel)

	if m.state != StateResults {
		t.Fatalf("expected StateResults, got %v", m.state)
	}
	if m.root != "/work/demo" {
		t.Errorf("expected root to be recorded, got %q", m.root)
	}

	view := m.View()
	for _, want := range []string{"spring-boot", "gitlab-ci", "has-security", "pom.xml"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected results view to contain %q", want)
		}
	}
}

func TestAnalyzeCompleteWithoutProfiles(t *testing.T) {
	m := NewAnalyzeModel(createTestUIContext(t))

	updated, _ := m.Update(AnalyzeCompleteMsg{Root: "/work/empty", Profiles: nil})
	m = updated.(AnalyzeModel)

	if m.state != StateResults {
		t.Fatalf("expected StateResults, got %v", m.state)
	}
	if !strings.Contains(m.View(), "No supported technologies detected") {
		t.Error("expected empty-result message in view")
	}
}

func TestAnalyzeErrorShowsError(t *testing.T) {
	m := NewAnalyzeModel(createTestUIContext(t))

	updated, _ := m.Update(AnalyzeErrorMsg{Err: errors.New("walk failed")})
	m = updated.(AnalyzeModel)

	if m.state != StateError {
		t.Fatalf("expected StateError, got %v", m.state)
	}
	if !strings.Contains(m.View(), "walk failed") {
		t.Error("expected error message in view")
	}
}

func TestRetryFromError(t *testing.T) {
	m := NewAnalyzeModel(createTestUIContext(t))
	updated, _ := m.Update(AnalyzeErrorMsg{Err: errors.New("boom")})
	m = updated.(AnalyzeModel)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = updated.(AnalyzeModel)

	if m.state != StateLoading {
		t.Errorf("expected retry to return to StateLoading, got %v", m.state)
	}
	if cmd == nil {
		t.Error("expected retry to restart the analysis")
	}
}

func TestEscapeReturnsToMainMenu(t *testing.T) {
	states := []struct {
		name string
		msg  tea.Msg
	}{
		{"from results", AnalyzeCompleteMsg{Root: "/work", Profiles: sampleProfiles()}},
		{"from error", AnalyzeErrorMsg{Err: errors.New("boom")}},
	}

	for _, tc := range states {
		t.Run(tc.name, func(t *testing.T) {
			m := NewAnalyzeModel(createTestUIContext(t))
			updated, _ := m.Update(tc.msg)
			m = updated.(AnalyzeModel)

			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
			if cmd == nil {
				t.Fatal("expected a navigation command")
			}
			if _, ok := cmd().(helpers.NavigateToMainMenuMsg); !ok {
				t.Error("expected NavigateToMainMenuMsg")
			}
		})
	}
}

func TestWindowResizeAdjustsViewport(t *testing.T) {
	m := NewAnalyzeModel(createTestUIContext(t))

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(AnalyzeModel)

	if m.viewport.Width <= 0 || m.viewport.Height <= 0 {
		t.Errorf("expected positive viewport dimensions, got %dx%d", m.viewport.Width, m.viewport.Height)
	}
}

func TestAnalyzeCmdDetectsProject(t *testing.T) {
	setTestHome(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gitlab-ci.yml"), []byte("stages:\n  - build\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	m := NewAnalyzeModel(createTestUIContext(t))
	msg := m.analyzeCmd()()

	complete, ok := msg.(AnalyzeCompleteMsg)
	if !ok {
		t.Fatalf("expected AnalyzeCompleteMsg, got %T", msg)
	}
	if len(complete.Profiles) != 1 {
		t.Fatalf("expected one profile, got %d", len(complete.Profiles))
	}
	if complete.Profiles[0].Name != classify.TechGitLabCI {
		t.Errorf("expected gitlab-ci detection, got %s", complete.Profiles[0].Name)
	}
}
