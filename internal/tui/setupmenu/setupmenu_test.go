package setupmenu

import (
	"errors"
	"strings"
	"testing"

	"rulesmith/internal/editors"
	"rulesmith/internal/logging"
	"rulesmith/internal/templatestore"
	"rulesmith/internal/tui/helpers"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T) *SetupModel {
	t.Helper()
	logger, _ := logging.NewTestLogger()
	return NewSetupModel(helpers.NewUIContext(100, 30, nil, logger))
}

// wizardAt returns a model positioned on the given screen, with the fields
// earlier screens would have filled in.
func wizardAt(t *testing.T, state SetupState) *SetupModel {
	t.Helper()
	m := newTestModel(t)
	m.state = state

	switch state {
	case SetupStateEditorSelect:
		m.TemplatesDir = "/test/templates/dir"
	case SetupStateConfirmation, SetupStateComplete:
		m.TemplatesDir = "/test/templates/dir"
		m.EditorKey = "cursor"
	}
	return m
}

// pressKey sends one key through Update and hands back the typed model.
func pressKey(t *testing.T, m *SetupModel, msg tea.KeyMsg) *SetupModel {
	t.Helper()
	updated, _ := m.Update(msg)
	next, ok := updated.(*SetupModel)
	if !ok {
		t.Fatalf("Update returned %T, want *SetupModel", updated)
	}
	return next
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewSetupModel(t *testing.T) {
	m := newTestModel(t)

	if m.state != SetupStateWelcome {
		t.Errorf("state = %v, want %v", m.state, SetupStateWelcome)
	}
	if m.Cancelled {
		t.Error("a fresh model must not start cancelled")
	}
	if m.TemplatesDir != "" {
		t.Errorf("TemplatesDir = %q, want empty", m.TemplatesDir)
	}
	if m.textInput.Placeholder != templatestore.DefaultDir() {
		t.Errorf("placeholder = %q, want %q", m.textInput.Placeholder, templatestore.DefaultDir())
	}
	if !m.textInput.Focused() {
		t.Error("text input should start focused")
	}
	if m.logger == nil {
		t.Error("logger missing")
	}
	if len(m.targets) != len(editors.All()) {
		t.Errorf("got %d editor targets, want %d", len(m.targets), len(editors.All()))
	}
}

func TestInit(t *testing.T) {
	if newTestModel(t).Init() == nil {
		t.Error("Init should return the cursor blink command")
	}
}

func TestWelcomeKeys(t *testing.T) {
	tests := []struct {
		name      string
		key       tea.KeyMsg
		wantState SetupState
		cancelled bool
	}{
		{"enter opens the directory input", key(tea.KeyEnter), SetupStateTemplatesDir, false},
		{"space opens the directory input", key(tea.KeySpace), SetupStateTemplatesDir, false},
		{"esc cancels", key(tea.KeyEscape), SetupStateCancelled, true},
		{"q cancels", runes("q"), SetupStateCancelled, true},
		{"ctrl+c cancels", key(tea.KeyCtrlC), SetupStateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := pressKey(t, wizardAt(t, SetupStateWelcome), tt.key)

			if m.state != tt.wantState {
				t.Errorf("state = %v, want %v", m.state, tt.wantState)
			}
			if m.Cancelled != tt.cancelled {
				t.Errorf("Cancelled = %v, want %v", m.Cancelled, tt.cancelled)
			}
		})
	}
}

func TestTemplatesDirScreen(t *testing.T) {
	t.Run("valid path moves to the editor picker", func(t *testing.T) {
		setTestHome(t)
		m := wizardAt(t, SetupStateTemplatesDir)
		m.textInput.SetValue("~/test-templates")

		m = pressKey(t, m, key(tea.KeyEnter))

		if m.state != SetupStateEditorSelect {
			t.Errorf("state = %v, want %v", m.state, SetupStateEditorSelect)
		}
		if m.TemplatesDir == "" || strings.HasPrefix(m.TemplatesDir, "~") {
			t.Errorf("TemplatesDir = %q, want the tilde expanded", m.TemplatesDir)
		}
	})

	t.Run("empty path is rejected in place", func(t *testing.T) {
		m := wizardAt(t, SetupStateTemplatesDir)
		m.textInput.SetValue("")

		updated, cmd := m.Update(key(tea.KeyEnter))
		m = updated.(*SetupModel)

		if m.state != SetupStateTemplatesDir {
			t.Errorf("state = %v, want %v", m.state, SetupStateTemplatesDir)
		}
		if cmd == nil {
			t.Fatal("expected an error command")
		}
		msg, ok := cmd().(setupErrorMsg)
		if !ok {
			t.Fatalf("command produced %T, want setupErrorMsg", cmd())
		}
		if !strings.Contains(msg.err.Error(), "cannot be empty") {
			t.Errorf("err = %v, want an empty-path message", msg.err)
		}
	})

	t.Run("q goes into the path, not the quit handler", func(t *testing.T) {
		m := wizardAt(t, SetupStateTemplatesDir)
		m.textInput.SetValue("")

		m = pressKey(t, m, runes("q"))

		if m.Cancelled {
			t.Error("typing q must not cancel setup")
		}
		if m.state != SetupStateTemplatesDir {
			t.Errorf("state = %v, want %v", m.state, SetupStateTemplatesDir)
		}
		if got := m.textInput.Value(); got != "q" {
			t.Errorf("input value = %q, want %q", got, "q")
		}
	})

	t.Run("esc steps back to welcome", func(t *testing.T) {
		m := pressKey(t, wizardAt(t, SetupStateTemplatesDir), key(tea.KeyEscape))

		if m.state != SetupStateWelcome {
			t.Errorf("state = %v, want %v", m.state, SetupStateWelcome)
		}
	})
}

func TestEditorPicker(t *testing.T) {
	t.Run("starts on the first target", func(t *testing.T) {
		if m := wizardAt(t, SetupStateEditorSelect); m.editorIndex != 0 {
			t.Errorf("editorIndex = %d, want 0", m.editorIndex)
		}
	})

	t.Run("down and j move the cursor", func(t *testing.T) {
		for _, k := range []tea.KeyMsg{key(tea.KeyDown), runes("j")} {
			m := pressKey(t, wizardAt(t, SetupStateEditorSelect), k)
			if m.editorIndex != 1 {
				t.Errorf("editorIndex after %s = %d, want 1", k, m.editorIndex)
			}
		}
	})

	t.Run("up stops at the first target", func(t *testing.T) {
		m := pressKey(t, wizardAt(t, SetupStateEditorSelect), key(tea.KeyUp))
		if m.editorIndex != 0 {
			t.Errorf("editorIndex = %d, want 0", m.editorIndex)
		}
	})

	t.Run("down stops at the last target", func(t *testing.T) {
		m := wizardAt(t, SetupStateEditorSelect)
		last := len(m.targets) - 1
		m.editorIndex = last

		m = pressKey(t, m, key(tea.KeyDown))
		if m.editorIndex != last {
			t.Errorf("editorIndex = %d, want %d", m.editorIndex, last)
		}
	})

	t.Run("enter records the target and confirms", func(t *testing.T) {
		m := wizardAt(t, SetupStateEditorSelect)
		m.editorIndex = 2

		m = pressKey(t, m, key(tea.KeyEnter))

		if m.state != SetupStateConfirmation {
			t.Errorf("state = %v, want %v", m.state, SetupStateConfirmation)
		}
		if m.EditorKey != m.targets[2].Key {
			t.Errorf("EditorKey = %q, want %q", m.EditorKey, m.targets[2].Key)
		}
	})

	t.Run("esc steps back with the directory prefilled", func(t *testing.T) {
		m := pressKey(t, wizardAt(t, SetupStateEditorSelect), key(tea.KeyEscape))

		if m.state != SetupStateTemplatesDir {
			t.Errorf("state = %v, want %v", m.state, SetupStateTemplatesDir)
		}
		if got := m.textInput.Value(); got != "/test/templates/dir" {
			t.Errorf("input value = %q, want the previous directory", got)
		}
	})

	t.Run("q cancels", func(t *testing.T) {
		if m := pressKey(t, wizardAt(t, SetupStateEditorSelect), runes("q")); !m.Cancelled {
			t.Error("q should cancel on the picker")
		}
	})
}

func TestConfirmationScreen(t *testing.T) {
	t.Run("y produces the config command", func(t *testing.T) {
		_, cmd := wizardAt(t, SetupStateConfirmation).Update(runes("y"))
		if cmd == nil {
			t.Error("confirming should return the write command")
		}
	})

	t.Run("n steps back to the picker", func(t *testing.T) {
		if m := pressKey(t, wizardAt(t, SetupStateConfirmation), runes("n")); m.state != SetupStateEditorSelect {
			t.Errorf("state = %v, want %v", m.state, SetupStateEditorSelect)
		}
	})

	t.Run("esc steps back to the picker", func(t *testing.T) {
		if m := pressKey(t, wizardAt(t, SetupStateConfirmation), key(tea.KeyEscape)); m.state != SetupStateEditorSelect {
			t.Errorf("state = %v, want %v", m.state, SetupStateEditorSelect)
		}
	})

	t.Run("q cancels", func(t *testing.T) {
		if m := pressKey(t, wizardAt(t, SetupStateConfirmation), runes("q")); !m.Cancelled {
			t.Error("q should cancel on the confirmation screen")
		}
	})
}

func TestCreateConfig(t *testing.T) {
	t.Run("writes the config and templates dir", func(t *testing.T) {
		home, configPath := setTestHome(t)

		m := newTestModel(t)
		m.TemplatesDir = home + "/templates"
		m.EditorKey = "claude"

		msg := m.createConfig()()
		if _, ok := msg.(setupCompleteMsg); !ok {
			t.Fatalf("createConfig produced %#v, want setupCompleteMsg", msg)
		}

		if !pathExists(configPath) {
			t.Error("config file was not created")
		}
		if !pathExists(m.TemplatesDir) {
			t.Error("templates directory was not created")
		}

		cfg := loadWrittenConfig(t)
		if cfg.TemplatesDir != m.TemplatesDir {
			t.Errorf("TemplatesDir = %q, want %q", cfg.TemplatesDir, m.TemplatesDir)
		}
		if cfg.DefaultEditor != "claude" {
			t.Errorf("DefaultEditor = %q, want %q", cfg.DefaultEditor, "claude")
		}
	})

	t.Run("reports creation failure", func(t *testing.T) {
		setTestHome(t)

		m := newTestModel(t)
		// Outside the home directory, so the secure root refuses it.
		m.TemplatesDir = "/proc/not-allowed"
		m.EditorKey = "cursor"

		msg := m.createConfig()()
		if _, ok := msg.(setupErrorMsg); !ok {
			t.Fatalf("createConfig produced %#v, want setupErrorMsg", msg)
		}
	})
}

func TestErrorLifecycle(t *testing.T) {
	t.Run("error message lands in the layout", func(t *testing.T) {
		m := newTestModel(t)

		updated, _ := m.Update(setupErrorMsg{errors.New("boom")})
		m = updated.(*SetupModel)

		if m.layout.GetError() == nil {
			t.Error("layout should carry the error")
		}
	})

	t.Run("typing clears a shown error", func(t *testing.T) {
		m := wizardAt(t, SetupStateTemplatesDir)
		m.layout = m.layout.SetError(errors.New("boom"))

		if m = pressKey(t, m, runes("a")); m.layout.GetError() != nil {
			t.Error("typing should clear the error")
		}
	})

	t.Run("completion clears errors and switches state", func(t *testing.T) {
		m := newTestModel(t)
		m.layout = m.layout.SetError(errors.New("boom"))

		updated, _ := m.Update(setupCompleteMsg{})
		m = updated.(*SetupModel)

		if m.layout.GetError() != nil {
			t.Error("completion should clear the error")
		}
		if m.state != SetupStateComplete {
			t.Errorf("state = %v, want %v", m.state, SetupStateComplete)
		}
	})
}

func TestScreenContent(t *testing.T) {
	tests := []struct {
		name     string
		state    SetupState
		contains []string
	}{
		{"welcome", SetupStateWelcome, []string{"Welcome"}},
		{"directory input", SetupStateTemplatesDir, []string{"Templates Directory", "templates"}},
		{"editor picker", SetupStateEditorSelect, []string{"Editor Target", "Cursor"}},
		{"confirmation", SetupStateConfirmation, []string{"Confirm Configuration", "/test/templates/dir"}},
		{"complete", SetupStateComplete, []string{"Setup Complete"}},
		{"cancelled", SetupStateCancelled, []string{"Setup Cancelled"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := wizardAt(t, tt.state).View()
			for _, want := range tt.contains {
				if !strings.Contains(view, want) {
					t.Errorf("%s view is missing %q", tt.name, want)
				}
			}
		})
	}
}

func TestResize(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if updated.(*SetupModel) == nil {
		t.Error("resize should keep the model alive")
	}
}

func BenchmarkUpdate(b *testing.B) {
	logger, _ := logging.NewTestLogger()
	m := NewSetupModel(helpers.NewUIContext(100, 30, nil, logger))
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}

	b.ResetTimer()
	for range b.N {
		m.Update(msg)
	}
}

func BenchmarkView(b *testing.B) {
	logger, _ := logging.NewTestLogger()
	m := NewSetupModel(helpers.NewUIContext(100, 30, nil, logger))

	b.ResetTimer()
	for range b.N {
		m.View()
	}
}
