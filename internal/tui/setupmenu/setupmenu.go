// Package setupmenu implements the first-run wizard for the rulesmith TUI.
//
// The wizard collects the two settings nothing else can run without: the
// overlay directory for user rule templates and the default editor target.
// It walks welcome → directory input → editor picker → confirmation, with
// esc stepping back one screen, and ends in a complete or cancelled state
// that the caller inspects through Cancelled.
package setupmenu

import (
	"fmt"
	"strings"

	"rulesmith/internal/config"
	"rulesmith/internal/editors"
	"rulesmith/internal/logging"
	"rulesmith/internal/templatestore"
	"rulesmith/internal/tui/components"
	"rulesmith/internal/tui/helpers"
	"rulesmith/internal/tui/styles"
	"rulesmith/pkg/fileops"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// SetupState identifies a wizard screen.
type SetupState int

const (
	SetupStateWelcome      SetupState = iota
	SetupStateTemplatesDir            // directory path input
	SetupStateEditorSelect            // default editor target picker
	SetupStateConfirmation            // review before writing the config
	SetupStateComplete
	SetupStateCancelled
)

type (
	setupErrorMsg    struct{ err error }
	setupCompleteMsg struct{}
)

// SetupModel drives the wizard. Pointer receivers throughout: Bubble Tea
// hands the same *SetupModel back on every Update, so the caller can read
// the collected settings off the final model.
type SetupModel struct {
	state SetupState

	// Collected settings
	TemplatesDir string // overlay directory for user rule templates
	EditorKey    string // default editor target key, e.g. "cursor"

	targets     []editors.Target
	editorIndex int

	Cancelled bool // set when the user aborts the wizard

	logger    *logging.AppLogger
	textInput textinput.Model
	layout    components.LayoutModel
}

// NewSetupModel builds the wizard model. When the context already knows the
// window size the text input is sized to match.
func NewSetupModel(ctx helpers.UIContext) *SetupModel {
	ti := textinput.New()
	ti.Placeholder = templatestore.DefaultDir()
	ti.Focus()
	ti.CharLimit = 256

	layout := components.NewLayout(components.LayoutConfig{
		MarginX:  2,
		MarginY:  1,
		MaxWidth: 100,
	})
	if ctx.HasValidDimensions() {
		layout, _ = layout.Update(tea.WindowSizeMsg{Width: ctx.Width, Height: ctx.Height})
		ti.Width = layout.InputWidth()
	}

	return &SetupModel{
		state:     SetupStateWelcome,
		textInput: ti,
		layout:    layout,
		logger:    ctx.Logger,
		targets:   editors.All(),
	}
}

func (m *SetupModel) Init() tea.Cmd {
	m.logger.Info("setup wizard started")
	return textinput.Blink
}

func (m *SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.logger.LogMessage(msg)
	m.layout, _ = m.layout.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.textInput.Width = m.layout.InputWidth()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case setupErrorMsg:
		m.layout = m.layout.SetError(msg.err)
		return m, nil

	case setupCompleteMsg:
		m.transition(SetupStateComplete)
		return m, nil
	}

	return m, nil
}

// handleKeyPress routes keys to the current screen. Ctrl+C cancels from
// anywhere; "q" only cancels on screens without a text input so it stays
// typeable in paths.
func (m *SetupModel) handleKeyPress(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.cancel()
	}

	switch m.state {
	case SetupStateWelcome:
		return m.welcomeKeys(msg)
	case SetupStateTemplatesDir:
		return m.templatesDirKeys(msg)
	case SetupStateEditorSelect:
		return m.editorSelectKeys(msg)
	case SetupStateConfirmation:
		return m.confirmationKeys(msg)
	default:
		// Complete and cancelled screens exit on any key
		return m, tea.Quit
	}
}

func (m *SetupModel) welcomeKeys(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	switch msg.String() {
	case "enter", " ":
		def := templatestore.DefaultDir()
		return m, m.openDirInput(def, def)
	case "esc", "q":
		return m.cancel()
	}
	return m, nil
}

func (m *SetupModel) templatesDirKeys(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.acceptTemplatesDir()
	case "esc":
		m.transition(SetupStateWelcome)
		return m, nil
	default:
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		if m.layout.GetError() != nil {
			m.layout = m.layout.ClearError() // typing restarts a failed entry
		}
		return m, cmd
	}
}

// acceptTemplatesDir validates the entered path and moves on to the editor
// picker. Validation failures come back as a message so the layout shows
// them on the next frame.
func (m *SetupModel) acceptTemplatesDir() (*SetupModel, tea.Cmd) {
	input := strings.TrimSpace(m.textInput.Value())
	m.logger.Debug("validating templates directory", "path", input)

	if err := fileops.ValidateStoragePath(input); err != nil {
		m.logger.Warn("templates directory rejected", "error", err)
		return m, func() tea.Msg { return setupErrorMsg{err} }
	}

	m.TemplatesDir = fileops.ExpandPath(input)
	m.logger.LogStateTransition("SetupModel", "SetupStateTemplatesDir", "SetupStateEditorSelect")
	m.transition(SetupStateEditorSelect)
	return m, nil
}

func (m *SetupModel) editorSelectKeys(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.editorIndex > 0 {
			m.editorIndex--
		}
	case "down", "j":
		if m.editorIndex < len(m.targets)-1 {
			m.editorIndex++
		}
	case "enter", " ":
		m.EditorKey = m.targets[m.editorIndex].Key
		m.logger.LogStateTransition("SetupModel", "SetupStateEditorSelect", "SetupStateConfirmation")
		m.transition(SetupStateConfirmation)
	case "esc":
		return m, m.openDirInput(m.currentTemplatesDir(), templatestore.DefaultDir())
	case "q":
		return m.cancel()
	}
	return m, nil
}

func (m *SetupModel) confirmationKeys(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.logger.Debug("settings confirmed, writing config")
		return m, m.createConfig()
	case "n", "N", "esc":
		m.transition(SetupStateEditorSelect)
	case "q":
		return m.cancel()
	}
	return m, nil
}

// createConfig writes the configuration asynchronously so the UI keeps
// rendering while directories are created.
func (m *SetupModel) createConfig() tea.Cmd {
	return func() tea.Msg {
		m.logger.Info("creating configuration", "templates_dir", m.TemplatesDir, "editor", m.EditorKey)
		if err := config.CreateNewConfig(m.TemplatesDir, m.EditorKey); err != nil {
			m.logger.Error("configuration creation failed", "error", err)
			return setupErrorMsg{err}
		}
		return setupCompleteMsg{}
	}
}

func (m *SetupModel) cancel() (*SetupModel, tea.Cmd) {
	m.logger.Warn("setup cancelled")
	m.Cancelled = true
	m.state = SetupStateCancelled
	return m, nil
}

// transition switches screens and drops any displayed error.
func (m *SetupModel) transition(to SetupState) {
	m.state = to
	m.layout = m.layout.ClearError()
}

// openDirInput switches to the directory screen with the input prefilled.
func (m *SetupModel) openDirInput(value, placeholder string) tea.Cmd {
	m.transition(SetupStateTemplatesDir)
	m.textInput.Reset()
	m.textInput.SetValue(value)
	m.textInput.Placeholder = placeholder
	m.textInput.Focus()
	return textinput.Blink
}

// currentTemplatesDir is the value to prefill when stepping back into the
// directory screen.
func (m *SetupModel) currentTemplatesDir() string {
	if m.TemplatesDir != "" {
		return m.TemplatesDir
	}
	return templatestore.DefaultDir()
}

// selectedTarget returns the highlighted editor target.
func (m *SetupModel) selectedTarget() editors.Target {
	if m.editorIndex < 0 || m.editorIndex >= len(m.targets) {
		return m.targets[0]
	}
	return m.targets[m.editorIndex]
}

func (m *SetupModel) View() string {
	switch m.state {
	case SetupStateWelcome:
		return m.viewWelcome()
	case SetupStateTemplatesDir:
		return m.viewTemplatesDir()
	case SetupStateEditorSelect:
		return m.viewEditorSelect()
	case SetupStateConfirmation:
		return m.viewConfirmation()
	case SetupStateComplete:
		return m.viewComplete()
	case SetupStateCancelled:
		return m.viewCancelled()
	}
	return ""
}

func (m *SetupModel) viewWelcome() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🔧 Welcome to Rulesmith!",
		Subtitle: "Let's set up your configuration.",
		HelpText: "enter continue • esc cancel",
	})

	content := `This is your first time running Rulesmith. We need to configure a few settings to get you started.

We'll need to set up:
• A templates directory for your own rule templates
• The editor target that generated rules are written for by default

Templates placed in the directory shadow the built-in ones with the same name, and synced template repositories copy their rules there too.`

	return m.layout.Render(content)
}

func (m *SetupModel) viewTemplatesDir() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "📁 Templates Directory",
		Subtitle: "Where should we store your rule templates?",
		HelpText: "enter continue • esc back • ~ expands to home",
	})

	explanation := `This directory holds the rule templates you import or sync. Files in it override the embedded templates with the same name. Choose a path that is accessible and writable.`

	input := styles.InputStyle.Render(m.textInput.View())
	content := fmt.Sprintf("%s\n\nEnter templates directory path:\n%s", explanation, input)

	return m.layout.Render(content)
}

func (m *SetupModel) viewEditorSelect() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🎯 Default Editor Target",
		Subtitle: "Which assistant should generated rules be written for?",
		HelpText: "↑/↓ move • enter select • esc back • q cancel",
	})

	var b strings.Builder
	b.WriteString("The default target is used whenever you generate rules without picking an editor explicitly. You can always override it per run.\n\n")

	for i, target := range m.targets {
		marker := "  "
		if i == m.editorIndex {
			marker = "▶ "
		}
		// Explanations carry a documentation link on a second line that
		// would drown the picker, so only the first line is shown.
		summary, _, _ := strings.Cut(target.Explanation, "\n")
		fmt.Fprintf(&b, "%s%s\n     %s\n\n", marker, target.Name, summary)
	}

	return m.layout.Render(strings.TrimRight(b.String(), "\n"))
}

func (m *SetupModel) viewConfirmation() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "✅ Confirm Configuration",
		Subtitle: "Please review your settings:",
		HelpText: "y confirm • n back • q cancel",
	})

	target := m.selectedTarget()
	content := fmt.Sprintf(`Templates Directory: %s
Default Editor: %s (%s)

Is this correct? (Y/n)`, m.TemplatesDir, target.Name, target.Key)

	return m.layout.Render(content)
}

func (m *SetupModel) viewComplete() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🎉 Setup Complete!",
		Subtitle: "Rulesmith has been configured successfully.",
		HelpText: "any key to continue",
	})

	target := m.selectedTarget()
	content := fmt.Sprintf(`Configuration saved successfully!

Templates Directory: %s
Default Editor: %s

You can now generate rules for your projects. Run rulesmith generate inside a project, or use the main menu to analyze a project and review the generated rules before saving them.`, m.TemplatesDir, target.Name)

	return m.layout.Render(content)
}

func (m *SetupModel) viewCancelled() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "❌ Setup Cancelled",
		Subtitle: "Rulesmith will not be configured.",
		HelpText: "any key to exit",
	})

	return m.layout.Render(`Setup was cancelled. Rulesmith has not been configured and will need to be set up before you can use it.`)
}
