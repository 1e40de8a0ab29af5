// Package savemodel writes a generated rules document into the project using
// one of the supported editor target formats. The flow is target selection,
// an optional filename step for stem-based targets, an overwrite confirmation
// when the destination already exists, then the write itself.
package savemodel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rulesmith/internal/config"
	"rulesmith/internal/editors"
	"rulesmith/internal/logging"
	"rulesmith/internal/tui/components"
	"rulesmith/internal/tui/helpers"
	"rulesmith/internal/tui/styles"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type SaveModelState int

const (
	StateTargetSelection SaveModelState = iota // Picking the editor target
	StateFileNameInput                         // Choosing the filename stem
	StateConfirmation                          // Destination exists, confirm overwrite
	StateSaving                                // Write in flight
	StateSuccess                               // Document written
	StateError                                 // Write failed
)

// Custom messages for async operations and transitions.
type (
	SaveCompleteMsg struct {
		Path       string
		BackupPath string
	}

	SaveErrorMsg struct {
		Err error
	}
)

// targetItem narrows a target's multi-line explanation to its first line so
// the two-line list delegate renders cleanly.
type targetItem struct {
	editors.Target
}

func (i targetItem) Description() string {
	summary, _, _ := strings.Cut(i.Target.Explanation, "\n")
	return summary
}

type SaveModel struct {
	logger *logging.AppLogger
	config *config.Config
	state  SaveModelState

	layout     components.LayoutModel
	spinner    spinner.Model
	targetList list.Model
	nameInput  textinput.Model

	// The document being saved.
	root    string
	content string

	// Collected along the flow.
	target     editors.Target
	stem       string
	destPath   string
	backupPath string

	// Outcome of the set-as-default action on the success screen.
	defaultNote string

	err error
}

// NewSaveModel prepares the save flow for a rendered document destined for
// the given project root. The configured default editor starts selected.
func NewSaveModel(ctx helpers.UIContext, root, content string) SaveModel {
	layout := components.NewLayout(components.LayoutConfig{
		MarginX:  2,
		MarginY:  1,
		MaxWidth: 100,
	})

	if ctx.HasValidDimensions() {
		windowMsg := tea.WindowSizeMsg{Width: ctx.Width, Height: ctx.Height}
		layout, _ = layout.Update(windowMsg)
	}

	s := spinner.New()
	s.Style = styles.SpinnerStyle
	s.Spinner = spinner.Pulse

	targets := editors.All()
	items := make([]list.Item, len(targets))
	for i, t := range targets {
		items[i] = targetItem{Target: t}
	}

	targetList := list.New(items, list.NewDefaultDelegate(), ctx.Width, ctx.Height)
	targetList.Title = "Editor Targets"
	targetList.SetShowStatusBar(false)
	targetList.SetFilteringEnabled(false)
	targetList.SetShowHelp(false)

	if ctx.Config != nil && ctx.Config.DefaultEditor != "" {
		for i, t := range targets {
			if t.Key == ctx.Config.DefaultEditor {
				targetList.Select(i)
				break
			}
		}
	}

	nameInput := textinput.New()
	nameInput.Placeholder = "rules"
	nameInput.CharLimit = 255
	nameInput.Width = 50

	return SaveModel{
		logger:     ctx.Logger,
		config:     ctx.Config,
		state:      StateTargetSelection,
		layout:     layout,
		spinner:    s,
		targetList: targetList,
		nameInput:  nameInput,
		root:       root,
		content:    content,
	}
}

func (m SaveModel) Init() tea.Cmd {
	return nil
}

func (m SaveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.layout, _ = m.layout.Update(msg)

	var cmd tea.Cmd

	switch message := msg.(type) {
	case tea.WindowSizeMsg:
		m.targetList.SetSize(message.Width-4, max(message.Height-14, 5))
		m.nameInput.Width = m.layout.InputWidth()
		return m, nil

	case spinner.TickMsg:
		if m.state == StateSaving {
			m.spinner, cmd = m.spinner.Update(message)
			return m, cmd
		}
		return m, nil

	case SaveCompleteMsg:
		m.logger.Info("Rules document saved", "path", message.Path, "backup", message.BackupPath)
		m.state = StateSuccess
		m.destPath = message.Path
		m.backupPath = message.BackupPath
		m.err = nil
		return m, nil

	case SaveErrorMsg:
		m.logger.Error("Saving rules document failed", "error", message.Err)
		m.state = StateError
		m.err = message.Err
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(message)
	}

	return m, nil
}

func (m SaveModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.state {
	case StateTargetSelection:
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }
		case "enter":
			item, ok := m.targetList.SelectedItem().(targetItem)
			if !ok {
				return m, nil
			}
			m.target = item.Target
			m.logger.Debug("Editor target selected", "target", m.target.Key)

			if m.target.UsesStem() {
				m.state = StateFileNameInput
				m.nameInput.SetValue("")
				m.nameInput.Focus()
				return m, textinput.Blink
			}
			m.stem = ""
			return m.checkDestination()
		default:
			m.targetList, cmd = m.targetList.Update(msg)
			return m, cmd
		}

	case StateFileNameInput:
		switch msg.String() {
		case "enter":
			m.stem = strings.TrimSpace(m.nameInput.Value())
			return m.checkDestination()
		case "esc":
			m.state = StateTargetSelection
			m.nameInput.Blur()
			return m, nil
		default:
			m.nameInput, cmd = m.nameInput.Update(msg)
			return m, cmd
		}

	case StateConfirmation:
		switch msg.String() {
		case "y", "Y", "enter":
			return m.startSave()
		case "n", "N":
			// Back up one step to pick a different name or target.
			if m.target.UsesStem() {
				m.state = StateFileNameInput
				m.nameInput.Focus()
				return m, textinput.Blink
			}
			m.state = StateTargetSelection
			return m, nil
		case "esc":
			return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }
		}

	case StateSuccess:
		switch msg.String() {
		case "m", "q", "esc":
			return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }
		case "s":
			// Same document, another target format.
			m.state = StateTargetSelection
			m.stem = ""
			m.destPath = ""
			m.backupPath = ""
			m.defaultNote = ""
			return m, nil
		case "d":
			return m.setAsDefaultTarget()
		}

	case StateError:
		switch msg.String() {
		case "r":
			return m.startSave()
		case "q", "esc":
			return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }
		}
	}

	return m, nil
}

// checkDestination resolves the output path and either asks about an existing
// file or saves straight away.
func (m SaveModel) checkDestination() (tea.Model, tea.Cmd) {
	m.destPath = m.target.ResolvePath(m.root, m.stem)

	if _, err := os.Stat(m.destPath); err == nil {
		m.state = StateConfirmation
		return m, nil
	}
	return m.startSave()
}

func (m SaveModel) startSave() (tea.Model, tea.Cmd) {
	m.state = StateSaving
	m.err = nil
	return m, tea.Batch(m.saveCmd(), m.spinner.Tick)
}

// saveCmd writes the document off the event loop. Backups are always
// requested; WriteDocument only creates one when a file is replaced.
func (m SaveModel) saveCmd() tea.Cmd {
	path := m.destPath
	content := m.content
	return func() tea.Msg {
		backupPath, err := editors.WriteDocument(path, content, true)
		if err != nil {
			return SaveErrorMsg{Err: err}
		}
		return SaveCompleteMsg{Path: path, BackupPath: backupPath}
	}
}

// setAsDefaultTarget persists the just-used target as the default editor and
// asks the root model to pick up the changed configuration.
func (m SaveModel) setAsDefaultTarget() (tea.Model, tea.Cmd) {
	if m.config == nil || m.defaultNote != "" {
		return m, nil
	}

	if err := m.config.SetDefaultEditor(m.target.Key); err != nil {
		m.logger.Error("Failed to save default editor", "editor", m.target.Key, "error", err)
		m.defaultNote = fmt.Sprintf("Could not save the default: %v", err)
		return m, nil
	}

	m.logger.Info("Default editor updated", "editor", m.target.Key)
	m.defaultNote = fmt.Sprintf("%s is now the default target.", m.target.Name)
	return m, config.ReloadConfig()
}

func (m SaveModel) View() string {
	switch m.state {
	case StateTargetSelection:
		return m.viewTargetSelection()
	case StateFileNameInput:
		return m.viewFileNameInput()
	case StateConfirmation:
		return m.viewConfirmation()
	case StateSaving:
		return m.viewSaving()
	case StateSuccess:
		return m.viewSuccess()
	case StateError:
		return m.viewError()
	}
	return ""
}

func (m SaveModel) viewTargetSelection() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "💾 Save Rules Document",
		Subtitle: "Choose the assistant format to write",
		HelpText: "↑/↓ to navigate • Enter to select • Esc to return to main menu",
	})
	return m.layout.Render(m.targetList.View())
}

func (m SaveModel) viewFileNameInput() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "💾 Save Rules Document",
		Subtitle: fmt.Sprintf("Target: %s", m.target.Name),
		HelpText: "Enter to continue • Esc to go back",
	})

	dir := filepath.Join(m.root, filepath.FromSlash(m.target.Dir))
	content := fmt.Sprintf("Directory: %s\n", dir)
	content += fmt.Sprintf("File name: %s\n\n", m.target.FileNameFor(m.nameInput.Value()))
	content += styles.InputStyle.Render(m.nameInput.View())
	return m.layout.Render(content)
}

func (m SaveModel) viewConfirmation() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "💾 Save Rules Document - Confirm Overwrite",
		Subtitle: "File already exists",
		HelpText: "y to overwrite • n to go back • Esc to return to main menu",
	})

	content := fmt.Sprintf("'%s' already exists.\n\n", m.destPath)
	content += "Overwriting keeps the previous version next to it as a .bak file."
	return m.layout.Render(content)
}

func (m SaveModel) viewSaving() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "💾 Save Rules Document",
		Subtitle: "Writing file...",
		HelpText: "Please wait",
	})
	content := fmt.Sprintf("Writing %s...\n\n", m.destPath)
	content += fmt.Sprintf("%s %s", m.spinner.View(), styles.SpinnerStyle.Render("Saving..."))
	return m.layout.Render(content)
}

func (m SaveModel) viewSuccess() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "💾 Save Rules Document - Success",
		Subtitle: "Rules written",
		HelpText: "m to return to main menu • s to save to another target • d to make this the default",
	})

	content := "✅ Rules document saved!\n\n"
	content += fmt.Sprintf("Location: %s\n", m.destPath)
	if m.backupPath != "" {
		content += fmt.Sprintf("Previous version: %s\n", m.backupPath)
	}
	if m.defaultNote != "" {
		content += fmt.Sprintf("\n%s\n", m.defaultNote)
	}
	return m.layout.Render(content)
}

func (m SaveModel) viewError() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "💾 Save Rules Document - Error",
		Subtitle: "Operation failed",
		HelpText: "r to retry • Esc to return to main menu",
	})

	errorText := "An error occurred"
	if m.err != nil {
		errorText = m.err.Error()
	}
	content := styles.ErrorStyle.Render("❌ " + errorText)
	return m.layout.Render(content)
}
