// Package analyzemenu runs technology detection against the current working
// directory and presents the resulting profiles in a scrollable view.
package analyzemenu

import (
	"fmt"
	"os"
	"strings"

	"rulesmith/internal/classify"
	"rulesmith/internal/config"
	"rulesmith/internal/core"
	"rulesmith/internal/logging"
	"rulesmith/internal/tui/components"
	"rulesmith/internal/tui/helpers"
	"rulesmith/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type AnalyzeModelState int

const (
	StateLoading AnalyzeModelState = iota // Detection running against the project
	StateResults                          // Showing detected profiles
	StateError                            // Detection or library loading failed
)

// Custom messages for async operations and transitions.
type (
	AnalyzeCompleteMsg struct {
		Root     string
		Profiles []classify.Profile
	}

	AnalyzeErrorMsg struct {
		Err error
	}
)

type AnalyzeModel struct {
	logger *logging.AppLogger
	config *config.Config
	state  AnalyzeModelState

	// Layout for the loading and error states; results render their own
	// header/pane/help stack around the viewport.
	layout   components.LayoutModel
	spinner  spinner.Model
	viewport viewport.Model

	root     string
	profiles []classify.Profile
	err      error
}

func NewAnalyzeModel(ctx helpers.UIContext) AnalyzeModel {
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

	vp := viewport.New(ctx.Width, ctx.Height)
	vp.MouseWheelEnabled = true

	return AnalyzeModel{
		logger:   ctx.Logger,
		config:   ctx.Config,
		state:    StateLoading,
		layout:   layout,
		spinner:  s,
		viewport: vp,
	}
}

// Init kicks off the asynchronous project analysis.
func (m AnalyzeModel) Init() tea.Cmd {
	return tea.Batch(
		m.analyzeCmd(),
		m.spinner.Tick,
	)
}

func (m AnalyzeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.layout, _ = m.layout.Update(msg)

	var cmd tea.Cmd

	switch message := msg.(type) {
	case tea.WindowSizeMsg:
		m.resizeViewport(message)
		return m, nil

	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(message)
		return m, cmd

	case spinner.TickMsg:
		if m.state == StateLoading {
			m.spinner, cmd = m.spinner.Update(message)
			return m, cmd
		}
		return m, nil

	case AnalyzeCompleteMsg:
		m.logger.Info("Project analysis complete", "root", message.Root, "technologies", len(message.Profiles))
		m.state = StateResults
		m.root = message.Root
		m.profiles = message.Profiles
		m.err = nil
		m.viewport.SetContent(m.resultsContent())
		m.viewport.GotoTop()
		return m, nil

	case AnalyzeErrorMsg:
		m.logger.Error("Project analysis failed", "error", message.Err)
		m.state = StateError
		m.err = message.Err
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(message)
	}

	return m, nil
}

func (m AnalyzeModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case StateResults:
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }
		case "r":
			m.state = StateLoading
			m.err = nil
			return m, tea.Batch(m.analyzeCmd(), m.spinner.Tick)
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case StateError:
		switch msg.String() {
		case "r":
			m.state = StateLoading
			m.err = nil
			return m, tea.Batch(m.analyzeCmd(), m.spinner.Tick)
		case "q", "esc":
			return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }
		}

	default:
		// Loading: allow bailing out while the scan runs.
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }
		}
	}

	return m, nil
}

// analyzeCmd loads the engine and classifies the working directory off the
// event loop.
func (m AnalyzeModel) analyzeCmd() tea.Cmd {
	cfg := m.config
	logger := m.logger
	return func() tea.Msg {
		root, err := os.Getwd()
		if err != nil {
			return AnalyzeErrorMsg{Err: fmt.Errorf("cannot resolve working directory: %w", err)}
		}

		engine, err := core.LoadEngine(cfg, logger)
		if err != nil {
			return AnalyzeErrorMsg{Err: err}
		}

		profiles, err := engine.Analyze(root)
		if err != nil {
			return AnalyzeErrorMsg{Err: err}
		}
		return AnalyzeCompleteMsg{Root: root, Profiles: profiles}
	}
}

// resizeViewport recomputes the single content pane from the window size,
// keeping the measured header and help heights in sync with what View renders.
func (m *AnalyzeModel) resizeViewport(msg tea.WindowSizeMsg) {
	frameW, frameH := styles.PaneStyle.GetFrameSize()

	const mainLeftMargin = 1
	width := msg.Width - frameW - mainLeftMargin
	if width < 30 {
		width = 30
	}

	headerH := lipgloss.Height(m.resultsHeader())
	helpH := lipgloss.Height(m.resultsHelp())
	height := msg.Height - headerH - helpH - frameH
	if height < 5 {
		height = 5
	}

	m.viewport.Width = width
	m.viewport.Height = height
}

func (m AnalyzeModel) resultsContent() string {
	if len(m.profiles) == 0 {
		return "No supported technologies detected.\n\n" +
			"Rule generation still works: the baseline section applies to every project."
	}

	noun := "technologies"
	if len(m.profiles) == 1 {
		noun = "technology"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Detected %d %s in this project.\n\n", len(m.profiles), noun)
	for _, p := range m.profiles {
		b.WriteString(styles.SuccessStyle.Render(p.String()))
		b.WriteString("\n")
		if len(p.Features) > 0 {
			fmt.Fprintf(&b, "  features: %s\n", strings.Join(p.Features.Sorted(), ", "))
		}
		for _, ev := range p.Evidence {
			fmt.Fprintf(&b, "  %s: %s\n", ev.Path, ev.Detail)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m AnalyzeModel) resultsHeader() string {
	title := styles.TitleStyle.Render("🔍 Analysis Results")
	subtitle := styles.SubtitleStyle.Render(m.root)
	return styles.HeaderContainerStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, subtitle))
}

func (m AnalyzeModel) resultsHelp() string {
	return styles.HelpContainerStyle.Render(
		styles.HelpStyle.Render("↑/↓ to scroll • r to re-analyze • Esc to return to main menu"))
}

func (m AnalyzeModel) View() string {
	switch m.state {
	case StateLoading:
		return m.viewLoading()
	case StateResults:
		return m.viewResults()
	case StateError:
		return m.viewError()
	}
	return ""
}

func (m AnalyzeModel) viewLoading() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🔍 Analyze Project",
		Subtitle: "Scanning the working directory for technology markers...",
		HelpText: "Esc to return to main menu",
	})
	content := fmt.Sprintf("\n %s %s\n\n", m.spinner.View(), styles.SpinnerStyle.Render("Analyzing..."))
	return m.layout.Render(content)
}

func (m AnalyzeModel) viewResults() string {
	pane := styles.PaneStyle.
		Width(m.viewport.Width).
		Height(m.viewport.Height).
		Render(m.viewport.View())
	pane = styles.MainContainerStyle.Render(pane)

	return lipgloss.JoinVertical(lipgloss.Left, m.resultsHeader(), pane, m.resultsHelp())
}

func (m AnalyzeModel) viewError() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🔍 Analyze Project - Error",
		Subtitle: "Analysis failed",
		HelpText: "r to retry • Esc to return to main menu",
	})

	errorText := "An error occurred during analysis"
	if m.err != nil {
		errorText = m.err.Error()
	}
	content := styles.ErrorStyle.Render("❌ " + errorText)
	return m.layout.Render(content)
}
