// Package tui provides the terminal user interface for the rulesmith
// application.
//
// This package implements a full-screen TUI using the Bubble Tea framework and
// Lipgloss styling. It offers a menu-driven interface around the rule
// generation engine:
//
// - Main navigation menu with filtering capabilities
// - Generate flow: analyze the project, review the document sections, pick an
//   editor target and save the result
// - Analyze view showing the technology profiles detected in a project
// - Template browser for the embedded rule templates and configured overlays
//
// The TUI follows a state-based architecture where each feature is a
// specialized model implementing the tea.Model interface. The MainModel owns
// the menu and delegates to the active feature model; transitions flow through
// custom message types (NavigateMsg, ErrorMsg, helpers.NavigateToMainMenuMsg)
// so submodels never reach back into the root model directly.
package tui

import (
	"rulesmith/internal/config"
	"rulesmith/internal/logging"
	"rulesmith/internal/tui/analyzemenu"
	"rulesmith/internal/tui/browsemenu"
	"rulesmith/internal/tui/components"
	"rulesmith/internal/tui/helpers"
	"rulesmith/internal/tui/reviewmodel"
	"rulesmith/internal/tui/savemodel"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// AppState identifies which view the root model is currently showing.
type AppState int

const (
	// StateMenu represents the main navigation menu
	StateMenu AppState = iota
	StateError
	StateQuitting

	StateGenerate
	StateAnalyze
	StateBrowse
	StateSave
)

// Messages for internal state transitions.
type (
	NavigateMsg struct {
		State AppState
	}

	ErrorMsg struct {
		Err error
	}
)

// MenuItemModel is what a feature model behind a menu entry must implement.
// It is tea.Model today; the separate name keeps the root model reading in
// terms of features rather than raw Bubble Tea models.
type MenuItemModel interface {
	tea.Model
}

type item struct {
	title       string
	description string
	state       AppState
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.description }
func (i item) FilterValue() string { return i.title }

// MainModel is the root model for the TUI application.
//
// It coordinates the main menu and the feature models behind each menu entry,
// owning state transitions, window sizing and error display. Feature models
// are created fresh on every selection so they always see the current
// configuration; they signal completion or cancellation with
// helpers.NavigateToMainMenuMsg rather than touching the root model.
//
// The generate flow spans two feature models: the review model emits a
// reviewmodel.ReviewCompleteMsg carrying the composed document, and the root
// model swaps in the save model to write it out.
type MainModel struct {
	config    *config.Config
	logger    *logging.AppLogger
	state     AppState
	prevState AppState // restored when the error view is dismissed

	menu list.Model

	// Feature model behind the current state, nil while the menu is showing
	activeModel MenuItemModel

	layout components.LayoutModel

	// Last known window size, used to size freshly created feature models
	windowWidth  int
	windowHeight int

	err error
}

func NewMainModel(cfg *config.Config, logger *logging.AppLogger) *MainModel {
	items := []list.Item{
		item{
			title:       "📝  Generate rules",
			description: "Analyze the current directory and compose a rules document from matching templates.\nYou can toggle individual sections before saving the result for your editor or agent.",
			state:       StateGenerate,
		},
		item{
			title:       "🔍  Analyze project",
			description: "Scan the current directory for technology markers and show the detection profiles.",
			state:       StateAnalyze,
		},
		item{
			title:       "📚  Browse templates",
			description: "Explore the rule templates the generator draws from, including any repository overlays.",
			state:       StateBrowse,
		},
		item{
			title:       "👋  Quit",
			description: "Exit rulesmith.",
			state:       StateQuitting,
		},
	}

	menuList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	menuList.Title = ""
	menuList.SetShowTitle(false) // the layout renders the title and help rows
	menuList.SetShowStatusBar(false)
	menuList.SetFilteringEnabled(true)
	menuList.SetShowHelp(false)

	layout := components.NewLayout(components.LayoutConfig{
		MarginX:  2,
		MarginY:  1,
		MaxWidth: 100,
	})

	return &MainModel{
		config:    cfg,
		logger:    logger,
		state:     StateMenu,
		prevState: StateMenu,
		menu:      menuList,
		layout:    layout,
	}
}

func (m *MainModel) Init() tea.Cmd {
	m.logger.Info("root model initialized")
	return nil
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.layout, _ = m.layout.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case list.FilterMatchesMsg:
		// Filter results belong to whichever list started the filter
		if m.state == StateMenu {
			return m, m.updateMenu(msg)
		}
		return m, m.forwardToActive(msg)

	case NavigateMsg:
		m.enterState(msg.State)
		m.err = nil
		m.layout = m.layout.ClearError()
		return m, nil

	case ErrorMsg:
		m.logger.Error("feature reported an error", "error", msg.Err)
		m.err = msg.Err
		m.enterState(StateError)
		m.layout = m.layout.SetError(msg.Err)
		return m, nil

	case reviewmodel.ReviewCompleteMsg:
		// The review flow hands the composed document to the save flow
		return m.startSaveFlow(msg)

	case helpers.NavigateToMainMenuMsg:
		return m.returnToMenu(), nil

	case config.ReloadConfigMsg:
		return m.applyReloadedConfig(msg)
	}

	// Spinner ticks, async results and other feature messages
	return m, m.forwardToActive(msg)
}

// resize records the window size and fans it out to the menu and the active
// feature model. Degenerate sizes are dropped so submodels never lay out
// against a zero-width window.
func (m *MainModel) resize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.logger.Debug("window resize", "width", msg.Width, "height", msg.Height)
	if msg.Width <= 0 || msg.Height <= 0 {
		m.logger.Warn("ignoring degenerate window size", "width", msg.Width, "height", msg.Height)
		return m, nil
	}

	m.windowWidth = msg.Width
	m.windowHeight = msg.Height

	const chrome = 14 // header, subtitle and help rows around the menu
	m.menu.SetSize(msg.Width-4, msg.Height-chrome)

	return m, m.forwardToActive(msg)
}

func (m *MainModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.state = StateQuitting
		return m, tea.Quit
	}

	switch m.state {
	case StateMenu:
		return m.handleMenuKey(msg)

	case StateError:
		if msg.String() == "esc" {
			m.logger.LogStateTransition("MainModel", stateName(StateError), stateName(m.prevState))
			m.state = m.prevState
			m.err = nil
			m.layout = m.layout.ClearError()
		}
		return m, nil

	default:
		return m, m.forwardToActive(msg)
	}
}

// handleMenuKey runs the menu keymap. Quit and select are suppressed while
// the list filter is open so typed characters reach the filter instead.
func (m *MainModel) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	filtering := m.menu.FilterState() == list.Filtering

	switch {
	case msg.String() == "q" && !filtering:
		m.state = StateQuitting
		return m, tea.Quit

	case msg.String() == "enter" && !filtering:
		if selected, ok := m.menu.SelectedItem().(item); ok {
			m.logger.Debug("menu selection", "item", selected.title)
			return m.handleMenuSelection(selected)
		}
	}

	return m, m.updateMenu(msg)
}

// handleMenuSelection builds the feature model behind the chosen entry and
// schedules the state switch.
func (m *MainModel) handleMenuSelection(selected item) (tea.Model, tea.Cmd) {
	if selected.state == StateQuitting {
		m.state = StateQuitting
		return m, tea.Quit
	}

	model := m.getOrInitializeModel(selected.state)
	if model == nil {
		// Without valid dimensions there is nothing sensible to show yet
		return m, nil
	}

	return m, tea.Batch(m.mountActive(model), NavigateTo(selected.state))
}

// startSaveFlow swaps the active model for the save flow once a reviewed
// document is ready to be written.
func (m *MainModel) startSaveFlow(msg reviewmodel.ReviewCompleteMsg) (tea.Model, tea.Cmd) {
	m.enterState(StateSave)
	save := savemodel.NewSaveModel(m.GetUIContext(), msg.Root, msg.Content)
	return m, m.mountActive(save)
}

func (m *MainModel) applyReloadedConfig(msg config.ReloadConfigMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.logger.Error("config reload failed", "error", msg.Error)
		return m, func() tea.Msg { return ErrorMsg{Err: msg.Error} }
	}
	if msg.Config != nil {
		m.logger.Info("config reloaded")
		m.config = msg.Config
	}
	return m, nil
}

// mountActive installs model as the active feature model, runs its Init and
// seeds it with the current content area size.
func (m *MainModel) mountActive(model MenuItemModel) tea.Cmd {
	m.activeModel = model

	cmds := []tea.Cmd{model.Init()}
	if w, h := m.layout.ContentWidth(), m.layout.ContentHeight(); w > 0 && h > 0 {
		cmds = append(cmds, m.forwardToActive(tea.WindowSizeMsg{Width: w, Height: h}))
	}
	return tea.Batch(cmds...)
}

// forwardToActive routes msg to the active feature model, if any.
func (m *MainModel) forwardToActive(msg tea.Msg) tea.Cmd {
	if m.activeModel == nil {
		return nil
	}

	next, cmd := m.activeModel.Update(msg)
	feature, ok := next.(MenuItemModel)
	if !ok {
		m.logger.Error("feature model changed type mid-flight, dropping back to menu")
		m.returnToMenu()
		return nil
	}
	m.activeModel = feature
	return cmd
}

func (m *MainModel) updateMenu(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return cmd
}

// enterState moves to next, remembering where we came from for the error view.
func (m *MainModel) enterState(next AppState) {
	m.logger.LogStateTransition("MainModel", stateName(m.state), stateName(next))
	m.prevState = m.state
	m.state = next
}

// GetUIContext creates a UI context with current dimensions and app state
func (m *MainModel) GetUIContext() helpers.UIContext {
	return helpers.NewUIContext(m.windowWidth, m.windowHeight, m.config, m.logger)
}

// getOrInitializeModel always creates a fresh model so it sees current settings
func (m *MainModel) getOrInitializeModel(state AppState) MenuItemModel {
	if !m.hasValidDimensions() {
		m.logger.Warn("window size unknown, not building a feature model", "state", stateName(state))
		return nil
	}

	ctx := m.GetUIContext()
	m.logger.Debug("building feature model", "state", stateName(state))

	switch state {
	case StateGenerate:
		return reviewmodel.NewReviewModel(ctx)
	case StateAnalyze:
		return analyzemenu.NewAnalyzeModel(ctx)
	case StateBrowse:
		return browsemenu.NewBrowseModel(ctx)
	default:
		m.logger.Warn("no feature model for state", "state", stateName(state))
		return nil
	}
}

func (m *MainModel) View() string {
	if m.state == StateQuitting {
		m.layout = m.layout.SetConfig(components.LayoutConfig{
			Title: "👋 Goodbye!",
		})
		return m.layout.Render("Thank you for using Rulesmith!")
	}

	switch m.state {
	case StateMenu:
		return m.viewMenu()
	case StateError:
		return m.viewError()
	default:
		if m.activeModel != nil {
			return m.activeModel.View()
		}
		return m.viewMenu()
	}
}

func (m *MainModel) viewMenu() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🔧 Rulesmith - AI Rules Generator",
		Subtitle: "Generate assistant rules files from project analysis",
		HelpText: "↑/↓ move • enter select • / filter • q quit • ctrl+c force quit",
	})

	return m.layout.Render(m.menu.View())
}

func (m *MainModel) viewError() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "❌ Error",
		Subtitle: "Something went wrong",
		HelpText: "esc go back • ctrl+c quit",
	})

	var body string
	if m.err != nil {
		body = m.err.Error()
	}
	return m.layout.Render(body)
}

// hasValidDimensions reports whether a real window size has arrived yet.
func (m *MainModel) hasValidDimensions() bool {
	return m.windowWidth > 0 && m.windowHeight > 0
}

// returnToMenu drops the active feature model and clears any error state.
func (m *MainModel) returnToMenu() tea.Model {
	m.state = StateMenu
	m.activeModel = nil
	m.err = nil
	m.layout = m.layout.ClearError()
	return m
}

// NavigateTo creates a command that switches the root model to the given state.
func NavigateTo(state AppState) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{State: state}
	}
}

func stateName(s AppState) string {
	switch s {
	case StateMenu:
		return "menu"
	case StateError:
		return "error"
	case StateQuitting:
		return "quitting"
	case StateGenerate:
		return "generate"
	case StateAnalyze:
		return "analyze"
	case StateBrowse:
		return "browse"
	case StateSave:
		return "save"
	default:
		return "unknown"
	}
}
