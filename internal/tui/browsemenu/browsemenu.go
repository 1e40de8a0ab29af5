// Package browsemenu lists every rule template the loaded library carries and
// previews the selected one as rendered markdown in a split view.
package browsemenu

import (
	"fmt"
	"strings"

	"rulesmith/internal/config"
	"rulesmith/internal/core"
	"rulesmith/internal/logging"
	"rulesmith/internal/ruleset"
	"rulesmith/internal/tui/components"
	"rulesmith/internal/tui/helpers"
	"rulesmith/internal/tui/styles"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type BrowseModelState int

const (
	StateLoading  BrowseModelState = iota // Loading the template library
	StateBrowsing                         // List and preview panes active
	StateError                            // Library loading failed
)

// Custom messages for async operations and transitions.
type (
	LibraryLoadedMsg struct {
		Templates []*ruleset.Template
	}

	LibraryErrorMsg struct {
		Err error
	}
)

type focusedPane int

const (
	focusList focusedPane = iota
	focusPreview
)

// templateItem adapts a template to the bubbles list item interface.
type templateItem struct {
	template *ruleset.Template
}

func (i templateItem) Title() string { return i.template.Name }

func (i templateItem) Description() string {
	if i.template.Description != "" {
		return i.template.Description
	}
	return i.template.Technology
}

func (i templateItem) FilterValue() string {
	return i.template.Technology + " " + i.template.Name
}

type BrowseModel struct {
	logger *logging.AppLogger
	config *config.Config
	state  BrowseModelState

	// Layout for the loading and error states; browsing renders its own
	// header/panes/help stack.
	layout       components.LayoutModel
	spinner      spinner.Model
	templateList list.Model
	viewport     viewport.Model
	renderer     *components.MarkdownRenderer
	focusPane    focusedPane

	windowWidth  int
	windowHeight int

	templates []*ruleset.Template
	err       error
}

func NewBrowseModel(ctx helpers.UIContext) BrowseModel {
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

	templateList := list.New([]list.Item{}, list.NewDefaultDelegate(), ctx.Width, ctx.Height)
	templateList.Title = "Templates"
	templateList.SetShowStatusBar(false)
	templateList.SetFilteringEnabled(true)
	templateList.SetShowHelp(false)

	vp := viewport.New(ctx.Width, ctx.Height)
	vp.MouseWheelEnabled = true

	return BrowseModel{
		logger:       ctx.Logger,
		config:       ctx.Config,
		state:        StateLoading,
		layout:       layout,
		spinner:      s,
		templateList: templateList,
		viewport:     vp,
		renderer:     components.NewMarkdownRenderer("", ctx.Width),
		focusPane:    focusList,
		windowWidth:  ctx.Width,
		windowHeight: ctx.Height,
	}
}

// Init starts loading the template library off the event loop.
func (m BrowseModel) Init() tea.Cmd {
	return tea.Batch(
		m.loadTemplatesCmd(),
		m.spinner.Tick,
	)
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.layout, _ = m.layout.Update(msg)

	var cmd tea.Cmd

	switch message := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = message.Width
		m.windowHeight = message.Height
		m.resizePanes()
		if m.state == StateBrowsing {
			m.refreshPreview()
		}
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

	case list.FilterMatchesMsg:
		m.templateList, cmd = m.templateList.Update(message)
		return m, cmd

	case LibraryLoadedMsg:
		m.logger.Info("Template library loaded", "templates", len(message.Templates))
		m.state = StateBrowsing
		m.templates = message.Templates
		items := make([]list.Item, len(message.Templates))
		for i, t := range message.Templates {
			items[i] = templateItem{template: t}
		}
		m.templateList.SetItems(items)
		m.templateList.ResetSelected()
		m.resizePanes()
		m.viewport.GotoTop()
		m.refreshPreview()
		return m, nil

	case LibraryErrorMsg:
		m.logger.Error("Template library load failed", "error", message.Err)
		m.state = StateError
		m.err = message.Err
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(message)
	}

	return m, nil
}

func (m BrowseModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.state {
	case StateBrowsing:
		// While the filter input is active every key belongs to it, including
		// esc, which closes the filter rather than the browser.
		if m.templateList.FilterState() == list.Filtering {
			before := m.selectedTemplate()
			m.templateList, cmd = m.templateList.Update(msg)
			if m.selectedTemplate() != before {
				m.viewport.GotoTop()
				m.refreshPreview()
			}
			return m, cmd
		}

		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }
		case "tab", "right":
			m.focusPane = focusPreview
			return m, nil
		case "shift+tab", "left":
			m.focusPane = focusList
			return m, nil
		}

		// Scroll keys drive the preview while it has focus.
		if m.focusPane == focusPreview {
			switch msg.String() {
			case "up", "down", "pgup", "pgdown", "ctrl+u", "ctrl+d", "home", "end", "k", "j":
				m.viewport, cmd = m.viewport.Update(msg)
				return m, cmd
			}
		}

		before := m.selectedTemplate()
		m.templateList, cmd = m.templateList.Update(msg)
		if m.selectedTemplate() != before {
			m.viewport.GotoTop()
			m.refreshPreview()
		}
		return m, cmd

	case StateError:
		switch msg.String() {
		case "r":
			m.state = StateLoading
			m.err = nil
			return m, tea.Batch(m.loadTemplatesCmd(), m.spinner.Tick)
		case "q", "esc":
			return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }
		}

	default:
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }
		}
	}

	return m, nil
}

// loadTemplatesCmd loads the library and lists the baseline first, then every
// technology template in merge order.
func (m BrowseModel) loadTemplatesCmd() tea.Cmd {
	cfg := m.config
	logger := m.logger
	return func() tea.Msg {
		engine, err := core.LoadEngine(cfg, logger)
		if err != nil {
			return LibraryErrorMsg{Err: err}
		}
		library := engine.Library()
		templates := append([]*ruleset.Template{library.Baseline()}, library.Templates()...)
		return LibraryLoadedMsg{Templates: templates}
	}
}

func (m BrowseModel) selectedTemplate() *ruleset.Template {
	item, ok := m.templateList.SelectedItem().(templateItem)
	if !ok {
		return nil
	}
	return item.template
}

// refreshPreview re-renders the selected template into the preview pane.
// Templates are small, so rendering happens inline on selection change.
func (m *BrowseModel) refreshPreview() {
	t := m.selectedTemplate()
	if t == nil {
		m.viewport.SetContent("No template selected.")
		return
	}
	m.viewport.SetContent(m.renderer.Render(templateMarkdown(t)))
}

// resizePanes recomputes both panes from the window size, keeping measured
// header and help heights in sync with what View renders.
func (m *BrowseModel) resizePanes() {
	frameW, frameH := styles.PaneStyle.GetFrameSize()
	totalExtras := frameW * 2

	const mainLeftMargin = 1
	avail := max(m.windowWidth-totalExtras-mainLeftMargin, 0)

	listWidth := avail / 3
	vpWidth := avail - listWidth
	if listWidth < 20 {
		listWidth = 20
	}
	if vpWidth < 30 {
		vpWidth = 30
	}

	headerH := lipgloss.Height(m.browseHeader())
	helpH := lipgloss.Height(m.browseHelp())
	contentHeight := max(m.windowHeight-headerH-helpH-frameH, 5)

	m.templateList.SetSize(listWidth, contentHeight)
	m.viewport.Width = vpWidth
	m.viewport.Height = contentHeight
	m.renderer.SetWidth(vpWidth - 2)
}

// templateMarkdown flattens a template into one markdown document for the
// preview pane.
func templateMarkdown(t *ruleset.Template) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Name)
	if t.Description != "" {
		b.WriteString(t.Description + "\n\n")
	}
	fmt.Fprintf(&b, "Technology: %s | Origin: %s\n\n", t.Technology, t.Origin)
	for _, sec := range t.Sections {
		b.WriteString(strings.TrimRight(sec.Body, "\n"))
		b.WriteString("\n\n")
		if sec.Predicate != nil {
			fmt.Fprintf(&b, "_Applies when: %s_\n\n", sec.Predicate)
		}
	}
	return b.String()
}

func (m BrowseModel) browseHeader() string {
	title := styles.TitleStyle.Render("📚 Browse Templates")
	subtitle := styles.SubtitleStyle.Render("Rule templates the generator draws from")
	return styles.HeaderContainerStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, subtitle))
}

func (m BrowseModel) browseHelp() string {
	return styles.HelpContainerStyle.Render(
		styles.HelpStyle.Render("↑/↓ to move • / to filter • tab to switch panes • Esc to return to main menu"))
}

func (m BrowseModel) View() string {
	switch m.state {
	case StateLoading:
		return m.viewLoading()
	case StateBrowsing:
		return m.viewBrowsing()
	case StateError:
		return m.viewError()
	}
	return ""
}

func (m BrowseModel) viewLoading() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "📚 Browse Templates",
		Subtitle: "Loading the template library...",
		HelpText: "Esc to return to main menu",
	})
	content := fmt.Sprintf("\n %s %s\n\n", m.spinner.View(), styles.SpinnerStyle.Render("Loading..."))
	return m.layout.Render(content)
}

func (m BrowseModel) viewBrowsing() string {
	listStyle := styles.PaneStyle
	vpStyle := styles.PaneStyle
	switch m.focusPane {
	case focusList:
		listStyle = styles.PaneFocusedStyle
	case focusPreview:
		vpStyle = styles.PaneFocusedStyle
	}

	listStyle = listStyle.Width(m.templateList.Width()).Height(m.templateList.Height())
	vpStyle = vpStyle.Width(m.viewport.Width).Height(m.viewport.Height)

	panes := lipgloss.JoinHorizontal(
		lipgloss.Top,
		listStyle.Render(m.templateList.View()),
		vpStyle.Render(m.viewport.View()),
	)
	panes = styles.MainContainerStyle.Render(panes)

	return lipgloss.JoinVertical(lipgloss.Left, m.browseHeader(), panes, m.browseHelp())
}

func (m BrowseModel) viewError() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "📚 Browse Templates - Error",
		Subtitle: "Library loading failed",
		HelpText: "r to retry • Esc to return to main menu",
	})

	errorText := "An error occurred while loading templates"
	if m.err != nil {
		errorText = m.err.Error()
	}
	content := styles.ErrorStyle.Render("❌ " + errorText)
	return m.layout.Render(content)
}
