// Package reviewmodel generates the rules document for the current working
// directory and lets the user curate its sections before saving. The left
// pane lists every merged section with an inclusion marker; the right pane
// previews exactly the document the selection would produce.
package reviewmodel

import (
	"fmt"
	"os"
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

type ReviewModelState int

const (
	StateLoading ReviewModelState = iota // Detection and synthesis running
	StateReview                          // Section list and preview active
	StateError                           // Generation failed
)

// Custom messages for async operations and transitions.
type (
	GenerateCompleteMsg struct {
		Root   string
		Result *core.Result
	}

	GenerateErrorMsg struct {
		Err error
	}

	// ReviewCompleteMsg leaves this model: the parent switches to the save
	// flow with the curated document.
	ReviewCompleteMsg struct {
		Root     string
		Document *ruleset.Document
		Content  string
	}
)

type focusedPane int

const (
	focusList focusedPane = iota
	focusPreview
)

// sectionItem adapts one document section to the bubbles list item interface,
// carrying its inclusion flag.
type sectionItem struct {
	section  ruleset.DocumentSection
	included bool
}

func (i sectionItem) Title() string {
	marker := "[x]"
	if !i.included {
		marker = "[ ]"
	}
	heading := strings.TrimPrefix(i.section.Heading, "## ")
	if heading == "" {
		heading = "(preamble)"
	}
	return marker + " " + heading
}

func (i sectionItem) Description() string { return i.section.Technology }

func (i sectionItem) FilterValue() string {
	return i.section.Technology + " " + i.section.Heading
}

type ReviewModel struct {
	logger *logging.AppLogger
	config *config.Config
	state  ReviewModelState

	// Layout for the loading and error states; review renders its own
	// header/panes/help stack.
	layout      components.LayoutModel
	spinner     spinner.Model
	sectionList list.Model
	viewport    viewport.Model
	renderer    *components.MarkdownRenderer
	focusPane   focusedPane

	windowWidth  int
	windowHeight int

	root     string
	document *ruleset.Document
	status   string
	err      error
}

func NewReviewModel(ctx helpers.UIContext) ReviewModel {
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

	sectionList := list.New([]list.Item{}, list.NewDefaultDelegate(), ctx.Width, ctx.Height)
	sectionList.Title = "Sections"
	sectionList.SetShowStatusBar(false)
	sectionList.SetFilteringEnabled(true)
	sectionList.SetShowHelp(false)

	vp := viewport.New(ctx.Width, ctx.Height)
	vp.MouseWheelEnabled = true

	return ReviewModel{
		logger:       ctx.Logger,
		config:       ctx.Config,
		state:        StateLoading,
		layout:       layout,
		spinner:      s,
		sectionList:  sectionList,
		viewport:     vp,
		renderer:     components.NewMarkdownRenderer("", ctx.Width),
		focusPane:    focusList,
		windowWidth:  ctx.Width,
		windowHeight: ctx.Height,
	}
}

// Init starts detection and synthesis off the event loop.
func (m ReviewModel) Init() tea.Cmd {
	return tea.Batch(
		m.generateCmd(),
		m.spinner.Tick,
	)
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.layout, _ = m.layout.Update(msg)

	var cmd tea.Cmd

	switch message := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = message.Width
		m.windowHeight = message.Height
		m.resizePanes()
		if m.state == StateReview {
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
		m.sectionList, cmd = m.sectionList.Update(message)
		return m, cmd

	case GenerateCompleteMsg:
		m.logger.Info("Rules document generated",
			"root", message.Root,
			"technologies", len(message.Result.Document.Technologies),
			"sections", len(message.Result.Document.Sections))
		m.state = StateReview
		m.root = message.Root
		m.document = message.Result.Document

		items := make([]list.Item, len(message.Result.Document.Sections))
		for i, sec := range message.Result.Document.Sections {
			items[i] = sectionItem{section: sec, included: true}
		}
		m.sectionList.SetItems(items)
		m.sectionList.ResetSelected()
		m.resizePanes()
		m.viewport.GotoTop()
		m.refreshPreview()
		return m, nil

	case GenerateErrorMsg:
		m.logger.Error("Rules generation failed", "error", message.Err)
		m.state = StateError
		m.err = message.Err
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(message)
	}

	return m, nil
}

func (m ReviewModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.state {
	case StateReview:
		// While the filter input is active every key belongs to it.
		if m.sectionList.FilterState() == list.Filtering {
			m.sectionList, cmd = m.sectionList.Update(msg)
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
		case " ", "x":
			return m.toggleSelected()
		case "a":
			return m.setAllIncluded(true)
		case "n":
			return m.setAllIncluded(false)
		case "enter":
			return m.finishReview()
		}

		// Scroll keys drive the preview while it has focus.
		if m.focusPane == focusPreview {
			switch msg.String() {
			case "up", "down", "pgup", "pgdown", "ctrl+u", "ctrl+d", "home", "end", "k", "j":
				m.viewport, cmd = m.viewport.Update(msg)
				return m, cmd
			}
		}

		m.sectionList, cmd = m.sectionList.Update(msg)
		return m, cmd

	case StateError:
		switch msg.String() {
		case "r":
			m.state = StateLoading
			m.err = nil
			return m, tea.Batch(m.generateCmd(), m.spinner.Tick)
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

// generateCmd analyzes the working directory and synthesizes its document off
// the event loop.
func (m ReviewModel) generateCmd() tea.Cmd {
	cfg := m.config
	logger := m.logger
	return func() tea.Msg {
		root, err := os.Getwd()
		if err != nil {
			return GenerateErrorMsg{Err: fmt.Errorf("cannot resolve working directory: %w", err)}
		}

		engine, err := core.LoadEngine(cfg, logger)
		if err != nil {
			return GenerateErrorMsg{Err: err}
		}

		result, err := engine.Generate(root, core.GenerateOptions{})
		if err != nil {
			return GenerateErrorMsg{Err: err}
		}
		return GenerateCompleteMsg{Root: root, Result: result}
	}
}

func (m ReviewModel) toggleSelected() (tea.Model, tea.Cmd) {
	// GlobalIndex, not Index: with a filter applied the cursor index counts
	// visible items while SetItem addresses the full slice.
	idx := m.sectionList.GlobalIndex()
	items := m.sectionList.Items()
	if idx < 0 || idx >= len(items) {
		return m, nil
	}

	item := items[idx].(sectionItem)
	item.included = !item.included
	cmd := m.sectionList.SetItem(idx, item)

	m.status = ""
	m.refreshPreview()
	return m, cmd
}

func (m ReviewModel) setAllIncluded(included bool) (tea.Model, tea.Cmd) {
	items := m.sectionList.Items()
	for idx, it := range items {
		item := it.(sectionItem)
		item.included = included
		items[idx] = item
	}
	cmd := m.sectionList.SetItems(items)

	m.status = ""
	m.refreshPreview()
	return m, cmd
}

// finishReview hands the curated document to the parent. A selection with no
// sections would render an empty file, so it is rejected with a status line.
func (m ReviewModel) finishReview() (tea.Model, tea.Cmd) {
	doc := m.composedDocument()
	if len(doc.Sections) == 0 {
		m.status = "Select at least one section before continuing."
		return m, nil
	}

	m.logger.Info("Review complete", "sections", len(doc.Sections))
	return m, func() tea.Msg {
		return ReviewCompleteMsg{Root: m.root, Document: doc, Content: doc.Render()}
	}
}

// composedDocument rebuilds the document from the currently included
// sections, preserving the original order.
func (m ReviewModel) composedDocument() *ruleset.Document {
	doc := &ruleset.Document{}
	if m.document != nil {
		doc.Technologies = m.document.Technologies
	}
	for _, it := range m.sectionList.Items() {
		item := it.(sectionItem)
		if item.included {
			doc.Sections = append(doc.Sections, item.section)
		}
	}
	return doc
}

// refreshPreview re-renders the composed document into the preview pane.
func (m *ReviewModel) refreshPreview() {
	doc := m.composedDocument()
	if len(doc.Sections) == 0 {
		m.viewport.SetContent("No sections selected. The saved document would be empty.")
		return
	}
	m.viewport.SetContent(m.renderer.Render(doc.Render()))
}

// resizePanes recomputes both panes from the window size, keeping measured
// header and help heights in sync with what View renders.
func (m *ReviewModel) resizePanes() {
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

	headerH := lipgloss.Height(m.reviewHeader())
	helpH := lipgloss.Height(m.reviewHelp())
	contentHeight := max(m.windowHeight-headerH-helpH-frameH, 5)

	m.sectionList.SetSize(listWidth, contentHeight)
	m.viewport.Width = vpWidth
	m.viewport.Height = contentHeight
	m.renderer.SetWidth(vpWidth - 2)
}

func (m ReviewModel) reviewHeader() string {
	title := styles.TitleStyle.Render("📝 Review Rules Document")
	subtitle := styles.SubtitleStyle.Render(m.root)
	return styles.HeaderContainerStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, subtitle))
}

func (m ReviewModel) reviewHelp() string {
	return styles.HelpContainerStyle.Render(
		styles.HelpStyle.Render("space to toggle • a/n all on/off • enter to save • tab to switch panes • Esc to return to main menu"))
}

func (m ReviewModel) View() string {
	switch m.state {
	case StateLoading:
		return m.viewLoading()
	case StateReview:
		return m.viewReview()
	case StateError:
		return m.viewError()
	}
	return ""
}

func (m ReviewModel) viewLoading() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "📝 Generate Rules",
		Subtitle: "Analyzing the project and merging templates...",
		HelpText: "Esc to return to main menu",
	})
	content := fmt.Sprintf("\n %s %s\n\n", m.spinner.View(), styles.SpinnerStyle.Render("Generating..."))
	return m.layout.Render(content)
}

func (m ReviewModel) viewReview() string {
	listStyle := styles.PaneStyle
	vpStyle := styles.PaneStyle
	switch m.focusPane {
	case focusList:
		listStyle = styles.PaneFocusedStyle
	case focusPreview:
		vpStyle = styles.PaneFocusedStyle
	}

	listStyle = listStyle.Width(m.sectionList.Width()).Height(m.sectionList.Height())
	vpStyle = vpStyle.Width(m.viewport.Width).Height(m.viewport.Height)

	panes := lipgloss.JoinHorizontal(
		lipgloss.Top,
		listStyle.Render(m.sectionList.View()),
		vpStyle.Render(m.viewport.View()),
	)
	panes = styles.MainContainerStyle.Render(panes)

	sections := []string{m.reviewHeader(), panes}
	if m.status != "" {
		sections = append(sections, styles.MainContainerStyle.Render(styles.ErrorStyle.Render(m.status)))
	}
	sections = append(sections, m.reviewHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ReviewModel) viewError() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "📝 Generate Rules - Error",
		Subtitle: "Generation failed",
		HelpText: "r to retry • Esc to return to main menu",
	})

	errorText := "An error occurred during generation"
	if m.err != nil {
		errorText = m.err.Error()
	}
	content := styles.ErrorStyle.Render("❌ " + errorText)
	return m.layout.Render(content)
}
