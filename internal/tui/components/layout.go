package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"rulesmith/internal/tui/styles"
)

// LayoutConfig describes the fixed chrome around a screen's content: the
// heading pair above it and the key help below it. Zero margins and width
// fall back to the package defaults in NewLayout.
type LayoutConfig struct {
	Title    string
	Subtitle string
	HelpText string
	MarginX  int
	MarginY  int
	MaxWidth int
}

// LayoutModel renders a screen as title, subtitle, content, error and help
// sections with shared wrapping and margins. Every TUI screen embeds one so
// the chrome stays identical across models.
type LayoutModel struct {
	cfg    LayoutConfig
	width  int
	height int
	err    error
}

func NewLayout(cfg LayoutConfig) LayoutModel {
	if cfg.MarginX == 0 {
		cfg.MarginX = 2
	}
	if cfg.MarginY == 0 {
		cfg.MarginY = 1
	}
	if cfg.MaxWidth == 0 {
		cfg.MaxWidth = 100
	}
	return LayoutModel{cfg: cfg}
}

// Update tracks terminal size changes.
func (m LayoutModel) Update(msg tea.Msg) (LayoutModel, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.height = size.Height
	}
	return m, nil
}

// SetConfig swaps the chrome, keeping the previous margins and width where
// the new config leaves them zero.
func (m LayoutModel) SetConfig(cfg LayoutConfig) LayoutModel {
	if cfg.MarginX == 0 {
		cfg.MarginX = m.cfg.MarginX
	}
	if cfg.MarginY == 0 {
		cfg.MarginY = m.cfg.MarginY
	}
	if cfg.MaxWidth == 0 {
		cfg.MaxWidth = m.cfg.MaxWidth
	}
	m.cfg = cfg
	return m
}

// SetError records an error to render below the content. A nil err keeps
// whatever error is already showing; use ClearError to dismiss it.
func (m LayoutModel) SetError(err error) LayoutModel {
	if err != nil {
		m.err = err
	}
	return m
}

func (m LayoutModel) ClearError() LayoutModel {
	m.err = nil
	return m
}

func (m LayoutModel) GetError() error {
	return m.err
}

// Render assembles the full screen around the given content.
func (m LayoutModel) Render(content string) string {
	width := m.ContentWidth()

	var sections []string
	add := func(text string, render func(...string) string) {
		if text != "" {
			sections = append(sections, render(m.wrap(text, width)))
		}
	}

	add(m.cfg.Title, styles.TitleStyle.Render)
	add(m.cfg.Subtitle, styles.SubtitleStyle.Render)
	add(content, styles.NormalTextStyle.Render)
	if m.err != nil {
		add("Error: "+m.err.Error(), styles.ErrorStyle.Render)
	}
	add(m.cfg.HelpText, styles.HelpStyle.Render)

	return m.withMargins(strings.Join(sections, "\n\n"))
}

// wrap word-wraps each line to the given width. Lines are trimmed first and
// blank lines survive, so pre-formatted text keeps its paragraph breaks.
func (m LayoutModel) wrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			lines[i] = ""
			continue
		}
		lines[i] = wordwrap.String(line, width)
	}
	return strings.Join(lines, "\n")
}

func (m LayoutModel) withMargins(content string) string {
	indent := strings.Repeat(" ", m.cfg.MarginX)
	vertical := strings.Repeat("\n", m.cfg.MarginY)

	var b strings.Builder
	b.WriteString(vertical)
	for i, line := range strings.Split(content, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(indent)
		b.WriteString(line)
	}
	b.WriteString(vertical)
	return b.String()
}

// ContentWidth is the usable width between the margins, clamped to
// [40, MaxWidth] so narrow terminals stay readable.
func (m LayoutModel) ContentWidth() int {
	available := m.width - 2*m.cfg.MarginX
	switch {
	case available > m.cfg.MaxWidth:
		return m.cfg.MaxWidth
	case available < 40:
		return 40
	default:
		return available
	}
}

// ContentHeight is the height left for the content section once margins and
// the fixed sections are accounted for.
func (m LayoutModel) ContentHeight() int {
	return m.height - 2*m.cfg.MarginY - 6
}

// InputWidth sizes text inputs relative to the content width, clamped to
// [30, 80].
func (m LayoutModel) InputWidth() int {
	width := m.ContentWidth() - 8
	switch {
	case width > 80:
		return 80
	case width < 30:
		return 30
	default:
		return width
	}
}
