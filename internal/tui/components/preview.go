package components

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Fallback wrap width when the caller has no usable dimensions yet.
const fallbackPreviewWidth = 80

// MarkdownRenderer renders markdown for terminal display with a glamour
// style that is resolved once and reused. The underlying renderer is
// rebuilt lazily whenever the wrap width changes.
type MarkdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer resolves the glamour style (preferred value, then
// environment, then terminal detection) and prepares a renderer for the
// given wrap width.
func NewMarkdownRenderer(style string, width int) *MarkdownRenderer {
	if width <= 0 {
		width = fallbackPreviewWidth
	}
	return &MarkdownRenderer{style: ResolveStyle(style), width: width}
}

// Style returns the resolved glamour style name.
func (r *MarkdownRenderer) Style() string {
	return r.style
}

// SetWidth updates the wrap width and drops the cached renderer so the
// next Render call rebuilds it.
func (r *MarkdownRenderer) SetWidth(width int) {
	if width <= 0 {
		width = fallbackPreviewWidth
	}
	if width == r.width {
		return
	}
	r.width = width
	r.renderer = nil
}

// Render renders the markdown. Styling is cosmetic, so any renderer
// failure falls back to the raw markdown instead of erroring out.
func (r *MarkdownRenderer) Render(markdown string) string {
	if r.renderer == nil {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(r.width),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
	}

	out, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

// ResolveStyle picks the glamour style: the preferred value when concrete,
// then the RULESMITH_STYLE environment variable, then GLAMOUR_STYLE, then
// terminal detection. "auto" and empty defer to the next source.
func ResolveStyle(preferred string) string {
	if s := strings.TrimSpace(preferred); s != "" && s != "auto" {
		return s
	}
	if s := strings.TrimSpace(os.Getenv("RULESMITH_STYLE")); s != "" && s != "auto" {
		return s
	}
	if s := strings.TrimSpace(os.Getenv("GLAMOUR_STYLE")); s != "" && s != "auto" {
		return s
	}
	return DetectStyle(500 * time.Millisecond)
}

// DetectStyle probes the terminal background to choose between the dark
// and light styles. The probe can hang on terminals that never answer the
// query, so it runs with a timeout and falls back to dark. Plain output
// with no color support gets the notty style instead.
func DetectStyle(timeout time.Duration) string {
	if termenv.NewOutput(os.Stdout).ColorProfile() == termenv.Ascii {
		return "notty"
	}

	ch := make(chan string, 1)
	go func() {
		if termenv.NewOutput(os.Stdout).HasDarkBackground() {
			ch <- "dark"
			return
		}
		ch <- "light"
	}()

	select {
	case style := <-ch:
		return style
	case <-time.After(timeout):
		return "dark"
	}
}
