// Package styles holds the shared Lip Gloss styles for the Rulesmith TUI.
// Models pull from here instead of defining colors locally, so every screen
// renders with the same palette.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette. All colors are hex so they render the same on every terminal
// profile lipgloss downsamples to.
const (
	colorAccent    = lipgloss.Color("#ff5fd2")
	colorMuted     = lipgloss.Color("#626262")
	colorInfo      = lipgloss.Color("#5fd7ff")
	colorDanger    = lipgloss.Color("#ff005f")
	colorOK        = lipgloss.Color("#00ff5f")
	colorText      = lipgloss.Color("#ffffff")
	colorHelp      = lipgloss.Color("#a8a8a8")
	colorPane      = lipgloss.Color("#5f5fff")
	colorPaneFocus = lipgloss.Color("#ff5faf")
)

// Text styles.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			MarginBottom(1).
			PaddingLeft(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginBottom(1).
			PaddingLeft(1)

	NormalTextStyle = lipgloss.NewStyle().
			Foreground(colorText).
			MarginBottom(1)

	HelpStyle = lipgloss.NewStyle().
			Faint(true).
			Foreground(colorHelp).
			MarginTop(1).
			Padding(0, 1)
)

// Feedback and input styles.
var (
	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(colorOK).
			Bold(true)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorInfo).
			Padding(0, 1)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(colorInfo)
)

// Layout containers keeping header, panes and help aligned.
var (
	HeaderContainerStyle = lipgloss.NewStyle().
				MarginLeft(1).
				MarginBottom(1)

	MainContainerStyle = lipgloss.NewStyle().
				MarginLeft(1)

	HelpContainerStyle = lipgloss.NewStyle().
				MarginLeft(1).
				MarginTop(1)
)

// Pane styles for split views such as the review screen. The focused
// variant recolors the border so the active pane is obvious.
var (
	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPane).
			PaddingLeft(2).
			PaddingRight(1)

	PaneFocusedStyle = PaneStyle.
				BorderForeground(colorPaneFocus)
)
