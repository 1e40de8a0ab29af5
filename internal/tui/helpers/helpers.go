// Package helpers carries the small pieces shared by every TUI screen:
// the context handed to submodel constructors and the navigation message
// they emit to hand control back to the main menu.
package helpers

import (
	"rulesmith/internal/config"
	"rulesmith/internal/logging"
)

// NavigateToMainMenuMsg asks the root model to return to the main menu.
// Submodels emit it instead of referencing the root model directly.
type NavigateToMainMenuMsg struct{}

// UIContext is what a submodel needs from its parent at construction time:
// the current terminal size plus the shared config and logger.
type UIContext struct {
	Width  int
	Height int
	Config *config.Config
	Logger *logging.AppLogger
}

func NewUIContext(width, height int, cfg *config.Config, logger *logging.AppLogger) UIContext {
	return UIContext{
		Width:  width,
		Height: height,
		Config: cfg,
		Logger: logger,
	}
}

// HasValidDimensions reports whether a terminal size has arrived yet.
// Submodels skip size-dependent setup until it has.
func (ctx UIContext) HasValidDimensions() bool {
	return ctx.Width > 0 && ctx.Height > 0
}
