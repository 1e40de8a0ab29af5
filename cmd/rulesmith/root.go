package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"rulesmith/internal/config"
	"rulesmith/internal/core"
	"rulesmith/internal/logging"
	"rulesmith/internal/tui"
	"rulesmith/internal/tui/helpers"
	"rulesmith/internal/tui/setupmenu"
)

const appVersion = "1.0.0"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rulesmith",
		Short: "Generate AI assistant rules files from project analysis",
		Long: `rulesmith inspects a project for technology markers, builds detection
profiles, and synthesizes a rules document tailored to what it found.
The document can be written for Cursor, GitHub Copilot, Claude Code,
and other assistants.

Run without arguments to use the interactive interface.`,
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(logging.NewAppLogger())
		},
	}

	cmd.AddCommand(
		newAnalyzeCmd(),
		newGenerateCmd(),
		newTechnologiesCmd(),
		newPreviewCmd(),
		newTemplatesCmd(),
		newMCPCmd(),
	)
	return cmd
}

// runTUI starts the full-screen interface, running first-time setup when no
// configuration exists yet.
func runTUI(logger *logging.AppLogger) error {
	if config.IsFirstRun() {
		if err := runFirstTimeSetup(logger); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("Configuration loaded", "templatesDir", cfg.TemplatesDir)

	program := tea.NewProgram(tui.NewMainModel(cfg, logger), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("interface terminated abnormally: %w", err)
	}
	return nil
}

// runFirstTimeSetup walks a new user through choosing a template directory
// and default editor. Cancelling leaves no configuration behind, so the next
// start asks again.
func runFirstTimeSetup(logger *logging.AppLogger) error {
	ctx := helpers.NewUIContext(0, 0, nil, logger)
	program := tea.NewProgram(setupmenu.NewSetupModel(ctx), tea.WithAltScreen())

	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	if setup := finalModel.(*setupmenu.SetupModel); setup.Cancelled {
		return fmt.Errorf("setup cancelled")
	}
	return nil
}

// loadConfig returns the stored configuration, falling back to defaults when
// none exists. Subcommands stay usable without running setup; only the TUI
// insists on it.
func loadConfig(logger *logging.AppLogger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Debug("No stored configuration, using defaults", "error", err)
		def := config.DefaultConfig()
		return &def
	}
	return cfg
}

// loadEngine builds the engine over the configured template overlays.
func loadEngine(logger *logging.AppLogger) (*core.Engine, *config.Config, error) {
	cfg := loadConfig(logger)
	engine, err := core.LoadEngine(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rule library: %w", err)
	}
	return engine, cfg, nil
}

// projectRoot resolves the optional positional path argument, defaulting to
// the working directory.
func projectRoot(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	return os.Getwd()
}
