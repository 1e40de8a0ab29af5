package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"rulesmith/internal/classify"
	"rulesmith/internal/logging"
)

func newAnalyzeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Detect the technologies a project uses",
		Long: `Scan a project directory for technology markers and print the detection
profiles: technology, version, confidence band, and feature flags. The
path defaults to the working directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewAppLogger()
			root, err := projectRoot(args)
			if err != nil {
				return err
			}

			engine, _, err := loadEngine(logger)
			if err != nil {
				return err
			}

			profiles, err := engine.Analyze(root)
			if err != nil {
				return err
			}

			if asJSON {
				if profiles == nil {
					profiles = []classify.Profile{}
				}
				data, err := json.MarshalIndent(profiles, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			if len(profiles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No supported technologies detected.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), profileTable(profiles))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print detection profiles as JSON")
	return cmd
}

func profileTable(profiles []classify.Profile) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("TECHNOLOGY", "VERSION", "CONFIDENCE", "FEATURES")

	for _, p := range profiles {
		t.Row(string(p.Name), p.Version, string(p.Confidence), featureList(p.Features))
	}
	return t.Render()
}

func featureList(features classify.FeatureSet) string {
	if len(features) == 0 {
		return "-"
	}
	return strings.Join(features.Sorted(), ", ")
}
