package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rulesmith/internal/core"
	"rulesmith/internal/logging"
	"rulesmith/internal/tui/components"
)

const previewWrapWidth = 100

func newPreviewCmd() *cobra.Command {
	var (
		technology string
		verbose    bool
		style      string
	)

	cmd := &cobra.Command{
		Use:   "preview [path]",
		Short: "Render the generated document in the terminal",
		Long: `Generate the rules document for a project and render it as styled
markdown without writing anything. The path defaults to the working
directory.`,
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

			result, err := engine.Generate(root, core.GenerateOptions{
				Technology: technology,
				Verbose:    verbose,
			})
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), renderMarkdown(result.Rendered, style))
			return nil
		},
	}

	cmd.Flags().StringVarP(&technology, "technology", "t", "", "restrict the document to one technology")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "append the detection evidence section")
	cmd.Flags().StringVar(&style, "style", "auto", "glamour style (auto, dark, light, notty, ...)")
	return cmd
}

// renderMarkdown renders the document with glamour, falling back to the
// raw markdown when the requested style cannot be constructed.
func renderMarkdown(markdown, style string) string {
	return components.NewMarkdownRenderer(style, previewWrapWidth).Render(markdown)
}
