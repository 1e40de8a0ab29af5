package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rulesmith/internal/logging"
)

func newTechnologiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "technologies",
		Short: "List the technologies the rule library covers",
		Long: `List every technology the loaded template library can generate rules
for. Technologies marked "on request" have no detection markers and only
apply when requested via --technology.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := loadEngine(logging.NewAppLogger())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "TECHNOLOGY\tDETECTION\tDESCRIPTION")
			for _, info := range engine.Technologies() {
				detection := "automatic"
				if !info.Detectable {
					detection = "on request"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.Technology, detection, info.Description)
			}
			return w.Flush()
		},
	}
}
