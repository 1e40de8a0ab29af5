package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"rulesmith/internal/classify"
	"rulesmith/internal/core"
	"rulesmith/internal/editors"
	"rulesmith/internal/logging"
	"rulesmith/internal/ruleset"
	"rulesmith/internal/ui"
)

func newGenerateCmd() *cobra.Command {
	var (
		editorKey   string
		technology  string
		output      string
		verbose     bool
		force       bool
		backup      bool
		dryRun      bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "generate [path]",
		Short: "Generate a rules document and write it for an editor",
		Long: `Analyze a project, synthesize its rules document, and write the result
to the location the chosen editor reads from. The path defaults to the
working directory.

An existing rules file is only replaced after confirmation; pass --force
to skip the prompt or --backup to keep a .bak copy of the old file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewAppLogger()
			root, err := projectRoot(args)
			if err != nil {
				return err
			}

			engine, cfg, err := loadEngine(logger)
			if err != nil {
				return err
			}

			key := strings.TrimSpace(editorKey)
			if key == "" {
				key = cfg.DefaultEditor
			}
			if key == "" {
				key = "cursor"
			}

			prompter := ui.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			if interactive {
				if key, err = pickEditor(prompter, key); err != nil {
					return err
				}
			}

			target, err := editors.ByKey(key)
			if err != nil {
				return err
			}

			if interactive && target.UsesStem() && strings.TrimSpace(output) == "" {
				if output, err = prompter.Input("Output file name", "rules"); err != nil {
					return err
				}
			}

			result, err := engine.Generate(root, core.GenerateOptions{
				Technology: technology,
				Verbose:    verbose,
			})
			if err != nil {
				return err
			}

			path := target.ResolvePath(root, output)

			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), result.Rendered)
				fmt.Fprintf(cmd.ErrOrStderr(), "Dry run: would write to %s\n", path)
				return nil
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					overwrite, err := prompter.Confirm(fmt.Sprintf("%s already exists. Overwrite?", path), false)
					if err != nil {
						return err
					}
					if !overwrite {
						fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
						return nil
					}
				}
			}

			backupPath, err := editors.WriteDocument(path, result.Rendered, backup)
			if err != nil {
				return err
			}

			logger.Info("Rules document written", "path", path, "editor", target.Key)
			if backupPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Existing file backed up to %s\n", backupPath)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rules written to %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), technologyLine(result.Document))
			return nil
		},
	}

	cmd.Flags().StringVarP(&editorKey, "editor", "e", "", fmt.Sprintf("editor target (%s)", strings.Join(editors.Keys(), ", ")))
	cmd.Flags().StringVarP(&technology, "technology", "t", "", "restrict the document to one technology")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file name stem for targets that accept one")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "append the detection evidence section")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file without asking")
	cmd.Flags().BoolVar(&backup, "backup", false, "back up an existing file to <path>.bak before writing")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the document instead of writing it")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick the editor target interactively")
	return cmd
}

// pickEditor lets the user choose an editor target from a numbered list,
// defaulting to the current key.
func pickEditor(prompter *ui.Prompter, currentKey string) (string, error) {
	targets := editors.All()
	options := make([]string, len(targets))
	def := 0
	for i, t := range targets {
		options[i] = fmt.Sprintf("%s - %s", t.Key, t.Name)
		if t.Key == currentKey {
			def = i
		}
	}

	choice, err := prompter.Select("Editor target:", options, def)
	if err != nil {
		return "", err
	}
	return targets[choice].Key, nil
}

// technologyLine summarizes which technologies shaped the written document.
func technologyLine(doc *ruleset.Document) string {
	if len(doc.Technologies) == 0 {
		return "Technologies: none detected, baseline rules applied"
	}

	parts := make([]string, 0, len(doc.Technologies))
	for _, t := range doc.Technologies {
		name := t.Name
		if t.Version != "" && t.Version != classify.VersionUnknown {
			name += " " + t.Version
		}
		parts = append(parts, name)
	}
	return "Technologies: " + strings.Join(parts, ", ")
}
