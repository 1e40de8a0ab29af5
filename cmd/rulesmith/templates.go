package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"rulesmith/internal/config"
	"rulesmith/internal/logging"
	"rulesmith/internal/repository"
	"rulesmith/internal/templatestore"
	"rulesmith/internal/ui"
)

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage rule templates and their sources",
	}
	cmd.AddCommand(
		newTemplatesListCmd(),
		newTemplatesSyncCmd(),
		newTemplatesAddCmd(),
		newTemplatesDirCmd(),
		newTemplatesAuthCmd(),
		newTemplatesRepoCmd(),
	)
	return cmd
}

func newTemplatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the templates in the loaded library",
		Long: `List every template the library resolved after applying overlays.
Origin shows whether a template is an embedded default or which overlay
file replaced it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := loadEngine(logging.NewAppLogger())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "TECHNOLOGY\tNAME\tORIGIN")
			for _, info := range engine.Technologies() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.Technology, info.Name, info.Origin)
			}
			return w.Flush()
		},
	}
}

func newTemplatesSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync the configured template repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewAppLogger()
			cfg := loadConfig(logger)

			if len(cfg.Repositories) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No template repositories configured.")
				return nil
			}

			failed := 0
			for _, result := range repository.SyncAll(cfg.Repositories, logger) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", result.RepositoryName, result.Message())
				if result.Status == repository.SyncStatusFailed {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d repositories failed to sync", failed, len(cfg.Repositories))
			}
			return nil
		},
	}
}

func newTemplatesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>",
		Short: "Import a markdown template into the custom store",
		Long: `Copy a markdown template into the custom template store. Stored
templates overlay the embedded defaults for the technology named in
their frontmatter.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewAppLogger()
			cfg := loadConfig(logger)

			dir := strings.TrimSpace(cfg.TemplatesDir)
			if dir == "" {
				dir = templatestore.DefaultDir()
			}

			store, err := templatestore.Open(dir)
			if err != nil {
				return err
			}
			defer store.Close()

			name, err := store.ImportFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s into %s\n", name, store.Dir())
			return nil
		},
	}
}

func newTemplatesDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dir [path]",
		Short: "Show or change the custom template store directory",
		Long: `Without an argument, print the directory custom templates are stored
in. With a path, create the directory if needed and point the
configuration at it. Templates already in the old directory stay where
they are.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewAppLogger()
			cfg := loadConfig(logger)

			if len(args) == 0 {
				dir := strings.TrimSpace(cfg.TemplatesDir)
				if dir == "" {
					dir = templatestore.DefaultDir()
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
				return nil
			}

			if err := config.UpdateTemplatesDir(cfg, strings.TrimSpace(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template store directory set to %s\n", cfg.TemplatesDir)
			return nil
		},
	}
}

func newTemplatesRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage the configured template repositories",
	}
	cmd.AddCommand(
		newTemplatesRepoListCmd(),
		newTemplatesRepoAddCmd(),
		newTemplatesRepoRemoveCmd(),
	)
	return cmd
}

func newTemplatesRepoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured template repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(logging.NewAppLogger())

			if len(cfg.Repositories) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No template repositories configured.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tSOURCE\tLAST SYNC")
			for _, entry := range cfg.Repositories {
				source := entry.Path
				lastSync := "-"
				if entry.IsRemote() {
					source = entry.GetRemoteURL()
					lastSync = "never"
					if entry.LastSyncTime != nil {
						lastSync = time.Unix(*entry.LastSyncTime, 0).Format("2006-01-02 15:04")
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", entry.ID, entry.Name, entry.Type, source, lastSync)
			}
			return w.Flush()
		},
	}
}

func newTemplatesRepoAddCmd() *cobra.Command {
	var branch string

	cmd := &cobra.Command{
		Use:   "add <name> <path-or-url>",
		Short: "Add a template repository to the configuration",
		Long: `Register a template source. A local directory is used as an overlay
directly; a GitHub URL (https or git@) is cloned on the next sync and
its templates/ subdirectory becomes the overlay.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewAppLogger()
			cfg := loadConfig(logger)

			name := strings.TrimSpace(args[0])
			source := strings.TrimSpace(args[1])

			for _, existing := range cfg.Repositories {
				if strings.EqualFold(existing.Name, name) {
					return fmt.Errorf("repository named %q already configured", existing.Name)
				}
			}

			var entry repository.RepositoryEntry
			if isRemoteSource(source) {
				clonePath, err := repository.DeriveClonePath(source)
				if err != nil {
					return fmt.Errorf("invalid repository URL: %w", err)
				}
				entry = repository.NewEntry(name, repository.RepositoryTypeGitHub, clonePath)
				entry.RemoteURL = &source
				if b := strings.TrimSpace(branch); b != "" {
					entry.Branch = &b
				}
			} else {
				path, err := repository.NewLocalSource(source).Prepare(logger)
				if err != nil {
					return err
				}
				entry = repository.NewEntry(name, repository.RepositoryTypeLocal, path)
			}

			if err := cfg.AddRepository(entry); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s repository %q (%s)\n", entry.Type, entry.Name, entry.ID)
			if entry.IsRemote() {
				fmt.Fprintln(cmd.OutOrStdout(), "Run 'rulesmith templates sync' to fetch it.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&branch, "branch", "", "branch to track for GitHub repositories (default branch when empty)")
	return cmd
}

func newTemplatesRepoRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id-or-name>",
		Short: "Remove a template repository from the configuration",
		Long: `Remove a configured template source by ID or name. Synced checkouts
and local template directories stay on disk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(logging.NewAppLogger())

			entry, err := findRepositoryEntry(cfg.Repositories, args[0])
			if err != nil {
				return err
			}
			if err := cfg.RemoveRepository(entry.ID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed repository %q (%s)\n", entry.Name, entry.ID)
			return nil
		},
	}
}

// findRepositoryEntry resolves an ID or display name to a configured entry.
// Names are matched case-insensitively and must be unambiguous.
func findRepositoryEntry(entries []repository.RepositoryEntry, key string) (repository.RepositoryEntry, error) {
	key = strings.TrimSpace(key)
	for _, entry := range entries {
		if entry.ID == key {
			return entry, nil
		}
	}

	var matches []repository.RepositoryEntry
	for _, entry := range entries {
		if strings.EqualFold(entry.Name, key) {
			matches = append(matches, entry)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return repository.RepositoryEntry{}, fmt.Errorf("no repository matches %q", key)
	default:
		return repository.RepositoryEntry{}, fmt.Errorf("%d repositories named %q, remove by ID instead", len(matches), key)
	}
}

// isRemoteSource reports whether the source argument is a Git URL rather than
// a local directory path.
func isRemoteSource(source string) bool {
	return strings.HasPrefix(source, "git@") || strings.Contains(source, "://")
}

func newTemplatesAuthCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Store or clear the GitHub token used for private repositories",
		Long: `Store a GitHub personal access token in the system keyring so syncing
can reach private template repositories. The token never touches the
configuration file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := repository.NewCredentialManager()

			if clear {
				if err := creds.DeleteGitHubToken(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "GitHub token removed from the system keyring.")
				return nil
			}

			prompter := ui.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			token, err := prompter.Input("GitHub personal access token", "")
			if err != nil {
				return err
			}
			if err := repository.ValidateTokenFormat(token); err != nil {
				return err
			}
			if err := creds.StoreGitHubToken(token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "GitHub token stored in the system keyring.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "remove the stored token instead of setting one")
	return cmd
}
