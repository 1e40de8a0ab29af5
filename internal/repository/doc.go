// Package repository manages the template sources a user has configured
// beyond the embedded defaults: plain local directories and GitHub-hosted
// repositories that are cloned and refreshed with go-git.
//
// A configured source is described by a RepositoryEntry (persisted in the app
// config). Remote entries sync into a per-repository checkout under the XDG
// data directory; private remotes authenticate with a GitHub Personal Access
// Token kept in the OS credential store. SyncAll refreshes every entry and
// reports per-source results so one broken remote never blocks the others.
//
// The template library consumes sources through TemplateOverlayDirs, which
// maps each entry to the directory its rule templates are read from. Syncing
// is always an explicit operation; document generation only reads whatever
// checkouts already exist on disk.
package repository
