package repository

import (
	"fmt"
	"path/filepath"

	"rulesmith/pkg/fileops"

	"github.com/adrg/xdg"
)

// DefaultCloneRoot returns the directory remote template repositories clone
// into, e.g. ~/.local/share/rulesmith/repos on Linux.
func DefaultCloneRoot() string {
	return filepath.Join(xdg.DataHome, "rulesmith", "repos")
}

// DeriveClonePath maps a remote URL to its checkout location under the clone
// root: <clone root>/<repo name>.
func DeriveClonePath(remoteURL string) (string, error) {
	info, err := ParseGitURL(remoteURL)
	if err != nil {
		return "", err
	}

	clonePath := filepath.Clean(filepath.Join(DefaultCloneRoot(), info.Repo))
	if err := fileops.ValidatePathSecurity(clonePath); err != nil {
		return "", fmt.Errorf("derived clone path failed security validation: %w", err)
	}
	if !filepath.IsAbs(clonePath) {
		return "", fmt.Errorf("derived clone path must be absolute: %s", clonePath)
	}
	return clonePath, nil
}

// TemplatesDirFor returns the directory the library reads templates from for
// one entry. A local entry points at its template directory directly; a
// remote checkout contributes its templates/ subdirectory.
func TemplatesDirFor(entry RepositoryEntry) string {
	if entry.IsRemote() {
		return filepath.Join(entry.Path, "templates")
	}
	return fileops.ExpandPath(entry.Path)
}

// TemplateOverlayDirs maps configured entries to overlay directories in
// config order. Directories that do not exist yet (a remote never synced) are
// returned as-is; the library loader skips missing directories.
func TemplateOverlayDirs(entries []RepositoryEntry) []string {
	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		dirs = append(dirs, TemplatesDirFor(entry))
	}
	return dirs
}
