package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rulesmith/internal/logging"
	"rulesmith/pkg/fileops"
)

// Source resolves a configured template source to a local filesystem path.
// LocalSource only validates; GitSource clones or refreshes a checkout.
type Source interface {
	Prepare(logger *logging.AppLogger) (string, error)
}

// SourceFor returns the Source implementation matching the entry's type.
func SourceFor(entry RepositoryEntry) Source {
	if entry.IsRemote() {
		return NewGitSource(entry.GetRemoteURL(), entry.Branch, entry.Path)
	}
	return NewLocalSource(entry.Path)
}

// LocalSource is a plain directory used directly as a template source. No
// network operations; Prepare only validates the configured path.
type LocalSource struct {
	Path string
}

// NewLocalSource returns a LocalSource for the given directory.
func NewLocalSource(path string) LocalSource {
	return LocalSource{Path: path}
}

// Prepare validates the directory and returns its absolute path. The
// directory must already exist; creation belongs to the setup flows.
func (ls LocalSource) Prepare(logger *logging.AppLogger) (string, error) {
	trimmed := strings.TrimSpace(ls.Path)
	if trimmed == "" {
		return "", fmt.Errorf("local source path cannot be empty")
	}

	clean := filepath.Clean(fileops.ExpandPath(trimmed))
	if err := fileops.ValidateStoragePath(clean); err != nil {
		return "", fmt.Errorf("invalid local source path: %w", err)
	}

	info, err := os.Stat(clean)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("local source directory does not exist: %s", clean)
		}
		return "", fmt.Errorf("cannot access local source directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("local source path is not a directory: %s", clean)
	}

	abs, err := filepath.Abs(clean)
	if err != nil {
		abs = clean
	}

	if logger != nil {
		logger.Debug("local template source validated", "path", abs)
	}
	return abs, nil
}

func (ls LocalSource) String() string {
	return fmt.Sprintf("LocalSource{Path: %s}", ls.Path)
}
