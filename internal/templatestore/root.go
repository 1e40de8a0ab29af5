package templatestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rulesmith/internal/logging"
	"rulesmith/pkg/fileops"

	"github.com/adrg/xdg"
)

// DefaultDir returns the default template overlay directory in the user's
// data directory.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, "rulesmith", "templates")
}

// CreateSecureRoot opens an os.Root confined to the template directory,
// creating it when missing. The directory must live inside the user's home
// directory; anything else is rejected before any filesystem change.
func CreateSecureRoot(userPath string) (*os.Root, error) {
	if strings.TrimSpace(userPath) == "" {
		return nil, fmt.Errorf("template directory cannot be empty")
	}

	expandedPath := fileops.ExpandPath(userPath)

	homeRoot, err := createHomeRoot()
	if err != nil {
		return nil, fmt.Errorf("cannot create home root: %w", err)
	}
	defer homeRoot.Close()

	relPath, err := relativePathInHome(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("path must be within your home directory: %w", err)
	}

	if stat, err := homeRoot.Stat(relPath); err == nil {
		if !stat.IsDir() {
			logging.Error("Path exists but is not a directory", "relPath", relPath)
			return nil, fmt.Errorf("path exists but is not a directory: %s", relPath)
		}
		logging.Debug("Template directory already exists", "relPath", relPath)
	} else {
		if err := mkdirAllInRoot(homeRoot, relPath); err != nil {
			logging.Error("Failed to create template directory", "relPath", relPath, "error", err)
			return nil, fmt.Errorf("cannot create directory: %w", err)
		}
		logging.Debug("Template directory created", "relPath", relPath)
	}

	// Probe write permissions before handing the root out
	testFile := filepath.Join(relPath, ".rulesmith-test")
	f, err := homeRoot.OpenFile(testFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		logging.Error("Write permission probe failed", "testFile", testFile, "error", err)
		return nil, fmt.Errorf("directory is not writable: %w", err)
	}
	f.Write([]byte("test"))
	f.Close()
	homeRoot.Remove(testFile)

	targetRoot, err := os.OpenRoot(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("cannot create secure root: %w", err)
	}

	return targetRoot, nil
}

// createHomeRoot creates a root confined to the user's home directory
func createHomeRoot() (*os.Root, error) {
	homeDir := xdg.Home
	if homeDir == "" {
		return nil, fmt.Errorf("cannot determine home directory")
	}

	return os.OpenRoot(homeDir)
}

// relativePathInHome checks if path is within home and returns relative path
func relativePathInHome(targetPath string) (string, error) {
	homeDir := xdg.Home
	if homeDir == "" {
		return "", fmt.Errorf("cannot determine home directory")
	}

	cleanHome := filepath.Clean(homeDir)
	cleanTarget := filepath.Clean(targetPath)

	relPath, err := filepath.Rel(cleanHome, cleanTarget)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if strings.HasPrefix(relPath, "..") {
		return "", fmt.Errorf("path is outside home directory")
	}

	return relPath, nil
}

// mkdirAllInRoot creates relPath and its parents inside root. os.Root has no
// MkdirAll on this Go version, so build the chain one segment at a time.
func mkdirAllInRoot(root *os.Root, relPath string) error {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	current := ""
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		current = filepath.Join(current, part)
		if err := root.Mkdir(current, 0755); err != nil && !errors.Is(err, os.ErrExist) {
			return err
		}
	}
	return nil
}
