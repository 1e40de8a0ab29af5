package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsSymlink reports whether path is a symbolic link, without following it.
func IsSymlink(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, fmt.Errorf("cannot lstat path: %w", err)
	}
	return info.Mode()&os.ModeSymlink != 0, nil
}

// ResolveSymlink follows a symlink chain and returns the final target path.
func ResolveSymlink(linkPath string) (string, error) {
	resolved, err := filepath.EvalSymlinks(linkPath)
	if err != nil {
		return "", fmt.Errorf("cannot resolve symlink: %w", err)
	}
	return resolved, nil
}

// canonicalAbs makes path absolute and resolves any symlinks in it, so that
// platform aliases (macOS /tmp vs /private/tmp) compare equal. When the
// symlink resolution itself fails the absolute path is returned as-is.
func canonicalAbs(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if canonical, err := filepath.EvalSymlinks(abs); err == nil {
		return canonical, nil
	}
	return abs, nil
}

// ValidateSymlinkSecurity checks that linkPath is a resolvable symlink whose
// final target lies within one of allowedBasePaths. Scans use it to refuse
// links that escape the scan root.
func ValidateSymlinkSecurity(linkPath string, allowedBasePaths []string) error {
	isLink, err := IsSymlink(linkPath)
	if err != nil {
		return fmt.Errorf("cannot inspect link: %w", err)
	}
	if !isLink {
		return fmt.Errorf("path is not a symbolic link: %s", linkPath)
	}

	resolved, err := ResolveSymlink(linkPath)
	if err != nil {
		return fmt.Errorf("symlink resolution failed: %w", err)
	}
	target, err := canonicalAbs(resolved)
	if err != nil {
		return fmt.Errorf("cannot canonicalize symlink target: %w", err)
	}

	for _, base := range allowedBasePaths {
		baseCanonical, err := canonicalAbs(base)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(baseCanonical, target)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		return nil
	}

	return fmt.Errorf("symlink target is not within any allowed base path: %s", resolved)
}
