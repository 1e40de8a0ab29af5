package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrInvalidPath marks input-validation failures on caller-supplied paths:
// empty, nonexistent, not a directory, or pointing at a reserved location.
// Callers test for it with errors.Is.
var ErrInvalidPath = errors.New("invalid path")

// ExpandPath expands a leading "~/" to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// ValidateDirPath checks that path names an existing, traversable directory
// and returns its absolute form. Tilde prefixes are expanded. Every project
// root accepted by the application goes through this check.
func ValidateDirPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("%w: path is empty", ErrInvalidPath)
	}

	absPath, err := filepath.Abs(ExpandPath(trimmed))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s does not exist", ErrInvalidPath, absPath)
		}
		return "", fmt.Errorf("%w: cannot access %s: %v", ErrInvalidPath, absPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, absPath)
	}

	return absPath, nil
}

// ValidatePathSecurity performs static validation of a path: it rejects empty
// input, traversal sequences, and absolute paths that resolve into reserved
// system locations. Cleaning cannot introduce ".." into a path that lacks it,
// so the raw string is the only one that needs the traversal check.
func ValidatePathSecurity(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal not allowed")
	}
	if filepath.IsAbs(path) && IsReservedDirectory(filepath.Clean(path)) {
		return fmt.Errorf("path traversal not allowed")
	}
	return nil
}

// ValidateRelativePath validates a destination path that must stay relative:
// editor rule paths are joined under a project root and may never escape it.
func ValidateRelativePath(destPath string) error {
	if destPath == "" {
		return fmt.Errorf("destination path cannot be empty")
	}
	if filepath.IsAbs(destPath) {
		return fmt.Errorf("destination path must be relative")
	}
	if strings.Contains(destPath, "..") {
		return fmt.Errorf("path traversal not allowed in destination path")
	}
	return nil
}

// ValidateStoragePath vets a directory path intended for application data:
// non-empty, traversal-free, absolute or home-relative, and not resolving into
// a reserved location. The parent directory must already exist.
func ValidateStoragePath(path string) error {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return fmt.Errorf("storage directory cannot be empty")
	}
	if err := ValidatePathSecurity(trimmed); err != nil {
		return err
	}

	expanded := ExpandPath(trimmed)
	if !filepath.IsAbs(expanded) && !strings.HasPrefix(trimmed, "~/") {
		return fmt.Errorf("path must be absolute or relative to home directory (~)")
	}

	if resolved, err := filepath.EvalSymlinks(expanded); err == nil && IsReservedDirectory(resolved) {
		return fmt.Errorf("path resolves to reserved directory")
	}
	if IsReservedDirectory(expanded) {
		return fmt.Errorf("cannot use system or reserved directories")
	}

	parent := filepath.Dir(expanded)
	if parent != "." {
		if _, err := os.Stat(parent); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("parent directory does not exist: %s", parent)
			}
			return fmt.Errorf("cannot access parent directory: %w", err)
		}
	}

	return nil
}

// ValidateDirectoryWritable creates the directory if needed and verifies write
// access by creating and removing a probe file.
func ValidateDirectoryWritable(dirPath string) error {
	dir := ExpandPath(strings.TrimSpace(dirPath))

	if err := EnsureDirectoryExists(dir); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	probe := filepath.Join(dir, ".rulesmith-write-check")
	if err := os.WriteFile(probe, nil, 0644); err != nil {
		return fmt.Errorf("no write permission in directory: %w", err)
	}
	return os.Remove(probe)
}

// IsReservedDirectory reports whether path is a system or otherwise reserved
// location that the application must not scan or write into. Symlinks are
// resolved before comparison, so a link into /etc counts as reserved. User
// temp directories under reserved prefixes stay usable.
func IsReservedDirectory(path string) bool {
	canonicalPath, err := canonicalAbs(path)
	if err != nil {
		return true // unresolvable paths are treated as reserved
	}

	if canonicalPath == "/" || canonicalPath == "\\" || canonicalPath == "C:\\" {
		return true
	}

	lowerPath := strings.ToLower(canonicalPath)
	for _, reserved := range reservedDirectories() {
		canonicalReserved, err := canonicalAbs(reserved)
		if err != nil {
			continue
		}
		if strings.EqualFold(canonicalPath, canonicalReserved) {
			return true
		}

		prefix := strings.ToLower(reserved) + string(os.PathSeparator)
		if strings.HasPrefix(lowerPath, prefix) && !isUserTempDirectory(canonicalPath) {
			return true
		}
	}

	return false
}

// reservedDirectories returns the per-platform deny list plus the credential
// directories under the user's home.
func reservedDirectories() []string {
	var dirs []string

	switch runtime.GOOS {
	case "windows":
		dirs = []string{
			"C:\\Windows",
			"C:\\Program Files",
			"C:\\Program Files (x86)",
			"C:\\System32",
			"C:\\ProgramData\\Microsoft",
		}
	case "darwin":
		dirs = []string{
			"/System",
			"/usr/bin",
			"/usr/sbin",
			"/bin",
			"/sbin",
			"/etc",
			"/var/log",
			"/var/db",
			"/var/root",
			"/Library/System",
			"/Applications",
			"/private/etc",
		}
	default: // Linux and other Unix
		dirs = []string{
			"/bin",
			"/sbin",
			"/usr/bin",
			"/usr/sbin",
			"/etc",
			"/boot",
			"/dev",
			"/proc",
			"/sys",
			"/var/log",
			"/var/lib",
			"/var/cache",
			"/root",
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".ssh"),
			filepath.Join(home, ".gnupg"),
		)
	}

	return dirs
}

// isUserTempDirectory detects legitimate user temp directories that live under
// otherwise-reserved prefixes, such as macOS /var/folders.
func isUserTempDirectory(path string) bool {
	switch runtime.GOOS {
	case "darwin":
		if strings.Contains(path, "/var/folders/") {
			return true
		}
	case "linux":
		if path == "/tmp" || strings.HasPrefix(path, "/tmp/") {
			return true
		}
	case "windows":
		lower := strings.ToLower(path)
		if strings.Contains(lower, "\\temp\\") || strings.Contains(lower, "\\tmp\\") {
			return true
		}
	}

	return strings.HasPrefix(filepath.Clean(path), filepath.Clean(os.TempDir()))
}

// SanitizeFilename strips path components and traversal sequences from a
// filename, returning an error when nothing safe remains.
func SanitizeFilename(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	clean := strings.TrimSpace(strings.ReplaceAll(filepath.Base(filename), "..", ""))
	if clean == "" || clean == "." {
		return "", fmt.Errorf("invalid filename after sanitization: %q", filename)
	}
	if strings.ContainsAny(clean, `/`) {
		return "", fmt.Errorf("filename contains path separators: %q", clean)
	}

	return clean, nil
}

// ValidateFileAccess checks that a file exists, is a regular file, and is
// readable; with requireWrite it also verifies write access.
func ValidateFileAccess(filePath string, requireWrite bool) error {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filePath)
		}
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	probe := func(flag int) error {
		f, err := os.OpenFile(filePath, flag, 0)
		if err != nil {
			return err
		}
		return f.Close()
	}

	if err := probe(os.O_RDONLY); err != nil {
		return fmt.Errorf("file is not readable: %w", err)
	}
	if requireWrite {
		if err := probe(os.O_WRONLY); err != nil {
			return fmt.Errorf("file is not writable: %w", err)
		}
	}

	return nil
}

// ValidateFileInDirectory verifies that filePath is an existing regular file
// contained in baseDir. A symlink is accepted only when its final target also
// stays inside baseDir.
func ValidateFileInDirectory(filePath, baseDir string) error {
	absFile, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("cannot resolve file path: %w", err)
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("cannot resolve base directory: %w", err)
	}

	if !pathWithin(absBase, absFile) {
		return fmt.Errorf("file is not within base directory")
	}

	info, err := os.Lstat(absFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filepath.Base(filePath))
		}
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file")
	}

	if info.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(absFile)
		if err != nil {
			return fmt.Errorf("cannot resolve symlink: %w", err)
		}
		baseCanonical, err := canonicalAbs(absBase)
		if err != nil {
			return fmt.Errorf("cannot resolve base directory: %w", err)
		}
		if !pathWithin(baseCanonical, resolved) {
			return fmt.Errorf("symlink resolves outside base directory")
		}
		target, err := os.Stat(resolved)
		if err != nil {
			return fmt.Errorf("cannot access file: %w", err)
		}
		if target.IsDir() {
			return fmt.Errorf("path is a directory, not a file")
		}
	}

	return nil
}

// pathWithin reports whether path sits at or below base. Both arguments must
// be absolute.
func pathWithin(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// ValidateFileSizeLimit rejects files larger than maxSize bytes.
func ValidateFileSizeLimit(filePath string, maxSize int64) error {
	if maxSize <= 0 {
		return fmt.Errorf("invalid size limit: %d", maxSize)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filepath.Base(filePath))
		}
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	if info.Size() > maxSize {
		return fmt.Errorf("file size %d bytes exceeds limit %d bytes", info.Size(), maxSize)
	}

	return nil
}
