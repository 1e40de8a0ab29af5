package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ScanOptions configures directory scanning behavior.
type ScanOptions struct {
	// SkipUnreadableDirs makes the scan tolerate directories that cannot be
	// opened or read: they are recorded as skipped instead of failing the scan.
	SkipUnreadableDirs bool

	// MaxDepth limits recursion depth. The scan root counts as depth 1.
	MaxDepth int

	// IncludeHidden controls whether dotfiles and dot-directories are visited.
	// Project scans keep this on: markers like .gitlab-ci.yml live in dotfiles.
	IncludeHidden bool

	// SkipPatterns are doublestar patterns matched against directory base names
	// and slash-separated relative paths. Matching directories are not entered.
	SkipPatterns []string

	// FileFilter optionally restricts which files are recorded. Nil records all.
	FileFilter func(filename string) bool

	// DirFilter optionally overrides the skip logic. When set, only directories
	// for which it returns true are entered.
	DirFilter func(dirname string) bool
}

// FileInfo is one recorded entry from a scan: a file or a directory, with its
// path relative to the scan root.
type FileInfo struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
	Mode    os.FileMode
}

// DirectoryScanner walks a directory tree inside an os.Root boundary. Symlinked
// directories are only followed when they resolve inside the scan root, and a
// visited set guards against link loops. Both files and directories are
// recorded so callers can test directory-convention markers.
type DirectoryScanner struct {
	root     *os.Root
	opts     *ScanOptions
	results  []FileInfo
	skipped  []string
	visited  map[string]bool
	scanRoot string
}

// NewDirectoryScanner validates scanPath and prepares a scanner rooted there.
// Nil opts selects the project-scan defaults.
func NewDirectoryScanner(scanPath string, opts *ScanOptions) (*DirectoryScanner, error) {
	if opts == nil {
		opts = DefaultScanOptions()
	}

	absPath, err := ValidateDirPath(scanPath)
	if err != nil {
		return nil, err
	}

	if IsReservedDirectory(absPath) {
		return nil, fmt.Errorf("%w: refusing to scan reserved directory %s", ErrInvalidPath, absPath)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open scan root: %w", err)
	}

	return &DirectoryScanner{
		root:     root,
		opts:     opts,
		results:  []FileInfo{},
		visited:  make(map[string]bool),
		scanRoot: absPath,
	}, nil
}

// DefaultScanOptions returns the options used for project tree scans.
func DefaultScanOptions() *ScanOptions {
	return &ScanOptions{
		SkipUnreadableDirs: true,
		MaxDepth:           16,
		IncludeHidden:      true,
		SkipPatterns:       DefaultSkipPatterns(),
	}
}

// DefaultSkipPatterns lists directories that never carry detection markers:
// package caches, build output and VCS internals.
func DefaultSkipPatterns() []string {
	return []string{
		"node_modules",
		".git",
		"vendor",
		"target",
		"build",
		".next",
		"dist",
		".cache",
		"__pycache__",
		"venv",
		".venv",
		".vscode",
		".idea",
	}
}

// Close releases the scan root. The scanner is unusable afterwards.
func (s *DirectoryScanner) Close() error {
	if s.root != nil {
		err := s.root.Close()
		s.root = nil
		return err
	}
	return nil
}

// Scan walks the tree and returns every recorded entry. Results are sorted by
// the traversal order of os.ReadDir, which is lexicographic per directory, so
// repeated scans of an unchanged tree return identical slices.
func (s *DirectoryScanner) Scan() ([]FileInfo, error) {
	if s.root == nil {
		return nil, fmt.Errorf("scanner has been closed")
	}

	s.results = []FileInfo{}
	s.skipped = nil
	s.visited = make(map[string]bool)

	if err := s.scanRecursive(".", 1); err != nil {
		return nil, fmt.Errorf("directory scan failed: %w", err)
	}

	out := make([]FileInfo, len(s.results))
	copy(out, s.results)
	return out, nil
}

// SkippedPaths reports the relative paths that the last Scan could not read.
// Callers surface these as evidence gaps.
func (s *DirectoryScanner) SkippedPaths() []string {
	out := make([]string, len(s.skipped))
	copy(out, s.skipped)
	return out
}

func (s *DirectoryScanner) scanRecursive(relativePath string, depth int) error {
	if depth > s.opts.MaxDepth {
		return nil
	}

	cleanPath := filepath.Clean(relativePath)
	if s.visited[cleanPath] {
		return nil // already seen through another link
	}
	s.visited[cleanPath] = true

	if s.shouldSkipDirectory(filepath.Base(relativePath), cleanPath) {
		return nil
	}

	dir, err := s.root.Open(relativePath)
	if err != nil {
		if s.opts.SkipUnreadableDirs {
			s.skipped = append(s.skipped, cleanPath)
			return nil
		}
		return fmt.Errorf("failed to open directory %s: %w", relativePath, err)
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		if s.opts.SkipUnreadableDirs {
			s.skipped = append(s.skipped, cleanPath)
			return nil
		}
		return fmt.Errorf("failed to read directory %s: %w", relativePath, err)
	}

	for _, entry := range entries {
		entryPath := filepath.Join(relativePath, entry.Name())

		if entry.IsDir() {
			if s.shouldSkipDirectory(entry.Name(), entryPath) {
				continue
			}

			fullEntryPath := filepath.Join(s.scanRoot, entryPath)
			if isLink, err := IsSymlink(fullEntryPath); err == nil && isLink {
				if err := ValidateSymlinkSecurity(fullEntryPath, []string{s.scanRoot}); err != nil {
					s.skipped = append(s.skipped, entryPath)
					continue
				}
			}

			if info, err := s.entryInfo(entry, entryPath); err == nil {
				s.results = append(s.results, info)
			}

			if err := s.scanRecursive(entryPath, depth+1); err != nil {
				return err
			}
		} else {
			if !s.shouldIncludeFile(entry.Name()) {
				continue
			}
			info, err := s.entryInfo(entry, entryPath)
			if err != nil {
				if s.opts.SkipUnreadableDirs {
					s.skipped = append(s.skipped, entryPath)
					continue
				}
				return fmt.Errorf("failed to stat %s: %w", entryPath, err)
			}
			s.results = append(s.results, info)
		}
	}

	return nil
}

func (s *DirectoryScanner) shouldSkipDirectory(dirName, relPath string) bool {
	if dirName == "." || dirName == ".." {
		return false
	}

	if s.opts.DirFilter != nil {
		return !s.opts.DirFilter(dirName)
	}

	if !s.opts.IncludeHidden && strings.HasPrefix(dirName, ".") {
		return true
	}

	slashPath := filepath.ToSlash(relPath)
	for _, pattern := range s.opts.SkipPatterns {
		if pattern == dirName {
			return true
		}
		if ok, err := doublestar.Match(pattern, slashPath); err == nil && ok {
			return true
		}
	}
	return false
}

func (s *DirectoryScanner) shouldIncludeFile(fileName string) bool {
	if !s.opts.IncludeHidden && strings.HasPrefix(fileName, ".") {
		return false
	}
	if s.opts.FileFilter != nil {
		return s.opts.FileFilter(fileName)
	}
	return true
}

func (s *DirectoryScanner) entryInfo(entry os.DirEntry, path string) (FileInfo, error) {
	info, err := entry.Info()
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Name:    entry.Name(),
		Path:    path,
		IsDir:   entry.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}, nil
}

// ScanStats summarizes a completed scan.
type ScanStats struct {
	TotalFiles       int
	TotalDirectories int
	SkippedPaths     int
	LargestFile      int64
	TotalSize        int64
}

// Stats calculates statistics over the current scan results.
func (s *DirectoryScanner) Stats() ScanStats {
	stats := ScanStats{SkippedPaths: len(s.skipped)}

	for _, entry := range s.results {
		if entry.IsDir {
			stats.TotalDirectories++
		} else {
			stats.TotalFiles++
			stats.TotalSize += entry.Size
			if entry.Size > stats.LargestFile {
				stats.LargestFile = entry.Size
			}
		}
	}

	return stats
}

// ScanTree is a convenience wrapper: scan path with default options and the
// given depth cap, returning the entries plus any unreadable paths.
func ScanTree(scanPath string, maxDepth int) ([]FileInfo, []string, error) {
	opts := DefaultScanOptions()
	if maxDepth > 0 {
		opts.MaxDepth = maxDepth
	}

	scanner, err := NewDirectoryScanner(scanPath, opts)
	if err != nil {
		return nil, nil, err
	}
	defer scanner.Close()

	files, err := scanner.Scan()
	if err != nil {
		return nil, nil, err
	}
	return files, scanner.SkippedPaths(), nil
}
