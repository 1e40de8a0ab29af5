package classify

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"rulesmith/internal/logging"
	"rulesmith/pkg/fileops"
)

// maxMarkerFileSize caps how much of a marker file is read for content and
// manifest probes. Larger files are truncated, not failed.
const maxMarkerFileSize = 1 << 20

// projectScan is the shared read model for one classification run: the path
// index from a single bounded walk plus lazily-read, cached file contents and
// parsed manifests. All paths are slash-separated and relative to the root.
type projectScan struct {
	root    *os.Root
	rootDir string
	logger  *logging.AppLogger

	files   map[string]bool
	dirs    map[string]bool
	paths   []string
	skipped []string

	content map[string][]byte

	poms      map[string]*pomFile
	packages  map[string]*packageJSON
	locks     map[string]*packageLock
	reqs      map[string]requirementSet
	pyprojs   map[string]*pyprojectFile
	pipfiles  map[string]*pipfileFile
	gitlabCIs map[string]*gitlabCIFile
}

// newProjectScan validates the root, walks it once and prepares the caches.
// Path validation failures carry fileops.ErrInvalidPath.
func newProjectScan(rootPath string, logger *logging.AppLogger) (*projectScan, error) {
	scanner, err := fileops.NewDirectoryScanner(rootPath, nil)
	if err != nil {
		return nil, err
	}
	defer scanner.Close()

	entries, err := scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("project scan failed: %w", err)
	}

	absRoot, err := fileops.ValidateDirPath(rootPath)
	if err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(absRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot open project root: %w", err)
	}

	ps := &projectScan{
		root:      root,
		rootDir:   absRoot,
		logger:    logger,
		files:     make(map[string]bool, len(entries)),
		dirs:      make(map[string]bool),
		skipped:   scanner.SkippedPaths(),
		content:   make(map[string][]byte),
		poms:      make(map[string]*pomFile),
		packages:  make(map[string]*packageJSON),
		locks:     make(map[string]*packageLock),
		reqs:      make(map[string]requirementSet),
		pyprojs:   make(map[string]*pyprojectFile),
		pipfiles:  make(map[string]*pipfileFile),
		gitlabCIs: make(map[string]*gitlabCIFile),
	}

	for _, entry := range entries {
		rel := filepath.ToSlash(entry.Path)
		if entry.IsDir {
			ps.dirs[rel] = true
		} else {
			ps.files[rel] = true
			ps.paths = append(ps.paths, rel)
		}
	}
	sort.Strings(ps.paths)

	for _, gap := range ps.skipped {
		logger.Warn("evidence gap: path skipped during scan", "path", gap)
	}

	return ps, nil
}

// Close releases the content-read root.
func (ps *projectScan) Close() error {
	if ps.root == nil {
		return nil
	}
	err := ps.root.Close()
	ps.root = nil
	return err
}

// SkippedPaths reports the subpaths the walk could not read.
func (ps *projectScan) SkippedPaths() []string {
	return ps.skipped
}

func (ps *projectScan) fileExists(rel string) bool {
	return ps.files[rel]
}

func (ps *projectScan) dirExists(rel string) bool {
	return ps.dirs[rel]
}

// glob returns the indexed file paths matching a doublestar pattern, in sorted
// order. A bare filename pattern also matches at any depth.
func (ps *projectScan) glob(pattern string) []string {
	var matches []string
	for _, path := range ps.paths {
		ok, err := doublestar.Match(pattern, path)
		if err != nil {
			ps.logger.Debug("bad glob pattern", "pattern", pattern, "error", err)
			return nil
		}
		if ok || filepath.Base(path) == pattern {
			matches = append(matches, path)
		}
	}
	return matches
}

// globFirst returns the first sorted match for pattern, or "".
func (ps *projectScan) globFirst(pattern string) string {
	matches := ps.glob(pattern)
	if len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// readFile returns the cached content of an indexed file, reading at most
// maxMarkerFileSize bytes. Unreadable files are logged once and reported as
// absent.
func (ps *projectScan) readFile(rel string) ([]byte, bool) {
	if data, ok := ps.content[rel]; ok {
		return data, data != nil
	}
	if !ps.fileExists(rel) {
		return nil, false
	}

	f, err := ps.root.Open(filepath.FromSlash(rel))
	if err != nil {
		ps.logger.Warn("evidence gap: marker file unreadable", "path", rel, "error", err)
		ps.content[rel] = nil
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxMarkerFileSize))
	if err != nil {
		ps.logger.Warn("evidence gap: marker file unreadable", "path", rel, "error", err)
		ps.content[rel] = nil
		return nil, false
	}

	ps.content[rel] = data
	return data, true
}
