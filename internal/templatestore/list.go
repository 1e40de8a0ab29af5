package templatestore

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"rulesmith/internal/logging"
	"rulesmith/pkg/fileops"

	"github.com/adrg/frontmatter"
)

// markdownExtensions contains supported markdown file extensions
var markdownExtensions = []string{
	".md", ".mdown", ".mkdn", ".mkd", ".markdown",
}

type entryMeta struct {
	Technology string `yaml:"technology"`
}

// List returns the markdown templates currently in the store, sorted by file
// name. Technology is read from each file's frontmatter when present; files
// without frontmatter still appear so the user can spot malformed templates.
func (s *Store) List() ([]Entry, error) {
	opts := &fileops.ScanOptions{
		SkipUnreadableDirs: true,
		MaxDepth:           4,
		IncludeHidden:      false,
		SkipPatterns:       fileops.DefaultSkipPatterns(),
		FileFilter:         isTemplateFile,
	}

	scanner, err := fileops.NewDirectoryScanner(s.dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create template scanner: %w", err)
	}
	defer scanner.Close()

	files, err := scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan template directory: %w", err)
	}

	var entries []Entry
	for _, file := range files {
		if file.IsDir {
			continue
		}
		entries = append(entries, Entry{
			Name:       file.Name,
			Path:       filepath.Join(s.dir, file.Path),
			Technology: s.sniffTechnology(file.Path),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	logging.Debug("Listed stored templates", "count", len(entries))
	return entries, nil
}

// sniffTechnology reads just enough of a template to surface its technology
// binding in list views. Parse failures are not fatal here.
func (s *Store) sniffTechnology(relPath string) string {
	f, err := s.root.Open(relPath)
	if err != nil {
		return ""
	}
	defer f.Close()

	var meta entryMeta
	if _, err := frontmatter.Parse(f, &meta); err != nil {
		return ""
	}
	return meta.Technology
}

// isTemplateFile checks if a filename has a markdown extension.
func isTemplateFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return slices.Contains(markdownExtensions, ext)
}
