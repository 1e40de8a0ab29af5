package ruleset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"rulesmith/internal/logging"
	"rulesmith/internal/templates"
	"rulesmith/pkg/fileops"
)

// BaselineTechnology is the reserved template name used when no technology
// profile is available.
const BaselineTechnology = "baseline"

// markdownExtensions mirrors what the template store accepts.
var markdownExtensions = []string{
	".md", ".mdown", ".mkdn", ".mkd", ".markdown",
}

// TemplateLoadError marks a malformed or unreadable template. The library
// load fails at startup rather than surfacing errors per synthesis.
type TemplateLoadError struct {
	Path string
	Err  error
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("template %s: %v", e.Path, e.Err)
}

func (e *TemplateLoadError) Unwrap() error { return e.Err }

// Library is the immutable set of loaded templates, keyed by technology.
// Reloading means restarting the process.
type Library struct {
	templates map[string]*Template
}

// LoadLibrary reads the embedded defaults and then overlays templates from
// the given directories in order. A later template for the same technology
// replaces the earlier one; missing overlay directories are skipped.
func LoadLibrary(logger *logging.AppLogger, overlayDirs ...string) (*Library, error) {
	if logger == nil {
		logger = logging.GetDefault()
	}

	lib := &Library{templates: map[string]*Template{}}
	if err := lib.loadEmbedded(); err != nil {
		return nil, err
	}
	for _, dir := range overlayDirs {
		if err := lib.loadOverlay(logger, dir); err != nil {
			return nil, err
		}
	}

	if lib.templates[BaselineTechnology] == nil {
		return nil, &TemplateLoadError{Path: BaselineTechnology, Err: errors.New("baseline template missing")}
	}

	logger.Debug("template library loaded", "count", len(lib.templates))
	return lib, nil
}

func (l *Library) loadEmbedded() error {
	entries, err := fs.ReadDir(templates.Defaults, "defaults")
	if err != nil {
		return &TemplateLoadError{Path: "defaults", Err: err}
	}
	for _, entry := range entries {
		if entry.IsDir() || !isTemplateFile(entry.Name()) {
			continue
		}
		path := "defaults/" + entry.Name()
		data, err := fs.ReadFile(templates.Defaults, path)
		if err != nil {
			return &TemplateLoadError{Path: path, Err: err}
		}
		t, err := ParseTemplate(data, "embedded")
		if err != nil {
			return &TemplateLoadError{Path: path, Err: err}
		}
		l.templates[t.Technology] = t
	}
	return nil
}

func (l *Library) loadOverlay(logger *logging.AppLogger, dir string) error {
	if strings.TrimSpace(dir) == "" {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("template overlay directory absent", "dir", dir)
			return nil
		}
		return &TemplateLoadError{Path: dir, Err: err}
	}

	for _, entry := range entries {
		if entry.IsDir() || !isTemplateFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		// Overlay dirs include synced repo checkouts; don't follow links out.
		if err := fileops.ValidateFileInDirectory(path, dir); err != nil {
			logger.Warn("template skipped", "path", path, "error", err)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return &TemplateLoadError{Path: path, Err: err}
		}
		t, err := ParseTemplate(data, path)
		if err != nil {
			return &TemplateLoadError{Path: path, Err: err}
		}
		if prev, ok := l.templates[t.Technology]; ok {
			logger.Debug("template overlaid", "technology", t.Technology, "replaces", prev.Origin, "with", path)
		}
		l.templates[t.Technology] = t
	}
	return nil
}

// Template returns the template for a technology name, or nil when the
// library has none.
func (l *Library) Template(technology string) *Template {
	return l.templates[strings.ToLower(strings.TrimSpace(technology))]
}

// Has reports whether the library carries a template for the technology.
func (l *Library) Has(technology string) bool {
	return l.Template(technology) != nil
}

// Baseline returns the reserved baseline template. LoadLibrary guarantees it
// exists.
func (l *Library) Baseline() *Template {
	return l.templates[BaselineTechnology]
}

// Templates returns every non-baseline template in merge order: priority
// ascending, ties broken by technology name.
func (l *Library) Templates() []*Template {
	list := make([]*Template, 0, len(l.templates))
	for tech, t := range l.templates {
		if tech == BaselineTechnology {
			continue
		}
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority < list[j].Priority
		}
		return list[i].Technology < list[j].Technology
	})
	return list
}

func isTemplateFile(filename string) bool {
	return slices.Contains(markdownExtensions, strings.ToLower(filepath.Ext(filename)))
}
