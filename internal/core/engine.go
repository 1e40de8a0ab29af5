package core

import (
	"strings"

	"rulesmith/internal/classify"
	"rulesmith/internal/config"
	"rulesmith/internal/logging"
	"rulesmith/internal/repository"
	"rulesmith/internal/ruleset"
	"rulesmith/internal/templatestore"
)

// Engine wires technology detection, the template library, and document
// synthesis behind one facade shared by the CLI, the TUI, and the MCP server.
type Engine struct {
	library *ruleset.Library
	logger  *logging.AppLogger
}

// NewEngine returns an Engine over an already-loaded library.
func NewEngine(library *ruleset.Library, logger *logging.AppLogger) *Engine {
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Engine{library: library, logger: logger}
}

// LoadEngine loads the template library using the overlay directories derived
// from the configuration. Overlay order is embedded defaults, synced
// repository checkouts in config order, then the custom template store, with
// later templates winning per technology.
func LoadEngine(cfg *config.Config, logger *logging.AppLogger) (*Engine, error) {
	var overlays []string
	if cfg != nil {
		overlays = repository.TemplateOverlayDirs(cfg.Repositories)
	}

	storeDir := ""
	if cfg != nil {
		storeDir = strings.TrimSpace(cfg.TemplatesDir)
	}
	if storeDir == "" {
		storeDir = templatestore.DefaultDir()
	}
	overlays = append(overlays, storeDir)

	library, err := ruleset.LoadLibrary(logger, overlays...)
	if err != nil {
		return nil, err
	}
	return NewEngine(library, logger), nil
}

// GenerateOptions tune one generation run.
type GenerateOptions struct {
	// Technology restricts the document to a single technology. A technology
	// the library knows but detection missed still generates: synthesis runs
	// against a stub profile with an unknown version.
	Technology string

	// Verbose appends the detection-evidence section to the document.
	Verbose bool
}

// Result is the outcome of one generation run. Profiles holds what detection
// found in the project, independent of any technology override.
type Result struct {
	Profiles []classify.Profile
	Document *ruleset.Document
	Rendered string
}

// TechnologyInfo describes one technology the loaded library can generate
// rules for.
type TechnologyInfo struct {
	Technology  string
	Name        string
	Description string

	// Detectable reports whether project analysis can find this technology
	// on its own. Library-only technologies still generate via the
	// Technology override.
	Detectable bool

	// Origin is "embedded" or the overlay file the template came from.
	Origin string
}

// Analyze runs technology detection on the project root.
func (e *Engine) Analyze(root string) ([]classify.Profile, error) {
	return classify.Classify(root, e.logger)
}

// Library exposes the loaded template library, e.g. for browsing templates.
func (e *Engine) Library() *ruleset.Library {
	return e.library
}

// Generate analyzes the project and synthesizes its rules document.
func (e *Engine) Generate(root string, opts GenerateOptions) (*Result, error) {
	profiles, err := e.Analyze(root)
	if err != nil {
		return nil, err
	}

	synthesisProfiles := profiles
	if tech := strings.ToLower(strings.TrimSpace(opts.Technology)); tech != "" {
		if !hasProfile(profiles, tech) && e.library.Has(tech) && tech != ruleset.BaselineTechnology {
			e.logger.Debug("requested technology not detected, using a stub profile", "technology", tech)
			synthesisProfiles = append(append([]classify.Profile{}, profiles...), stubProfile(tech))
		}
	}

	doc, err := ruleset.NewSynthesizer(e.library, e.logger).Synthesize(synthesisProfiles, ruleset.Options{
		TechnologyFilter: opts.Technology,
		Verbose:          opts.Verbose,
	})
	if err != nil {
		return nil, err
	}

	return &Result{Profiles: profiles, Document: doc, Rendered: doc.Render()}, nil
}

// Technologies lists what the loaded library can generate rules for, in merge
// order. The reserved baseline template is not listed.
func (e *Engine) Technologies() []TechnologyInfo {
	templates := e.library.Templates()
	infos := make([]TechnologyInfo, 0, len(templates))
	for _, t := range templates {
		_, detectable := classify.ParseTechnology(t.Technology)
		infos = append(infos, TechnologyInfo{
			Technology:  t.Technology,
			Name:        t.Name,
			Description: t.Description,
			Detectable:  detectable,
			Origin:      t.Origin,
		})
	}
	return infos
}

// stubProfile stands in for an explicitly requested technology that detection
// did not find. The unknown version fails every version predicate, so only
// unconditional template sections apply.
func stubProfile(technology string) classify.Profile {
	return classify.Profile{
		Name:       classify.Technology(technology),
		Version:    classify.VersionUnknown,
		Confidence: classify.ConfidenceLow,
		Features:   classify.FeatureSet{},
		Evidence: []classify.Evidence{{
			Path:   "request",
			Detail: "technology requested explicitly; no markers detected",
		}},
	}
}

func hasProfile(profiles []classify.Profile, technology string) bool {
	for _, p := range profiles {
		if strings.ToLower(string(p.Name)) == technology {
			return true
		}
	}
	return false
}
