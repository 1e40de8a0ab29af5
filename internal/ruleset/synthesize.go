package ruleset

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"rulesmith/internal/classify"
	"rulesmith/internal/logging"
)

// ErrUnknownTechnology is returned when a technology filter names something
// absent from both the detected profiles and the template library.
var ErrUnknownTechnology = errors.New("unknown technology")

// evidenceWrapWidth is the column verbose evidence lines wrap at.
const evidenceWrapWidth = 80

// Options tune one synthesis run.
type Options struct {
	// TechnologyFilter restricts the document to a single technology's
	// template. Empty means all detected technologies contribute.
	TechnologyFilter string

	// Verbose appends a detection-evidence section to the document.
	Verbose bool
}

// Synthesizer merges the template library against detected profiles.
type Synthesizer struct {
	library *Library
	logger  *logging.AppLogger
}

func NewSynthesizer(library *Library, logger *logging.AppLogger) *Synthesizer {
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Synthesizer{library: library, logger: logger}
}

// selection pairs a profile with its resolved template for one synthesis run.
type selection struct {
	profile  classify.Profile
	template *Template
}

// Synthesize builds the rules document for the given profiles. An empty
// profile set, or a filter that matches no profile, degrades to the baseline
// document and is never an error.
func (s *Synthesizer) Synthesize(profiles []classify.Profile, opts Options) (*Document, error) {
	selected, err := s.selectProfiles(profiles, opts.TechnologyFilter)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return s.baselineDocument(opts), nil
	}

	doc := &Document{}
	seen := map[string]bool{}
	for _, sel := range selected {
		doc.Technologies = append(doc.Technologies, TechnologySummary{
			Name:       string(sel.profile.Name),
			Version:    sel.profile.Version,
			Confidence: string(sel.profile.Confidence),
		})

		for _, sec := range sel.template.Sections {
			if sec.Predicate != nil && !sec.Predicate.Eval(sel.profile) {
				s.logger.Debug("section gated out",
					"technology", sel.template.Technology,
					"section", sec.Heading,
					"when", sec.Predicate.String())
				continue
			}

			// Identical sections contributed by several technologies appear
			// once; the first merge wins.
			key := strings.TrimSpace(sec.Body)
			if seen[key] {
				continue
			}
			seen[key] = true

			doc.Sections = append(doc.Sections, DocumentSection{
				Technology: sel.template.Technology,
				Heading:    sec.Heading,
				Body:       sec.Body,
			})
		}
	}

	if opts.Verbose {
		doc.Sections = append(doc.Sections, evidenceSection(selected, ""))
	}
	return doc, nil
}

// selectProfiles resolves each profile to its template and orders the result
// for merging: template priority ascending, ties by technology name.
func (s *Synthesizer) selectProfiles(profiles []classify.Profile, filter string) ([]selection, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter != "" && !s.library.Has(filter) && !profilesContain(profiles, filter) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTechnology, filter)
	}

	var selected []selection
	for _, profile := range profiles {
		name := strings.ToLower(string(profile.Name))
		if filter != "" && name != filter {
			continue
		}
		tmpl := s.library.Template(name)
		if tmpl == nil {
			s.logger.Warn("no template for detected technology", "technology", name)
			continue
		}
		selected = append(selected, selection{profile: profile, template: tmpl})
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].template.Priority != selected[j].template.Priority {
			return selected[i].template.Priority < selected[j].template.Priority
		}
		return selected[i].template.Technology < selected[j].template.Technology
	})
	return selected, nil
}

// baselineDocument renders the reserved baseline template. Baseline sections
// carrying predicates are skipped: with no profile present, no predicate can
// hold.
func (s *Synthesizer) baselineDocument(opts Options) *Document {
	doc := &Document{}
	for _, sec := range s.library.Baseline().Sections {
		if sec.Predicate != nil {
			continue
		}
		doc.Sections = append(doc.Sections, DocumentSection{
			Technology: BaselineTechnology,
			Heading:    sec.Heading,
			Body:       sec.Body,
		})
	}

	if opts.Verbose {
		note := "No technology profiles matched; generic baseline rules apply."
		if filter := strings.ToLower(strings.TrimSpace(opts.TechnologyFilter)); filter != "" {
			note = fmt.Sprintf("No %s profile was detected; generic baseline rules apply.", filter)
		}
		doc.Sections = append(doc.Sections, evidenceSection(nil, note))
	}
	return doc
}

// evidenceSection renders the verbose per-profile evidence listing.
func evidenceSection(selected []selection, note string) DocumentSection {
	var b strings.Builder
	b.WriteString("## Detection evidence")

	if note != "" {
		b.WriteString("\n\n")
		b.WriteString(wordwrap.String(note, evidenceWrapWidth))
	}

	for _, sel := range selected {
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("### %s %s (%s)", sel.profile.Name, sel.profile.Version, sel.profile.Confidence))
		for _, ev := range sel.profile.Evidence {
			line := "- " + ev.Path
			if ev.Detail != "" {
				line += ": " + ev.Detail
			}
			line += fmt.Sprintf(" (weight %d)", ev.Weight)
			b.WriteString("\n")
			b.WriteString(wordwrap.String(line, evidenceWrapWidth))
		}
	}

	return DocumentSection{Heading: "## Detection evidence", Body: b.String()}
}

func profilesContain(profiles []classify.Profile, name string) bool {
	for _, p := range profiles {
		if strings.ToLower(string(p.Name)) == name {
			return true
		}
	}
	return false
}
