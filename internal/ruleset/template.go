package ruleset

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
)

// defaultPriority applies when a template's frontmatter omits the priority
// field. Lower numbers merge earlier.
const defaultPriority = 50

// templateMeta is the YAML frontmatter of a rule template.
type templateMeta struct {
	Technology  string `yaml:"technology"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Priority    *int   `yaml:"priority"`
}

// Template is one technology's rule template.
type Template struct {
	Technology  string
	Name        string
	Description string
	Priority    int
	Sections    []Section

	// Origin records where the template came from, "embedded" or the overlay
	// file path.
	Origin string
}

// Section is one "## " block of a template body. Predicate is nil for
// unconditional sections; Body holds the normalized section text including
// its heading, with any predicate comment stripped.
type Section struct {
	Heading   string
	Predicate *Predicate
	Body      string
}

var reWhenComment = regexp.MustCompile(`^<!--\s*when:\s*(.+?)\s*-->$`)

// ParseTemplate parses raw template bytes. Origin is recorded for diagnostics
// only.
func ParseTemplate(data []byte, origin string) (*Template, error) {
	var meta templateMeta
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return nil, fmt.Errorf("no valid frontmatter: %w", err)
	}

	technology := strings.ToLower(strings.TrimSpace(meta.Technology))
	if technology == "" {
		return nil, fmt.Errorf("frontmatter is missing the technology field")
	}

	t := &Template{
		Technology:  technology,
		Name:        strings.TrimSpace(meta.Name),
		Description: strings.TrimSpace(meta.Description),
		Priority:    defaultPriority,
		Origin:      origin,
	}
	if t.Name == "" {
		t.Name = technology
	}
	if meta.Priority != nil {
		t.Priority = *meta.Priority
	}

	if err := t.parseSections(string(body)); err != nil {
		return nil, err
	}
	return t, nil
}

// parseSections splits the body at "## " headings. Text before the first
// heading becomes an unconditional preamble section. A predicate comment is
// only recognized as the first non-blank line after a heading; anywhere else
// it stays literal content.
func (t *Template) parseSections(body string) error {
	var sections []Section
	var heading string
	var pred *Predicate
	var buf []string
	awaitingWhen := false

	flush := func() {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = nil
		if heading == "" {
			if text != "" {
				sections = append(sections, Section{Body: text})
			}
			return
		}
		sectionBody := heading
		if text != "" {
			sectionBody += "\n\n" + text
		}
		sections = append(sections, Section{Heading: heading, Predicate: pred, Body: sectionBody})
		pred = nil
	}

	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "## ") {
			flush()
			heading = strings.TrimRight(line, " \t")
			awaitingWhen = true
			continue
		}

		if awaitingWhen {
			if strings.TrimSpace(line) == "" {
				continue
			}
			awaitingWhen = false
			if m := reWhenComment.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				p, err := ParsePredicate(m[1])
				if err != nil {
					return fmt.Errorf("section %q: %w", heading, err)
				}
				pred = p
				continue
			}
		}
		buf = append(buf, line)
	}
	flush()

	if len(sections) == 0 {
		return fmt.Errorf("template body is empty")
	}
	t.Sections = sections
	return nil
}
