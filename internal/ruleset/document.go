package ruleset

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// DocumentDescription is the fixed description line carried by every
// generated document's header.
const DocumentDescription = "AI assistant rules synthesized from the project's detected technology stack"

// TechnologySummary identifies one contributing technology in the document
// header.
type TechnologySummary struct {
	Name       string `yaml:"name"`
	Version    string `yaml:"version"`
	Confidence string `yaml:"confidence"`
}

// documentHeader is the YAML frontmatter of a rendered document. Struct field
// order fixes the rendered key order.
type documentHeader struct {
	Description  string              `yaml:"description"`
	Technologies []TechnologySummary `yaml:"technologies,omitempty"`
}

// DocumentSection is one merged section with the technology that contributed
// it.
type DocumentSection struct {
	Technology string
	Heading    string
	Body       string
}

// Document is a synthesized rules document. Rendering the same document twice
// yields byte-identical output; there are no timestamps and no map iteration
// anywhere in the render path.
type Document struct {
	Technologies []TechnologySummary
	Sections     []DocumentSection
}

// Render produces the final markdown: a YAML frontmatter header followed by
// the merged sections separated by blank lines.
func (d *Document) Render() string {
	header, _ := yaml.Marshal(documentHeader{
		Description:  DocumentDescription,
		Technologies: d.Technologies,
	})

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n")
	for _, sec := range d.Sections {
		b.WriteString("\n")
		b.WriteString(sec.Body)
		b.WriteString("\n")
	}
	return b.String()
}
