// Package ruleset holds the rule template library and the synthesizer that
// merges templates against detected technology profiles.
//
// A template is a markdown file with YAML frontmatter (technology, name,
// description, priority) whose body splits into sections at "## " headings.
// A section may open with a predicate comment gating its inclusion:
//
//	## Spring Security
//	<!-- when: has-security && version >= 3 -->
//
// The library loads the embedded defaults once at startup and overlays them
// with user-stored and repository-synced templates; a malformed template
// anywhere fails the load. Synthesis selects the template for each profile,
// keeps the sections whose predicates pass, merges them in template priority
// order, and drops duplicate sections. The same profiles against the same
// library always render to byte-identical output.
package ruleset
