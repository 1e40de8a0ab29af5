// Package templates embeds the default rule template library.
package templates

import "embed"

// Defaults holds the built-in technology templates, one file per technology
// plus the reserved baseline.
//
//go:embed defaults/*.md
var Defaults embed.FS
