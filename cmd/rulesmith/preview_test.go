package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewRendersDocument(t *testing.T) {
	setTestHome(t)
	project := newCIProject(t)

	out, _, err := runCommand(t, "", "preview", project, "--style", "notty")
	require.NoError(t, err)
	assert.Contains(t, out, "gitlab-ci")
}

func TestPreviewUnknownTechnology(t *testing.T) {
	setTestHome(t)
	project := t.TempDir()

	_, _, err := runCommand(t, "", "preview", project, "--technology", "cobol")
	require.Error(t, err)
}

func TestRenderMarkdownFallsBackOnBadStyle(t *testing.T) {
	const doc = "# Heading\n\nbody text\n"

	// An unknown style name makes the renderer fail to build; the raw
	// document must come back unchanged.
	assert.Equal(t, doc, renderMarkdown(doc, "no-such-style"))
}
