// Package templatestore manages the user template overlay directory. Templates
// stored here are markdown files with YAML frontmatter; they shadow the
// embedded defaults with the same file name when the rule library loads.
package templatestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"rulesmith/internal/logging"
	"rulesmith/pkg/fileops"
)

// maxImportSize caps imported template files. Rule templates are short
// markdown documents; anything bigger is a mistaken path.
const maxImportSize = 1 << 20

// Store provides access to the template overlay directory, confined by an
// os.Root so reads and writes can never escape it.
type Store struct {
	root *os.Root
	dir  string
}

// Open validates the directory, creates it when missing, and returns a store
// rooted there.
func Open(dir string) (*Store, error) {
	root, err := CreateSecureRoot(dir)
	if err != nil {
		return nil, err
	}

	return &Store{
		root: root,
		dir:  fileops.ExpandPath(strings.TrimSpace(dir)),
	}, nil
}

// Dir returns the absolute overlay directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Close releases the underlying root.
func (s *Store) Close() error {
	if s.root == nil {
		return nil
	}
	err := s.root.Close()
	s.root = nil
	return err
}

// Read returns the content of a stored template by file name.
func (s *Store) Read(name string) ([]byte, error) {
	clean, err := fileops.SanitizeFilename(name)
	if err != nil {
		return nil, fmt.Errorf("invalid template name: %w", err)
	}

	f, err := s.root.Open(clean)
	if err != nil {
		return nil, fmt.Errorf("cannot open template %s: %w", clean, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read template %s: %w", clean, err)
	}
	return data, nil
}

// Write stores template content under the given file name, overwriting any
// previous version. Names are sanitized and forced to a .md extension.
func (s *Store) Write(name string, data []byte) error {
	clean, err := normalizeTemplateName(name)
	if err != nil {
		return err
	}

	f, err := s.root.OpenFile(clean, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("cannot write template %s: %w", clean, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("cannot write template %s: %w", clean, err)
	}

	logging.Debug("Stored template", "name", clean, "bytes", len(data))
	return nil
}

// Remove deletes a stored template by file name.
func (s *Store) Remove(name string) error {
	clean, err := fileops.SanitizeFilename(name)
	if err != nil {
		return fmt.Errorf("invalid template name: %w", err)
	}

	if err := s.root.Remove(clean); err != nil {
		return fmt.Errorf("cannot remove template %s: %w", clean, err)
	}
	return nil
}

// ImportFile copies an external markdown file into the store and returns the
// stored name. Existing templates with the same name are overwritten, which is
// how repository syncs refresh their templates.
func (s *Store) ImportFile(srcPath string) (string, error) {
	if err := fileops.ValidateFileAccess(srcPath, false); err != nil {
		return "", fmt.Errorf("cannot import template: %w", err)
	}
	if err := fileops.ValidateFileSizeLimit(srcPath, maxImportSize); err != nil {
		return "", fmt.Errorf("cannot import template: %w", err)
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("cannot read source file: %w", err)
	}

	name := filepath.Base(srcPath)
	if err := s.Write(name, data); err != nil {
		return "", err
	}

	clean, _ := normalizeTemplateName(name)
	logging.Info("Imported template", "source", srcPath, "name", clean)
	return clean, nil
}

// normalizeTemplateName sanitizes a template file name and ensures it carries
// a markdown extension.
func normalizeTemplateName(name string) (string, error) {
	clean, err := fileops.SanitizeFilename(name)
	if err != nil {
		return "", fmt.Errorf("invalid template name: %w", err)
	}
	if !isTemplateFile(clean) {
		clean += ".md"
	}
	return clean, nil
}
