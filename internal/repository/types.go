package repository

import (
	"fmt"
	"strings"
	"time"
)

// RepositoryType identifies the storage backend of a configured source.
type RepositoryType string

const (
	// RepositoryTypeLocal is a plain directory on the local filesystem.
	RepositoryTypeLocal RepositoryType = "local"

	// RepositoryTypeGitHub is a GitHub-hosted Git repository that syncs
	// into a local checkout.
	RepositoryTypeGitHub RepositoryType = "github"
)

func (rt RepositoryType) String() string {
	return string(rt)
}

// IsValid reports whether the type is one of the supported backends.
func (rt RepositoryType) IsValid() bool {
	return rt == RepositoryTypeLocal || rt == RepositoryTypeGitHub
}

// RepositoryEntry is one configured template source as persisted in the app
// config. The ID is derived from the name plus the creation timestamp so
// entries stay addressable after renames of the display name.
type RepositoryEntry struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Type      RepositoryType `yaml:"type"`
	CreatedAt int64          `yaml:"created_at"`

	// Path is the template directory itself for local entries, and the
	// clone destination for GitHub entries.
	Path string `yaml:"path"`

	// Remote fields, only set when Type == RepositoryTypeGitHub.
	RemoteURL    *string `yaml:"remote_url,omitempty"`
	Branch       *string `yaml:"branch,omitempty"`
	LastSyncTime *int64  `yaml:"last_sync_time,omitempty"`
}

// NewEntry builds a RepositoryEntry with a generated ID and creation time.
// The caller fills in remote fields afterwards for GitHub entries.
func NewEntry(name string, repoType RepositoryType, path string) RepositoryEntry {
	now := time.Now().Unix()
	return RepositoryEntry{
		ID:        fmt.Sprintf("%s-%d", sanitizeIDName(name), now),
		Name:      name,
		Type:      repoType,
		CreatedAt: now,
		Path:      path,
	}
}

// sanitizeIDName lowercases a display name and collapses everything that is
// not alphanumeric into single dashes, yielding a stable ID prefix.
func sanitizeIDName(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	id := strings.TrimSuffix(b.String(), "-")
	if id == "" {
		id = "repo"
	}
	return id
}

// IsRemote reports whether this entry syncs from a Git remote.
func (r RepositoryEntry) IsRemote() bool {
	return r.Type == RepositoryTypeGitHub
}

// IsLocal reports whether this entry is a plain local directory.
func (r RepositoryEntry) IsLocal() bool {
	return r.Type == RepositoryTypeLocal
}

// GetRemoteURL returns the remote URL, or "" for local entries.
func (r RepositoryEntry) GetRemoteURL() string {
	if r.RemoteURL != nil {
		return *r.RemoteURL
	}
	return ""
}

// GetBranch returns the configured branch, or "" for the remote default.
func (r RepositoryEntry) GetBranch() string {
	if r.Branch != nil {
		return *r.Branch
	}
	return ""
}

func (r RepositoryEntry) String() string {
	if r.IsRemote() {
		return fmt.Sprintf("RepositoryEntry{ID: %s, Type: %s, RemoteURL: %s}", r.ID, r.Type, r.GetRemoteURL())
	}
	return fmt.Sprintf("RepositoryEntry{ID: %s, Type: %s, Path: %s}", r.ID, r.Type, r.Path)
}

// ValidateEntry checks a single entry for structural correctness: ID format,
// name limits, type, timestamps, and the type-specific field constraints.
func ValidateEntry(entry RepositoryEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("repository ID cannot be empty")
	}
	parts := strings.Split(entry.ID, "-")
	if len(parts) < 2 {
		return fmt.Errorf("invalid repository ID format %q (expected: name-timestamp)", entry.ID)
	}
	timestamp := parts[len(parts)-1]
	if timestamp == "" {
		return fmt.Errorf("invalid repository ID format %q (missing timestamp)", entry.ID)
	}
	for _, ch := range timestamp {
		if ch < '0' || ch > '9' {
			return fmt.Errorf("invalid repository ID format %q (timestamp must be numeric)", entry.ID)
		}
	}

	name := strings.TrimSpace(entry.Name)
	if name == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("repository name too long (%d characters, maximum 100)", len(name))
	}

	if !entry.Type.IsValid() {
		return fmt.Errorf("invalid repository type %q (must be %q or %q)",
			entry.Type, RepositoryTypeLocal, RepositoryTypeGitHub)
	}

	if entry.CreatedAt <= 0 {
		return fmt.Errorf("invalid created_at timestamp: %d", entry.CreatedAt)
	}

	if strings.TrimSpace(entry.Path) == "" {
		return fmt.Errorf("repository path cannot be empty")
	}

	if entry.IsRemote() {
		if strings.TrimSpace(entry.GetRemoteURL()) == "" {
			return fmt.Errorf("github repository must have a remote URL")
		}
		if entry.Branch != nil && strings.TrimSpace(*entry.Branch) == "" {
			return fmt.Errorf("branch cannot be an empty string (use nil for the default branch)")
		}
		if entry.LastSyncTime != nil && *entry.LastSyncTime <= 0 {
			return fmt.Errorf("last_sync_time must be a positive Unix timestamp, got %d", *entry.LastSyncTime)
		}
	} else {
		if entry.GetRemoteURL() != "" {
			return fmt.Errorf("local repository should not have a remote URL")
		}
		if entry.GetBranch() != "" {
			return fmt.Errorf("local repository should not have a branch")
		}
	}

	return nil
}

// ValidateAll checks a list of entries for per-entry validity plus uniqueness
// of IDs and names (names compared case-insensitively).
func ValidateAll(entries []RepositoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	seenIDs := make(map[string]string, len(entries))
	seenNames := make(map[string]string, len(entries))
	for _, entry := range entries {
		if existing, ok := seenIDs[entry.ID]; ok {
			return fmt.Errorf("duplicate repository ID %q used by %q and %q", entry.ID, existing, entry.Name)
		}
		seenIDs[entry.ID] = entry.Name

		lower := strings.ToLower(strings.TrimSpace(entry.Name))
		if existing, ok := seenNames[lower]; ok {
			return fmt.Errorf("duplicate repository name: %q and %q (names must be unique)", existing, entry.Name)
		}
		seenNames[lower] = entry.Name
	}

	var problems []string
	for i, entry := range entries {
		if err := ValidateEntry(entry); err != nil {
			problems = append(problems, fmt.Sprintf("repository[%d] (%s): %v", i, entry.Name, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("repository validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}

	return nil
}
