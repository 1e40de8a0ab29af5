package editors

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rulesmith/pkg/fileops"
)

// Target is one supported assistant configuration format: where its rules
// file lives relative to the project root and how that file is named.
type Target struct {
	// Key is the stable identifier used in flags, config, and the MCP API.
	Key string

	// Name of the editor or assistant as shown in pickers.
	Name string

	// Explanation is the longer description shown in pickers, ending with a
	// link to the tool's documentation.
	Explanation string

	// Dir is the directory of the rules file relative to the project root,
	// "" for the root itself.
	Dir string

	// FileName is the fixed file name for targets whose tools look up an
	// exact path. Empty when the name derives from a caller-chosen stem.
	FileName string

	// Suffix is appended to the stem for targets without a fixed FileName.
	Suffix string
}

var targets = []Target{
	{
		// https://docs.cursor.com/en/context/rules
		Key:         "cursor",
		Name:        "Cursor rules",
		Explanation: "Project rules under .cursor/rules, attached to chats based on context. Cursor supports scoped rules per directory, so generate inside the directory the rules should apply to.\nFor more information, see https://docs.cursor.com/en/context/rules",
		Dir:         ".cursor/rules",
		Suffix:      ".mdc",
	},
	{
		// https://code.visualstudio.com/docs/copilot/copilot-customization#_use-a-githubcopilotinstructionsmd-file
		Key:         "copilot",
		Name:        "GitHub Copilot - General instructions",
		Explanation: "A single instructions file added to every Copilot message.\nFor more information, see https://code.visualstudio.com/docs/copilot/copilot-customization#_use-a-githubcopilotinstructionsmd-file",
		Dir:         ".github",
		FileName:    "copilot-instructions.md",
	},
	{
		// https://code.visualstudio.com/docs/copilot/copilot-customization#_use-instructionsmd-files
		Key:         "copilot-scope",
		Name:        "GitHub Copilot - Scoped instructions",
		Explanation: "Instructions applied depending on the files in the chat's context.\nFor more information, see https://code.visualstudio.com/docs/copilot/copilot-customization#_use-instructionsmd-files",
		Dir:         ".github/instructions",
		Suffix:      ".instructions.md",
	},
	{
		// https://opencode.ai/docs/rules/
		Key:         "agents",
		Name:        "AGENTS.md",
		Explanation: "A general instructions file in the project root. This name is expected by several tools such as SST Opencode.\nFor more information, see https://opencode.ai/docs/rules/",
		FileName:    "AGENTS.md",
	},
	{
		// https://docs.anthropic.com/en/docs/claude-code/memory
		Key:         "claude",
		Name:        "Claude Code",
		Explanation: "Project memory read from CLAUDE.md in the project root.\nFor more information, see https://docs.anthropic.com/en/docs/claude-code/memory",
		FileName:    "CLAUDE.md",
	},
	{
		// https://github.com/google-gemini/gemini-cli?tab=readme-ov-file#advanced-capabilities
		Key:         "gemini",
		Name:        "Gemini CLI",
		Explanation: "A general instructions file read from GEMINI.md in the project root.\nFor more information, see https://github.com/google-gemini/gemini-cli?tab=readme-ov-file#advanced-capabilities",
		FileName:    "GEMINI.md",
	},
}

// All returns the supported targets in display order.
func All() []Target {
	return targets
}

// Keys returns the target keys, for flag help and completion.
func Keys() []string {
	keys := make([]string, 0, len(targets))
	for _, t := range targets {
		keys = append(keys, t.Key)
	}
	return keys
}

// ByKey returns the target with the given key.
func ByKey(key string) (Target, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, t := range targets {
		if t.Key == key {
			return t, nil
		}
	}
	return Target{}, fmt.Errorf("unknown editor %q (valid: %s)", key, strings.Join(Keys(), ", "))
}

// Target doubles as a bubbles list item so pickers can display it directly.
func (t Target) Title() string       { return t.Name }
func (t Target) Description() string { return t.Explanation }
func (t Target) FilterValue() string {
	return t.Key + " " + t.Name + " " + t.Explanation
}

// UsesStem reports whether the output file name derives from the stem. Fixed
// targets ignore the stem because their tools look up an exact file name.
func (t Target) UsesStem() bool {
	return t.FileName == ""
}

// FileNameFor returns the output file name for the given stem. The stem is
// sanitized and its extension replaced by the target's suffix; an unusable
// stem falls back to "rules".
func (t Target) FileNameFor(stem string) string {
	if t.FileName != "" {
		return t.FileName
	}

	clean, err := fileops.SanitizeFilename(strings.TrimSpace(stem))
	if err != nil {
		clean = "rules"
	}
	clean = strings.TrimSuffix(clean, t.Suffix)
	clean = removeExtension(clean)
	if clean == "" {
		clean = "rules"
	}
	return clean + t.Suffix
}

// ResolvePath returns the output path for the target under the project root.
func (t Target) ResolvePath(root, stem string) string {
	return filepath.Join(root, filepath.FromSlash(t.Dir), t.FileNameFor(stem))
}

// WriteDocument writes content to path, creating parent directories as
// needed. With backup, an existing file is first copied to <path>.bak. The
// returned string is the backup path, "" when no backup was made.
func WriteDocument(path, content string, backup bool) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("output path cannot be empty")
	}

	if err := fileops.EnsureDirectoryExists(filepath.Dir(path)); err != nil {
		return "", err
	}

	backupPath := ""
	if backup {
		if _, err := os.Stat(path); err == nil {
			backupPath = path + ".bak"
			if err := fileops.AtomicCopy(path, backupPath); err != nil {
				return "", fmt.Errorf("failed to back up existing file: %w", err)
			}
		}
	}

	if err := fileops.AtomicWrite(path, []byte(content)); err != nil {
		return backupPath, fmt.Errorf("failed to write rules file: %w", err)
	}
	return backupPath, nil
}

// removeExtension removes the file extension from a filename
func removeExtension(filename string) string {
	if len(filename) == 0 {
		return filename
	}

	lastDot := -1
	for i := len(filename) - 1; i >= 0; i-- {
		if filename[i] == '.' {
			lastDot = i
			break
		}
		if filename[i] == '/' || filename[i] == '\\' {
			break
		}
	}

	// No dot, or a leading dot (hidden file): nothing to strip.
	if lastDot <= 0 {
		return filename
	}

	return filename[:lastDot]
}
