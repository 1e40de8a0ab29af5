package editors

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rulesmith/pkg/fileops"
)

func mustTarget(t *testing.T, key string) Target {
	t.Helper()
	target, err := ByKey(key)
	if err != nil {
		t.Fatalf("ByKey(%q) error: %v", key, err)
	}
	return target
}

func TestAllTargets(t *testing.T) {
	wantKeys := []string{"cursor", "copilot", "copilot-scope", "agents", "claude", "gemini"}

	got := Keys()
	if len(got) != len(wantKeys) {
		t.Fatalf("Keys() = %v, want %v", got, wantKeys)
	}
	for i, key := range wantKeys {
		if got[i] != key {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], key)
		}
	}

	seen := map[string]bool{}
	for _, target := range All() {
		if seen[target.Key] {
			t.Errorf("duplicate target key %q", target.Key)
		}
		seen[target.Key] = true
		if target.FileName == "" && target.Suffix == "" {
			t.Errorf("target %q has neither a fixed file name nor a suffix", target.Key)
		}
		// ResolvePath joins Dir under the project root without further
		// checks, so the table must only ever hold safe relative paths.
		if target.Dir != "" {
			if err := fileops.ValidateRelativePath(target.Dir); err != nil {
				t.Errorf("target %q Dir %q: %v", target.Key, target.Dir, err)
			}
		}
	}
}

func TestByKey(t *testing.T) {
	target, err := ByKey("cursor")
	if err != nil {
		t.Fatalf("ByKey(cursor) error: %v", err)
	}
	if target.Dir != ".cursor/rules" || target.Suffix != ".mdc" {
		t.Errorf("cursor target = %+v", target)
	}

	if _, err := ByKey("  Claude  "); err != nil {
		t.Errorf("ByKey should normalize case and whitespace, got %v", err)
	}

	_, err = ByKey("vim")
	if err == nil {
		t.Fatal("ByKey(vim) = nil error")
	}
	if !strings.Contains(err.Error(), "cursor") {
		t.Errorf("unknown-key error %q should list valid keys", err.Error())
	}
}

func TestUsesStem(t *testing.T) {
	if !mustTarget(t, "cursor").UsesStem() {
		t.Error("cursor should use the stem")
	}
	if mustTarget(t, "claude").UsesStem() {
		t.Error("claude has a fixed file name")
	}
}

func TestFileNameFor(t *testing.T) {
	tests := []struct {
		name string
		key  string
		stem string
		want string
	}{
		{"cursor plain stem", "cursor", "python-web", "python-web.mdc"},
		{"cursor replaces extension", "cursor", "rules.md", "rules.mdc"},
		{"cursor empty stem falls back", "cursor", "", "rules.mdc"},
		{"cursor traversal stripped", "cursor", "../evil", "evil.mdc"},
		{"scoped instructions", "copilot-scope", "backend", "backend.instructions.md"},
		{"scoped instructions idempotent", "copilot-scope", "backend.instructions.md", "backend.instructions.md"},
		{"fixed name ignores stem", "claude", "whatever", "CLAUDE.md"},
		{"copilot fixed name", "copilot", "spring", "copilot-instructions.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := mustTarget(t, tt.key)
			if got := target.FileNameFor(tt.stem); got != tt.want {
				t.Errorf("FileNameFor(%q) = %q, want %q", tt.stem, got, tt.want)
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	root := filepath.Join("home", "proj")

	tests := []struct {
		key  string
		stem string
		want string
	}{
		{"cursor", "go", filepath.Join(root, ".cursor", "rules", "go.mdc")},
		{"copilot", "go", filepath.Join(root, ".github", "copilot-instructions.md")},
		{"copilot-scope", "api", filepath.Join(root, ".github", "instructions", "api.instructions.md")},
		{"agents", "", filepath.Join(root, "AGENTS.md")},
		{"claude", "", filepath.Join(root, "CLAUDE.md")},
		{"gemini", "", filepath.Join(root, "GEMINI.md")},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			target := mustTarget(t, tt.key)
			if got := target.ResolvePath(root, tt.stem); got != tt.want {
				t.Errorf("ResolvePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteDocument(t *testing.T) {
	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".cursor", "rules", "go.mdc")

		backupPath, err := WriteDocument(path, "# Rules\n", false)
		if err != nil {
			t.Fatalf("WriteDocument() error: %v", err)
		}
		if backupPath != "" {
			t.Errorf("backupPath = %q, want empty for a new file", backupPath)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading written file: %v", err)
		}
		if string(data) != "# Rules\n" {
			t.Errorf("written content = %q", data)
		}
	})

	t.Run("backs up before overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "CLAUDE.md")
		if _, err := WriteDocument(path, "old content\n", false); err != nil {
			t.Fatal(err)
		}

		backupPath, err := WriteDocument(path, "new content\n", true)
		if err != nil {
			t.Fatalf("WriteDocument() error: %v", err)
		}
		if backupPath != path+".bak" {
			t.Errorf("backupPath = %q, want %q", backupPath, path+".bak")
		}

		backup, err := os.ReadFile(backupPath)
		if err != nil {
			t.Fatalf("reading backup: %v", err)
		}
		if string(backup) != "old content\n" {
			t.Errorf("backup content = %q, want the previous content", backup)
		}

		current, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(current) != "new content\n" {
			t.Errorf("current content = %q", current)
		}
	})

	t.Run("backup flag without existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "AGENTS.md")

		backupPath, err := WriteDocument(path, "content\n", true)
		if err != nil {
			t.Fatalf("WriteDocument() error: %v", err)
		}
		if backupPath != "" {
			t.Errorf("backupPath = %q, want empty when nothing existed", backupPath)
		}
		if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
			t.Error("a backup file appeared for a fresh write")
		}
	})

	t.Run("empty path rejected", func(t *testing.T) {
		if _, err := WriteDocument("  ", "content", false); err == nil {
			t.Error("WriteDocument() accepted an empty path")
		}
	})
}
