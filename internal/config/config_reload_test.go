package config

import (
	"path/filepath"
	"testing"
	"time"

	"rulesmith/internal/repository"
)

// reload runs the ReloadConfig command once and unwraps its message.
func reload(t *testing.T) ReloadConfigMsg {
	t.Helper()
	cmd := ReloadConfig()
	if cmd == nil {
		t.Fatal("ReloadConfig returned a nil command")
	}
	raw := cmd()
	msg, ok := raw.(ReloadConfigMsg)
	if !ok {
		t.Fatalf("ReloadConfig produced %T, want ReloadConfigMsg", raw)
	}
	return msg
}

func TestReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("RULESMITH_CONFIG_PATH", path)

	saved := Config{
		TemplatesDir:  "/srv/rules/templates",
		DefaultEditor: "cursor",
		Version:       "1.0",
		InitTime:      time.Now().Unix(),
	}
	if err := saved.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	msg := reload(t)
	if msg.Error != nil {
		t.Fatalf("reload failed: %v", msg.Error)
	}
	if msg.Config == nil {
		t.Fatal("reload produced a nil config")
	}
	if msg.Config.TemplatesDir != saved.TemplatesDir {
		t.Errorf("TemplatesDir = %q, want %q", msg.Config.TemplatesDir, saved.TemplatesDir)
	}
	if msg.Config.Version != saved.Version {
		t.Errorf("Version = %q, want %q", msg.Config.Version, saved.Version)
	}

	changed := saved
	changed.TemplatesDir = "/srv/rules/templates-v2"
	changed.DefaultEditor = "claude"
	changed.Version = "1.1"
	if err := changed.SaveTo(path); err != nil {
		t.Fatalf("SaveTo after edit: %v", err)
	}

	msg = reload(t)
	if msg.Error != nil {
		t.Fatalf("reload after edit failed: %v", msg.Error)
	}
	if msg.Config.TemplatesDir != changed.TemplatesDir {
		t.Errorf("TemplatesDir = %q, want %q", msg.Config.TemplatesDir, changed.TemplatesDir)
	}
	if msg.Config.DefaultEditor != changed.DefaultEditor {
		t.Errorf("DefaultEditor = %q, want %q", msg.Config.DefaultEditor, changed.DefaultEditor)
	}
	if msg.Config.Version != changed.Version {
		t.Errorf("Version = %q, want %q", msg.Config.Version, changed.Version)
	}
}

func TestReloadConfigMissingFile(t *testing.T) {
	t.Setenv("RULESMITH_CONFIG_PATH", filepath.Join(t.TempDir(), "nonexistent", "config.yaml"))

	msg := reload(t)
	if msg.Error == nil {
		t.Fatal("expected an error for a missing config file")
	}
	if msg.Config != nil {
		t.Fatal("config should be nil when the reload fails")
	}
}

// Walks a config edit cycle: save, load, edit a repository entry, save
// again, and confirm the reload sees the edit.
func TestReloadConfigAfterRepositoryEdit(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RULESMITH_CONFIG_PATH", filepath.Join(dir, "config.yaml"))

	cfg := DefaultConfig()
	cfg.Repositories = []repository.RepositoryEntry{{
		ID:        "team-templates-1728756432",
		Name:      "Original Repo",
		Type:      repository.RepositoryTypeLocal,
		CreatedAt: time.Now().Unix(),
		Path:      filepath.Join(dir, "original"),
	}}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Repositories) != 1 {
		t.Fatalf("loaded %d repositories, want 1", len(loaded.Repositories))
	}

	loaded.Repositories[0].Name = "Updated Repo"
	loaded.Repositories[0].Path = filepath.Join(dir, "updated")
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save after edit: %v", err)
	}

	msg := reload(t)
	if msg.Error != nil {
		t.Fatalf("reload failed: %v", msg.Error)
	}
	if len(msg.Config.Repositories) != 1 {
		t.Fatalf("reloaded %d repositories, want 1", len(msg.Config.Repositories))
	}
	entry := msg.Config.Repositories[0]
	if entry.Name != "Updated Repo" {
		t.Errorf("Name = %q, want %q", entry.Name, "Updated Repo")
	}
	if entry.Path != filepath.Join(dir, "updated") {
		t.Errorf("Path = %q, want %q", entry.Path, filepath.Join(dir, "updated"))
	}
}
