package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rulesmith/internal/repository"

	"github.com/adrg/xdg"
)

func TestConfigPath(t *testing.T) {
	t.Run("environment override wins", func(t *testing.T) {
		t.Setenv("RULESMITH_CONFIG_PATH", "/custom/override/config.yaml")

		path, err := ConfigPath()
		if err != nil {
			t.Fatalf("ConfigPath() failed: %v", err)
		}
		if path != "/custom/override/config.yaml" {
			t.Errorf("override ignored, got %s", path)
		}
	})

	t.Run("XDG config home", func(t *testing.T) {
		// Registered before t.Setenv so it runs after the env is restored.
		t.Cleanup(xdg.Reload)
		t.Setenv("RULESMITH_CONFIG_PATH", "")
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		xdg.Reload()

		path, err := ConfigPath()
		if err != nil {
			t.Fatalf("ConfigPath() failed: %v", err)
		}
		want := filepath.Join("/custom/config", APP_NAME, "config.yaml")
		if path != want {
			t.Errorf("ConfigPath() = %s, want %s", path, want)
		}
	})
}

func TestConfigSaveLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	original := Config{
		TemplatesDir:  "/test/templates",
		DefaultEditor: "cursor",
		Verbose:       true,
		Version:       "1.0",
		InitTime:      time.Now().Unix(),
	}

	if err := original.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if loaded.TemplatesDir != original.TemplatesDir {
		t.Errorf("TemplatesDir = %s, want %s", loaded.TemplatesDir, original.TemplatesDir)
	}
	if loaded.DefaultEditor != original.DefaultEditor {
		t.Errorf("DefaultEditor = %s, want %s", loaded.DefaultEditor, original.DefaultEditor)
	}
	if !loaded.Verbose {
		t.Error("Verbose flag lost in round trip")
	}
	if loaded.Version != original.Version {
		t.Errorf("Version = %s, want %s", loaded.Version, original.Version)
	}
	if loaded.InitTime != original.InitTime {
		t.Errorf("InitTime = %d, want %d", loaded.InitTime, original.InitTime)
	}
}

func TestConfigRepositoriesRoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	remoteURL := "https://github.com/example/rule-templates"
	branch := "main"

	cfg := Config{
		TemplatesDir: "/test/templates",
		Version:      "1.0",
		InitTime:     time.Now().Unix(),
		Repositories: []repository.RepositoryEntry{
			{
				ID:        "team-templates-1728756432",
				Name:      "Team Templates",
				Type:      repository.RepositoryTypeGitHub,
				CreatedAt: time.Now().Unix(),
				Path:      "/test/clones/team-templates",
				RemoteURL: &remoteURL,
				Branch:    &branch,
			},
			{
				ID:        "local-templates-1728756433",
				Name:      "Local Templates",
				Type:      repository.RepositoryTypeLocal,
				CreatedAt: time.Now().Unix(),
				Path:      "/test/local-templates",
			},
		},
	}

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if len(loaded.Repositories) != 2 {
		t.Fatalf("got %d repositories, want 2", len(loaded.Repositories))
	}

	remote := loaded.Repositories[0]
	if !remote.IsRemote() {
		t.Error("first repository should be remote")
	}
	if remote.GetRemoteURL() != remoteURL {
		t.Errorf("RemoteURL = %s, want %s", remote.GetRemoteURL(), remoteURL)
	}
	if remote.GetBranch() != branch {
		t.Errorf("Branch = %s, want %s", remote.GetBranch(), branch)
	}

	local := loaded.Repositories[1]
	if !local.IsLocal() {
		t.Error("second repository should be local")
	}
	if local.GetRemoteURL() != "" {
		t.Errorf("local repository should have no remote URL, got %s", local.GetRemoteURL())
	}
}

func TestConfigBackfillsTemplatesDir(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	// Config written by an older version without templates_dir
	legacy := []byte("default_editor: cursor\nversion: \"1.0\"\ninit_time: 1700000000\n")
	if err := os.WriteFile(configPath, legacy, 0600); err != nil {
		t.Fatalf("write legacy config: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom failed on legacy config: %v", err)
	}

	if loaded.TemplatesDir == "" {
		t.Error("TemplatesDir should be backfilled with the default")
	}
	if loaded.DefaultEditor != "cursor" {
		t.Errorf("editor setting not preserved, got %q", loaded.DefaultEditor)
	}
}

func TestConfigInitTime(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	config := Config{
		TemplatesDir: "/test",
		Version:      "1.0",
		// InitTime left zero; SaveTo stamps it on first save.
	}

	before := time.Now().Unix()
	if err := config.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}
	after := time.Now().Unix()

	if config.InitTime < before || config.InitTime > after {
		t.Errorf("InitTime = %d, want between %d and %d", config.InitTime, before, after)
	}
}

func TestConfigFilePermissions(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	config := DefaultConfig()
	if err := config.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("stat config file: %v", err)
	}

	if mode := info.Mode(); mode&0077 != 0 {
		t.Errorf("config written with mode %o, want group/other bits clear", mode)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Version == "" {
		t.Error("DefaultConfig() has no version")
	}
	if config.TemplatesDir == "" {
		t.Error("DefaultConfig() has no templates directory")
	}
	if !strings.Contains(config.TemplatesDir, APP_NAME) {
		t.Errorf("default templates directory should contain %q, got %s", APP_NAME, config.TemplatesDir)
	}
	if config.InitTime != 0 {
		t.Error("InitTime should stay zero until the first save")
	}
	if len(config.Repositories) != 0 {
		t.Error("DefaultConfig() should have no repositories")
	}
}

func TestConfigErrorHandling(t *testing.T) {
	t.Run("load missing file", func(t *testing.T) {
		if _, err := LoadFrom("/non/existent/file.yaml"); err == nil {
			t.Error("LoadFrom should fail on a missing file")
		}
	})

	t.Run("load malformed YAML", func(t *testing.T) {
		badFile := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(badFile, []byte("templates_dir: [unclosed\n"), 0644); err != nil {
			t.Fatalf("write bad config: %v", err)
		}

		if _, err := LoadFrom(badFile); err == nil {
			t.Error("LoadFrom should fail on malformed YAML")
		}
	})

	t.Run("save to unwritable directory", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("root can write anywhere")
		}

		config := DefaultConfig()
		if err := config.SaveTo("/root/config.yaml"); err == nil {
			t.Error("SaveTo should fail in an unwritable directory")
		}
	})
}

func TestAddRemoveRepository(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("RULESMITH_CONFIG_PATH", filepath.Join(tempDir, "config.yaml"))

	cfg := DefaultConfig()
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entry := repository.RepositoryEntry{
		ID:        "team-rules-1728756432",
		Name:      "Team Rules",
		Type:      repository.RepositoryTypeLocal,
		CreatedAt: time.Now().Unix(),
		Path:      tempDir,
	}

	if err := cfg.AddRepository(entry); err != nil {
		t.Fatalf("AddRepository failed: %v", err)
	}
	if len(cfg.Repositories) != 1 {
		t.Fatalf("got %d repositories, want 1", len(cfg.Repositories))
	}

	// Duplicate IDs are rejected
	if err := cfg.AddRepository(entry); err == nil {
		t.Error("expected error adding duplicate repository ID")
	}

	// Invalid entries are rejected before touching the config
	bad := repository.RepositoryEntry{ID: "", Name: "", Type: "bogus"}
	if err := cfg.AddRepository(bad); err == nil {
		t.Error("expected error adding invalid repository entry")
	}
	if len(cfg.Repositories) != 1 {
		t.Errorf("invalid entry should not be appended, got %d entries", len(cfg.Repositories))
	}

	if err := cfg.RemoveRepository("team-rules-1728756432"); err != nil {
		t.Fatalf("RemoveRepository failed: %v", err)
	}
	if len(cfg.Repositories) != 0 {
		t.Errorf("got %d repositories after removal, want 0", len(cfg.Repositories))
	}

	if err := cfg.RemoveRepository("missing-1"); err == nil {
		t.Error("expected error removing unknown repository ID")
	}
}
