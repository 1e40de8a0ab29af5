package repository

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
)

func TestDefaultCloneRoot(t *testing.T) {
	// Registered before t.Setenv so it runs after the env is restored.
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	xdg.Reload()

	root := DefaultCloneRoot()
	if !filepath.IsAbs(root) {
		t.Errorf("DefaultCloneRoot() = %q, want absolute path", root)
	}
	if !strings.HasSuffix(root, filepath.Join("rulesmith", "repos")) {
		t.Errorf("DefaultCloneRoot() = %q, want rulesmith/repos suffix", root)
	}
}

func TestDeriveClonePath(t *testing.T) {
	// Registered before t.Setenv so it runs after the env is restored.
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	xdg.Reload()

	t.Run("uses the repository name", func(t *testing.T) {
		got, err := DeriveClonePath("https://github.com/org/team-rules.git")
		if err != nil {
			t.Fatalf("DeriveClonePath() error: %v", err)
		}
		if got != filepath.Join(DefaultCloneRoot(), "team-rules") {
			t.Errorf("DeriveClonePath() = %q", got)
		}
	})

	t.Run("ssh URLs map to the same path", func(t *testing.T) {
		https, err := DeriveClonePath("https://github.com/org/team-rules.git")
		if err != nil {
			t.Fatal(err)
		}
		ssh, err := DeriveClonePath("git@github.com:org/team-rules.git")
		if err != nil {
			t.Fatal(err)
		}
		if https != ssh {
			t.Errorf("HTTPS path %q != SSH path %q", https, ssh)
		}
	})

	t.Run("invalid URL rejected", func(t *testing.T) {
		if _, err := DeriveClonePath("https://github.com"); err == nil {
			t.Error("DeriveClonePath() accepted a URL without owner/repo")
		}
	})
}

func TestTemplatesDirFor(t *testing.T) {
	local := validLocalEntry()
	local.Path = "/home/user/rules"
	if got := TemplatesDirFor(local); got != "/home/user/rules" {
		t.Errorf("local TemplatesDirFor() = %q, want the configured path", got)
	}

	remote := validGitHubEntry()
	remote.Path = "/data/checkouts/rules"
	if got := TemplatesDirFor(remote); got != filepath.Join("/data/checkouts/rules", "templates") {
		t.Errorf("remote TemplatesDirFor() = %q, want templates subdirectory", got)
	}
}

func TestTemplateOverlayDirs(t *testing.T) {
	local := validLocalEntry()
	local.Path = "/home/user/rules"
	remote := validGitHubEntry()
	remote.Path = "/data/checkouts/rules"

	dirs := TemplateOverlayDirs([]RepositoryEntry{local, remote})
	want := []string{
		"/home/user/rules",
		filepath.Join("/data/checkouts/rules", "templates"),
	}
	if len(dirs) != len(want) {
		t.Fatalf("got %d dirs, want %d", len(dirs), len(want))
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Errorf("dirs[%d] = %q, want %q (config order preserved)", i, dirs[i], want[i])
		}
	}

	if got := TemplateOverlayDirs(nil); len(got) != 0 {
		t.Errorf("TemplateOverlayDirs(nil) = %v, want empty", got)
	}
}
