package fileops

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// createProjectTree lays out a small project-shaped tree for scanner tests.
func createProjectTree(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()

	dirs := []string{
		"src",
		"src/main",
		"src/main/webapp/WEB-INF",
		"build",
		"node_modules/lib",
		".git",
		".gitlab",
		"docs/api",
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(tempDir, dir), 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	files := map[string]string{
		"README.md":                       "# Project",
		"pom.xml":                         "<project></project>",
		"src/main/App.java":               "class App {}",
		"src/main/webapp/WEB-INF/web.xml": "<web-app/>",
		"build/output.bin":                "binary",
		"node_modules/lib/index.js":       "console.log('hi')",
		".git/config":                     "[core]",
		".gitlab-ci.yml":                  "stages: [build]",
		"docs/guide.md":                   "# Guide",
		"docs/api/reference.md":           "# API",
	}
	for path, content := range files {
		if err := os.WriteFile(filepath.Join(tempDir, path), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file %s: %v", path, err)
		}
	}

	return tempDir
}

func scanPaths(t *testing.T, entries []FileInfo) map[string]FileInfo {
	t.Helper()
	byPath := make(map[string]FileInfo, len(entries))
	for _, entry := range entries {
		byPath[entry.Path] = entry
	}
	return byPath
}

func TestNewDirectoryScanner(t *testing.T) {
	tempDir := createProjectTree(t)

	tests := []struct {
		name      string
		scanPath  string
		wantError bool
	}{
		{name: "valid directory", scanPath: tempDir},
		{name: "empty path", scanPath: "", wantError: true},
		{name: "non-existent directory", scanPath: filepath.Join(tempDir, "nope"), wantError: true},
		{name: "file instead of directory", scanPath: filepath.Join(tempDir, "README.md"), wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner, err := NewDirectoryScanner(tt.scanPath, nil)

			if tt.wantError {
				if err == nil {
					scanner.Close()
					t.Fatal("NewDirectoryScanner() expected error but got none")
				}
				if !errors.Is(err, ErrInvalidPath) {
					t.Errorf("expected ErrInvalidPath, got: %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("NewDirectoryScanner() unexpected error: %v", err)
			}
			if err := scanner.Close(); err != nil {
				t.Errorf("Failed to close scanner: %v", err)
			}
		})
	}
}

func TestDirectoryScanner_Scan(t *testing.T) {
	tempDir := createProjectTree(t)

	t.Run("default options record files and directories", func(t *testing.T) {
		scanner, err := NewDirectoryScanner(tempDir, nil)
		if err != nil {
			t.Fatalf("Failed to create scanner: %v", err)
		}
		defer scanner.Close()

		entries, err := scanner.Scan()
		if err != nil {
			t.Fatalf("Scan() failed: %v", err)
		}
		byPath := scanPaths(t, entries)

		for _, want := range []string{"pom.xml", ".gitlab-ci.yml", filepath.Join("docs", "guide.md")} {
			if _, ok := byPath[want]; !ok {
				t.Errorf("Expected file %s in results", want)
			}
		}

		webInf := filepath.Join("src", "main", "webapp", "WEB-INF")
		if entry, ok := byPath[webInf]; !ok || !entry.IsDir {
			t.Errorf("Expected directory entry for %s, got %+v", webInf, entry)
		}

		// Build output and package caches never enter the index
		for _, skip := range []string{filepath.Join("node_modules", "lib", "index.js"), filepath.Join(".git", "config"), filepath.Join("build", "output.bin")} {
			if _, ok := byPath[skip]; ok {
				t.Errorf("Did not expect %s in results", skip)
			}
		}
	})

	t.Run("depth limit stops below root entries", func(t *testing.T) {
		scanner, err := NewDirectoryScanner(tempDir, &ScanOptions{
			SkipUnreadableDirs: true,
			MaxDepth:           1,
			IncludeHidden:      true,
			SkipPatterns:       DefaultSkipPatterns(),
		})
		if err != nil {
			t.Fatalf("Failed to create scanner: %v", err)
		}
		defer scanner.Close()

		entries, err := scanner.Scan()
		if err != nil {
			t.Fatalf("Scan() failed: %v", err)
		}
		byPath := scanPaths(t, entries)

		if _, ok := byPath["pom.xml"]; !ok {
			t.Error("Expected root file pom.xml at depth 1")
		}
		if _, ok := byPath["src"]; !ok {
			t.Error("Expected root directory src at depth 1")
		}
		if _, ok := byPath[filepath.Join("src", "main")]; ok {
			t.Error("Did not expect nested entries beyond depth limit")
		}
	})

	t.Run("hidden entries excluded on request", func(t *testing.T) {
		scanner, err := NewDirectoryScanner(tempDir, &ScanOptions{
			SkipUnreadableDirs: true,
			MaxDepth:           10,
			IncludeHidden:      false,
		})
		if err != nil {
			t.Fatalf("Failed to create scanner: %v", err)
		}
		defer scanner.Close()

		entries, err := scanner.Scan()
		if err != nil {
			t.Fatalf("Scan() failed: %v", err)
		}
		byPath := scanPaths(t, entries)

		if _, ok := byPath[".gitlab-ci.yml"]; ok {
			t.Error("Did not expect hidden file with IncludeHidden=false")
		}
		if _, ok := byPath[".gitlab"]; ok {
			t.Error("Did not expect hidden directory with IncludeHidden=false")
		}
	})

	t.Run("file filter restricts recorded files", func(t *testing.T) {
		scanner, err := NewDirectoryScanner(tempDir, &ScanOptions{
			SkipUnreadableDirs: true,
			MaxDepth:           10,
			IncludeHidden:      true,
			SkipPatterns:       DefaultSkipPatterns(),
			FileFilter: func(name string) bool {
				return strings.HasSuffix(name, ".md")
			},
		})
		if err != nil {
			t.Fatalf("Failed to create scanner: %v", err)
		}
		defer scanner.Close()

		entries, err := scanner.Scan()
		if err != nil {
			t.Fatalf("Scan() failed: %v", err)
		}

		for _, entry := range entries {
			if !entry.IsDir && !strings.HasSuffix(entry.Name, ".md") {
				t.Errorf("File filter leaked %s", entry.Path)
			}
		}
	})

	t.Run("doublestar skip patterns match nested paths", func(t *testing.T) {
		scanner, err := NewDirectoryScanner(tempDir, &ScanOptions{
			SkipUnreadableDirs: true,
			MaxDepth:           10,
			IncludeHidden:      true,
			SkipPatterns:       []string{"**/api"},
		})
		if err != nil {
			t.Fatalf("Failed to create scanner: %v", err)
		}
		defer scanner.Close()

		entries, err := scanner.Scan()
		if err != nil {
			t.Fatalf("Scan() failed: %v", err)
		}
		byPath := scanPaths(t, entries)

		if _, ok := byPath[filepath.Join("docs", "guide.md")]; !ok {
			t.Error("Expected docs/guide.md to survive the pattern")
		}
		if _, ok := byPath[filepath.Join("docs", "api", "reference.md")]; ok {
			t.Error("Expected docs/api subtree to be skipped")
		}
	})
}

func TestDirectoryScanner_UnreadableDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Permission test not supported on Windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("running as root; permission bits are not enforced")
	}

	tempDir := t.TempDir()

	lockedDir := filepath.Join(tempDir, "locked")
	if err := os.MkdirAll(lockedDir, 0755); err != nil {
		t.Fatalf("Failed to create locked dir: %v", err)
	}
	createTestFile(t, lockedDir, "hidden-marker.xml", "<x/>")
	createTestFile(t, tempDir, "visible.txt", "ok")

	if err := os.Chmod(lockedDir, 0000); err != nil {
		t.Skipf("Cannot change directory permissions: %v", err)
	}
	defer os.Chmod(lockedDir, 0755)

	scanner, err := NewDirectoryScanner(tempDir, nil)
	if err != nil {
		t.Fatalf("Failed to create scanner: %v", err)
	}
	defer scanner.Close()

	entries, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() should tolerate unreadable dirs, got: %v", err)
	}
	byPath := scanPaths(t, entries)

	if _, ok := byPath["visible.txt"]; !ok {
		t.Error("Expected readable sibling to be recorded")
	}

	skipped := scanner.SkippedPaths()
	found := false
	for _, path := range skipped {
		if path == "locked" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected 'locked' in skipped paths, got %v", skipped)
	}
}

func TestDirectoryScanner_SymlinkProtection(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Symlink test not supported on Windows")
	}

	tempDir := t.TempDir()

	safeDir := filepath.Join(tempDir, "safe")
	outsideDir := filepath.Join(tempDir, "outside")
	for _, dir := range []string{safeDir, outsideDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}
	createTestFile(t, safeDir, "safe.txt", "safe")
	createTestFile(t, outsideDir, "outside.txt", "outside")

	// Directory symlink pointing out of the scan root must not be entered
	escapeLink := filepath.Join(safeDir, "escape")
	if err := os.Symlink(outsideDir, escapeLink); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	scanner, err := NewDirectoryScanner(safeDir, nil)
	if err != nil {
		t.Fatalf("Failed to create scanner: %v", err)
	}
	defer scanner.Close()

	entries, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}

	for _, entry := range entries {
		if strings.Contains(entry.Path, "outside.txt") {
			t.Errorf("Scan escaped the root through a symlink: %s", entry.Path)
		}
	}
}

func TestDirectoryScanner_LoopDetection(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Symlink test not supported on Windows")
	}

	tempDir := t.TempDir()

	dir1 := filepath.Join(tempDir, "dir1")
	dir2 := filepath.Join(dir1, "dir2")
	if err := os.MkdirAll(dir2, 0755); err != nil {
		t.Fatalf("Failed to create directories: %v", err)
	}

	if err := os.Symlink(dir1, filepath.Join(dir2, "back")); err != nil {
		t.Fatalf("Failed to create loop symlink: %v", err)
	}
	createTestFile(t, dir1, "test.txt", "test")

	scanner, err := NewDirectoryScanner(tempDir, &ScanOptions{
		SkipUnreadableDirs: true,
		MaxDepth:           50,
		IncludeHidden:      true,
	})
	if err != nil {
		t.Fatalf("Failed to create scanner: %v", err)
	}
	defer scanner.Close()

	entries, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}

	found := false
	for _, entry := range entries {
		if entry.Name == "test.txt" {
			found = true
		}
	}
	if !found {
		t.Error("Expected to find test.txt despite the symlink loop")
	}
}

func TestDirectoryScanner_Close(t *testing.T) {
	tempDir := createProjectTree(t)

	scanner, err := NewDirectoryScanner(tempDir, nil)
	if err != nil {
		t.Fatalf("Failed to create scanner: %v", err)
	}

	if err := scanner.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	if _, err := scanner.Scan(); err == nil {
		t.Error("Expected error when scanning after close")
	}

	if err := scanner.Close(); err != nil {
		t.Errorf("Second Close() failed: %v", err)
	}
}

func TestDirectoryScanner_Stats(t *testing.T) {
	tempDir := createProjectTree(t)

	scanner, err := NewDirectoryScanner(tempDir, nil)
	if err != nil {
		t.Fatalf("Failed to create scanner: %v", err)
	}
	defer scanner.Close()

	if _, err := scanner.Scan(); err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}

	stats := scanner.Stats()
	if stats.TotalFiles == 0 {
		t.Error("Expected a positive file count")
	}
	if stats.TotalDirectories == 0 {
		t.Error("Expected a positive directory count")
	}
	if stats.TotalSize == 0 {
		t.Error("Expected a positive total size")
	}
}

func TestScanTree(t *testing.T) {
	tempDir := createProjectTree(t)

	entries, skipped, err := ScanTree(tempDir, 10)
	if err != nil {
		t.Fatalf("ScanTree() failed: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("Expected entries from ScanTree")
	}
	if len(skipped) != 0 {
		t.Errorf("Expected no skipped paths in readable tree, got %v", skipped)
	}

	byPath := scanPaths(t, entries)
	if _, ok := byPath["pom.xml"]; !ok {
		t.Error("Expected pom.xml in ScanTree results")
	}
}

func TestDefaultScanOptions(t *testing.T) {
	opts := DefaultScanOptions()

	if !opts.SkipUnreadableDirs {
		t.Error("Expected SkipUnreadableDirs on by default")
	}
	if !opts.IncludeHidden {
		t.Error("Expected IncludeHidden on by default: dotfile markers matter")
	}
	if opts.MaxDepth != 16 {
		t.Errorf("Expected MaxDepth 16, got %d", opts.MaxDepth)
	}

	for _, expected := range []string{"node_modules", ".git", "vendor", "__pycache__"} {
		found := false
		for _, pattern := range opts.SkipPatterns {
			if pattern == expected {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected skip pattern %s in defaults", expected)
		}
	}
}

func TestDirectoryScanner_ReservedDirectory(t *testing.T) {
	systemDir := "/etc"
	if runtime.GOOS == "windows" {
		systemDir = "C:\\Windows\\System32"
	}

	if _, err := NewDirectoryScanner(systemDir, nil); err == nil {
		t.Error("Expected error when scanning a reserved directory")
	}
}
