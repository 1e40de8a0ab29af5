package setupmenu

import (
	"os"
	"path/filepath"
	"testing"

	"rulesmith/internal/config"

	"github.com/adrg/xdg"
)

// setTestHome sandboxes HOME and the config path override so wizard tests
// never touch the user's real configuration. Returns the sandbox home and
// the config file path inside it.
func setTestHome(t *testing.T) (home, configPath string) {
	t.Helper()

	home = t.TempDir()
	// Registered before t.Setenv so it runs after HOME is restored.
	t.Cleanup(xdg.Reload)
	t.Setenv("HOME", home)
	xdg.Reload()

	configPath = filepath.Join(home, "config.yml")
	t.Setenv("RULESMITH_CONFIG_PATH", configPath)

	return home, configPath
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// loadWrittenConfig reads back the config the wizard wrote.
func loadWrittenConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("loading the written config: %v", err)
	}
	return cfg
}
