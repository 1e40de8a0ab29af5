package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rulesmith/internal/logging"
	"rulesmith/internal/repository"
	"rulesmith/internal/templatestore"
	"rulesmith/pkg/fileops"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"
)

// ReloadConfigMsg carries the result of an async config reload back into the
// TUI event loop.
type ReloadConfigMsg struct {
	Config *Config
	Error  error
}

const APP_NAME = "rulesmith" // application name used for config directory

// Config holds user configuration for rulesmith.
type Config struct {
	// TemplatesDir is the overlay directory for user rule templates. Files
	// there shadow the embedded defaults with the same name.
	TemplatesDir string `yaml:"templates_dir"`

	// DefaultEditor selects the editor target used when none is given on the
	// command line (e.g. "cursor", "copilot", "claude").
	DefaultEditor string `yaml:"default_editor"`

	// Verbose switches generated documents to include the evidence appendix.
	Verbose bool `yaml:"verbose"`

	// Repositories lists configured template sources that sync into the
	// template overlay directory.
	Repositories []repository.RepositoryEntry `yaml:"repositories,omitempty"`

	Version  string `yaml:"version"`   // Track config version
	InitTime int64  `yaml:"init_time"` // Unix timestamp of first setup
}

// ConfigPath returns the config file path for the current platform. The
// RULESMITH_CONFIG_PATH environment variable overrides it, which tests and
// sandboxed setups rely on.
func ConfigPath() (string, error) {
	if override := os.Getenv("RULESMITH_CONFIG_PATH"); override != "" {
		logging.Debug("Config path overridden by environment", "path", override)
		return override, nil
	}

	configDir := filepath.Join(xdg.ConfigHome, APP_NAME)
	configPath := filepath.Join(configDir, "config.yaml")

	logging.Debug("Determined config path", "path", configPath)
	return configPath, nil
}

// Load reads the config from the platform location. A missing file is
// reported as a first-run error.
func Load() (*Config, error) {
	configPath, exists := FindConfigFile()
	logging.Debug("Loading config from", "path", configPath)
	if !exists {
		return nil, fmt.Errorf("no configuration found, first-time setup required")
	}

	return LoadFrom(configPath)
}

// LoadFrom reads and parses the config file at path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Older configs may predate the templates directory setting
	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = templatestore.DefaultDir()
	}

	return &cfg, nil
}

// FindConfigFile returns the config path and whether a file exists there.
// When it does not exist yet, the returned path is where a new config
// belongs.
func FindConfigFile() (string, bool) {
	primary, err := ConfigPath()
	if err != nil {
		logging.Error("Failed to get config path", "error", err)
		return "", false
	}

	_, statErr := os.Stat(primary)
	return primary, statErr == nil
}

// IsFirstRun reports whether no config file has been written yet.
func IsFirstRun() bool {
	_, exists := FindConfigFile()
	return !exists
}

// DefaultConfig builds the config used until the user completes setup.
func DefaultConfig() Config {
	path := templatestore.DefaultDir()
	logging.Debug("Using default templates directory", "path", path)

	return Config{
		TemplatesDir: path,
		Version:      "1.0",
		InitTime:     0, // Will be set during first save
	}
}

// Save writes the config to the platform location.
func (c *Config) Save() error {
	configPath, _ := FindConfigFile()
	return c.SaveTo(configPath)
}

// SaveTo writes the config to a specific path. The first save stamps
// InitTime.
func (c *Config) SaveTo(path string) error {
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// 0600: repository entries can reference private remotes
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	return nil
}

// SetDefaultEditor updates the default editor target and saves the config
func (c *Config) SetDefaultEditor(name string) error {
	c.DefaultEditor = name
	return c.Save()
}

// AddRepository validates a repository entry, appends it, and saves the config
func (c *Config) AddRepository(entry repository.RepositoryEntry) error {
	if err := repository.ValidateEntry(entry); err != nil {
		return fmt.Errorf("invalid repository: %w", err)
	}
	for _, existing := range c.Repositories {
		if existing.ID == entry.ID {
			return fmt.Errorf("repository %q already configured", entry.ID)
		}
	}

	c.Repositories = append(c.Repositories, entry)
	return c.Save()
}

// RemoveRepository drops a repository entry by ID and saves the config
func (c *Config) RemoveRepository(id string) error {
	for i, existing := range c.Repositories {
		if existing.ID == id {
			c.Repositories = append(c.Repositories[:i], c.Repositories[i+1:]...)
			return c.Save()
		}
	}
	return fmt.Errorf("repository %q not found", id)
}

// ReloadConfig returns a tea command that re-reads the config from disk, so
// TUI flows pick up changes made by other screens.
func ReloadConfig() tea.Cmd {
	return func() tea.Msg {
		cfg, err := Load()
		if err != nil {
			return ReloadConfigMsg{Config: nil, Error: err}
		}
		return ReloadConfigMsg{Config: cfg, Error: nil}
	}
}

// UpdateTemplatesDir updates the template overlay directory, ensures it
// exists, and saves the config
func UpdateTemplatesDir(cfg *Config, newDir string) error {
	cfg.TemplatesDir = newDir

	root, err := templatestore.CreateSecureRoot(cfg.TemplatesDir)
	if err != nil {
		return fmt.Errorf("failed to create templates directory: %w", err)
	}
	defer root.Close()

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	logging.Info("Configuration updated successfully", "templates_dir", cfg.TemplatesDir)
	return nil
}

// CreateNewConfig initializes a new configuration with the specified template
// directory and editor target
func CreateNewConfig(templatesDir, editor string) error {
	cfg := DefaultConfig()
	if templatesDir != "" {
		cfg.TemplatesDir = templatesDir
	}
	cfg.DefaultEditor = editor

	root, err := templatestore.CreateSecureRoot(cfg.TemplatesDir)
	if err != nil {
		return fmt.Errorf("failed to create templates directory: %w", err)
	}
	defer root.Close()

	if err := fileops.ValidateDirectoryWritable(cfg.TemplatesDir); err != nil {
		return fmt.Errorf("templates directory is not writable: %w", err)
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	logging.Info("Configuration created successfully", "templates_dir", cfg.TemplatesDir)
	return nil
}
