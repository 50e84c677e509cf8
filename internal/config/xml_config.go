// Package config provides XML-based configuration for the log collator.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"LogSync"`

	// Remote store configuration
	Remote RemoteConfig `xml:"Remote"`

	// Local cache configuration
	Cache CacheConfig `xml:"Cache"`

	// Processing configuration
	Processing ProcessingConfig `xml:"Processing"`
}

// RemoteConfig describes the shared-drive store holding the raw logs
type RemoteConfig struct {
	BaseURL        string   `xml:"BaseURL"`
	Token          string   `xml:"Token"`
	Folders        []string `xml:"Folders>Folder"`
	NamePrefix     string   `xml:"NamePrefix"`
	TimeoutSeconds int      `xml:"TimeoutSeconds"`
}

// CacheConfig describes where fetched files and the manifest live
type CacheConfig struct {
	Directory    string `xml:"Directory"`
	ManifestFile string `xml:"ManifestFile"`
}

// ProcessingConfig contains collation and tuning settings
type ProcessingConfig struct {
	FieldMapFile string `xml:"FieldMapFile"`
	FetchWorkers int    `xml:"FetchWorkers"`
	LogLevel     string `xml:"LogLevel"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Remote: RemoteConfig{
			BaseURL:        "https://www.googleapis.com/drive/v3",
			Folders:        []string{"root"},
			NamePrefix:     "logging",
			TimeoutSeconds: 60,
		},
		Cache: CacheConfig{
			Directory:    "./data/cache",
			ManifestFile: "./data/manifest.bin",
		},
		Processing: ProcessingConfig{
			FieldMapFile: "fields.yaml",
			FetchWorkers: 4,
			LogLevel:     "info",
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &AppConfig{}
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- LogSync Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if baseURL := os.Getenv("LOGSYNC_BASE_URL"); baseURL != "" {
		c.Remote.BaseURL = baseURL
	}

	// The access token usually arrives via the environment rather than
	// sitting in a config file on disk.
	if token := os.Getenv("LOGSYNC_TOKEN"); token != "" {
		c.Remote.Token = token
	}

	if cacheDir := os.Getenv("LOGSYNC_CACHE_DIR"); cacheDir != "" {
		c.Cache.Directory = cacheDir
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Cache.Directory) {
		c.Cache.Directory = filepath.Join(configDir, c.Cache.Directory)
	}
	if !filepath.IsAbs(c.Cache.ManifestFile) {
		c.Cache.ManifestFile = filepath.Join(configDir, c.Cache.ManifestFile)
	}
	if !filepath.IsAbs(c.Processing.FieldMapFile) {
		c.Processing.FieldMapFile = filepath.Join(configDir, c.Processing.FieldMapFile)
	}
}

// Validate checks settings that have no workable default.
func (c *AppConfig) Validate() error {
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("Remote.BaseURL must be set")
	}
	if len(c.Remote.Folders) == 0 {
		return fmt.Errorf("at least one Remote.Folders.Folder must be set")
	}
	if c.Processing.FetchWorkers < 1 {
		return fmt.Errorf("Processing.FetchWorkers must be at least 1")
	}
	return nil
}
