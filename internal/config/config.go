package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// DirName is the per-project directory holding config and snapshots.
const DirName = ".arxml"

// Config represents the complete arxml tool configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Autosar AutosarConfig `json:"autosar" mapstructure:"autosar"`
	Loader  LoaderConfig  `json:"loader" mapstructure:"loader"`
	Storage StorageConfig `json:"storage" mapstructure:"storage"`
	Export  ExportConfig  `json:"export" mapstructure:"export"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// AutosarConfig controls how documents are interpreted
type AutosarConfig struct {
	// Version pins the schema generation: "auto", "3" or "4"
	Version        string `json:"version" mapstructure:"version"`
	RejectNegative bool   `json:"rejectNegative" mapstructure:"rejectNegative"`
}

// LoaderConfig controls document decoding
type LoaderConfig struct {
	Workers          int   `json:"workers" mapstructure:"workers"`
	MaxDocumentBytes int64 `json:"maxDocumentBytes" mapstructure:"maxDocumentBytes"`
}

// StorageConfig controls the snapshot database
type StorageConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// ExportConfig controls projection output
type ExportConfig struct {
	Format string `json:"format" mapstructure:"format"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file,omitempty" mapstructure:"file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Autosar: AutosarConfig{
			Version: "auto",
		},
		Loader: LoaderConfig{
			Workers:          4,
			MaxDocumentBytes: 256 << 20,
		},
		Storage: StorageConfig{
			Enabled: true,
			Path:    filepath.Join(DirName, "arxml.db"),
		},
		Export: ExportConfig{
			Format: "json",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadResult describes where a configuration came from
type LoadResult struct {
	Config       *Config
	ConfigPath   string
	UsedDefaults bool
	EnvOverrides []EnvOverride
}

// LoadConfig loads configuration from .arxml/config.json and applies
// ARXML_* environment overrides
func LoadConfig(projectRoot string) (*Config, error) {
	result, err := LoadConfigWithDetails(projectRoot)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads configuration and reports its source. The
// ARXML_CONFIG_PATH variable replaces the standard location.
func LoadConfigWithDetails(projectRoot string) (*LoadResult, error) {
	result := &LoadResult{}

	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = filepath.Join(projectRoot, DirName, "config.json")
	}

	cfg, err := loadConfigFromPath(path)
	switch {
	case err == nil:
		result.ConfigPath = path
	case os.Getenv(EnvConfigPath) == "" && isNotFound(err):
		cfg = DefaultConfig()
		result.UsedDefaults = true
	default:
		return nil, err
	}

	result.EnvOverrides = applyEnvOverrides(cfg)
	result.Config = cfg
	return result, nil
}

// LoadConfigFile loads configuration from an explicit path. Unlike
// LoadConfigWithDetails a missing file is an error.
func LoadConfigFile(path string) (*LoadResult, error) {
	cfg, err := loadConfigFromPath(path)
	if err != nil {
		return nil, err
	}
	return &LoadResult{
		Config:       cfg,
		ConfigPath:   path,
		EnvOverrides: applyEnvOverrides(cfg),
	}, nil
}

func loadConfigFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	v := viper.New()
	defaults := DefaultConfig()

	// Set defaults
	v.SetDefault("version", defaults.Version)
	v.SetDefault("autosar.version", defaults.Autosar.Version)
	v.SetDefault("loader.workers", defaults.Loader.Workers)
	v.SetDefault("loader.maxDocumentBytes", defaults.Loader.MaxDocumentBytes)
	v.SetDefault("storage.enabled", defaults.Storage.Enabled)
	v.SetDefault("storage.path", defaults.Storage.Path)
	v.SetDefault("export.format", defaults.Export.Format)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.level", defaults.Logging.Level)

	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigError{Field: "file", Message: err.Error()}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Field: "file", Message: err.Error()}
	}

	return &cfg, nil
}

func isNotFound(err error) bool {
	if os.IsNotExist(err) {
		return true
	}
	_, ok := err.(viper.ConfigFileNotFoundError)
	return ok
}

// Save writes the configuration to .arxml/config.json
func (c *Config) Save(projectRoot string) error {
	dir := filepath.Join(projectRoot, DirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// StoragePath returns the snapshot database path for projectRoot.
func (c *Config) StoragePath(projectRoot string) string {
	if filepath.IsAbs(c.Storage.Path) {
		return c.Storage.Path
	}
	return filepath.Join(projectRoot, c.Storage.Path)
}

var (
	autosarVersions = map[string]bool{"auto": true, "3": true, "4": true}
	exportFormats   = map[string]bool{"json": true, "yaml": true, "toml": true, "cbor": true}
	logLevels       = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	logFormats      = map[string]bool{"human": true, "json": true}
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if !autosarVersions[c.Autosar.Version] {
		return &ConfigError{Field: "autosar.version", Message: "must be auto, 3 or 4"}
	}
	if c.Loader.Workers < 1 {
		return &ConfigError{Field: "loader.workers", Message: "must be at least 1"}
	}
	if c.Loader.MaxDocumentBytes <= 0 {
		return &ConfigError{Field: "loader.maxDocumentBytes", Message: "must be positive"}
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		return &ConfigError{Field: "storage.path", Message: "required when storage is enabled"}
	}
	if !exportFormats[c.Export.Format] {
		return &ConfigError{Field: "export.format", Message: "unknown format " + c.Export.Format}
	}
	if !logLevels[c.Logging.Level] {
		return &ConfigError{Field: "logging.level", Message: "unknown level " + c.Logging.Level}
	}
	if !logFormats[c.Logging.Format] {
		return &ConfigError{Field: "logging.format", Message: "unknown format " + c.Logging.Format}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
