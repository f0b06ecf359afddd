/*
Package config manages the TOML config for WordMask.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/wordmask/internal/utils"
	"github.com/charmbracelet/log"
)

// DefaultFileName is the config file name inside the config directory.
const DefaultFileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Server ServerConfig `toml:"server"`
	Index  IndexConfig  `toml:"index"`
	Cache  CacheConfig  `toml:"cache"`
	CLI    CliConfig    `toml:"cli"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxLimit     int  `toml:"max_limit"`
	DefaultLimit int  `toml:"default_limit"`
	MaxLength    int  `toml:"max_length"`
	EnableFilter bool `toml:"enable_filter"`
}

// IndexConfig holds index snapshot options.
type IndexConfig struct {
	Snapshot         string `toml:"snapshot"`
	VerifyOnLoad     bool   `toml:"verify_on_load"`
	CompressionLevel string `toml:"compression_level"`
}

// CacheConfig holds result cache options.
type CacheConfig struct {
	Enabled    bool `toml:"enabled"`
	MaxEntries int  `toml:"max_entries"`
}

// CliConfig holds interactive interface options.
type CliConfig struct {
	PageSize  int `toml:"page_size"`
	MinLength int `toml:"min_length"`
	MaxLength int `toml:"max_length"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/wordmask
// 2. ~/Library/Application Support/wordmask (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", utils.AppDirName)
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", utils.AppDirName)
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, DefaultFileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/wordmask/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxLimit:     64,
			DefaultLimit: 20,
			MaxLength:    30,
			EnableFilter: true,
		},
		Index: IndexConfig{
			Snapshot:         "wordmask.wmx",
			VerifyOnLoad:     true,
			CompressionLevel: "default",
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 1024,
		},
		CLI: CliConfig{
			PageSize:  20,
			MinLength: 1,
			MaxLength: 30,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file. Values missing from the file keep their
// defaults, and a file that fails to decode is salvaged section by section.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.sanitize()
	return config, nil
}

// tryPartialParse attempts to parse a TOML file
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "index"); ok {
		extractIndexConfig(section, &config.Index)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cache"); ok {
		extractCacheConfig(section, &config.Cache)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	config.sanitize()
	return config, nil
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		server.DefaultLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "max_length"); ok {
		server.MaxLength = val
	}
	if val, ok := utils.ExtractBool(data, "enable_filter"); ok {
		server.EnableFilter = val
	}
}

func extractIndexConfig(data map[string]any, idx *IndexConfig) {
	if val, ok := utils.ExtractString(data, "snapshot"); ok {
		idx.Snapshot = val
	}
	if val, ok := utils.ExtractBool(data, "verify_on_load"); ok {
		idx.VerifyOnLoad = val
	}
	if val, ok := utils.ExtractString(data, "compression_level"); ok {
		idx.CompressionLevel = val
	}
}

func extractCacheConfig(data map[string]any, cache *CacheConfig) {
	if val, ok := utils.ExtractBool(data, "enabled"); ok {
		cache.Enabled = val
	}
	if val, ok := utils.ExtractInt64(data, "max_entries"); ok {
		cache.MaxEntries = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "page_size"); ok {
		cli.PageSize = val
	}
	if val, ok := utils.ExtractInt64(data, "min_length"); ok {
		cli.MinLength = val
	}
	if val, ok := utils.ExtractInt64(data, "max_length"); ok {
		cli.MaxLength = val
	}
}

// sanitize replaces nonsensical values with defaults.
func (c *Config) sanitize() {
	def := DefaultConfig()
	if c.Server.MaxLimit < 1 {
		c.Server.MaxLimit = def.Server.MaxLimit
	}
	if c.Server.DefaultLimit < 1 || c.Server.DefaultLimit > c.Server.MaxLimit {
		c.Server.DefaultLimit = min(def.Server.DefaultLimit, c.Server.MaxLimit)
	}
	if c.Server.MaxLength < 1 {
		c.Server.MaxLength = def.Server.MaxLength
	}
	if c.Cache.MaxEntries < 0 {
		c.Cache.MaxEntries = 0
	}
	if c.CLI.PageSize < 1 {
		c.CLI.PageSize = def.CLI.PageSize
	}
	if c.CLI.MinLength < 1 {
		c.CLI.MinLength = 1
	}
	if c.CLI.MaxLength < c.CLI.MinLength {
		c.CLI.MaxLength = max(def.CLI.MaxLength, c.CLI.MinLength)
	}
	if c.Index.CompressionLevel == "" {
		c.Index.CompressionLevel = def.Index.CompressionLevel
	}
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
