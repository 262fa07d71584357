package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Default endpoints for the GitHub-hosted plugin registry. The registry is
// a raw JSON index; plugin source ships as a whole-repository branch
// snapshot.
const (
	DefaultRegistryURL = "https://raw.githubusercontent.com/devflow-sh/devflow-plugins/main/registry.json"
	DefaultArchiveURL  = "https://codeload.github.com/devflow-sh/devflow-plugins/zip/refs/heads/main"
)

// Config holds the settings the plugin pipeline needs
type Config struct {
	RegistryURL string        `mapstructure:"registry_url"`
	ArchiveURL  string        `mapstructure:"archive_url"`
	PluginsDir  string        `mapstructure:"plugins_dir"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	LogLevel    string        `mapstructure:"log_level"`
	Debug       bool          `mapstructure:"debug"`
}

// Load reads configuration from defaults, an optional config file, and
// DEVFLOW_* environment variables, in ascending precedence. configPath may
// be empty, in which case $HOME/.devflow/config.yaml is used when present.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("registry_url", DefaultRegistryURL)
	v.SetDefault("archive_url", DefaultArchiveURL)
	v.SetDefault("plugins_dir", defaultPluginsDir())
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("log_level", "info")
	v.SetDefault("debug", false)

	v.SetEnvPrefix("DEVFLOW")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".devflow"))
		}
		// A missing default config file is fine; defaults and env apply.
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func defaultPluginsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "plugins"
	}
	return filepath.Join(home, ".devflow", "plugins")
}
