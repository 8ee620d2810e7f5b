// Package config loads settings from an optional config file and HISTORY_
// prefixed environment variables using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the settings of the eventhistory tools.
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Archives ArchivesConfig `mapstructure:"archives"`
	Channels ChannelsConfig `mapstructure:"channels"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// StoreConfig locates the item store.
type StoreConfig struct {
	// Path is the SQLite file holding the item tables.
	Path string `mapstructure:"path"`

	// TablePrefix is prepended to table names, e.g. "Test" in tests.
	TablePrefix string `mapstructure:"table_prefix"`
}

// DatabaseConfig locates the platform database holding orgs, archives and
// users.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// ArchivesConfig locates archive blobs.
type ArchivesConfig struct {
	Root string `mapstructure:"root"`
}

// ChannelsConfig configures channel log display.
type ChannelsConfig struct {
	// TypesFile optionally replaces the built-in channel types.
	TypesFile string `mapstructure:"types_file"`

	// Configs holds channel config values by channel uuid. Credential values
	// among them are checked never to be displayed.
	Configs map[string]map[string]string `mapstructure:"configs"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is where /metrics is served. Empty disables it.
	Addr string `mapstructure:"addr"`
}

// EnvPrefix is the prefix of environment variables read into the config,
// e.g. HISTORY_STORE_PATH for store.path.
const EnvPrefix = "HISTORY"

// Load reads config from path, if given, then the environment. Environment
// variables override the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("store.path", "history.db")
	v.SetDefault("store.table_prefix", "")
	v.SetDefault("database.url", "")
	v.SetDefault("archives.root", "archives")
	v.SetDefault("channels.types_file", "")
	v.SetDefault("metrics.addr", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.Store.Path == "" {
		return nil, errors.New("config: store.path must be set")
	}
	return &cfg, nil
}

// RequireDatabase returns an error if no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("config: database.url must be set (or %s_DATABASE_URL)", EnvPrefix)
	}
	return nil
}
