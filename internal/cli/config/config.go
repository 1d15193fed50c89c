// Package config loads CLI configuration from carton.yml with environment
// variable overrides.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the carton CLI configuration.
type Config struct {
	Archive ArchiveConfig `mapstructure:"archive"`
}

// ArchiveConfig carries the archive defaults applied when flags are not
// given.
type ArchiveConfig struct {
	CompLevel int    `mapstructure:"complevel"`
	CompLib   string `mapstructure:"complib"`
	Checksum  bool   `mapstructure:"checksum"`
}

// Load loads the configuration from carton.yml or carton.yaml in the
// working directory. A missing file yields the defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("archive.complevel", 0)
	v.SetDefault("archive.complib", "")
	v.SetDefault("archive.checksum", false)

	v.SetConfigName("carton")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Enable environment variable support
	v.SetEnvPrefix("CARTON")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}
