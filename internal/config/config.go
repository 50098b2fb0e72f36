// Package config loads CLI configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable prefix for entitypick configuration.
const envPrefix = "ENTITYPICK"

// Config holds the resolved configuration.
type Config struct {
	Addr             string `mapstructure:"addr"`
	DBPath           string `mapstructure:"db_path"`
	SeedFile         string `mapstructure:"seed_file"`
	Separator        string `mapstructure:"separator"`
	IdentityFragment string `mapstructure:"identity_fragment"`
	OnAmbiguous      string `mapstructure:"on_ambiguous"`
}

// Loader handles loading and merging configuration from multiple sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a configuration loader. Environment variables take
// precedence over file values.
func NewLoader() *Loader {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("db_path", "entitypick.db")
	v.SetDefault("identity_fragment", "full")
	v.SetDefault("on_ambiguous", "pick-first")

	return &Loader{v: v}
}

// Load reads the given config file, when present, and unmarshals the
// merged configuration. An empty path skips the file layer entirely.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile != "" {
		l.v.SetConfigFile(configFile)
		if err := l.v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
