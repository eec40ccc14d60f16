// Package config loads CLI settings. PATOMIC_* environment variables
// override patomic.yaml, which overrides the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/patomic/internal/datomic"
	"github.com/roach88/patomic/internal/source"
)

const (
	fileName  = "patomic"
	fileType  = "yaml"
	envPrefix = "PATOMIC"
)

// Config is the resolved CLI configuration.
type Config struct {
	ServerURL string   `mapstructure:"server_url"`
	Port      int      `mapstructure:"port"`
	Storage   string   `mapstructure:"storage"`
	Alias     string   `mapstructure:"alias"`
	Database  string   `mapstructure:"database"`
	Journal   string   `mapstructure:"journal"`
	S3        S3Config `mapstructure:"s3"`
}

// S3Config holds object store settings for s3:// sources.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server_url", "http://localhost")
	v.SetDefault("port", 9998)
	v.SetDefault("storage", datomic.DefaultStorage)
	v.SetDefault("alias", "dev")
	v.SetDefault("database", "")
	v.SetDefault("journal", "")
	v.SetDefault("s3.region", source.DefaultRegion)
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.path_style", false)
}

// New returns a viper instance with defaults and environment binding.
// A config file is read only by Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SearchPaths are the directories searched for patomic.yaml.
func SearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "patomic"))
	}
	return paths
}

// Read loads path, or searches SearchPaths when path is empty. A missing
// file is not an error unless path was given explicitly.
func Read(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(fileName)
	v.SetConfigType(fileType)
	for _, p := range SearchPaths() {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load resolves the configuration from v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Datomic returns the client configuration.
func (c *Config) Datomic() datomic.Config {
	return datomic.Config{
		ServerURL: c.ServerURL,
		Port:      c.Port,
		Storage:   c.Storage,
		Alias:     c.Alias,
	}
}

// Source returns the object store configuration.
func (c *Config) Source() source.S3Config {
	return source.S3Config{
		Region:    c.S3.Region,
		Endpoint:  c.S3.Endpoint,
		PathStyle: c.S3.PathStyle,
	}
}
