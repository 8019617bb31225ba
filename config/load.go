package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/teranos/cxxbind/errors"
)

// ProjectConfigName is the file searched for from the working directory upward
const ProjectConfigName = "cxxbind.toml"

// Load reads the configuration from every source.
// explicitPath, when set, replaces the user/project file search.
func Load(explicitPath string) (*Config, *viper.Viper, error) {
	v, err := NewViper(explicitPath)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// NewViper initializes Viper with configuration sources and defaults
func NewViper(explicitPath string) (*viper.Viper, error) {
	// A missing .env is normal; a malformed one is reported
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to read .env")
	}

	v := viper.New()
	v.SetEnvPrefix("CXXBIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)
	SetDefaults(v)

	if explicitPath != "" {
		if err := mergeFile(v, explicitPath); err != nil {
			return nil, err
		}
		return v, nil
	}

	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := mergeFile(v, path); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if len(config.Parser.Includes) == 0 {
		config.Parser.Includes = DefaultIncludes()
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path without
// environment overrides
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	if err := mergeFile(v, configPath); err != nil {
		return nil, err
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", configPath)
	}
	return &config, nil
}

// SearchPaths lists the config files consulted, lowest precedence first
func SearchPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".cxxbind", "config.toml"))
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, project)
	}
	return paths
}

// findProjectConfig walks up from the working directory looking for cxxbind.toml
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ProjectConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// mergeFile merges one TOML file over the current settings
func mergeFile(v *viper.Viper, path string) error {
	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("toml")
	if err := file.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	if err := v.MergeConfigMap(file.AllSettings()); err != nil {
		return errors.Wrapf(err, "failed to merge config file %s", path)
	}
	return nil
}
