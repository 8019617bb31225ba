// Package config loads cxxbind settings from defaults, TOML files, a project
// .env file, CXXBIND_* environment variables and command line flags.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Config represents the cxxbind configuration
type Config struct {
	Parser ParserConfig `mapstructure:"parser" toml:"parser" yaml:"parser" json:"parser"`
	Cache  CacheConfig  `mapstructure:"cache" toml:"cache" yaml:"cache" json:"cache"`
	Output OutputConfig `mapstructure:"output" toml:"output" yaml:"output" json:"output"`
	Log    LogConfig    `mapstructure:"log" toml:"log" yaml:"log" json:"log"`
}

// ParserConfig configures the external C++ front end (castxml or gccxml)
type ParserConfig struct {
	Command        string   `mapstructure:"command" toml:"command" yaml:"command" json:"command"`                                 // front-end executable
	Flags          string   `mapstructure:"flags" toml:"flags" yaml:"flags" json:"flags"`                                         // shell-quoted extra arguments
	OutputFlag     string   `mapstructure:"output_flag" toml:"output_flag" yaml:"output_flag" json:"output_flag"`                 // "-o" or "-fxml=" (trailing = joins the path)
	Includes       []string `mapstructure:"includes" toml:"includes" yaml:"includes" json:"includes"`                             // -I paths
	Defines        []string `mapstructure:"defines" toml:"defines" yaml:"defines" json:"defines"`                                 // -D symbols
	TimeoutSeconds int      `mapstructure:"timeout_seconds" toml:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"` // per-header limit, 0 = none
}

// CacheConfig configures declaration caching
type CacheConfig struct {
	Dir           string `mapstructure:"dir" toml:"dir" yaml:"dir" json:"dir"`                                             // empty = no persistent cache
	MemoryEntries int    `mapstructure:"memory_entries" toml:"memory_entries" yaml:"memory_entries" json:"memory_entries"` // in-process front-end results kept
}

// OutputConfig configures generated code
type OutputConfig struct {
	Namespace string `mapstructure:"namespace" toml:"namespace" yaml:"namespace" json:"namespace"` // outer namespace of the generated C# code
	Multiple  bool   `mapstructure:"multiple" toml:"multiple" yaml:"multiple" json:"multiple"`
}

// LogConfig configures logging
type LogConfig struct {
	JSON  bool   `mapstructure:"json" toml:"json" yaml:"json" json:"json"`
	Theme string `mapstructure:"theme" toml:"theme" yaml:"theme" json:"theme"` // everforest, gruvbox, plain
}

// DefaultIncludes returns the include paths listed in the INCLUDE environment
// variable, normalized to forward slashes.
func DefaultIncludes() []string {
	include := os.Getenv("INCLUDE")
	if include == "" {
		return nil
	}
	var paths []string
	for _, p := range filepath.SplitList(include) {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, filepath.ToSlash(p))
		}
	}
	return paths
}
