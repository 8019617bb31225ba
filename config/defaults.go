package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Defaults for the front end and cache
const (
	DefaultParserCommand  = "castxml"
	DefaultParserFlags    = "--castxml-gccxml"
	DefaultOutputFlag     = "-o"
	DefaultTimeoutSeconds = 600
	DefaultMemoryEntries  = 32
	DefaultLogTheme       = "everforest"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("parser.command", DefaultParserCommand)
	v.SetDefault("parser.flags", DefaultParserFlags)
	v.SetDefault("parser.output_flag", DefaultOutputFlag)
	v.SetDefault("parser.includes", []string{})
	v.SetDefault("parser.defines", []string{})
	v.SetDefault("parser.timeout_seconds", DefaultTimeoutSeconds)

	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.memory_entries", DefaultMemoryEntries)

	v.SetDefault("output.namespace", "")
	v.SetDefault("output.multiple", false)

	v.SetDefault("log.json", false)
	v.SetDefault("log.theme", DefaultLogTheme)
}

// BindEnvVars binds the settings most often overridden in CI
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("parser.command", "CXXBIND_PARSER_COMMAND")
	v.BindEnv("parser.flags", "CXXBIND_PARSER_FLAGS")
	v.BindEnv("cache.dir", "CXXBIND_CACHE_DIR")
	v.BindEnv("log.theme", "CXXBIND_LOG_THEME")
}

// GetCSharpNamespace returns the output namespace in C# spelling; a C++
// spelling such as "acme::geo" becomes "acme.geo"
func (c *Config) GetCSharpNamespace() string {
	return strings.Trim(strings.ReplaceAll(c.Output.Namespace, "::", "."), ".")
}

// GetMemoryEntries returns the in-process cache size, never below one
func (c *Config) GetMemoryEntries() int {
	if c.Cache.MemoryEntries <= 0 {
		return DefaultMemoryEntries
	}
	return c.Cache.MemoryEntries
}
