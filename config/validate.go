package config

import (
	"strings"

	"github.com/teranos/cxxbind/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Parser.Command) == "" {
		return errors.New("parser.command cannot be empty")
	}

	// 0 = no timeout, negative = invalid
	if c.Parser.TimeoutSeconds < 0 {
		return errors.Newf("parser.timeout_seconds must be >= 0, got %d", c.Parser.TimeoutSeconds)
	}

	if c.Cache.MemoryEntries < 0 {
		return errors.Newf("cache.memory_entries must be >= 0, got %d", c.Cache.MemoryEntries)
	}

	if c.Log.Theme != "" {
		switch c.Log.Theme {
		case "everforest", "gruvbox", "plain":
		default:
			return errors.Newf("log.theme must be one of everforest, gruvbox, plain; got %q", c.Log.Theme)
		}
	}

	for _, d := range c.Parser.Defines {
		if strings.TrimSpace(d) == "" {
			return errors.New("parser.defines cannot contain empty entries")
		}
	}

	return nil
}
