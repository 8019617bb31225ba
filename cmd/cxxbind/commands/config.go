package commands

import (
	"encoding/json"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/cxxbind/config"
	"github.com/teranos/cxxbind/errors"
)

// ConfigCmd groups the configuration subcommands
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and validate cxxbind configuration",
	Long: `Display and validate cxxbind configuration.

Configuration sources (later overrides earlier):
1. Default values
2. User config (~/.cxxbind/config.toml)
3. Project config (cxxbind.toml, searched up from the working directory)
4. .env file in the working directory
5. Environment variables (CXXBIND_* prefix)
6. Command line flags

Examples:
  cxxbind config show                  # Show current configuration
  cxxbind config show --format json    # Show configuration as JSON
  cxxbind config validate              # Validate current configuration`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the configuration merged from all sources",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runConfigValidate,
}

var configFormat string

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configValidateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, _, err := config.Load(path)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	out, err := renderConfig(cfg, configFormat)
	if err != nil {
		return err
	}
	cmd.Print(out)
	return nil
}

func renderConfig(cfg *config.Config, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to JSON")
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to YAML")
		}
		return "# cxxbind configuration\n" + string(data), nil
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal config to TOML")
		}
		return "# cxxbind configuration\n" + string(data), nil
	default:
		return "", errors.NewUsageError("unsupported format: %s (supported: toml, json, yaml)", format)
	}
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, _, err := config.Load(path)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}
