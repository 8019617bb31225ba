package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cxxbind/cmd/cxxbind/commands"
	"github.com/teranos/cxxbind/errors"
	"github.com/teranos/cxxbind/logger"
)

var rootFlags commands.GenerateFlags

var rootCmd = &cobra.Command{
	Use:   "cxxbind [flags] interface-files...",
	Short: "cxxbind - C++ to C# binding generator",
	Long: `cxxbind - Generate C# bindings for C++ libraries.

cxxbind reads interface files naming the C++ functions, classes, enums and
variables to export, parses their headers with a GCC-XML compatible front end,
and writes a C++ wrapper exposing a C entry point plus the matching C# code.

Available commands:
  check   - Check if generated bindings are up to date
  watch   - Regenerate bindings when interface files change
  config  - Show and validate configuration
  version - Show version information

Examples:
  cxxbind shapes.yaml                              # shapes.cpp + shapes.cs
  cxxbind --multiple --out-cxx native shapes.yaml  # one file pair per export
  cxxbind --multiple --generate-main shapes.yaml   # native/_main.cpp
  cxxbind --cache-dir .cache --only-create-cache shapes.yaml`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLog, _ := cmd.Flags().GetBool("json-log")
		if err := logger.Initialize(jsonLog, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
	RunE: rootFlags.RunGenerate,
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-log", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("config", "", "Configuration file (default: cxxbind.toml search)")

	rootFlags.Register(rootCmd, true)

	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Mark(err, errors.ErrUsage)
	})
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err.Error())
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", hint)
		}
		logger.Cleanup()
		os.Exit(exitCode(err))
	}
}

// exitCode is 3 for bad invocations and 1 for every other failure
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.IsUsageError(err):
		return 3
	default:
		return 1
	}
}
