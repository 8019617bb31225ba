package commands

import (
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cxxbind/codeunit"
	"github.com/teranos/cxxbind/errors"
	"github.com/teranos/cxxbind/generate"
)

var checkFlags GenerateFlags

// CheckCmd checks that committed bindings match their interface files
var CheckCmd = &cobra.Command{
	Use:   "check [flags] interface-files...",
	Short: "Check if generated bindings are up to date",
	Long: `Check if the generated bindings match the current interface files and headers.

This command generates the bindings into a temporary directory and compares
them with the existing output, ignoring the version banner.

Exit codes:
  0 - Bindings are up to date
  1 - Bindings are out of date (differing files listed)
  3 - Usage error

Examples:
  cxxbind check shapes.yaml                          # Single-file output
  cxxbind check --multiple --out-cxx native shapes.yaml`,
	Args: cobra.ArbitraryArgs,
	RunE: runCheck,
}

func init() {
	checkFlags.Register(CheckCmd, false)
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := checkFlags.open(cmd, args, generate.NopReporter{})
	if err != nil {
		return err
	}
	defer s.close()

	pterm.Println("Checking generated bindings...")

	tempDir, err := os.MkdirTemp("", "cxxbind-check-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp directory")
	}
	defer os.RemoveAll(tempDir)

	gen, targets := checkTargets(s.opts, tempDir)
	if _, err := s.driver.Run(cmd.Context(), gen); err != nil {
		return err
	}

	result, err := codeunit.CompareDirectories(targets)
	if err != nil {
		return errors.Wrap(err, "failed to compare directories")
	}
	if result.UpToDate {
		pterm.Success.Println("Bindings are up to date")
		return nil
	}

	pterm.Error.Println("Bindings are out of date.")
	for lang, files := range result.Differences {
		pterm.Printf("\n%s files differ:\n", lang)
		for _, file := range files {
			pterm.Printf("  - %s\n", file)
		}
	}
	return errors.WithHint(errors.New("bindings are out of date"),
		"run cxxbind with the same arguments to update them")
}

// checkTargets redirects opts into tempDir and pairs the temporary output
// with the committed output
func checkTargets(opts generate.Options, tempDir string) (generate.Options, []codeunit.Target) {
	gen := opts
	cxxDir := filepath.Join(tempDir, "cxx")
	csDir := filepath.Join(tempDir, "csharp")
	if opts.Multiple {
		gen.OutCxx, gen.OutCSharp = cxxDir, csDir
		return gen, []codeunit.Target{
			{Language: "C++", Generated: cxxDir, Existing: opts.OutCxx},
			{Language: "C#", Generated: csDir, Existing: opts.OutCSharp},
		}
	}
	gen.OutCxx = filepath.Join(cxxDir, filepath.Base(opts.OutCxx))
	gen.OutCSharp = filepath.Join(csDir, filepath.Base(opts.OutCSharp))
	return gen, []codeunit.Target{
		{Language: "C++", Generated: cxxDir, Existing: filepath.Dir(opts.OutCxx)},
		{Language: "C#", Generated: csDir, Existing: filepath.Dir(opts.OutCSharp)},
	}
}
