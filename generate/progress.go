package generate

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/teranos/cxxbind/export"
	"github.com/teranos/cxxbind/logger"
)

// Reporter announces driver milestones to the user.
//
// Implementations include:
//   - CLIReporter: terminal output using pterm
//   - NopReporter: silence, for tests and the watch loop's internal runs
type Reporter interface {
	// Cached announces a cache file written in cache-only mode
	Cached(cacheFile string)
	// Exported announces one processed export
	Exported(iface string, kind export.Kind, name string)
	// Generated announces a saved code unit
	Generated(module string, files []string, multiple bool)
	// MainGenerated announces the aggregating entry-point file
	MainGenerated(path string)
}

// CLIReporter prints milestones to the terminal, gated by verbosity
type CLIReporter struct {
	verbosity int
}

// NewCLIReporter creates a reporter for the given -v count
func NewCLIReporter(verbosity int) *CLIReporter {
	return &CLIReporter{verbosity: verbosity}
}

func (r *CLIReporter) Cached(cacheFile string) {
	if logger.ShouldOutput(r.verbosity, logger.OutputResults) {
		pterm.Printf("Cached %s\n", pterm.LightCyan(cacheFile))
	}
}

func (r *CLIReporter) Exported(iface string, kind export.Kind, name string) {
	if logger.ShouldOutput(r.verbosity, logger.OutputProgress) {
		pterm.Printf("  %s %s %s\n", pterm.Gray(iface), kind, name)
	}
}

func (r *CLIReporter) Generated(module string, files []string, multiple bool) {
	if !logger.ShouldOutput(r.verbosity, logger.OutputResults) {
		return
	}
	if multiple {
		pterm.Success.Printf("Module %s generated (%s files)\n", module, pterm.Green(fmt.Sprintf("%d", len(files))))
		return
	}
	pterm.Success.Printf("Module %s generated\n", module)
}

func (r *CLIReporter) MainGenerated(path string) {
	if logger.ShouldOutput(r.verbosity, logger.OutputResults) {
		pterm.Success.Printf("Generated %s\n", path)
	}
}

// NopReporter discards every milestone
type NopReporter struct{}

func (NopReporter) Cached(string)                        {}
func (NopReporter) Exported(string, export.Kind, string) {}
func (NopReporter) Generated(string, []string, bool)     {}
func (NopReporter) MainGenerated(string)                 {}
