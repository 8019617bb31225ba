package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cxxbind/generate"
	"github.com/teranos/cxxbind/logger"
)

var (
	watchFlags       GenerateFlags
	watchDebounce    time.Duration
	watchMinInterval time.Duration
)

// WatchCmd regenerates bindings whenever an interface file changes
var WatchCmd = &cobra.Command{
	Use:   "watch [flags] interface-files...",
	Short: "Regenerate bindings when interface files change",
	Long: `Generate the bindings, then generate them again whenever one of the loaded
interface files (including imported ones) changes.

Each run starts from a fresh registry. Parsed headers stay in memory between
runs, so only changed headers are compiled again.

Examples:
  cxxbind watch shapes.yaml
  cxxbind watch --debounce 1s --cache-dir .cache shapes.yaml`,
	Args: cobra.ArbitraryArgs,
	RunE: runWatch,
}

func init() {
	watchFlags.Register(WatchCmd, false)
	WatchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Quiet period after a change before regenerating")
	WatchCmd.Flags().DurationVar(&watchMinInterval, "min-interval", 2*time.Second, "Minimum time between two runs")
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := watchFlags.open(cmd, args, generate.NewCLIReporter(verbosity(cmd)))
	if err != nil {
		return err
	}
	defer s.close()

	run := func(ctx context.Context) (*generate.Result, error) {
		return s.driver.Run(ctx, s.opts)
	}
	w, err := generate.NewWatcher(s.opts.Interfaces, run, watchDebounce, watchMinInterval, logger.Named("watch"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pterm.Info.Println("Watching interface files (Ctrl+C to stop)")
	return w.Watch(ctx)
}
