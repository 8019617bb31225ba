// Package commands implements the cxxbind command line.
package commands

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teranos/cxxbind/config"
	"github.com/teranos/cxxbind/errors"
	"github.com/teranos/cxxbind/generate"
	"github.com/teranos/cxxbind/logger"
	"github.com/teranos/cxxbind/parser"
)

// GenerateFlags are the flags shared by the root, check and watch commands
type GenerateFlags struct {
	Module          string
	Includes        []string
	Recursive       []string
	Defines         []string
	Multiple        bool
	OutCxx          string
	OutCSharp       string
	Namespace       string
	Debug           bool
	CacheDir        string
	OnlyCreateCache bool
	GenerateMain    bool
}

// flagKeys maps command line flags onto the config keys they override
var flagKeys = map[string]string{
	"cache-dir": "cache.dir",
	"namespace": "output.namespace",
	"multiple":  "output.multiple",
	"json-log":  "log.json",
}

// Register adds the generation flags to cmd. modes adds the cache-only and
// entry-point switches.
func (f *GenerateFlags) Register(cmd *cobra.Command, modes bool) {
	fl := cmd.Flags()
	fl.StringVar(&f.Module, "module", "", "Native library name (default: first interface file name)")
	fl.StringArrayVarP(&f.Includes, "include", "I", nil, "Add an include path (repeatable)")
	fl.StringArrayVarP(&f.Recursive, "recursive-include", "R", nil, "Add a directory and its subdirectories as include paths")
	fl.StringArrayVarP(&f.Defines, "define", "D", nil, "Define a preprocessor symbol (repeatable)")
	fl.BoolVar(&f.Multiple, "multiple", false, "Write one file pair per export")
	fl.StringVar(&f.OutCxx, "out-cxx", "", "C++ output file, or directory with --multiple")
	fl.StringVar(&f.OutCSharp, "out-csharp", "", "C# output file, or directory with --multiple")
	fl.StringVar(&f.Namespace, "namespace", "", "Namespace wrapping the generated C# code")
	fl.BoolVar(&f.Debug, "debug", false, "Write each parsed header's XML to the working directory")
	fl.StringVar(&f.CacheDir, "cache-dir", "", "Directory holding the parse caches")
	if modes {
		fl.BoolVar(&f.OnlyCreateCache, "only-create-cache", false, "Fill the parse caches and exit")
		fl.BoolVar(&f.GenerateMain, "generate-main", false, "Write _main.cpp for a --multiple module and exit")
	}
	fl.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "sharppy-ns" {
			name = "namespace"
		}
		return pflag.NormalizedName(name)
	})
}

// session holds what one command needs to drive a run
type session struct {
	cfg    *config.Config
	opts   generate.Options
	parser *parser.Parser
	driver *generate.Driver
}

func (s *session) close() {
	if err := s.parser.Close(); err != nil {
		logger.Warnw("Failed to close parse caches", logger.FieldError, err)
	}
}

// RunGenerate is the root command: generate, fill caches or write the entry point
func (f *GenerateFlags) RunGenerate(cmd *cobra.Command, args []string) error {
	s, err := f.open(cmd, args, generate.NewCLIReporter(verbosity(cmd)))
	if err != nil {
		return err
	}
	defer s.close()

	start := time.Now()
	if _, err := s.driver.Run(cmd.Context(), s.opts); err != nil {
		return err
	}
	if logger.ShouldOutput(verbosity(cmd), logger.OutputTiming) {
		cmd.Printf("%0.2f seconds\n", time.Since(start).Seconds())
	}
	return nil
}

func (f *GenerateFlags) open(cmd *cobra.Command, args []string, reporter generate.Reporter) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	opts := f.options(cfg, args)
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	includes, err := f.includePaths(cfg)
	if err != nil {
		return nil, err
	}
	defines := append(append([]string(nil), cfg.Parser.Defines...), f.Defines...)

	var debugDir string
	if f.Debug {
		if debugDir, err = os.Getwd(); err != nil {
			return nil, errors.Wrap(err, "failed to get working directory")
		}
	}

	tool, err := parser.NewTool(cfg.Parser.Command, cfg.Parser.Flags, cfg.Parser.OutputFlag,
		includes, defines, time.Duration(cfg.Parser.TimeoutSeconds)*time.Second, logger.Named("frontend"))
	if err != nil {
		return nil, err
	}
	p, err := parser.New(tool, parser.Options{
		Includes:      includes,
		CacheDir:      cfg.Cache.Dir,
		DebugDir:      debugDir,
		MemoryEntries: cfg.GetMemoryEntries(),
	}, logger.Named("parser"))
	if err != nil {
		return nil, err
	}

	logger.Logger.Debugw("Configuration applied",
		logger.FieldModule, opts.Module,
		logger.FieldCommand, cfg.Parser.Command,
		"includes", includes,
		"cache_dir", cfg.Cache.Dir,
		"multiple", opts.Multiple)

	return &session{
		cfg:    cfg,
		opts:   opts,
		parser: p,
		driver: generate.NewDriver(p, reporter, logger.Named("driver")),
	}, nil
}

// options combines flags and configuration into driver options
func (f *GenerateFlags) options(cfg *config.Config, args []string) generate.Options {
	return generate.Options{
		Interfaces:      args,
		Module:          f.Module,
		OutCxx:          f.OutCxx,
		OutCSharp:       f.OutCSharp,
		Namespace:       cfg.GetCSharpNamespace(),
		Multiple:        cfg.Output.Multiple,
		OnlyCreateCache: f.OnlyCreateCache,
		GenerateMain:    f.GenerateMain,
		CacheDir:        cfg.Cache.Dir,
	}
}

func (f *GenerateFlags) includePaths(cfg *config.Config) ([]string, error) {
	includes := append(append([]string(nil), cfg.Parser.Includes...), f.Includes...)
	recursive, err := expandRecursive(f.Recursive)
	if err != nil {
		return nil, err
	}
	return append(includes, recursive...), nil
}

// vcsDirs are not searched by -R
var vcsDirs = map[string]bool{".git": true, ".hg": true, ".svn": true, ".bzr": true, "CVS": true}

// expandRecursive lists each root and every directory below it
func expandRecursive(roots []string) ([]string, error) {
	var dirs []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && vcsDirs[d.Name()] {
				return filepath.SkipDir
			}
			dirs = append(dirs, filepath.ToSlash(path))
			return nil
		})
		if err != nil {
			return nil, errors.WithHint(
				errors.Wrapf(err, "failed to walk include directory %s", root),
				"-R takes a directory")
		}
	}
	return dirs, nil
}

// loadConfig reads every configuration source with cmd's flags on top
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	v, err := config.NewViper(path)
	if err != nil {
		return nil, err
	}
	bindFlags(v, cmd.Flags())
	cfg, err := config.LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	logger.SetTheme(cfg.Log.Theme)
	return cfg, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for flag, key := range flagKeys {
		if f := flags.Lookup(flag); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func verbosity(cmd *cobra.Command) int {
	n, _ := cmd.Flags().GetCount("verbose")
	return n
}
