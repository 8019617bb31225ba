// Package generate drives a binding generation run: it loads the interface
// files, orders them, and then either fills the parse caches, writes the
// code for every export, or writes the entry point of a multi-file module.
package generate

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/cxxbind/codeunit"
	"github.com/teranos/cxxbind/decl"
	"github.com/teranos/cxxbind/errors"
	"github.com/teranos/cxxbind/export"
	"github.com/teranos/cxxbind/iface"
	"github.com/teranos/cxxbind/logger"
)

// State is a phase of a run
type State string

const (
	StateIdle              State = "idle"
	StateLoadingInterfaces State = "loading-interfaces"
	StateOrdering          State = "ordering"
	StateCacheOnly         State = "cache-only"
	StateGenerating        State = "generating"
	StateMain              State = "main"
	StateDone              State = "done"
)

// Parser resolves declarations for headers. *parser.Parser implements it.
type Parser interface {
	ParseWithGCCXML(ctx context.Context, header, tail string) (*decl.Set, error)
	CreateCache(ctx context.Context, header, iface, tail string, set *decl.Set) (string, error)
	Parse(ctx context.Context, header, iface, tail string) (*decl.Set, *export.ParsedHeader, error)
}

// Options selects what a run produces
type Options struct {
	Interfaces []string
	Module     string
	// OutCxx and OutCSharp are files, or directories with Multiple
	OutCxx    string
	OutCSharp string
	// Namespace wraps the generated C# declarations
	Namespace string
	Multiple  bool

	OnlyCreateCache bool
	GenerateMain    bool
	// CacheDir is only checked here; the parser owns the cache files
	CacheDir string
}

// ApplyDefaults fills the module name and output paths left empty
func (o *Options) ApplyDefaults() {
	if o.Module == "" && len(o.Interfaces) > 0 {
		base := filepath.Base(o.Interfaces[0])
		o.Module = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if o.OutCxx == "" {
		o.OutCxx = o.Module + ".cpp"
		if o.Multiple {
			o.OutCxx = o.Module
		}
	}
	if o.OutCSharp == "" {
		o.OutCSharp = o.Module + ".cs"
		if o.Multiple {
			o.OutCSharp = o.Module
		}
	}
}

// Validate reports usage errors before any file is read
func (o *Options) Validate() error {
	if len(o.Interfaces) == 0 {
		return errors.NewUsageError("no interface files given")
	}
	if o.Module == "" {
		return errors.NewUsageError("module name is empty")
	}
	if o.GenerateMain && !o.Multiple {
		return errors.WithHint(
			errors.NewUsageError("--generate-main is only valid with --multiple"),
			"add --multiple, or drop --generate-main")
	}
	if o.OnlyCreateCache && o.CacheDir == "" {
		return errors.WithHint(
			errors.NewUsageError("--only-create-cache needs a cache directory"),
			"pass --cache-dir or set cache.dir in cxxbind.toml")
	}
	if o.OnlyCreateCache && o.GenerateMain {
		return errors.NewUsageError("--only-create-cache and --generate-main are exclusive")
	}
	return nil
}

// Result describes a finished run
type Result struct {
	RunID string
	// Interfaces lists every loaded interface file in generation order
	Interfaces []string
	Files      []string
	CacheFiles []string
	Exports    int
}

// Driver runs the generation pipeline. A Driver is not safe for concurrent
// use; each Run starts from a fresh registry.
type Driver struct {
	parser   Parser
	reporter Reporter
	logger   *zap.SugaredLogger
	memory   *memoryProbe

	state State
	runID string
}

// NewDriver creates a driver. reporter and log may be nil.
func NewDriver(p Parser, reporter Reporter, log *zap.SugaredLogger) *Driver {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	d := &Driver{parser: p, reporter: reporter, logger: log, state: StateIdle}
	if probe, err := newMemoryProbe(); err == nil {
		d.memory = probe
	} else {
		log.Debugw("Memory reporting disabled", logger.FieldError, err)
	}
	return d
}

// State returns the phase of the current or last run
func (d *Driver) State() State { return d.state }

func (d *Driver) setState(s State) {
	d.state = s
	d.logger.Debugw("Driver state", logger.FieldRunID, d.runID, logger.FieldState, string(s))
}

// Run loads opts.Interfaces and performs the requested generation
func (d *Driver) Run(ctx context.Context, opts Options) (*Result, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	d.runID = uuid.NewString()
	start := time.Now()
	defer d.setState(StateDone)
	result := &Result{RunID: d.runID}

	d.setState(StateLoadingInterfaces)
	loader := iface.NewLoader(export.NewRegistry(), d.logger.Named("iface"))
	for _, path := range opts.Interfaces {
		if err := loader.Load(path); err != nil {
			return nil, err
		}
	}
	descs, err := loader.Registry().Detach()
	if err != nil {
		return nil, err
	}

	d.setState(StateOrdering)
	counts := loader.Counts()
	order := export.Order(loader.Interfaces(), counts)
	result.Interfaces = order
	result.Exports = len(descs)
	for _, path := range order {
		d.logger.Debugw("Interface loaded",
			logger.FieldRunID, d.runID,
			logger.FieldInterface, path,
			logger.FieldImportCount, counts[path])
	}

	switch {
	case opts.OnlyCreateCache:
		d.setState(StateCacheOnly)
		result.CacheFiles, err = d.CreateCaches(ctx, order, descs)
	case opts.GenerateMain:
		d.setState(StateMain)
		var path string
		if path, err = d.GenerateMain(opts, order, descs); err == nil {
			result.Files = []string{path}
		}
	default:
		d.setState(StateGenerating)
		result.Files, err = d.GenerateCode(ctx, opts, order, descs)
	}
	if err != nil {
		return nil, err
	}

	d.logger.Infow("Run complete",
		logger.FieldRunID, d.runID,
		logger.FieldModule, opts.Module,
		logger.FieldCount, result.Exports,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return result, nil
}

// CreateCaches parses every (interface, header) pair with its aggregated
// tail and writes the result to the interface's cache file, interface by
// interface in order. It returns the cache files written.
func (d *Driver) CreateCaches(ctx context.Context, order []string, descs []*export.Descriptor) ([]string, error) {
	tails := export.Aggregate(descs)
	var files []string
	for _, ifacePath := range order {
		for _, header := range tails.ForInterface(ifacePath) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			tail, _ := tails.Get(ifacePath, header)
			set, err := d.parser.ParseWithGCCXML(ctx, header, tail)
			if err != nil {
				return nil, err
			}
			file, err := d.parser.CreateCache(ctx, header, ifacePath, tail, set)
			set.Release()
			if err != nil {
				return nil, err
			}
			d.logger.Infow("Cache created",
				logger.FieldRunID, d.runID,
				logger.FieldInterface, ifacePath,
				logger.FieldHeader, header,
				logger.FieldCacheFile, file,
				logger.FieldTailBytes, len(tail))
			d.reporter.Cached(file)
			files = append(files, file)
		}
	}
	return files, nil
}

// GenerateCode emits every export in interface order into a new code unit
// and saves it. Each export's declarations are released before the next
// one is parsed.
func (d *Driver) GenerateCode(ctx context.Context, opts Options, order []string, descs []*export.Descriptor) ([]string, error) {
	var unit codeunit.Unit
	if opts.Multiple {
		unit = codeunit.NewMultiple(opts.Module, opts.OutCxx, opts.OutCSharp, opts.Namespace, order)
	} else {
		unit = codeunit.NewSingle(opts.Module, opts.OutCxx, opts.OutCSharp, opts.Namespace)
	}

	names := export.NewNames()
	for _, desc := range descs {
		names.Add(desc.Name)
	}
	tails := export.Aggregate(descs)
	ordered := export.GroupByInterface(descs, order)

	for i, desc := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := d.generateOne(ctx, desc, tails, unit, names); err != nil {
			return nil, errors.Wrapf(err, "%s", desc.Interface)
		}
		d.logMemory(desc)
		ordered[i] = nil
	}

	files, err := unit.Save()
	if err != nil {
		return nil, err
	}
	d.reporter.Generated(opts.Module, files, opts.Multiple)
	return files, nil
}

func (d *Driver) generateOne(ctx context.Context, desc *export.Descriptor, tails *export.Tails, unit codeunit.Unit, names export.Names) error {
	set := decl.NewSet(nil)
	var parsed *export.ParsedHeader
	if desc.Header != "" {
		tail, _ := tails.Get(desc.Interface, desc.Header)
		var err error
		if set, parsed, err = d.parser.Parse(ctx, desc.Header, desc.Interface, tail); err != nil {
			return err
		}
	}
	defer desc.Release()

	ExpandTypedefs(set, names)
	desc.Attach(set, parsed)
	unit.SetCurrent(desc)
	if err := desc.GenerateCode(unit, names); err != nil {
		return err
	}

	fields := []interface{}{
		logger.FieldRunID, d.runID,
		logger.FieldInterface, desc.Interface,
		logger.FieldKind, string(desc.Kind),
		logger.FieldExport, desc.Name,
		logger.FieldDeclarations, set.Len(),
	}
	if parsed != nil {
		fields = append(fields, logger.FieldHeader, parsed.Path, logger.FieldCacheHit, parsed.FromCache)
	}
	d.logger.Debugw("Export generated", fields...)
	d.reporter.Exported(desc.Interface, desc.Kind, desc.Name)
	return nil
}

func (d *Driver) logMemory(desc *export.Descriptor) {
	if d.memory == nil || !logger.ShouldOutput(logger.Verbosity, logger.OutputMemory) {
		return
	}
	rss, err := d.memory.residentMB()
	if err != nil {
		d.logger.Debugw("Could not read memory usage", logger.FieldError, err)
		return
	}
	d.logger.Debugw("Export released",
		logger.FieldRunID, d.runID,
		logger.FieldExport, desc.Name,
		logger.FieldRSSMB, rss)
}

// GenerateMain writes the entry point calling every unit of a multi-file
// module, interface by interface in order
func (d *Driver) GenerateMain(opts Options, order []string, descs []*export.Descriptor) (string, error) {
	unit := codeunit.NewMultiple(opts.Module, opts.OutCxx, opts.OutCSharp, opts.Namespace, order)
	path, err := unit.GenerateMain(order, descs)
	if err != nil {
		return "", err
	}
	d.reporter.MainGenerated(path)
	return path, nil
}
