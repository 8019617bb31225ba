// Package iface loads interface files. An interface file lists the C++
// constructs to bind; loading it registers one export descriptor per entry,
// attributed to the file being loaded even when it was reached through an
// import.
package iface

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/cxxbind/errors"
	"github.com/teranos/cxxbind/export"
)

// Loader executes interface files against a registry
type Loader struct {
	registry *export.Registry
	counts   map[string]int
	loaded   []string
	stack    []string
	current  string
	logger   *zap.SugaredLogger
}

// NewLoader returns a loader registering into registry. logger may be nil.
func NewLoader(registry *export.Registry, logger *zap.SugaredLogger) *Loader {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Loader{
		registry: registry,
		counts:   map[string]int{},
		logger:   logger,
	}
}

// Registry returns the registry the loader writes to
func (l *Loader) Registry() *export.Registry { return l.registry }

// Current returns the interface file being executed, or ""
func (l *Loader) Current() string { return l.current }

// Counts returns how many times each interface file was loaded
func (l *Loader) Counts() map[string]int {
	out := make(map[string]int, len(l.counts))
	for k, v := range l.counts {
		out[k] = v
	}
	return out
}

// Interfaces returns every loaded interface file in first-load order
func (l *Loader) Interfaces() []string {
	return append([]string(nil), l.loaded...)
}

// Builder returns the registration API bound to this loader
func (l *Loader) Builder() *Builder {
	return &Builder{loader: l}
}

// Load executes the interface file at path. A path that does not exist as
// given is tried relative to the directory of the file currently loading.
func (l *Loader) Load(path string) error {
	resolved, err := l.resolve(path)
	if err != nil {
		return err
	}
	for _, active := range l.stack {
		if active == resolved {
			return errors.Newf("import cycle: %s", strings.Join(append(l.stack, resolved), " -> "))
		}
	}

	l.counts[resolved]++
	if l.counts[resolved] == 1 {
		l.loaded = append(l.loaded, resolved)
	}

	previous := l.current
	l.current = resolved
	l.stack = append(l.stack, resolved)
	defer func() {
		l.current = previous
		l.stack = l.stack[:len(l.stack)-1]
	}()

	data, err := os.ReadFile(resolved)
	if err != nil {
		return errors.Wrapf(err, "read interface %s", resolved)
	}
	s, err := decodeScript(resolved, data)
	if err != nil {
		return err
	}

	l.logger.Debugw("Loading interface", "interface", resolved, "count", len(s.Exports), "import_count", l.counts[resolved])

	b := l.Builder()
	for i := range s.Exports {
		if err := s.Exports[i].apply(b); err != nil {
			return errors.Wrapf(err, "%s: export %d", resolved, i+1)
		}
	}
	return nil
}

func (l *Loader) resolve(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return filepath.Clean(path), nil
	}
	if l.current != "" && !filepath.IsAbs(path) {
		sibling := filepath.Join(filepath.Dir(l.current), path)
		if _, err := os.Stat(sibling); err == nil {
			return filepath.Clean(sibling), nil
		}
	}
	err := errors.NewNotFoundError("interface file %s", path)
	if l.current != "" {
		err = errors.WithDetailf(err, "imported from %s", l.current)
	}
	return "", err
}
