// Package export holds the requests registered by interface files and the
// bookkeeping that turns them into an ordered generation pass: the
// Registry, the tail aggregate per (interface, header), and the interface
// order.
package export

import (
	"sort"

	"github.com/teranos/cxxbind/decl"
	"github.com/teranos/cxxbind/errors"
)

// Kind is the construct an export requests
type Kind string

const (
	KindFunction      Kind = "function"
	KindValueType     Kind = "value_type"
	KindReferenceType Kind = "reference_type"
	KindTemplate      Kind = "template"
	KindEnum          Kind = "enum"
	KindHeader        Kind = "all_from_header"
	KindVar           Kind = "var"
	KindCode          Kind = "code"
)

// Info carries the modifiers written on an export in the interface file
type Info struct {
	Rename      string            `yaml:"rename,omitempty" toml:"rename,omitempty"`
	Exclude     []string          `yaml:"exclude,omitempty" toml:"exclude,omitempty"`
	Policy      map[string]string `yaml:"policy,omitempty" toml:"policy,omitempty"`
	Final       bool              `yaml:"final,omitempty" toml:"final,omitempty"`
	Wrapper     map[string]string `yaml:"wrapper,omitempty" toml:"wrapper,omitempty"`
	Holder      string            `yaml:"holder,omitempty" toml:"holder,omitempty"`
	Inject      map[string]string `yaml:"inject,omitempty" toml:"inject,omitempty"`
	Instantiate []string          `yaml:"-" toml:"-"` // template argument lists, e.g. "int, float"
	Section     Section           `yaml:"-" toml:"-"`
}

// Excluded reports whether member is listed in Exclude
func (i *Info) Excluded(member string) bool {
	for _, e := range i.Exclude {
		if e == member {
			return true
		}
	}
	return false
}

// ParsedHeader identifies the front-end run a descriptor's declarations came from
type ParsedHeader struct {
	Path      string
	Digest    string
	FromCache bool
}

// Emitter writes the code for one descriptor
type Emitter interface {
	Emit(d *Descriptor, sink Sink, names Names) error
}

// Descriptor is one registered binding request
type Descriptor struct {
	Interface string
	Header    string // empty for code exports
	Name      string
	Kind      Kind
	Tail      string
	Info      Info

	Declarations *decl.Set
	ParsedHeader *ParsedHeader

	Emitter Emitter
}

// Attach stores the parse results for this descriptor's header
func (d *Descriptor) Attach(set *decl.Set, header *ParsedHeader) {
	d.Declarations = set
	d.ParsedHeader = header
}

// GenerateCode runs the descriptor's emitter against sink
func (d *Descriptor) GenerateCode(sink Sink, names Names) error {
	if d.Emitter == nil {
		return errors.Newf("%s export %q has no emitter", d.Kind, d.Name)
	}
	if err := d.Emitter.Emit(d, sink, names); err != nil {
		return errors.Wrapf(err, "generate %s %s", d.Kind, d.Name)
	}
	return nil
}

// Release drops the declaration graph attached to the descriptor
func (d *Descriptor) Release() {
	d.Declarations.Release()
	d.Declarations = nil
	d.ParsedHeader = nil
}

// Names is the set of declaration full names already bound
type Names map[string]struct{}

// NewNames returns a set holding keys
func NewNames(keys ...string) Names {
	n := make(Names, len(keys))
	for _, k := range keys {
		n[k] = struct{}{}
	}
	return n
}

func (n Names) Add(key string) { n[key] = struct{}{} }

func (n Names) Has(key string) bool {
	_, ok := n[key]
	return ok
}

// Keys returns the names in sorted order
func (n Names) Keys() []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
