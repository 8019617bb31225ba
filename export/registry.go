package export

import (
	"github.com/teranos/cxxbind/errors"
)

type registryKey struct {
	iface string
	kind  Kind
	name  string
}

// Registry collects descriptors in registration order until the driver
// detaches it
type Registry struct {
	descriptors []*Descriptor
	seen        map[registryKey]struct{}
	detached    bool
}

func NewRegistry() *Registry {
	return &Registry{seen: map[registryKey]struct{}{}}
}

// Add registers d. A descriptor with the same interface, kind and name as
// an earlier one is ignored and Add returns false.
func (r *Registry) Add(d *Descriptor) (bool, error) {
	if r.detached {
		return false, errors.Wrapf(errors.ErrRegistryDetached, "cannot register %s %q", d.Kind, d.Name)
	}
	key := registryKey{iface: d.Interface, kind: d.Kind, name: d.Name}
	if _, dup := r.seen[key]; dup {
		return false, nil
	}
	r.seen[key] = struct{}{}
	r.descriptors = append(r.descriptors, d)
	return true, nil
}

// Len returns the number of registered descriptors
func (r *Registry) Len() int { return len(r.descriptors) }

// Descriptors returns a snapshot of the registered descriptors
func (r *Registry) Descriptors() []*Descriptor {
	return append([]*Descriptor(nil), r.descriptors...)
}

// Detach hands the descriptors to the caller. The registry accepts no
// further registrations.
func (r *Registry) Detach() ([]*Descriptor, error) {
	if r.detached {
		return nil, errors.Wrap(errors.ErrRegistryDetached, "registry already detached")
	}
	r.detached = true
	out := r.descriptors
	r.descriptors = nil
	r.seen = nil
	return out, nil
}

// Detached reports whether Detach was called
func (r *Registry) Detached() bool { return r.detached }
