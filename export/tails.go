package export

import (
	"sort"
	"strings"
)

// TailKey is a cache unit: one header as seen from one interface file
type TailKey struct {
	Interface string
	Header    string
}

// Tails maps each cache unit to its aggregated tail. Keys keep the order in
// which they were first seen.
type Tails struct {
	keys  []TailKey
	tails map[TailKey][]string
}

// Aggregate groups descriptors by (interface, header) and joins their tails
// with "\n" in registration order. Descriptors without a header are skipped.
func Aggregate(descriptors []*Descriptor) *Tails {
	t := &Tails{tails: map[TailKey][]string{}}
	for _, d := range descriptors {
		if d.Header == "" {
			continue
		}
		key := TailKey{Interface: d.Interface, Header: d.Header}
		if _, ok := t.tails[key]; !ok {
			t.keys = append(t.keys, key)
		}
		t.tails[key] = append(t.tails[key], d.Tail)
	}
	return t
}

// Get returns the aggregate for a cache unit
func (t *Tails) Get(iface, header string) (string, bool) {
	parts, ok := t.tails[TailKey{Interface: iface, Header: header}]
	if !ok {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}

// Keys returns the cache units in first-seen order
func (t *Tails) Keys() []TailKey {
	return append([]TailKey(nil), t.keys...)
}

// Len returns the number of cache units
func (t *Tails) Len() int { return len(t.keys) }

// ForInterface returns the headers of iface in first-seen order
func (t *Tails) ForInterface(iface string) []string {
	var headers []string
	for _, k := range t.keys {
		if k.Interface == iface {
			headers = append(headers, k.Header)
		}
	}
	return headers
}

// Order sorts interfaces by import count, highest first, then by path.
// Interfaces missing from counts count as zero.
func Order(interfaces []string, counts map[string]int) []string {
	out := append([]string(nil), interfaces...)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := counts[out[i]], counts[out[j]]
		if ci != cj {
			return ci > cj
		}
		return out[i] < out[j]
	})
	return out
}

// GroupByInterface returns descriptors ordered by their interface's
// position in order, keeping registration order within an interface.
// Descriptors of interfaces not in order come last.
func GroupByInterface(descriptors []*Descriptor, order []string) []*Descriptor {
	rank := make(map[string]int, len(order))
	for i, iface := range order {
		rank[iface] = i
	}
	pos := func(d *Descriptor) int {
		if r, ok := rank[d.Interface]; ok {
			return r
		}
		return len(order)
	}
	out := append([]*Descriptor(nil), descriptors...)
	sort.SliceStable(out, func(i, j int) bool { return pos(out[i]) < pos(out[j]) })
	return out
}
