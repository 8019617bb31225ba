package generate

import (
	"github.com/teranos/cxxbind/decl"
	"github.com/teranos/cxxbind/export"
)

// ExpandTypedefs adds the target of every typedef in set to names, so a
// class exported under an alias is recognized by its real name. Nothing is
// added while names is empty. Existing keys are never removed.
func ExpandTypedefs(set *decl.Set, names export.Names) {
	if len(names) == 0 {
		return
	}
	for _, td := range set.Typedefs() {
		if td.Type == nil {
			continue
		}
		names.Add(td.Type.FullName())
	}
}
