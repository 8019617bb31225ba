package codeunit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/teranos/cxxbind/export"
	"github.com/teranos/cxxbind/naming"
	"github.com/teranos/cxxbind/version"
)

// MainFile is the name of the file written by GenerateMain
const MainFile = "_main.cpp"

// maxNameLen caps the export part of a unit name; longer names (code
// exports, mostly) are truncated and suffixed with a hash
const maxNameLen = 40

// UnitName is the file stem for one export of an interface that shares
// its file name with no other interface of the run
func UnitName(iface, name string) string {
	return unitName(interfaceStem(iface), name)
}

func interfaceStem(iface string) string {
	base := filepath.Base(iface)
	return naming.Identifier([]string{strings.TrimSuffix(base, filepath.Ext(base))})
}

// InterfaceStems returns the unit name prefix of every interface: the
// identifier of its file name, followed by a hash of its path below the
// directory the clashing interfaces share when two interfaces have the same
// identifier. The hash does not depend on where the project is checked out.
func InterfaceStems(interfaces []string) map[string]string {
	groups := map[string][]string{}
	for _, iface := range interfaces {
		id := interfaceStem(iface)
		groups[id] = append(groups[id], filepath.ToSlash(filepath.Clean(iface)))
	}
	stems := make(map[string]string, len(interfaces))
	for id, paths := range groups {
		distinct := map[string]bool{}
		for _, p := range paths {
			distinct[p] = true
		}
		root := commonDir(paths)
		for _, iface := range interfaces {
			p := filepath.ToSlash(filepath.Clean(iface))
			if !distinct[p] {
				continue
			}
			if len(distinct) == 1 {
				stems[iface] = id
				continue
			}
			sum := sha256.Sum256([]byte(strings.TrimPrefix(p, root)))
			stems[iface] = id + "_" + hex.EncodeToString(sum[:4])
		}
	}
	return stems
}

// commonDir is the longest directory prefix, ending in a slash, shared by
// the slash-separated paths
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	prefix := paths[0][:strings.LastIndex(paths[0], "/")+1]
	for _, p := range paths[1:] {
		for !strings.HasPrefix(p, prefix) {
			prefix = prefix[:strings.LastIndex(strings.TrimSuffix(prefix, "/"), "/")+1]
		}
	}
	return prefix
}

func unitName(stem, name string) string {
	id := naming.Identifier([]string{name})
	if len(id) > maxNameLen || id == "" {
		sum := sha256.Sum256([]byte(name))
		short := strings.Trim(id[:min(len(id), maxNameLen)], "_")
		id = hex.EncodeToString(sum[:4])
		if short != "" {
			id = short + "_" + id
		}
	}
	return stem + "_" + id
}

// ownsUnit reports whether d gets files of its own. Include lines are
// shared by the whole interface.
func ownsUnit(d *export.Descriptor) bool {
	return !(d.Kind == export.KindCode && d.Info.Section == export.SectionInclude)
}

type unit struct {
	stem  string
	iface string
	buf   *buffer
}

// Multiple writes one C++ file and one C# file per (interface, export)
type Multiple struct {
	module    string
	cxxDir    string
	csDir     string
	namespace string

	stems    map[string]string
	units    map[string]*unit
	order    []string
	includes map[string]*includeSet
	current  *unit
	iface    string
}

// NewMultiple returns a unit writing into cxxDir and csDir. interfaces are
// every interface of the run; they decide the unit name prefixes.
func NewMultiple(module, cxxDir, csDir, namespace string, interfaces []string) *Multiple {
	return &Multiple{
		module:    module,
		cxxDir:    cxxDir,
		csDir:     csDir,
		namespace: namespace,
		stems:     InterfaceStems(interfaces),
		units:     map[string]*unit{},
		includes:  map[string]*includeSet{},
	}
}

func (m *Multiple) Module() string { return m.module }

// SetCurrent routes later writes to the files of d
func (m *Multiple) SetCurrent(d *export.Descriptor) {
	m.iface = d.Interface
	if !ownsUnit(d) {
		m.current = nil
		return
	}
	m.current = m.unit(d.Interface, m.unitName(d))
}

func (m *Multiple) unitName(d *export.Descriptor) string {
	stem, ok := m.stems[d.Interface]
	if !ok {
		stem = interfaceStem(d.Interface)
	}
	return unitName(stem, d.Name)
}

func (m *Multiple) unit(iface, stem string) *unit {
	u, ok := m.units[stem]
	if !ok {
		u = &unit{stem: stem, iface: iface, buf: newBuffer()}
		m.units[stem] = u
		m.order = append(m.order, stem)
	}
	return u
}

func (m *Multiple) Write(lang export.Language, section export.Section, code string) {
	if lang == export.CPlusPlus && section == export.SectionInclude {
		set, ok := m.includes[m.iface]
		if !ok {
			set = &includeSet{}
			m.includes[m.iface] = set
		}
		set.add(code)
		return
	}
	u := m.current
	if u == nil {
		u = m.unit(m.iface, naming.Identifier([]string{m.module}))
	}
	u.buf.add(lang, section, code)
}

// Save writes a .cpp for every unit and a .cs for units with C# content
func (m *Multiple) Save() ([]string, error) {
	var written []string
	for _, stem := range m.order {
		u := m.units[stem]
		var includes []string
		if set := m.includes[u.iface]; set != nil {
			includes = set.lines
		}
		cxx := filepath.Join(m.cxxDir, stem+".cpp")
		if err := writeFile(cxx, renderCxx(includes, u.buf, exportFunc(stem)+"()")); err != nil {
			return nil, err
		}
		written = append(written, cxx)
		if u.buf.has(export.CSharp) {
			cs := filepath.Join(m.csDir, stem+".cs")
			if err := writeFile(cs, renderCSharp(m.namespace, u.buf)); err != nil {
				return nil, err
			}
			written = append(written, cs)
		}
	}
	return written, nil
}

func exportFunc(stem string) string {
	return "void _Export_" + stem
}

// GenerateMain writes _main.cpp, whose init function calls the export
// function of every unit, interface by interface in the given order
func (m *Multiple) GenerateMain(interfaces []string, descs []*export.Descriptor) (string, error) {
	var stems []string
	seen := map[string]bool{}
	for _, d := range export.GroupByInterface(descs, interfaces) {
		if !ownsUnit(d) {
			continue
		}
		stem := m.unitName(d)
		if !seen[stem] {
			seen[stem] = true
			stems = append(stems, stem)
		}
	}

	var s strings.Builder
	s.WriteString(version.Get().Banner() + "\n\n")
	s.WriteString(apiMacro + "\n")
	for _, stem := range stems {
		s.WriteString(exportFunc(stem) + "();\n")
	}
	fmt.Fprintf(&s, "\nCXXBIND_API void %s_init()\n{\n", naming.Identifier([]string{m.module}))
	for _, stem := range stems {
		fmt.Fprintf(&s, "    _Export_%s();\n", stem)
	}
	s.WriteString("}\n")

	path := filepath.Join(m.cxxDir, MainFile)
	if err := writeFile(path, s.String()); err != nil {
		return "", err
	}
	return path, nil
}
