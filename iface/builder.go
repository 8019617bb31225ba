package iface

import (
	"strings"

	"github.com/teranos/cxxbind/emit"
	"github.com/teranos/cxxbind/errors"
	"github.com/teranos/cxxbind/export"
)

// Builder registers exports for the interface file currently executing.
// Interface scripts and Go callers both register through it.
type Builder struct {
	loader *Loader
}

// Declare runs fn as if it were the body of an interface file named name.
// It counts as one load of name.
func (l *Loader) Declare(name string, fn func(b *Builder) error) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.NewUsageError("interface name is empty")
	}
	l.counts[name]++
	if l.counts[name] == 1 {
		l.loaded = append(l.loaded, name)
	}
	previous := l.current
	l.current = name
	defer func() { l.current = previous }()
	return fn(l.Builder())
}

func (b *Builder) add(kind export.Kind, header, name, tail string, info export.Info) error {
	iface := b.loader.current
	if iface == "" {
		return errors.NewUsageError("%s %q registered outside an interface", kind, name)
	}
	if name == "" {
		return errors.Newf("%s export needs a name", kind)
	}
	if header == "" && kind != export.KindCode {
		return errors.Newf("%s %q needs a header", kind, name)
	}
	d := &export.Descriptor{
		Interface: iface,
		Header:    header,
		Name:      name,
		Kind:      kind,
		Tail:      tail,
		Info:      info,
		Emitter:   emit.For(kind),
	}
	added, err := b.loader.registry.Add(d)
	if err != nil {
		return err
	}
	if !added {
		b.loader.logger.Debugw("Skipping duplicate export", "interface", iface, "kind", string(kind), "export", name)
	}
	return nil
}

// Import loads another interface file at this point
func (b *Builder) Import(path string) error {
	return b.loader.Load(path)
}

// Function exports a free function
func (b *Builder) Function(header, name string, info export.Info) error {
	return b.add(export.KindFunction, header, name, "", info)
}

// ValueType exports a class whose instances are copied across the boundary
func (b *Builder) ValueType(header, name string, info export.Info) error {
	return b.add(export.KindValueType, header, name, "", info)
}

// ReferenceType exports a class whose instances are shared by handle
func (b *Builder) ReferenceType(header, name string, info export.Info) error {
	return b.add(export.KindReferenceType, header, name, "", info)
}

// Template exports a class template. Each entry of instantiations is a
// template argument list; the tail declares one typedef per entry so the
// front end instantiates them.
func (b *Builder) Template(header, name string, instantiations []string, info export.Info) error {
	if len(instantiations) == 0 {
		return errors.Newf("template %q needs at least one instantiation", name)
	}
	var tail []string
	for _, args := range instantiations {
		tail = append(tail, "typedef "+name+"< "+args+" > "+emit.TemplateAlias(name, args)+";")
	}
	info.Instantiate = append([]string(nil), instantiations...)
	return b.add(export.KindTemplate, header, name, strings.Join(tail, "\n"), info)
}

// Enum exports an enumeration
func (b *Builder) Enum(header, name string, info export.Info) error {
	return b.add(export.KindEnum, header, name, "", info)
}

// Var exports a global variable
func (b *Builder) Var(header, name string, info export.Info) error {
	return b.add(export.KindVar, header, name, "", info)
}

// AllFromHeader exports every class, function and enum declared in header
func (b *Builder) AllFromHeader(header string, info export.Info) error {
	return b.add(export.KindHeader, header, header, "", info)
}

// Include adds an #include line to the generated C++
func (b *Builder) Include(header string) error {
	header = strings.TrimSpace(header)
	if header == "" {
		return errors.New("include needs a header")
	}
	if !strings.HasPrefix(header, "<") && !strings.HasPrefix(header, "\"") {
		header = "\"" + header + "\""
	}
	return b.code(export.SectionInclude, "#include "+header)
}

// DeclarationCode adds code ahead of the generated declarations
func (b *Builder) DeclarationCode(code string) error {
	return b.code(export.SectionDeclarationOutside, code)
}

// ModuleCode adds code to the module initialization function
func (b *Builder) ModuleCode(code string) error {
	return b.code(export.SectionModule, code)
}

func (b *Builder) code(section export.Section, code string) error {
	return b.add(export.KindCode, "", code, "", export.Info{Section: section})
}
