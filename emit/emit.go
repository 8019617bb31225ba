// Package emit turns parsed declarations into binding code: extern "C"
// shims on the C++ side and P/Invoke wrappers on the C# side. There is one
// emitter per export kind; For picks it.
package emit

import (
	"strings"

	"github.com/teranos/cxxbind/decl"
	"github.com/teranos/cxxbind/errors"
	"github.com/teranos/cxxbind/export"
	"github.com/teranos/cxxbind/naming"
)

// For returns the emitter for kind, or nil for an unknown kind
func For(kind export.Kind) export.Emitter {
	switch kind {
	case export.KindFunction:
		return functionEmitter{}
	case export.KindValueType:
		return classEmitter{value: true}
	case export.KindReferenceType:
		return classEmitter{}
	case export.KindTemplate:
		return templateEmitter{}
	case export.KindEnum:
		return enumEmitter{}
	case export.KindHeader:
		return headerEmitter{}
	case export.KindVar:
		return varEmitter{}
	case export.KindCode:
		return codeEmitter{}
	}
	return nil
}

// TemplateAlias is the typedef name declared for one instantiation of a
// class template, e.g. TemplateAlias("geom::Box", "int") is "Box_int"
func TemplateAlias(name, args string) string {
	short := name
	if segments := decl.SplitScope(name); len(segments) > 0 {
		short = segments[len(segments)-1]
	}
	return naming.Identifier([]string{short, args})
}

func lookupName(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), "::")
}

func notFound(d *export.Descriptor, what string) error {
	err := errors.NewNotFoundError("%s %s in %s", what, d.Name, d.Header)
	return errors.WithHint(err, "use the fully qualified C++ name, e.g. ns::Name")
}

type classEmitter struct {
	value bool
}

func (e classEmitter) Emit(d *export.Descriptor, sink export.Sink, names export.Names) error {
	g := newGenerator(d, sink, names)
	if err := g.checkInject(); err != nil {
		return err
	}
	name := lookupName(d.Name)
	c, _ := d.Declarations.FindKind(name, decl.KindClass).(*decl.Class)
	if c == nil {
		// A typedef naming a class binds the class under the typedef's name
		if td, ok := d.Declarations.FindKind(name, decl.KindTypedef).(*decl.Typedef); ok && td.Type != nil {
			if target, ok := resolveTypedef(td.Type).Decl.(*decl.Class); ok {
				c = target
				g.renamed[c.FullName()] = naming.Identifier(td.Name())
			}
		}
	}
	if c == nil {
		return notFound(d, "class")
	}
	if d.Info.Rename != "" {
		g.renamed[c.FullName()] = d.Info.Rename
	}
	g.include()
	return g.emitClass(c, e.value, g.inject())
}

type templateEmitter struct{}

func (templateEmitter) Emit(d *export.Descriptor, sink export.Sink, names export.Names) error {
	g := newGenerator(d, sink, names)
	if err := g.checkInject(); err != nil {
		return err
	}
	var classes []*decl.Class
	for _, args := range d.Info.Instantiate {
		alias := TemplateAlias(d.Name, args)
		td, _ := d.Declarations.FindKind(alias, decl.KindTypedef).(*decl.Typedef)
		if td == nil || td.Type == nil {
			return errors.NewNotFoundError("instantiation %s< %s > in %s", d.Name, args, d.Header)
		}
		c, ok := resolveTypedef(td.Type).Decl.(*decl.Class)
		if !ok {
			return errors.Newf("%s does not name a class", alias)
		}
		classes = append(classes, c)
	}
	g.include()
	extra := g.inject()
	for _, c := range classes {
		g.names.Add(c.FullName())
	}
	for i, c := range classes {
		body := ""
		if i == 0 {
			body = extra
		}
		if err := g.emitClass(c, true, body); err != nil {
			return err
		}
	}
	return nil
}

type enumEmitter struct{}

func (enumEmitter) Emit(d *export.Descriptor, sink export.Sink, names export.Names) error {
	g := newGenerator(d, sink, names)
	if err := g.checkInject(); err != nil {
		return err
	}
	e, _ := d.Declarations.FindKind(lookupName(d.Name), decl.KindEnum).(*decl.Enum)
	if e == nil {
		return notFound(d, "enum")
	}
	if d.Info.Rename != "" {
		g.renamed[e.FullName()] = d.Info.Rename
	}
	g.names.Add(e.FullName())
	g.include()
	text := g.enumCS(e)
	if extra := g.inject(); extra != "" {
		text += "\n" + strings.TrimRight(extra, "\n") + "\n"
	}
	sink.Write(export.CSharp, export.SectionDeclaration, wrapNamespace(csNamespace(e), text))
	return nil
}

type functionEmitter struct{}

func (functionEmitter) Emit(d *export.Descriptor, sink export.Sink, names export.Names) error {
	g := newGenerator(d, sink, names)
	if err := g.checkInject(); err != nil {
		return err
	}
	name := lookupName(d.Name)
	var fns []*decl.Function
	for _, x := range d.Declarations.Decls {
		if fn, ok := x.(*decl.Function); ok && fn.Role == decl.Free && fn.FullName() == name {
			fns = append(fns, fn)
		}
	}
	if len(fns) == 0 {
		return notFound(d, "function")
	}
	g.include()
	extra := g.inject()
	return g.emitFunctions(fns, true, extra)
}

// emitFunctions binds free functions into the module class of their
// namespace. With strict unset, functions whose types have no binding are
// skipped.
func (g *generator) emitFunctions(fns []*decl.Function, strict bool, extra string) error {
	lib := g.library()
	info := &g.d.Info
	suffixes := overloads(fns, (*decl.Function).FullName)

	var cxx []string
	var order []string
	byNamespace := map[string]*output{}
	for i, fn := range fns {
		n := g.cxx.Resolve(fn)
		member := fn.Short()
		if g.d.Kind == export.KindFunction && info.Rename != "" {
			member = info.Rename
		}
		s := &shim{
			symbol: n.Generic + suffixes[i],
			member: member,
			static: true,
			params: fn.Params,
			result: fn.Result,
			call:   invocation(n.Qualified, ""),
		}
		if w := info.Wrapper[fn.Short()]; w != "" {
			s.call = invocation(w, "")
		}
		if p := info.Policy[fn.Short()]; p != "" {
			s.comment = "policy: " + p
		}
		b, err := g.bindShim(s)
		if err != nil {
			if !strict && errors.Is(err, ErrUnsupported) {
				cxx = append(cxx, "// skipped "+n.Qualified+": "+err.Error()+"\n")
				continue
			}
			return err
		}
		ns := csNamespace(fn)
		out, ok := byNamespace[ns]
		if !ok {
			out = &output{}
			byNamespace[ns] = out
			order = append(order, ns)
		}
		out.add(b, lib)
		out.members = append(out.members, b.method())
		cxx = append(cxx, b.cxx())
	}
	if len(cxx) > 0 {
		g.sink.Write(export.CPlusPlus, export.SectionDeclaration, strings.Join(cxx, "\n"))
	}
	for i, ns := range order {
		out := byNamespace[ns]
		if i == 0 && extra != "" {
			out.members = append(out.members, strings.TrimRight(extra, "\n")+"\n")
		}
		g.sink.Write(export.CSharp, export.SectionDeclaration, wrapNamespace(ns, g.moduleClass(out.body())))
	}
	return nil
}

func (g *generator) moduleClass(body string) string {
	return "public static partial class " + g.module() + "\n{\n" + indent(body, 1) + "}\n"
}

type varEmitter struct{}

func (varEmitter) Emit(d *export.Descriptor, sink export.Sink, names export.Names) error {
	g := newGenerator(d, sink, names)
	if err := g.checkInject(); err != nil {
		return err
	}
	v, _ := d.Declarations.FindKind(lookupName(d.Name), decl.KindVariable).(*decl.Variable)
	if v == nil {
		return notFound(d, "variable")
	}
	n := g.cxx.Resolve(v)
	member := v.Short()
	if d.Info.Rename != "" {
		member = d.Info.Rename
	}

	var out output
	if err := g.property(&out, n.Generic+"_get", n.Generic+"_set", member, "", n.Qualified, v.Type, true); err != nil {
		return err
	}
	g.include()
	if extra := g.inject(); extra != "" {
		out.members = append(out.members, strings.TrimRight(extra, "\n")+"\n")
	}
	sink.Write(export.CPlusPlus, export.SectionDeclaration, strings.Join(out.cxx, "\n"))
	sink.Write(export.CSharp, export.SectionDeclaration, wrapNamespace(csNamespace(v), g.moduleClass(out.body())))
	return nil
}

type headerEmitter struct{}

// Emit binds every class, free function and enum located in the header.
// Members whose types have no binding are skipped rather than failing the
// whole header.
func (headerEmitter) Emit(d *export.Descriptor, sink export.Sink, names export.Names) error {
	g := newGenerator(d, sink, names)
	if err := g.checkInject(); err != nil {
		return err
	}
	g.include()

	var classes []*decl.Class
	var fns []*decl.Function
	var enums []*decl.Enum
	for _, x := range d.Declarations.InFile(d.Header) {
		if g.d.Info.Excluded(strings.Join(x.Name(), "::")) {
			continue
		}
		switch n := x.(type) {
		case *decl.Class:
			if !n.Incomplete {
				classes = append(classes, n)
				g.names.Add(n.FullName())
			}
		case *decl.Function:
			if n.Role == decl.Free {
				fns = append(fns, n)
			}
		case *decl.Enum:
			// nested enums are written with their class
			if len(n.Name()) == 1 {
				enums = append(enums, n)
				g.names.Add(n.FullName())
			}
		}
	}

	extra := g.inject()
	if extra != "" {
		sink.Write(export.CSharp, export.SectionDeclaration, strings.TrimRight(extra, "\n")+"\n")
	}
	for _, e := range enums {
		sink.Write(export.CSharp, export.SectionDeclaration, wrapNamespace(csNamespace(e), g.enumCS(e)))
	}
	for _, c := range classes {
		if err := g.emitClass(c, false, ""); err != nil {
			return err
		}
	}
	if len(fns) > 0 {
		return g.emitFunctions(fns, false, "")
	}
	return nil
}

type codeEmitter struct{}

func (codeEmitter) Emit(d *export.Descriptor, sink export.Sink, _ export.Names) error {
	section := d.Info.Section
	if section == "" {
		section = export.SectionDeclarationOutside
	}
	sink.Write(export.CPlusPlus, section, d.Name)
	return nil
}
