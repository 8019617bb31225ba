package emit

import (
	"fmt"
	"strings"

	"github.com/teranos/cxxbind/decl"
	"github.com/teranos/cxxbind/errors"
	"github.com/teranos/cxxbind/export"
	"github.com/teranos/cxxbind/naming"
)

// output collects the pieces of one emission before they are written
type output struct {
	cxx     []string
	natives []string
	members []string
}

func (o *output) add(b *bound, library string) {
	o.cxx = append(o.cxx, b.cxx())
	o.natives = append(o.natives, b.pinvoke(library))
}

func (o *output) skip(what string, err error) {
	o.cxx = append(o.cxx, fmt.Sprintf("// skipped %s: %s\n", what, err))
}

// body joins the DllImport declarations and the members of a C# class
func (o *output) body() string {
	var b strings.Builder
	for _, n := range o.natives {
		b.WriteString(n)
	}
	for _, m := range o.members {
		b.WriteString("\n")
		b.WriteString(m)
	}
	return b.String()
}

// emitClass writes the shims and the C# class for c. extra is inserted in
// the C# class body.
func (g *generator) emitClass(c *decl.Class, value bool, extra string) error {
	if c.Incomplete {
		return errors.Newf("class %s is only declared, not defined", c.FullName())
	}
	g.names.Add(c.FullName())

	n := g.cxx.Resolve(c)
	q, gen := n.Qualified, n.Generic
	cs := g.csName(c)
	info := &g.d.Info
	lib := g.library()
	base := g.exportedBase(c)

	var out output
	if info.Holder != "" {
		out.cxx = append(out.cxx, "// holder: "+info.Holder+"\n")
	}

	var enums []string
	for _, m := range c.Members {
		if e, ok := m.(*decl.Enum); ok && !info.Excluded(e.Short()) {
			g.names.Add(e.FullName())
			enums = append(enums, g.enumCS(e))
		}
	}

	if !c.Abstract && !info.Excluded(c.Short()) {
		var ctors []*decl.Function
		for _, ctor := range c.Methods(decl.Constructor) {
			if ctor.Access == decl.Public {
				ctors = append(ctors, ctor)
			}
		}
		suffixes := overloads(ctors, func(*decl.Function) string { return "new" })
		for i, ctor := range ctors {
			handle := binding{cxx: q + "*", pinvoke: "IntPtr", public: "IntPtr"}
			b, err := g.bindShim(&shim{
				symbol: gen + "_new" + suffixes[i],
				params: ctor.Params,
				fixed:  &handle,
				call:   invocation("new "+q, ""),
			})
			if err != nil {
				if errors.Is(err, ErrUnsupported) {
					out.skip(q+" constructor", err)
					continue
				}
				return err
			}
			out.add(b, lib)
			chain := "this"
			if base != nil {
				chain = "base"
			}
			out.members = append(out.members, fmt.Sprintf("public %s(%s)\n    : %s(%s, true)\n{\n}\n",
				cs, b.publicParams(), chain, b.nativeCall("")))
		}

		if value {
			handle := binding{cxx: q + "*", pinvoke: "IntPtr", public: "IntPtr"}
			b, _ := g.bindShim(&shim{symbol: gen + "_copy", self: q, fixed: &handle, call: "new " + q + "(*self_)"})
			out.add(b, lib)
			out.members = append(out.members, fmt.Sprintf("public %s Copy()\n{\n    return new %s(%s_copy(Handle), true);\n}\n", cs, cs, gen))
		}
	}

	deletable := true
	for _, dtor := range c.Methods(decl.Destructor) {
		if dtor.Access != decl.Public {
			deletable = false
		}
	}
	if deletable {
		b, _ := g.bindShim(&shim{symbol: gen + "_delete", self: q, fixed: &voidBinding, call: "delete self_"})
		out.add(b, lib)
	}

	var methods []*decl.Function
	for _, m := range c.Methods(decl.Method) {
		if m.Access == decl.Public && !m.Artificial && !info.Excluded(m.Short()) {
			methods = append(methods, m)
		}
	}
	suffixes := overloads(methods, (*decl.Function).Short)
	for i, m := range methods {
		name := m.Short()
		s := &shim{
			symbol: gen + "_" + naming.Identifier([]string{name}) + suffixes[i],
			member: name,
			self:   q,
			static: m.Static,
			params: m.Params,
			result: m.Result,
			call:   invocation("self_->"+name, ""),
		}
		if m.Static {
			s.self = ""
			s.call = invocation(q+"::"+name, "")
		}
		if w := info.Wrapper[name]; w != "" {
			s.call = invocation(w, "*self_")
			if m.Static {
				s.call = invocation(w, "")
			}
		}
		if p := info.Policy[name]; p != "" {
			s.comment = "policy: " + p
		}
		b, err := g.bindShim(s)
		if err != nil {
			if errors.Is(err, ErrUnsupported) {
				out.skip(q+"::"+name, err)
				continue
			}
			return err
		}
		out.add(b, lib)
		out.members = append(out.members, b.method())
	}

	for _, f := range c.Fields() {
		if f.Access != decl.Public || info.Excluded(f.Short()) {
			continue
		}
		target, self := "self_->"+f.Short(), q
		if f.Static {
			target, self = q+"::"+f.Short(), ""
		}
		err := g.property(&out, gen+"_get_"+f.Short(), gen+"_set_"+f.Short(), f.Short(), self, target, f.Type, f.Static)
		if err != nil {
			if errors.Is(err, ErrUnsupported) {
				out.skip(q+"::"+f.Short(), err)
				continue
			}
			return err
		}
	}

	if extra != "" {
		out.members = append(out.members, strings.TrimRight(extra, "\n")+"\n")
	}

	g.sink.Write(export.CPlusPlus, export.SectionDeclaration, "// "+q+"\n"+strings.Join(out.cxx, "\n"))

	var cls strings.Builder
	sealed := ""
	if info.Final {
		sealed = "sealed "
	}
	if base != nil {
		fmt.Fprintf(&cls, "public %spartial class %s : %s\n{\n", sealed, cs, g.csQualified(base))
	} else {
		fmt.Fprintf(&cls, "public %spartial class %s : IDisposable\n{\n", sealed, cs)
	}
	cls.WriteString(indent(g.handleMembers(cs, gen, base != nil, info.Final, deletable), 1))
	cls.WriteString(indent(out.body(), 1))
	cls.WriteString("}\n")

	text := cls.String()
	for _, e := range enums {
		text += "\n" + e
	}
	g.sink.Write(export.CSharp, export.SectionDeclaration, wrapNamespace(csNamespace(c), text))
	return nil
}

// handleMembers renders the handle ownership members. Derived classes
// inherit them and only replace the deleter.
func (g *generator) handleMembers(cs, gen string, derived, sealed, deletable bool) string {
	deleteBody := ""
	if deletable {
		deleteBody = "    " + gen + "_delete(handle);\n"
	}
	if derived {
		return fmt.Sprintf("internal %s(IntPtr handle, bool ownsHandle)\n    : base(handle, ownsHandle)\n{\n}\n\n"+
			"protected override void Delete(IntPtr handle)\n{\n%s}\n\n", cs, deleteBody)
	}
	hook := "protected virtual"
	if sealed {
		hook = "private"
	}
	var b strings.Builder
	b.WriteString("private IntPtr handle_;\nprivate bool ownsHandle_;\n\n")
	fmt.Fprintf(&b, "internal %s(IntPtr handle, bool ownsHandle)\n{\n    handle_ = handle;\n    ownsHandle_ = ownsHandle;\n}\n\n", cs)
	b.WriteString("public IntPtr Handle\n{\n    get { return handle_; }\n}\n\n")
	b.WriteString("public void Dispose()\n{\n    Dispose(true);\n    GC.SuppressFinalize(this);\n}\n\n")
	fmt.Fprintf(&b, "~%s()\n{\n    Dispose(false);\n}\n\n", cs)
	fmt.Fprintf(&b, "%s void Dispose(bool disposing)\n{\n    if (ownsHandle_ && handle_ != IntPtr.Zero)\n    {\n        Delete(handle_);\n    }\n    handle_ = IntPtr.Zero;\n}\n\n", hook)
	fmt.Fprintf(&b, "%s void Delete(IntPtr handle)\n{\n%s}\n\n", hook, deleteBody)
	return b.String()
}

// exportedBase returns the first public base class that is itself bound
func (g *generator) exportedBase(c *decl.Class) *decl.Class {
	for _, b := range c.Bases {
		if base, ok := resolveTypedef(b).Decl.(*decl.Class); ok && g.names.Has(base.FullName()) {
			return base
		}
	}
	return nil
}

// property emits a getter, and a setter when the type allows assignment,
// plus the C# property calling them
func (g *generator) property(out *output, getter, setter, name, self, target string, t *decl.Type, static bool) error {
	read := t
	if rt := resolveTypedef(t); rt.Suffix == "" {
		if _, ok := rt.Decl.(*decl.Class); ok {
			if n := g.cxx.Resolve(rt); n.Usage == n.Qualified {
				read = rt.Clone()
				read.Suffix = "&"
			}
		}
	}
	get, err := g.bindShim(&shim{symbol: getter, self: self, result: read, call: target})
	if err != nil {
		return err
	}

	var set *bound
	if !t.Const && !strings.Contains(t.Suffix, "&") {
		set, err = g.bindShim(&shim{
			symbol: setter,
			self:   self,
			params: []decl.Param{{Name: "value", Type: t}},
			fixed:  &voidBinding,
			call:   target + " = $",
		})
		if err != nil {
			return err
		}
	}

	lib := g.library()
	out.add(get, lib)
	if set != nil {
		out.add(set, lib)
	}

	var p strings.Builder
	mods := "public "
	if static {
		mods += "static "
	}
	fmt.Fprintf(&p, "%s%s %s\n{\n", mods, get.result.public, csIdent(name))
	fmt.Fprintf(&p, "    get { return %s; }\n", get.nativeCall("Handle"))
	if set != nil {
		fmt.Fprintf(&p, "    set { %s; }\n", set.nativeCall("Handle"))
	}
	p.WriteString("}\n")
	out.members = append(out.members, p.String())
	return nil
}

func (g *generator) enumCS(e *decl.Enum) string {
	var b strings.Builder
	fmt.Fprintf(&b, "public enum %s\n{\n", g.csName(e))
	for _, v := range e.Values {
		fmt.Fprintf(&b, "    %s = %d,\n", csIdent(v.Name), v.Value)
	}
	b.WriteString("}\n")
	return b.String()
}
