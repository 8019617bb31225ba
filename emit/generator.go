package emit

import (
	"strings"

	"github.com/teranos/cxxbind/decl"
	"github.com/teranos/cxxbind/errors"
	"github.com/teranos/cxxbind/export"
	"github.com/teranos/cxxbind/naming"
)

// Inject points accepted in export.Info.Inject
const (
	InjectCPlusPlus = "cxx"
	InjectCSharp    = "csharp"
	InjectModule    = "module"
)

// generator holds the state of one descriptor's emission
type generator struct {
	d     *export.Descriptor
	sink  export.Sink
	names export.Names

	cxx naming.Resolver
	ret naming.Resolver
	cs  naming.Resolver

	// C# names given by rename, keyed by C++ full name
	renamed map[string]string
}

func newGenerator(d *export.Descriptor, sink export.Sink, names export.Names) *generator {
	if names == nil {
		names = export.NewNames()
	}
	return &generator{
		d:       d,
		sink:    sink,
		names:   names,
		cxx:     naming.NewCPlusPlus(),
		ret:     naming.NewCPlusPlusReturn(),
		cs:      naming.NewCSharp(),
		renamed: map[string]string{},
	}
}

// module is the C# class holding free functions and variables
func (g *generator) module() string {
	if m := naming.Identifier([]string{g.sink.Module()}); m != "" {
		return m
	}
	return "Native"
}

func (g *generator) library() string {
	if m := g.sink.Module(); m != "" {
		return m
	}
	return "Native"
}

func (g *generator) include() {
	h := g.d.Header
	if h == "" {
		return
	}
	if !strings.HasPrefix(h, "<") && !strings.HasPrefix(h, "\"") {
		h = "\"" + h + "\""
	}
	g.sink.Write(export.CPlusPlus, export.SectionInclude, "#include "+h)
}

// checkInject rejects unknown insertion points before anything is written
func (g *generator) checkInject() error {
	for point := range g.d.Info.Inject {
		switch point {
		case InjectCPlusPlus, InjectCSharp, InjectModule:
		default:
			return errors.Newf("unknown inject point %q", point)
		}
	}
	return nil
}

// inject writes the C++ and module fragments. The C# fragment is returned
// so class emitters can place it inside the class body.
func (g *generator) inject() string {
	if code := g.d.Info.Inject[InjectCPlusPlus]; code != "" {
		g.sink.Write(export.CPlusPlus, export.SectionDeclaration, code)
	}
	if code := g.d.Info.Inject[InjectModule]; code != "" {
		g.sink.Write(export.CPlusPlus, export.SectionModule, code)
	}
	return g.d.Info.Inject[InjectCSharp]
}

// csName is the unqualified C# name of a class or enum. Nested C++ names
// are flattened with "_".
func (g *generator) csName(d decl.Declaration) string {
	if r, ok := g.renamed[d.FullName()]; ok {
		return r
	}
	return naming.Identifier(d.Name())
}

func (g *generator) csQualified(d decl.Declaration) string {
	n := g.cs.Resolve(d)
	if n.Usage != n.Qualified {
		return n.Usage
	}
	ns := csNamespace(d)
	if ns == "" {
		return g.csName(d)
	}
	return ns + "." + g.csName(d)
}

func csNamespace(d decl.Declaration) string {
	full := d.FullNameAbstract()
	return strings.Join(full[:len(full)-len(d.Name())], ".")
}

// wrapNamespace places body inside "namespace ns { }" when ns is set
func wrapNamespace(ns, body string) string {
	if ns == "" {
		return body
	}
	var b strings.Builder
	b.WriteString("namespace " + ns + "\n{\n")
	b.WriteString(indent(body, 1))
	b.WriteString("}\n")
	return b.String()
}

// indent prefixes every non-empty line with depth levels of four spaces
func indent(text string, depth int) string {
	pad := strings.Repeat("    ", depth)
	lines := strings.SplitAfter(text, "\n")
	var b strings.Builder
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			b.WriteString(pad)
		}
		b.WriteString(l)
	}
	return b.String()
}

var csKeywords = map[string]bool{
	"abstract": true, "as": true, "base": true, "bool": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "checked": true,
	"class": true, "const": true, "continue": true, "decimal": true, "default": true,
	"delegate": true, "do": true, "double": true, "else": true, "enum": true,
	"event": true, "explicit": true, "extern": true, "false": true, "finally": true,
	"fixed": true, "float": true, "for": true, "foreach": true, "goto": true,
	"if": true, "implicit": true, "in": true, "int": true, "interface": true,
	"internal": true, "is": true, "lock": true, "long": true, "namespace": true,
	"new": true, "null": true, "object": true, "operator": true, "out": true,
	"override": true, "params": true, "private": true, "protected": true, "public": true,
	"readonly": true, "ref": true, "return": true, "sbyte": true, "sealed": true,
	"short": true, "sizeof": true, "stackalloc": true, "static": true, "string": true,
	"struct": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "uint": true, "ulong": true, "unchecked": true,
	"unsafe": true, "ushort": true, "using": true, "virtual": true, "void": true,
	"volatile": true, "while": true,
}

// csIdent escapes C# keywords
func csIdent(name string) string {
	if csKeywords[name] {
		return "@" + name
	}
	return name
}
