package emit

import (
	"strings"

	"github.com/teranos/cxxbind/decl"
	"github.com/teranos/cxxbind/errors"
)

// ErrUnsupported marks a type that has no binding. Class emitters skip the
// member that uses it; explicitly exported functions and variables fail.
var ErrUnsupported = errors.New("unsupported type")

// TypeMapping maps C++ fundamental types to C# types
var TypeMapping = map[string]string{
	"void":                   "void",
	"bool":                   "bool",
	"char":                   "sbyte",
	"signed char":            "sbyte",
	"unsigned char":          "byte",
	"short int":              "short",
	"short":                  "short",
	"short unsigned int":     "ushort",
	"unsigned short":         "ushort",
	"int":                    "int",
	"unsigned int":           "uint",
	"long int":               "int",
	"long":                   "int",
	"long unsigned int":      "uint",
	"unsigned long":          "uint",
	"long long int":          "long",
	"long long":              "long",
	"long long unsigned int": "ulong",
	"unsigned long long":     "ulong",
	"float":                  "float",
	"double":                 "double",
	"long double":            "double",
	"wchar_t":                "char",
}

// binding describes how one C++ type crosses the extern "C" boundary.
// Conversion fields are templates in which "$" stands for the value; an
// empty template passes the value through.
type binding struct {
	cxx    string // C++ type of the shim parameter or result
	arg    string // shim parameter to call argument
	result string // call expression to shim result
	buffer string // result is copied into a thread-local buffer of this type

	pinvoke    string // C# type in the DllImport declaration
	attr       string // marshalling attribute of the DllImport parameter or result
	public     string // C# type of the wrapper API
	toNative   string // wrapper value to P/Invoke argument
	fromNative string // P/Invoke result to wrapper value
	byRef      bool   // C# parameter passed with ref
}

func subst(template, value string) string {
	if template == "" {
		return value
	}
	return strings.ReplaceAll(template, "$", value)
}

func (b binding) void() bool { return b.cxx == "void" }

var voidBinding = binding{cxx: "void", pinvoke: "void", public: "void"}

const (
	boolAttr   = "[MarshalAs(UnmanagedType.I1)]"
	ansiAttr   = "[MarshalAs(UnmanagedType.LPStr)]"
	wideAttr   = "[MarshalAs(UnmanagedType.LPWStr)]"
	ansiString = "Marshal.PtrToStringAnsi($)"
	wideString = "Marshal.PtrToStringUni($)"
)

// bind returns the binding of t as a parameter, or as a result when result
// is set
func (g *generator) bind(t *decl.Type, result bool) (binding, error) {
	if t == nil || t.IsVoid() {
		return voidBinding, nil
	}
	t = resolveTypedef(t)
	suffix := strings.ReplaceAll(t.Suffix, " const", "")

	if b, ok := g.bindString(t, suffix, result); ok {
		return b, nil
	}
	switch target := t.Decl.(type) {
	case *decl.Class:
		return g.bindClass(t, target, suffix, result)
	case *decl.Enum:
		return g.bindEnum(t, target, suffix)
	}
	if t.Fundamental {
		return bindFundamental(t, suffix, result)
	}
	if strings.HasSuffix(suffix, "*") {
		return binding{cxx: t.String(), pinvoke: "IntPtr", public: "IntPtr"}, nil
	}
	return binding{}, errors.Wrapf(ErrUnsupported, "%s", t)
}

// resolveTypedef follows typedef chains down to the named type, carrying
// the decorations of the outer use
func resolveTypedef(t *decl.Type) *decl.Type {
	for depth := 0; depth < 32; depth++ {
		td, ok := t.Decl.(*decl.Typedef)
		if !ok || td.Type == nil {
			return t
		}
		target := td.Type.Clone()
		target.Suffix += t.Suffix
		if t.Const && td.Type.Suffix == "" {
			target.Const = true
		}
		t = target
	}
	return t
}

func (g *generator) bindString(t *decl.Type, suffix string, result bool) (binding, bool) {
	var n = g.cxx.Resolve(t)
	if result {
		n = g.ret.Resolve(t)
	}
	if n.Usage == n.Qualified {
		return binding{}, false
	}
	if suffix != "" && !(suffix == "&" && t.Const) {
		return binding{}, false
	}
	raw := strings.TrimPrefix(n.Usage, "const ")
	wide := strings.HasPrefix(raw, "wchar_t")
	cs := g.cs.Resolve(t).Usage

	b := binding{cxx: "const " + raw, public: cs}
	switch {
	case result && wide:
		b.buffer, b.pinvoke, b.fromNative = "std::wstring", "IntPtr", wideString
	case result:
		b.buffer, b.pinvoke, b.fromNative = "std::string", "IntPtr", ansiString
	case wide:
		b.pinvoke, b.attr = cs, wideAttr
	default:
		b.pinvoke, b.attr = cs, ansiAttr
	}
	return b, true
}

func (g *generator) bindClass(t *decl.Type, c *decl.Class, suffix string, result bool) (binding, error) {
	q := g.cxx.Resolve(c).Qualified
	if result {
		q = g.ret.Resolve(c).Qualified
	}
	b := binding{cxx: q + "*", pinvoke: "IntPtr", public: "IntPtr"}
	if t.Const {
		b.cxx = "const " + b.cxx
	}
	owns := "false"
	switch suffix {
	case "":
		if result {
			b.cxx = q + "*"
			b.result = "new " + q + "($)"
			owns = "true"
		} else {
			b.arg = "*$"
		}
	case "&":
		if result {
			b.result = "&($)"
		} else {
			b.arg = "*$"
		}
	case "*":
	default:
		return binding{}, errors.Wrapf(ErrUnsupported, "%s", t)
	}
	if g.names.Has(c.FullName()) {
		cs := g.csQualified(c)
		b.public = cs
		b.toNative = "($ == null ? IntPtr.Zero : $.Handle)"
		b.fromNative = "new " + cs + "($, " + owns + ")"
	}
	return b, nil
}

func (g *generator) bindEnum(t *decl.Type, e *decl.Enum, suffix string) (binding, error) {
	if suffix != "" && !(suffix == "&" && t.Const) {
		return binding{}, errors.Wrapf(ErrUnsupported, "%s", t)
	}
	q := g.cxx.Resolve(e).Qualified
	b := binding{
		cxx:     "int",
		arg:     "static_cast<" + q + ">($)",
		result:  "static_cast<int>($)",
		pinvoke: "int",
		public:  "int",
	}
	if g.names.Has(e.FullName()) {
		cs := g.csQualified(e)
		b.public = cs
		b.toNative = "(int)$"
		b.fromNative = "(" + cs + ")$"
	}
	return b, nil
}

func bindFundamental(t *decl.Type, suffix string, result bool) (binding, error) {
	name := t.FullName()
	cs, ok := TypeMapping[name]
	if !ok {
		return binding{}, errors.Wrapf(ErrUnsupported, "%s", t)
	}
	constPrefix := ""
	if t.Const {
		constPrefix = "const "
	}

	switch {
	case suffix == "" || (suffix == "&" && t.Const):
		b := binding{cxx: name, pinvoke: cs, public: cs}
		if name == "bool" {
			b.attr = boolAttr
		}
		return b, nil
	case suffix == "&":
		if result {
			b := binding{cxx: name, pinvoke: cs, public: cs}
			if name == "bool" {
				b.attr = boolAttr
			}
			return b, nil
		}
		return binding{cxx: name + "*", arg: "*$", pinvoke: cs, public: cs, byRef: true}, nil
	case suffix == "*" && (name == "char" || name == "wchar_t"):
		fromNative, attr := ansiString, ansiAttr
		if name == "wchar_t" {
			fromNative, attr = wideString, wideAttr
		}
		if result {
			return binding{cxx: constPrefix + name + "*", pinvoke: "IntPtr", public: "string", fromNative: fromNative}, nil
		}
		return binding{cxx: constPrefix + name + "*", pinvoke: "string", attr: attr, public: "string"}, nil
	case strings.HasSuffix(suffix, "*"):
		return binding{cxx: constPrefix + name + suffix, pinvoke: "IntPtr", public: "IntPtr"}, nil
	}
	return binding{}, errors.Wrapf(ErrUnsupported, "%s", t)
}
