// Package naming renders declarations as names in each target language.
//
// A Resolver produces four spellings for one declaration:
//
//	Qualified  fully scoped, in the target's separator convention
//	Generic    every scope segment joined by "_", made into a valid identifier
//	Stripped   the segments below the innermost namespace
//	Usage      what to write at a call site; Qualified unless an override applies
//
// Overrides are table driven: a declaration whose scope chain contains a
// segment matching Override.Match renders with that entry's spelling.
package naming

import (
	"strings"
	"unicode"

	"github.com/teranos/cxxbind/decl"
)

// Names is the result of resolving one declaration
type Names struct {
	Qualified string
	Generic   string
	Stripped  string
	Usage     string
}

// Resolver renders declarations for one target
type Resolver interface {
	Resolve(d decl.Declaration) Names
}

// Override replaces the usage of well-known types. Entries are tried in
// order and the first whose Match is contained in any scope segment wins.
type Override struct {
	Match string
	// CPlusPlus is the raw C++ spelling; const declarations get a "const " prefix
	CPlusPlus string
	CSharp    string
}

// DefaultOverrides maps the standard string templates to C strings on the C++
// side and to System.String on the C# side
var DefaultOverrides = []Override{
	{Match: "basic_string<wchar_t", CPlusPlus: "wchar_t*", CSharp: "String"},
	{Match: "basic_string", CPlusPlus: "char*", CSharp: "String"},
}

func lookup(table []Override, segments []string) (Override, bool) {
	for _, o := range table {
		for _, s := range segments {
			if strings.Contains(s, o.Match) {
				return o, true
			}
		}
	}
	return Override{}, false
}

// CPlusPlus renders raw C++ names
type CPlusPlus struct {
	Overrides []Override
}

// NewCPlusPlus returns a C++ resolver using DefaultOverrides
func NewCPlusPlus() *CPlusPlus {
	return &CPlusPlus{Overrides: DefaultOverrides}
}

func (r *CPlusPlus) Resolve(d decl.Declaration) Names {
	full := d.FullNameAbstract()
	n := Names{
		Qualified: d.FullName(),
		Generic:   Identifier(full),
		Stripped:  strings.Join(d.Name(), "::"),
	}
	n.Usage = n.Qualified
	if o, ok := lookup(r.Overrides, full); ok && o.CPlusPlus != "" {
		prefix := ""
		if d.IsConst() {
			prefix = "const "
		}
		n.Usage = prefix + o.CPlusPlus
	}
	return n
}

// CPlusPlusReturn renders C++ names in return position. It currently
// renders exactly as CPlusPlus does.
type CPlusPlusReturn struct {
	CPlusPlus
}

// NewCPlusPlusReturn returns a return-position resolver using DefaultOverrides
func NewCPlusPlusReturn() *CPlusPlusReturn {
	return &CPlusPlusReturn{CPlusPlus{Overrides: DefaultOverrides}}
}

func (r *CPlusPlusReturn) Resolve(d decl.Declaration) Names {
	return r.CPlusPlus.Resolve(d)
}

// CSharp renders C# names; scopes are joined with "."
type CSharp struct {
	Overrides []Override
}

// NewCSharp returns a C# resolver using DefaultOverrides
func NewCSharp() *CSharp {
	return &CSharp{Overrides: DefaultOverrides}
}

func (r *CSharp) Resolve(d decl.Declaration) Names {
	full := d.FullNameAbstract()
	n := Names{
		Qualified: strings.Join(full, "."),
		Generic:   Identifier(full),
		Stripped:  strings.Join(d.Name(), "."),
	}
	n.Usage = n.Qualified
	if o, ok := lookup(r.Overrides, full); ok && o.CSharp != "" {
		n.Usage = o.CSharp
	}
	return n
}

// Identifier joins segments with "_" and replaces every run of characters
// that cannot appear in an identifier with a single "_". A leading digit is
// prefixed with "_".
func Identifier(segments []string) string {
	var b strings.Builder
	pendingSep := false
	for i, s := range segments {
		if i > 0 {
			pendingSep = true
		}
		for _, r := range s {
			if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
				if pendingSep && b.Len() > 0 {
					b.WriteByte('_')
				}
				pendingSep = false
				b.WriteRune(r)
				continue
			}
			pendingSep = true
		}
	}
	out := b.String()
	if out != "" && unicode.IsDigit(rune(out[0])) {
		out = "_" + out
	}
	return out
}
