package emit

import (
	"fmt"
	"strings"

	"github.com/teranos/cxxbind/decl"
	"github.com/teranos/cxxbind/errors"
)

// shim is one extern "C" function and the C# members that call it
type shim struct {
	symbol string
	member string // C# member name
	self   string // C++ receiver type; empty for free and static functions
	static bool   // C# member is static

	params []decl.Param
	result *decl.Type
	// fixed overrides the binding of result
	fixed *binding

	// call is the C++ expression; "$" stands for the argument list
	call    string
	comment string
}

type boundParam struct {
	name string
	binding
}

type bound struct {
	*shim
	params []boundParam
	result binding
}

func (g *generator) bindShim(s *shim) (*bound, error) {
	b := &bound{shim: s}
	for i, p := range s.params {
		pb, err := g.bind(p.Type, false)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %s", p.Name)
		}
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		b.params = append(b.params, boundParam{name: name, binding: pb})
	}
	if s.fixed != nil {
		b.result = *s.fixed
		return b, nil
	}
	r, err := g.bind(s.result, true)
	if err != nil {
		return nil, errors.Wrap(err, "result")
	}
	b.result = r
	return b, nil
}

// invocation builds a call template for callee. Members pass the receiver
// first when callee is a wrapper function.
func invocation(callee, first string) string {
	if first == "" {
		return callee + "($)"
	}
	return callee + "(" + first + ", $)"
}

func (b *bound) expr() string {
	args := make([]string, len(b.params))
	for i, p := range b.params {
		args[i] = subst(p.arg, p.name)
	}
	joined := strings.Join(args, ", ")
	call := b.call
	if joined == "" {
		call = strings.ReplaceAll(call, ", $", "")
	}
	return strings.ReplaceAll(call, "$", joined)
}

// cxx renders the extern "C" function
func (b *bound) cxx() string {
	var params []string
	if b.self != "" {
		params = append(params, b.self+"* self_")
	}
	for _, p := range b.params {
		params = append(params, p.cxx+" "+p.name)
	}

	var s strings.Builder
	if b.comment != "" {
		s.WriteString("// " + b.comment + "\n")
	}
	fmt.Fprintf(&s, "CXXBIND_API %s %s(%s)\n{\n", b.result.cxx, b.symbol, strings.Join(params, ", "))
	expr := b.expr()
	switch {
	case b.result.void():
		fmt.Fprintf(&s, "    %s;\n", expr)
	case b.result.buffer != "":
		fmt.Fprintf(&s, "    static thread_local %s result_;\n", b.result.buffer)
		fmt.Fprintf(&s, "    result_ = %s;\n", expr)
		s.WriteString("    return result_.c_str();\n")
	default:
		fmt.Fprintf(&s, "    return %s;\n", subst(b.result.result, expr))
	}
	s.WriteString("}\n")
	return s.String()
}

// pinvoke renders the DllImport declaration
func (b *bound) pinvoke(library string) string {
	var params []string
	if b.self != "" {
		params = append(params, "IntPtr self_")
	}
	for _, p := range b.params {
		param := p.pinvoke + " " + csIdent(p.name)
		if p.byRef {
			param = "ref " + param
		}
		if p.attr != "" {
			param = p.attr + " " + param
		}
		params = append(params, param)
	}

	var s strings.Builder
	fmt.Fprintf(&s, "[DllImport(%q, EntryPoint = %q)]\n", library, b.symbol)
	if b.result.attr != "" {
		fmt.Fprintf(&s, "[return: %s]\n", strings.Trim(b.result.attr, "[]"))
	}
	fmt.Fprintf(&s, "internal static extern %s %s(%s);\n", b.result.pinvoke, b.symbol, strings.Join(params, ", "))
	return s.String()
}

// nativeCall renders the C# call of the shim, converted to the wrapper type
func (b *bound) nativeCall(self string) string {
	var args []string
	if b.self != "" {
		args = append(args, self)
	}
	for _, p := range b.params {
		arg := subst(p.toNative, csIdent(p.name))
		if p.byRef {
			arg = "ref " + arg
		}
		args = append(args, arg)
	}
	return subst(b.result.fromNative, b.symbol+"("+strings.Join(args, ", ")+")")
}

func (b *bound) publicParams() string {
	var params []string
	for _, p := range b.params {
		param := p.public + " " + csIdent(p.name)
		if p.byRef {
			param = "ref " + param
		}
		params = append(params, param)
	}
	return strings.Join(params, ", ")
}

// method renders the C# wrapper method
func (b *bound) method() string {
	var s strings.Builder
	mods := "public "
	if b.static {
		mods += "static "
	}
	fmt.Fprintf(&s, "%s%s %s(%s)\n{\n", mods, b.result.public, csIdent(b.member), b.publicParams())
	if b.result.void() {
		fmt.Fprintf(&s, "    %s;\n", b.nativeCall("Handle"))
	} else {
		fmt.Fprintf(&s, "    return %s;\n", b.nativeCall("Handle"))
	}
	s.WriteString("}\n")
	return s.String()
}

// overloads numbers shim symbols when a name has more than one overload
func overloads[T any](items []T, name func(T) string) []string {
	total := map[string]int{}
	for _, it := range items {
		total[name(it)]++
	}
	seen := map[string]int{}
	out := make([]string, len(items))
	for i, it := range items {
		n := name(it)
		if total[n] > 1 && seen[n] > 0 {
			out[i] = fmt.Sprintf("_%d", seen[n])
		}
		seen[n]++
	}
	return out
}
