package decl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeNames(t *testing.T) {
	c := &Class{Scope: Scope{Namespace: []string{"geom"}, Path: []string{"Shape", "Edge"}}}

	assert.Equal(t, "geom::Shape::Edge", c.FullName())
	assert.Equal(t, []string{"geom", "Shape", "Edge"}, c.FullNameAbstract())
	assert.Equal(t, []string{"Shape", "Edge"}, c.Name())
	assert.Equal(t, "Edge", c.Short())
	assert.Equal(t, KindClass, c.Kind())
	assert.Equal(t, "class", c.Kind().String())
}

func TestSplitScope(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"int", []string{"int"}},
		{"::geom::Shape", []string{"geom", "Shape"}},
		{"std::basic_string<char, std::char_traits<char>, std::allocator<char> >",
			[]string{"std", "basic_string<char, std::char_traits<char>, std::allocator<char> >"}},
		{"std::map<int, ns::V>::iterator", []string{"std", "map<int, ns::V>", "iterator"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitScope(tt.in))
		})
	}
}

func TestTypeString(t *testing.T) {
	ty := NewType("geom::Shape")
	ty.Const = true
	ty.Suffix = "&"
	assert.Equal(t, "const geom::Shape&", ty.String())
	assert.False(t, ty.IsVoid())

	void := &Type{Scope: Scope{Path: []string{"void"}}, Fundamental: true}
	assert.True(t, void.IsVoid())
	ptr := void.Clone()
	ptr.Suffix = "*"
	assert.False(t, ptr.IsVoid())
	assert.Equal(t, "void", void.String(), "clone must not alias the original")
}

func TestClassMembers(t *testing.T) {
	ctor := &Function{Role: Constructor}
	m := &Function{Role: Method}
	f := &Variable{}
	c := &Class{Members: []Declaration{ctor, m, f}}

	assert.Equal(t, []*Function{ctor}, c.Methods(Constructor))
	assert.Equal(t, []*Function{m}, c.Methods(Method))
	assert.Equal(t, []*Variable{f}, c.Fields())
}

func TestSetLookup(t *testing.T) {
	shape := &Class{Scope: Scope{Namespace: []string{"geom"}, Path: []string{"Shape"}, Loc: Location{File: "/src/include/shape.h", Line: 3}}}
	area := &Function{Scope: Scope{Namespace: []string{"geom"}, Path: []string{"area"}, Loc: Location{File: "/src/include/shape.h", Line: 9}}}
	other := &Enum{Scope: Scope{Path: []string{"Color"}, Loc: Location{File: "/src/include/color.h", Line: 1}}}
	alias := &Typedef{Scope: Scope{Path: []string{"ShapeRef"}}, Type: &Type{Scope: shape.Scope, Decl: shape}}
	s := NewSet([]Declaration{shape, area, other, alias})

	assert.Equal(t, 4, s.Len())
	assert.Same(t, shape, s.Find("geom::Shape"))
	assert.Nil(t, s.Find("geom::Circle"))
	assert.Nil(t, s.FindKind("geom::Shape", KindEnum))
	assert.Same(t, area, s.FindKind("geom::area", KindFunction))
	assert.Equal(t, []Declaration{shape, area}, s.InFile("include/shape.h"))
	assert.Equal(t, []Declaration{other}, s.InFile("/src/include/color.h"))
	assert.Empty(t, s.InFile("shape.hpp"))
	assert.Equal(t, []*Typedef{alias}, s.Typedefs())
}

func TestSetRelease(t *testing.T) {
	shape := &Class{Scope: Scope{Path: []string{"Shape"}}}
	self := &Type{Scope: shape.Scope, Decl: shape, Suffix: "*"}
	clone := &Function{Role: Method, Result: self, Params: []Param{{Name: "other", Type: self.Clone()}}}
	shape.Members = []Declaration{clone}
	shape.Bases = []*Type{{Decl: shape}}
	alias := &Typedef{Type: &Type{Decl: shape}}

	s := NewSet([]Declaration{shape, alias})
	s.Release()

	require.True(t, s.Released())
	assert.Zero(t, s.Len())
	assert.Nil(t, shape.Members)
	assert.Nil(t, shape.Bases)
	assert.Nil(t, clone.Result.Decl)
	assert.Nil(t, clone.Params[0].Type.Decl)
	assert.Nil(t, alias.Type.Decl)

	assert.NotPanics(t, s.Release, "release is idempotent")
	var nilSet *Set
	assert.NotPanics(t, nilSet.Release)
	assert.Nil(t, nilSet.Find("x"))
}
