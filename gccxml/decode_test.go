package gccxml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cxxbind/decl"
)

const shapesXML = `<?xml version="1.0"?>
<GCC_XML version="0.9.0" cvs_revision="1.140">
  <Namespace id="_1" name="::" members="_2 _3" mangled="_Z2::"/>
  <Namespace id="_2" name="geom" context="_1" members="_4 _5 _6 _7 _8 _9"/>
  <Namespace id="_3" name="std" context="_1" members="_30"/>
  <Namespace id="_31" name="__cxx11" context="_3" members="_30"/>
  <Class id="_4" name="Shape" context="_2" abstract="1" file="f1" line="10" members="_10 _11 _12 _13 _14 _15" bases=""/>
  <Class id="_5" name="Circle" context="_2" file="f1" line="30" members="_16" bases="_4">
    <Base type="_4" access="public" virtual="0" offset="0"/>
  </Class>
  <Constructor id="_10" name="Shape" context="_4" access="public" file="f1" line="12">
    <Argument name="name" type="_40" location="f1:12" file="f1" line="12"/>
  </Constructor>
  <Destructor id="_11" name="Shape" context="_4" access="public" virtual="1" file="f1" line="13"/>
  <Method id="_12" name="area" returns="_20" context="_4" access="public" const="1" virtual="1" pure_virtual="1" file="f1" line="14"/>
  <Method id="_13" name="operator=" returns="_41" context="_4" access="public" artificial="1" file="f1" line="10">
    <Argument type="_42"/>
  </Method>
  <Field id="_14" name="id_" type="_21" context="_4" access="private" file="f1" line="20"/>
  <Enumeration id="_15" name="Kind" context="_4" access="public" file="f1" line="16">
    <EnumValue name="Round" init="0"/>
    <EnumValue name="Square" init="4"/>
  </Enumeration>
  <Constructor id="_16" name="Circle" context="_5" access="public" artificial="1" file="f1" line="30"/>
  <Function id="_6" name="scale" returns="_43" context="_2" file="f1" line="40">
    <Argument name="shape" type="_44"/>
    <Argument type="_20"/>
  </Function>
  <Typedef id="_7" name="ShapePtr" type="_43" context="_2" file="f1" line="42"/>
  <Variable id="_8" name="unit" type="_45" context="_2" file="f1" line="44"/>
  <Function id="_9" name="__builtin_thing" returns="_21" context="_2" file="f0" line="1"/>
  <Class id="_30" name="basic_string&lt;char, std::char_traits&lt;char&gt;, std::allocator&lt;char&gt; &gt;" context="_31" file="f2" line="100" members=""/>
  <FundamentalType id="_20" name="double"/>
  <FundamentalType id="_21" name="int"/>
  <CvQualifiedType id="_46" type="_30" const="1"/>
  <ReferenceType id="_40" type="_46"/>
  <ReferenceType id="_41" type="_4"/>
  <ReferenceType id="_42" type="_4c"/>
  <PointerType id="_43" type="_4"/>
  <ReferenceType id="_44" type="_4"/>
  <CvQualifiedType id="_45" type="_20" const="1"/>
  <File id="f0" name="&lt;builtin&gt;"/>
  <File id="f1" name="/src/include/shape.h"/>
  <File id="f2" name="/usr/include/c++/13/bits/basic_string.h"/>
</GCC_XML>
`

func TestDecode(t *testing.T) {
	set, err := Decode([]byte(shapesXML))
	require.NoError(t, err)

	var names []string
	for _, d := range set.Decls {
		names = append(names, d.FullName())
	}
	// Sorted by file then line; builtins dropped; std::__cxx11 elided
	assert.Equal(t, []string{
		"geom::Shape",
		"geom::Shape::Kind",
		"geom::Circle",
		"geom::scale",
		"geom::ShapePtr",
		"geom::unit",
		"std::basic_string<char, std::char_traits<char>, std::allocator<char> >",
	}, names)
}

func TestDecodeClass(t *testing.T) {
	set, err := Decode([]byte(shapesXML))
	require.NoError(t, err)

	shape, ok := set.Find("geom::Shape").(*decl.Class)
	require.True(t, ok)
	assert.True(t, shape.Abstract)
	assert.Equal(t, decl.Location{File: "/src/include/shape.h", Line: 10}, shape.Location())

	ctors := shape.Methods(decl.Constructor)
	require.Len(t, ctors, 1)
	require.Len(t, ctors[0].Params, 1)
	param := ctors[0].Params[0]
	assert.Equal(t, "name", param.Name)
	assert.Equal(t, "const std::basic_string<char, std::char_traits<char>, std::allocator<char> >&", param.Type.String())
	assert.True(t, param.Type.IsConst())

	dtors := shape.Methods(decl.Destructor)
	require.Len(t, dtors, 1)
	assert.Equal(t, "geom::Shape::~Shape", dtors[0].FullName())
	assert.True(t, dtors[0].Virtual)

	methods := shape.Methods(decl.Method)
	require.Len(t, methods, 1, "artificial operator= is dropped")
	area := methods[0]
	assert.Equal(t, "geom::Shape::area", area.FullName())
	assert.Equal(t, []string{"Shape", "area"}, area.Name())
	assert.True(t, area.IsConst())
	assert.True(t, area.PureVirtual)
	assert.Equal(t, "double", area.Result.String())

	fields := shape.Fields()
	require.Len(t, fields, 1)
	assert.Equal(t, decl.Private, fields[0].Access)

	circle := set.Find("geom::Circle").(*decl.Class)
	require.Len(t, circle.Bases, 1)
	assert.Same(t, shape, circle.Bases[0].Decl)
	assert.Len(t, circle.Methods(decl.Constructor), 1, "artificial default constructor is kept")
}

func TestDecodeFunctionsAndTypes(t *testing.T) {
	set, err := Decode([]byte(shapesXML))
	require.NoError(t, err)

	scale := set.FindKind("geom::scale", decl.KindFunction).(*decl.Function)
	assert.Equal(t, decl.Free, scale.Role)
	assert.Equal(t, "geom::Shape*", scale.Result.String())
	require.Len(t, scale.Params, 2)
	assert.Equal(t, "geom::Shape&", scale.Params[0].Type.String())
	assert.Equal(t, "arg1", scale.Params[1].Name, "unnamed arguments get positional names")

	alias := set.FindKind("geom::ShapePtr", decl.KindTypedef).(*decl.Typedef)
	assert.Equal(t, "geom::Shape", alias.Type.FullName())
	assert.Equal(t, "*", alias.Type.Suffix)

	unit := set.FindKind("geom::unit", decl.KindVariable).(*decl.Variable)
	assert.Equal(t, "const double", unit.Type.String())

	kind := set.Find("geom::Shape::Kind").(*decl.Enum)
	assert.Equal(t, []decl.EnumValue{{Name: "Round", Value: 0}, {Name: "Square", Value: 4}}, kind.Values)
}

func TestDecodeReturnsFreshSets(t *testing.T) {
	a, err := Decode([]byte(shapesXML))
	require.NoError(t, err)
	b, err := Decode([]byte(shapesXML))
	require.NoError(t, err)

	a.Release()
	assert.Zero(t, a.Len())
	circle := b.Find("geom::Circle").(*decl.Class)
	assert.NotNil(t, circle.Bases[0].Decl, "releasing one set leaves the other intact")
}

func TestDecodeCastXMLRoot(t *testing.T) {
	set, err := Decode([]byte(`<CastXML format="1.1.0">
  <Namespace id="_1" name="::"/>
  <Function id="_2" name="ping" returns="_3" context="_1" file="f1" line="1"/>
  <FundamentalType id="_3" name="void"/>
  <File id="f1" name="ping.h"/>
</CastXML>`))
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	fn := set.Decls[0].(*decl.Function)
	assert.Equal(t, "ping", fn.FullName())
	assert.True(t, fn.Result.IsVoid())
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte("<GCC_XML><Function"))
	require.Error(t, err)

	_, err = Decode([]byte(`<GCC_XML><Namespace id="_1" name="::"/><Typedef id="_2" name="T" context="_1" file="f" line="1"/></GCC_XML>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "typedef T")
}
