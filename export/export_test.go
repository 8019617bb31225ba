package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cxxbind/decl"
	"github.com/teranos/cxxbind/errors"
)

type recordingSink struct {
	writes []string
}

func (s *recordingSink) Module() string { return "shapes" }

func (s *recordingSink) Write(lang Language, section Section, code string) {
	s.writes = append(s.writes, string(lang)+"/"+string(section)+": "+code)
}

type emitFunc func(d *Descriptor, sink Sink, names Names) error

func (f emitFunc) Emit(d *Descriptor, sink Sink, names Names) error { return f(d, sink, names) }

func TestAggregate(t *testing.T) {
	descs := []*Descriptor{
		{Interface: "I", Header: "H", Name: "a", Tail: "a"},
		{Interface: "I", Header: "H", Name: "b"},
		{Interface: "J", Header: "H", Name: "c", Tail: "c"},
		{Interface: "I", Header: "", Name: "#include <x>", Tail: "ignored"},
		{Interface: "I", Header: "H", Name: "d", Tail: "b"},
	}

	tails := Aggregate(descs)
	require.Equal(t, 2, tails.Len())

	got, ok := tails.Get("I", "H")
	require.True(t, ok)
	assert.Equal(t, "a\n\nb", got, "empty tails still contribute a separator")

	got, ok = tails.Get("J", "H")
	require.True(t, ok)
	assert.Equal(t, "c", got)

	_, ok = tails.Get("I", "")
	assert.False(t, ok, "headerless descriptors are not cache units")

	assert.Equal(t, []TailKey{{"I", "H"}, {"J", "H"}}, tails.Keys())
	assert.Equal(t, []string{"H"}, tails.ForInterface("J"))
}

func TestAggregateIsDeterministic(t *testing.T) {
	descs := []*Descriptor{
		{Interface: "b.yaml", Header: "y.h", Tail: "1"},
		{Interface: "a.yaml", Header: "x.h", Tail: "2"},
		{Interface: "b.yaml", Header: "y.h", Tail: "3"},
	}
	first := Aggregate(descs)
	for i := 0; i < 20; i++ {
		again := Aggregate(descs)
		assert.Equal(t, first.Keys(), again.Keys())
		got, _ := again.Get("b.yaml", "y.h")
		assert.Equal(t, "1\n3", got)
	}
}

func TestOrder(t *testing.T) {
	counts := map[string]int{"a.yaml": 1, "b.yaml": 3, "c.yaml": 1, "d.yaml": 2}
	got := Order([]string{"c.yaml", "a.yaml", "d.yaml", "b.yaml"}, counts)
	assert.Equal(t, []string{"b.yaml", "d.yaml", "a.yaml", "c.yaml"}, got)

	// Input is not modified
	in := []string{"x", "y"}
	Order(in, map[string]int{"y": 5})
	assert.Equal(t, []string{"x", "y"}, in)
}

func TestGroupByInterface(t *testing.T) {
	a1 := &Descriptor{Interface: "a", Name: "1"}
	b1 := &Descriptor{Interface: "b", Name: "1"}
	a2 := &Descriptor{Interface: "a", Name: "2"}
	x := &Descriptor{Interface: "stray", Name: "x"}

	got := GroupByInterface([]*Descriptor{a1, x, b1, a2}, []string{"b", "a"})
	assert.Equal(t, []*Descriptor{b1, a1, a2, x}, got)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	added, err := r.Add(&Descriptor{Interface: "a", Kind: KindFunction, Name: "f"})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = r.Add(&Descriptor{Interface: "a", Kind: KindFunction, Name: "f"})
	require.NoError(t, err)
	assert.False(t, added, "same interface, kind and name is a duplicate")

	added, err = r.Add(&Descriptor{Interface: "a", Kind: KindEnum, Name: "f"})
	require.NoError(t, err)
	assert.True(t, added)
	added, err = r.Add(&Descriptor{Interface: "b", Kind: KindFunction, Name: "f"})
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 3, r.Len())

	snapshot := r.Descriptors()
	snapshot[0] = nil
	assert.NotNil(t, r.Descriptors()[0], "snapshot is a copy")

	descs, err := r.Detach()
	require.NoError(t, err)
	assert.Len(t, descs, 3)
	assert.True(t, r.Detached())
	assert.Zero(t, r.Len())

	_, err = r.Add(&Descriptor{Interface: "c", Kind: KindVar, Name: "v"})
	assert.True(t, errors.Is(err, errors.ErrRegistryDetached))
	_, err = r.Detach()
	assert.True(t, errors.Is(err, errors.ErrRegistryDetached))
}

func TestDescriptorGenerateCode(t *testing.T) {
	sink := &recordingSink{}
	d := &Descriptor{
		Kind: KindCode,
		Name: "#include <vector>",
		Emitter: emitFunc(func(d *Descriptor, sink Sink, names Names) error {
			sink.Write(CPlusPlus, SectionInclude, d.Name)
			return nil
		}),
	}
	require.NoError(t, d.GenerateCode(sink, NewNames()))
	assert.Equal(t, []string{"cxx/include: #include <vector>"}, sink.writes)

	failing := &Descriptor{Kind: KindFunction, Name: "f", Emitter: emitFunc(func(*Descriptor, Sink, Names) error {
		return errors.New("boom")
	})}
	err := failing.GenerateCode(sink, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate function f: boom")

	err = (&Descriptor{Kind: KindEnum, Name: "E"}).GenerateCode(sink, nil)
	assert.Contains(t, err.Error(), "no emitter")
}

func TestDescriptorRelease(t *testing.T) {
	cls := &decl.Class{Scope: decl.Scope{Path: []string{"C"}}}
	set := decl.NewSet([]decl.Declaration{cls})
	d := &Descriptor{}
	d.Attach(set, &ParsedHeader{Path: "c.h"})

	d.Release()
	assert.Nil(t, d.Declarations)
	assert.Nil(t, d.ParsedHeader)
	assert.True(t, set.Released())

	assert.NotPanics(t, d.Release, "headerless descriptors release cleanly")
}

func TestNames(t *testing.T) {
	n := NewNames("ns::Foo")
	n.Add("ns::Bar")
	n.Add("ns::Foo")
	assert.True(t, n.Has("ns::Bar"))
	assert.False(t, n.Has("ns::Baz"))
	assert.Equal(t, []string{"ns::Bar", "ns::Foo"}, n.Keys())
}

func TestInfoExcluded(t *testing.T) {
	info := Info{Exclude: []string{"area", "clone"}}
	assert.True(t, info.Excluded("clone"))
	assert.False(t, info.Excluded("name"))
}
