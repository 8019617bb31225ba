package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cxxbind/cache"
	"github.com/teranos/cxxbind/errors"
)

const pingXML = `<GCC_XML>
  <Namespace id="_1" name="::"/>
  <Function id="_2" name="ping" returns="_3" context="_1" file="f1" line="1"/>
  <FundamentalType id="_3" name="void"/>
  <File id="f1" name="ping.h"/>
</GCC_XML>`

type fakeFrontend struct {
	calls   int
	sources []string
	xml     string
	err     error
}

func (f *fakeFrontend) Run(_ context.Context, _ string, source []byte) ([]byte, error) {
	f.calls++
	f.sources = append(f.sources, string(source))
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.xml), nil
}

func writeHeader(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestSource(t *testing.T) {
	assert.Equal(t, "#include \"shape.h\"\n", string(Source("shape.h", "")))
	assert.Equal(t, "#include \"shape.h\"\ntypedef Box<int> Box_int;\n", string(Source("shape.h", "typedef Box<int> Box_int;")))
}

func newTool(t *testing.T, command, flags, outputFlag string, includes, defines []string, timeout time.Duration) *Tool {
	t.Helper()
	tool, err := NewTool(command, flags, outputFlag, includes, defines, timeout, nil)
	require.NoError(t, err)
	return tool
}

func TestToolArgs(t *testing.T) {
	tool := newTool(t, "castxml", `--castxml-gccxml -std=c++17 "-DNAME=a b"`, "-o", []string{"include"}, []string{"NDEBUG"}, 0)
	assert.Equal(t, []string{
		"--castxml-gccxml", "-std=c++17", "-DNAME=a b",
		"-Iinclude", "-DNDEBUG", "tmp.cpp", "-o", "tmp.xml",
	}, tool.Args("tmp.cpp", "tmp.xml"))

	gccxml := newTool(t, "gccxml", "", "-fxml=", nil, nil, 0)
	assert.Equal(t, []string{"tmp.cpp", "-fxml=tmp.xml"}, gccxml.Args("tmp.cpp", "tmp.xml"))
}

func TestNewToolRejectsUnbalancedQuotes(t *testing.T) {
	tool, err := NewTool("castxml", `--flag "oops`, "", nil, nil, 0, nil)
	require.Error(t, err)
	assert.Nil(t, tool)
	assert.Contains(t, err.Error(), "parser.flags")
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestToolRunMissingCommand(t *testing.T) {
	tool := newTool(t, "cxxbind-no-such-frontend", "", "-o", nil, nil, time.Second)
	_, err := tool.Run(context.Background(), "shape.h", Source("shape.h", ""))
	require.Error(t, err)
	assert.True(t, errors.IsParseError(err))
	assert.Contains(t, err.Error(), "shape.h")
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestToolRunWithScript(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("needs /bin/sh")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "frontend.sh")
	// Writes the source it was given as the output, proving the argument order
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\neval last=\\${$#}\ncp \"$1\" \"$last\"\n"), 0o755))

	tool := newTool(t, script, "", "-o", nil, nil, 5*time.Second)
	out, err := tool.Run(context.Background(), "shape.h", []byte("#include \"shape.h\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "#include \"shape.h\"\n", string(out))
}

func TestParseRunsFrontendOnceWithMemoryCache(t *testing.T) {
	dir := t.TempDir()
	header := writeHeader(t, dir, "ping.h", "void ping();")
	fe := &fakeFrontend{xml: pingXML}
	p, err := New(fe, Options{}, nil)
	require.NoError(t, err)
	defer p.Close()

	set, parsed, err := p.Parse(context.Background(), header, "ping.yaml", "")
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
	assert.False(t, parsed.FromCache)
	assert.Equal(t, header, parsed.Path)

	again, parsed2, err := p.Parse(context.Background(), header, "ping.yaml", "")
	require.NoError(t, err)
	assert.True(t, parsed2.FromCache)
	assert.Equal(t, 1, fe.calls)
	assert.NotSame(t, set, again, "every parse decodes a fresh set")

	_, _, err = p.Parse(context.Background(), header, "ping.yaml", "typedef int Int;")
	require.NoError(t, err)
	assert.Equal(t, 2, fe.calls, "a different tail is a different unit")
	assert.Equal(t, "#include \""+header+"\"\ntypedef int Int;\n", fe.sources[1])
}

func TestParseUsesCacheFileAcrossParsers(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	header := writeHeader(t, dir, "ping.h", "void ping();")
	ctx := context.Background()

	fe := &fakeFrontend{xml: pingXML}
	first, err := New(fe, Options{CacheDir: cacheDir}, nil)
	require.NoError(t, err)
	_, parsed, err := first.Parse(ctx, header, "ping.yaml", "")
	require.NoError(t, err)
	assert.False(t, parsed.FromCache)
	require.NoError(t, first.Close())
	assert.FileExists(t, cache.FileFor(cacheDir, "ping.yaml"))

	second, err := New(fe, Options{CacheDir: cacheDir}, nil)
	require.NoError(t, err)
	defer second.Close()
	set, parsed, err := second.Parse(ctx, header, "ping.yaml", "")
	require.NoError(t, err)
	assert.True(t, parsed.FromCache)
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, 1, fe.calls)

	// Editing the header invalidates the entry
	time.Sleep(10 * time.Millisecond)
	writeHeader(t, dir, "ping.h", "void ping(int);")
	_, parsed, err = second.Parse(ctx, header, "ping.yaml", "")
	require.NoError(t, err)
	assert.False(t, parsed.FromCache)
	assert.Equal(t, 2, fe.calls)
}

func TestCreateCache(t *testing.T) {
	dir := t.TempDir()
	header := writeHeader(t, dir, "ping.h", "void ping();")
	ctx := context.Background()
	fe := &fakeFrontend{xml: pingXML}

	p, err := New(fe, Options{CacheDir: filepath.Join(dir, "cache")}, nil)
	require.NoError(t, err)
	defer p.Close()

	set, err := p.ParseWithGCCXML(ctx, header, "")
	require.NoError(t, err)
	_, err = p.ParseWithGCCXML(ctx, header, "")
	require.NoError(t, err)
	assert.Equal(t, 2, fe.calls, "cache creation always reparses")

	path, err := p.CreateCache(ctx, header, "ping.yaml", "", set)
	require.NoError(t, err)
	assert.Equal(t, cache.FileFor(filepath.Join(dir, "cache"), "ping.yaml"), path)
	assert.Equal(t, 2, fe.calls, "output is reused from memory")

	noDir, err := New(fe, Options{}, nil)
	require.NoError(t, err)
	_, err = noDir.CreateCache(ctx, header, "ping.yaml", "", set)
	assert.True(t, errors.IsUsageError(err))
}

func TestSameNamedInterfacesKeepSeparateCaches(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	header := writeHeader(t, dir, "ping.h", "void ping();")
	ifaceA := filepath.Join(dir, "a", "shapes.yaml")
	ifaceB := filepath.Join(dir, "b", "shapes.yaml")
	ctx := context.Background()

	fe := &fakeFrontend{xml: pingXML}
	p, err := New(fe, Options{CacheDir: cacheDir}, nil)
	require.NoError(t, err)
	setA, err := p.ParseWithGCCXML(ctx, header, "typedef int A;")
	require.NoError(t, err)
	pathA, err := p.CreateCache(ctx, header, ifaceA, "typedef int A;", setA)
	require.NoError(t, err)
	setB, err := p.ParseWithGCCXML(ctx, header, "typedef int B;")
	require.NoError(t, err)
	pathB, err := p.CreateCache(ctx, header, ifaceB, "typedef int B;", setB)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	assert.NotEqual(t, pathA, pathB)

	fresh := &fakeFrontend{xml: pingXML}
	again, err := New(fresh, Options{CacheDir: cacheDir}, nil)
	require.NoError(t, err)
	defer again.Close()
	for iface, tail := range map[string]string{ifaceA: "typedef int A;", ifaceB: "typedef int B;"} {
		_, parsed, err := again.Parse(ctx, header, iface, tail)
		require.NoError(t, err)
		assert.True(t, parsed.FromCache, iface)
	}
	assert.Zero(t, fresh.calls)
}

func TestParseErrors(t *testing.T) {
	dir := t.TempDir()
	header := writeHeader(t, dir, "ping.h", "void ping();")

	fe := &fakeFrontend{err: errors.WrapParse(errors.New("exit status 1"), header)}
	p, err := New(fe, Options{}, nil)
	require.NoError(t, err)
	_, _, err = p.Parse(context.Background(), header, "ping.yaml", "")
	assert.True(t, errors.IsParseError(err))

	bad := &fakeFrontend{xml: "<GCC_XML><oops"}
	p, err = New(bad, Options{}, nil)
	require.NoError(t, err)
	_, _, err = p.Parse(context.Background(), header, "ping.yaml", "")
	assert.True(t, errors.IsParseError(err))
}

func TestDebugDump(t *testing.T) {
	dir := t.TempDir()
	header := writeHeader(t, dir, "ping.h", "void ping();")
	p, err := New(&fakeFrontend{xml: pingXML}, Options{DebugDir: dir}, nil)
	require.NoError(t, err)

	_, err = p.ParseWithGCCXML(context.Background(), header, "")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "ping.xml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<GCC_XML>"))
}

func TestHeaderLookupThroughIncludes(t *testing.T) {
	dir := t.TempDir()
	writeHeader(t, dir, "ping.h", "void ping();")
	p, err := New(&fakeFrontend{xml: pingXML}, Options{Includes: []string{dir}}, nil)
	require.NoError(t, err)

	found, path, err := p.key("ping.h", "")
	require.NoError(t, err)
	assert.Equal(t, cache.Digest([]byte("void ping();")), found.HeaderDigest)
	assert.Equal(t, filepath.ToSlash(filepath.Join(dir, "ping.h")), path)

	system, path, err := p.key("vector", "")
	require.NoError(t, err)
	assert.Equal(t, cache.Digest([]byte("vector")), system.HeaderDigest)
	assert.Equal(t, "vector", path, "unresolved headers are left to the compiler's search path")
}

func TestRelativeHeaderCompiledByAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	writeHeader(t, dir, "shape.h", "struct Shape {};")
	t.Chdir(dir)
	wd, err := os.Getwd()
	require.NoError(t, err)

	fe := &fakeFrontend{xml: pingXML}
	p, err := New(fe, Options{}, nil)
	require.NoError(t, err)
	defer p.Close()

	_, parsed, err := p.Parse(context.Background(), "shape.h", "shapes.yaml", "")
	require.NoError(t, err)
	assert.Equal(t, "shape.h", parsed.Path)
	assert.Equal(t, cache.Digest([]byte("struct Shape {};")), parsed.Digest)
	require.Len(t, fe.sources, 1)
	assert.Equal(t, "#include \""+filepath.ToSlash(filepath.Join(wd, "shape.h"))+"\"\n", fe.sources[0])
}

func TestHashedHeaderIsTheCompiledHeader(t *testing.T) {
	dir := t.TempDir()
	include := filepath.Join(dir, "include")
	require.NoError(t, os.MkdirAll(include, 0o755))
	writeHeader(t, dir, "shape.h", "struct Local {};")
	writeHeader(t, include, "shape.h", "struct Installed {};")
	t.Chdir(dir)
	wd, err := os.Getwd()
	require.NoError(t, err)

	fe := &fakeFrontend{xml: pingXML}
	p, err := New(fe, Options{Includes: []string{include}}, nil)
	require.NoError(t, err)
	defer p.Close()

	_, parsed, err := p.Parse(context.Background(), "shape.h", "shapes.yaml", "")
	require.NoError(t, err)
	assert.Equal(t, cache.Digest([]byte("struct Local {};")), parsed.Digest)
	assert.Contains(t, fe.sources[0], filepath.ToSlash(filepath.Join(wd, "shape.h")))
}

func TestToolFindsRelativeHeaderWithoutIncludes(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("needs /bin/sh")
	}
	dir := t.TempDir()
	// Like a compiler, resolves quoted includes next to the translation unit
	script := writeHeader(t, dir, "frontend.sh", `#!/bin/sh
eval last=\${$#}
cd "$(dirname "$1")" || exit 1
header=$(sed -n 's/^#include "\(.*\)"$/\1/p' "$1")
cat "$header" > "$last"
`)
	require.NoError(t, os.Chmod(script, 0o755))
	writeHeader(t, dir, "ping.h", pingXML)
	t.Chdir(dir)

	p, err := New(newTool(t, script, "", "-o", nil, nil, 5*time.Second), Options{}, nil)
	require.NoError(t, err)
	defer p.Close()

	set, _, err := p.Parse(context.Background(), "ping.h", "ping.yaml", "")
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
}
