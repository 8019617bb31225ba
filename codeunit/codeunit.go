// Package codeunit assembles emitted fragments into source files.
//
// Single accumulates everything into one C++ file and one C# file. Multiple
// writes one pair per (interface, export) and can generate the _main.cpp
// that initializes them all.
package codeunit

import (
	"fmt"
	"strings"

	"github.com/teranos/cxxbind/export"
	"github.com/teranos/cxxbind/version"
)

// Unit is an output sink that persists what it accumulates
type Unit interface {
	export.Sink
	// SetCurrent selects the export that subsequent writes belong to
	SetCurrent(d *export.Descriptor)
	// Save writes the accumulated files and returns their paths
	Save() ([]string, error)
}

// apiMacro marks the shims as exported C symbols
const apiMacro = `#if defined(_WIN32)
#define CXXBIND_API extern "C" __declspec(dllexport)
#else
#define CXXBIND_API extern "C" __attribute__((visibility("default")))
#endif
`

const csUsings = "using System;\nusing System.Runtime.InteropServices;\n"

// buffer holds fragments per language and section in write order
type buffer struct {
	sections map[export.Language]map[export.Section][]string
}

func newBuffer() *buffer {
	return &buffer{sections: map[export.Language]map[export.Section][]string{}}
}

func (b *buffer) add(lang export.Language, section export.Section, code string) {
	if b.sections[lang] == nil {
		b.sections[lang] = map[export.Section][]string{}
	}
	b.sections[lang][section] = append(b.sections[lang][section], code)
}

func (b *buffer) get(lang export.Language, section export.Section) []string {
	return b.sections[lang][section]
}

func (b *buffer) has(lang export.Language) bool {
	for _, codes := range b.sections[lang] {
		if len(codes) > 0 {
			return true
		}
	}
	return false
}

// includeSet keeps the first occurrence of each include line
type includeSet struct {
	lines []string
	seen  map[string]bool
}

func (s *includeSet) add(code string) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	key := strings.TrimSpace(code)
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.lines = append(s.lines, key)
}

// renderCxx lays out a C++ file: includes, the export macro, declarations,
// then the module section inside the init function
func renderCxx(includes []string, b *buffer, initSignature string) string {
	var s strings.Builder
	s.WriteString(version.Get().Banner() + "\n")
	for _, inc := range includes {
		s.WriteString(inc + "\n")
	}
	s.WriteString("#include <string>\n\n")
	s.WriteString(apiMacro)
	for _, section := range []export.Section{export.SectionDeclarationOutside, export.SectionDeclaration} {
		for _, code := range b.get(export.CPlusPlus, section) {
			s.WriteString("\n" + strings.TrimRight(code, "\n") + "\n")
		}
	}
	fmt.Fprintf(&s, "\n%s\n{\n", initSignature)
	for _, code := range b.get(export.CPlusPlus, export.SectionModule) {
		s.WriteString(indent(strings.TrimRight(code, "\n") + "\n"))
	}
	s.WriteString("}\n")
	return s.String()
}

// renderCSharp lays out a C# file, wrapping the declarations in namespace
// when one is configured
func renderCSharp(namespace string, b *buffer) string {
	var s strings.Builder
	s.WriteString(version.Get().Banner() + "\n")
	s.WriteString(csUsings)
	for _, code := range b.get(export.CSharp, export.SectionUsing) {
		s.WriteString(strings.TrimRight(code, "\n") + "\n")
	}

	var body strings.Builder
	for i, code := range b.get(export.CSharp, export.SectionDeclaration) {
		if i > 0 {
			body.WriteString("\n")
		}
		body.WriteString(strings.TrimRight(code, "\n") + "\n")
	}
	s.WriteString("\n")
	if namespace == "" {
		s.WriteString(body.String())
		return s.String()
	}
	fmt.Fprintf(&s, "namespace %s\n{\n", namespace)
	s.WriteString(indent(body.String()))
	s.WriteString("}\n")
	return s.String()
}

func indent(text string) string {
	var s strings.Builder
	for _, l := range strings.SplitAfter(text, "\n") {
		if strings.TrimSpace(l) != "" {
			s.WriteString("    ")
		}
		s.WriteString(l)
	}
	return s.String()
}
