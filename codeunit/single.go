package codeunit

import (
	"os"
	"path/filepath"

	"github.com/teranos/cxxbind/errors"
	"github.com/teranos/cxxbind/export"
	"github.com/teranos/cxxbind/naming"
)

// Single writes the whole module to one C++ file and one C# file
type Single struct {
	module    string
	cxxPath   string
	csPath    string
	namespace string

	includes includeSet
	buf      *buffer
}

// NewSingle returns a unit writing to cxxPath and csPath. namespace wraps
// the C# declarations when set.
func NewSingle(module, cxxPath, csPath, namespace string) *Single {
	return &Single{
		module:    module,
		cxxPath:   cxxPath,
		csPath:    csPath,
		namespace: namespace,
		buf:       newBuffer(),
	}
}

func (s *Single) Module() string { return s.module }

// SetCurrent is a no-op; every export goes to the same files
func (s *Single) SetCurrent(*export.Descriptor) {}

func (s *Single) Write(lang export.Language, section export.Section, code string) {
	if lang == export.CPlusPlus && section == export.SectionInclude {
		s.includes.add(code)
		return
	}
	s.buf.add(lang, section, code)
}

// Save writes both files
func (s *Single) Save() ([]string, error) {
	init := "CXXBIND_API void " + naming.Identifier([]string{s.module}) + "_init()"
	files := map[string]string{
		s.cxxPath: renderCxx(s.includes.lines, s.buf, init),
		s.csPath:  renderCSharp(s.namespace, s.buf),
	}
	written := []string{s.cxxPath, s.csPath}
	for _, path := range written {
		if err := writeFile(path, files[path]); err != nil {
			return nil, err
		}
	}
	return written, nil
}

func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "failed to create output directory")
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
