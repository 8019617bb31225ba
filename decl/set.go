package decl

import (
	"path/filepath"
)

// Set holds every declaration decoded from one front-end run. Class members
// live under their Class; every other named node is listed in Decls in
// source order.
type Set struct {
	Decls    []Declaration
	released bool
}

// NewSet returns a set over decls
func NewSet(decls []Declaration) *Set {
	return &Set{Decls: decls}
}

// Len returns the number of top-level declarations
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Decls)
}

// Released reports whether Release was called
func (s *Set) Released() bool { return s != nil && s.released }

// Find returns the declaration with the given full name, or nil
func (s *Set) Find(fullName string) Declaration {
	if s == nil {
		return nil
	}
	for _, d := range s.Decls {
		if d.FullName() == fullName {
			return d
		}
	}
	return nil
}

// FindKind returns the declaration with the given full name and kind, or nil
func (s *Set) FindKind(fullName string, kind Kind) Declaration {
	if s == nil {
		return nil
	}
	for _, d := range s.Decls {
		if d.Kind() == kind && d.FullName() == fullName {
			return d
		}
	}
	return nil
}

// InFile returns the declarations located in file. Paths are compared
// after cleaning, and a relative file matches by suffix.
func (s *Set) InFile(file string) []Declaration {
	if s == nil {
		return nil
	}
	want := filepath.ToSlash(filepath.Clean(file))
	var out []Declaration
	for _, d := range s.Decls {
		if sameFile(d.Location().File, want) {
			out = append(out, d)
		}
	}
	return out
}

func sameFile(got, want string) bool {
	got = filepath.ToSlash(filepath.Clean(got))
	if got == want {
		return true
	}
	if !filepath.IsAbs(want) {
		return len(got) > len(want) && got[len(got)-len(want)-1] == '/' && got[len(got)-len(want):] == want
	}
	return false
}

// Typedefs returns every typedef in the set
func (s *Set) Typedefs() []*Typedef {
	if s == nil {
		return nil
	}
	var out []*Typedef
	for _, d := range s.Decls {
		if td, ok := d.(*Typedef); ok {
			out = append(out, td)
		}
	}
	return out
}

// Release drops the set's declarations and breaks the references between
// them so the whole graph becomes unreachable at once. The set is empty
// afterwards.
func (s *Set) Release() {
	if s == nil || s.released {
		return
	}
	for _, d := range s.Decls {
		sever(d)
	}
	s.Decls = nil
	s.released = true
}

func sever(d Declaration) {
	switch n := d.(type) {
	case *Class:
		for _, m := range n.Members {
			sever(m)
		}
		for _, b := range n.Bases {
			b.Decl = nil
		}
		n.Members = nil
		n.Bases = nil
	case *Function:
		for i := range n.Params {
			if n.Params[i].Type != nil {
				n.Params[i].Type.Decl = nil
			}
		}
		if n.Result != nil {
			n.Result.Decl = nil
		}
	case *Typedef:
		if n.Type != nil {
			n.Type.Decl = nil
		}
	case *Variable:
		if n.Type != nil {
			n.Type.Decl = nil
		}
	case *Type:
		n.Decl = nil
	}
}
