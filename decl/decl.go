// Package decl is the declaration model decoded from the C++ front end.
//
// Nodes are scoped by namespace and by enclosing class. Types keep a
// reference back to the declaration they name, so a Set is a graph, not a
// tree; Set.Release severs those references once a header's declarations are
// no longer needed.
package decl

import (
	"strings"
)

// Kind identifies the node type of a Declaration
type Kind int

const (
	KindClass Kind = iota
	KindFunction
	KindEnum
	KindTypedef
	KindVariable
	KindType
)

var kindNames = [...]string{"class", "function", "enum", "typedef", "variable", "type"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Location is where a declaration appears in the parsed sources
type Location struct {
	File string
	Line int
}

// Declaration is a named node of a Set
type Declaration interface {
	Kind() Kind
	// FullName is the C++ spelling, e.g. "geom::Shape::Kind"
	FullName() string
	// FullNameAbstract lists every scope segment, namespaces included
	FullNameAbstract() []string
	// Name lists the segments below the innermost namespace
	Name() []string
	IsConst() bool
	Location() Location
}

// Scope is embedded by every node. Namespace holds the enclosing namespaces
// (outermost first); Path holds the enclosing classes followed by the
// node's own name.
type Scope struct {
	Namespace []string
	Path      []string
	Const     bool
	Loc       Location
}

func (s *Scope) FullNameAbstract() []string {
	full := make([]string, 0, len(s.Namespace)+len(s.Path))
	full = append(full, s.Namespace...)
	return append(full, s.Path...)
}

func (s *Scope) FullName() string {
	return strings.Join(s.FullNameAbstract(), "::")
}

func (s *Scope) Name() []string { return s.Path }

func (s *Scope) IsConst() bool { return s.Const }

func (s *Scope) Location() Location { return s.Loc }

// Short returns the innermost segment
func (s *Scope) Short() string {
	if len(s.Path) == 0 {
		return ""
	}
	return s.Path[len(s.Path)-1]
}

// Access of a class member
type Access string

const (
	Public    Access = "public"
	Protected Access = "protected"
	Private   Access = "private"
)

// Class is a class, struct or union
type Class struct {
	Scope
	Struct     bool
	Abstract   bool
	Incomplete bool
	Bases      []*Type
	Members    []Declaration
}

func (*Class) Kind() Kind { return KindClass }

// Methods returns the member functions with the given role
func (c *Class) Methods(role Role) []*Function {
	var out []*Function
	for _, m := range c.Members {
		if fn, ok := m.(*Function); ok && fn.Role == role {
			out = append(out, fn)
		}
	}
	return out
}

// Fields returns the data members
func (c *Class) Fields() []*Variable {
	var out []*Variable
	for _, m := range c.Members {
		if v, ok := m.(*Variable); ok {
			out = append(out, v)
		}
	}
	return out
}

// Role distinguishes free functions from the kinds of member function
type Role int

const (
	Free Role = iota
	Method
	Constructor
	Destructor
)

// Param is a function parameter
type Param struct {
	Name    string
	Type    *Type
	Default string
}

// Function is a free function or a member function
type Function struct {
	Scope
	Role        Role
	Params      []Param
	Result      *Type // nil for constructors and destructors
	Access      Access
	Static      bool
	Virtual     bool
	PureVirtual bool
	Artificial  bool
}

func (*Function) Kind() Kind { return KindFunction }

// EnumValue is one enumerator
type EnumValue struct {
	Name  string
	Value int64
}

// Enum is an enumeration
type Enum struct {
	Scope
	Values []EnumValue
}

func (*Enum) Kind() Kind { return KindEnum }

// Typedef is an alias; Type is its resolved target
type Typedef struct {
	Scope
	Type *Type
}

func (*Typedef) Kind() Kind { return KindTypedef }

// Variable is a global variable or, inside Class.Members, a field
type Variable struct {
	Scope
	Type   *Type
	Access Access
	Static bool
}

func (*Variable) Kind() Kind { return KindVariable }

// Type is a use of a type. Namespace/Path name the underlying type with
// qualifiers removed; Suffix carries pointer and reference decorations.
type Type struct {
	Scope
	Suffix      string
	Fundamental bool
	Decl        Declaration // the class, enum or typedef named, when known
}

func (*Type) Kind() Kind { return KindType }

// String renders the full C++ spelling including const and suffix
func (t *Type) String() string {
	var b strings.Builder
	if t.Const {
		b.WriteString("const ")
	}
	b.WriteString(t.FullName())
	b.WriteString(t.Suffix)
	return b.String()
}

// IsVoid reports a plain void (not void*)
func (t *Type) IsVoid() bool {
	return t == nil || (t.Fundamental && t.Suffix == "" && t.FullName() == "void")
}

// Clone returns a shallow copy safe to decorate
func (t *Type) Clone() *Type {
	c := *t
	c.Namespace = append([]string(nil), t.Namespace...)
	c.Path = append([]string(nil), t.Path...)
	return &c
}

// NewType builds a type from a C++ spelling such as "std::string" or
// "int". Template arguments are kept inside their segment.
func NewType(spelling string) *Type {
	segments := SplitScope(spelling)
	if len(segments) == 0 {
		return &Type{Fundamental: true, Scope: Scope{Path: []string{"void"}}}
	}
	return &Type{Scope: Scope{
		Namespace: segments[:len(segments)-1],
		Path:      segments[len(segments)-1:],
	}}
}

// SplitScope splits a qualified C++ name on "::" outside template brackets
func SplitScope(name string) []string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "::")
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ':':
			if depth == 0 && i+1 < len(name) && name[i+1] == ':' {
				parts = append(parts, name[start:i])
				start = i + 2
				i++
			}
		}
	}
	if start < len(name) {
		parts = append(parts, name[start:])
	}
	return parts
}
