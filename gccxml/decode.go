// Package gccxml decodes the XML written by gccxml, or by castxml in
// --castxml-gccxml mode, into a decl.Set.
package gccxml

import (
	"encoding/xml"
	"sort"
	"strconv"
	"strings"

	"github.com/teranos/cxxbind/decl"
	"github.com/teranos/cxxbind/errors"
)

// Decode parses front-end output. Every call returns a new Set; nothing is
// shared between calls.
func Decode(data []byte) (*decl.Set, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode front-end XML")
	}
	d := newDecoder(&doc)
	return d.build()
}

type scopeInfo struct {
	namespace []string
	path      []string
	skip      bool
}

type decoder struct {
	files        map[string]string
	namespaces   map[string]*xmlNamespace
	records      map[string]*xmlRecord
	structs      map[string]bool
	enums        map[string]*xmlEnumeration
	typedefs     map[string]*xmlTyped
	variables    map[string]*xmlTyped
	fields       map[string]*xmlTyped
	members      map[string]*xmlFunction
	roles        map[string]decl.Role
	fundamentals map[string]string
	pointers     map[string]string
	references   map[string]string
	arrays       map[string]string
	elaborated   map[string]string
	cv           map[string]*xmlCvQualified
	funcTypes    map[string]bool

	doc    *document
	scopes map[string]scopeInfo
	nodes  map[string]decl.Declaration
}

func newDecoder(doc *document) *decoder {
	d := &decoder{
		files:        map[string]string{},
		namespaces:   map[string]*xmlNamespace{},
		records:      map[string]*xmlRecord{},
		structs:      map[string]bool{},
		enums:        map[string]*xmlEnumeration{},
		typedefs:     map[string]*xmlTyped{},
		variables:    map[string]*xmlTyped{},
		fields:       map[string]*xmlTyped{},
		members:      map[string]*xmlFunction{},
		roles:        map[string]decl.Role{},
		fundamentals: map[string]string{},
		pointers:     map[string]string{},
		references:   map[string]string{},
		arrays:       map[string]string{},
		elaborated:   map[string]string{},
		cv:           map[string]*xmlCvQualified{},
		funcTypes:    map[string]bool{},
		doc:          doc,
		scopes:       map[string]scopeInfo{},
		nodes:        map[string]decl.Declaration{},
	}
	for i := range doc.Files {
		d.files[doc.Files[i].ID] = doc.Files[i].Name
	}
	for i := range doc.Namespaces {
		d.namespaces[doc.Namespaces[i].ID] = &doc.Namespaces[i]
	}
	for i := range doc.Classes {
		d.records[doc.Classes[i].ID] = &doc.Classes[i]
	}
	for i := range doc.Structs {
		d.records[doc.Structs[i].ID] = &doc.Structs[i]
		d.structs[doc.Structs[i].ID] = true
	}
	for i := range doc.Unions {
		d.records[doc.Unions[i].ID] = &doc.Unions[i]
		d.structs[doc.Unions[i].ID] = true
	}
	for i := range doc.Enumerations {
		d.enums[doc.Enumerations[i].ID] = &doc.Enumerations[i]
	}
	for i := range doc.Typedefs {
		d.typedefs[doc.Typedefs[i].ID] = &doc.Typedefs[i]
	}
	for i := range doc.Variables {
		d.variables[doc.Variables[i].ID] = &doc.Variables[i]
	}
	for i := range doc.Fields {
		d.fields[doc.Fields[i].ID] = &doc.Fields[i]
	}
	for role, list := range map[decl.Role][]xmlFunction{
		decl.Constructor: doc.Constructors,
		decl.Destructor:  doc.Destructors,
		decl.Method:      doc.Methods,
	} {
		for i := range list {
			d.members[list[i].ID] = &list[i]
			d.roles[list[i].ID] = role
		}
	}
	for _, t := range doc.FundamentalTypes {
		d.fundamentals[t.ID] = t.Name
	}
	for _, t := range doc.PointerTypes {
		d.pointers[t.ID] = t.Type
	}
	for _, t := range doc.ReferenceTypes {
		d.references[t.ID] = t.Type
	}
	for _, t := range doc.ArrayTypes {
		d.arrays[t.ID] = t.Type
	}
	for _, t := range doc.ElaboratedTypes {
		d.elaborated[t.ID] = t.Type
	}
	for i := range doc.CvQualifiedTypes {
		d.cv[doc.CvQualifiedTypes[i].ID] = &doc.CvQualifiedTypes[i]
	}
	for _, t := range doc.FunctionTypes {
		d.funcTypes[t.ID] = true
	}
	return d
}

// scope resolves a context id into namespace and class segments.
// Namespaces named "__*" (inline implementation namespaces) are elided.
func (d *decoder) scope(id string) scopeInfo {
	if id == "" {
		return scopeInfo{}
	}
	if s, ok := d.scopes[id]; ok {
		return s
	}
	var s scopeInfo
	if ns, ok := d.namespaces[id]; ok {
		parent := d.scope(ns.Context)
		s = scopeInfo{namespace: parent.namespace, skip: parent.skip}
		if ns.Name != "::" && ns.Name != "" && !strings.HasPrefix(ns.Name, "__") {
			s.namespace = appendCopy(parent.namespace, ns.Name)
		}
		if ns.Name == "" {
			s.skip = true // anonymous namespace
		}
	} else if rec, ok := d.records[id]; ok {
		parent := d.scope(rec.Context)
		s = scopeInfo{
			namespace: parent.namespace,
			path:      appendCopy(parent.path, rec.Name),
			skip:      parent.skip || rec.Name == "",
		}
	}
	d.scopes[id] = s
	return s
}

func appendCopy(base []string, next string) []string {
	out := make([]string, 0, len(base)+1)
	out = append(out, base...)
	return append(out, next)
}

func (d *decoder) located(x *xmlLocated) (decl.Scope, bool) {
	parent := d.scope(x.Context)
	sc := decl.Scope{
		Namespace: parent.namespace,
		Path:      appendCopy(parent.path, x.Name),
		Loc:       decl.Location{File: d.files[x.File], Line: x.Line},
	}
	keep := !parent.skip && x.Name != "" && !strings.HasPrefix(x.Name, "__") &&
		!strings.HasPrefix(sc.Loc.File, "<")
	return sc, keep
}

type entry struct {
	d     decl.Declaration
	order int
}

func (d *decoder) build() (*decl.Set, error) {
	var top []entry
	add := func(id string, n decl.Declaration, keep bool) {
		d.nodes[id] = n
		if keep {
			top = append(top, entry{d: n, order: idOrder(id)})
		}
	}

	// Named nodes first so types can refer to them
	for id, rec := range d.records {
		sc, keep := d.located(&rec.xmlLocated)
		add(id, &decl.Class{
			Scope:      sc,
			Struct:     d.structs[id],
			Abstract:   flag(rec.Abstract),
			Incomplete: flag(rec.Incomplete),
		}, keep)
	}
	for id, en := range d.enums {
		sc, keep := d.located(&en.xmlLocated)
		e := &decl.Enum{Scope: sc}
		for _, v := range en.Values {
			n, _ := strconv.ParseInt(v.Init, 10, 64)
			e.Values = append(e.Values, decl.EnumValue{Name: v.Name, Value: n})
		}
		add(id, e, keep)
	}
	for id, td := range d.typedefs {
		sc, keep := d.located(&td.xmlLocated)
		add(id, &decl.Typedef{Scope: sc}, keep)
	}

	for id, td := range d.typedefs {
		t, err := d.typeOf(td.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "typedef %s", td.Name)
		}
		d.nodes[id].(*decl.Typedef).Type = t
	}
	for id, rec := range d.records {
		if err := d.fillClass(d.nodes[id].(*decl.Class), rec); err != nil {
			return nil, errors.Wrapf(err, "class %s", rec.Name)
		}
	}
	for i := range d.doc.Functions {
		fn := &d.doc.Functions[i]
		sc, keep := d.located(&fn.xmlLocated)
		if !keep {
			continue
		}
		f, err := d.function(fn, decl.Free, sc)
		if err != nil {
			return nil, errors.Wrapf(err, "function %s", fn.Name)
		}
		top = append(top, entry{d: f, order: idOrder(fn.ID)})
	}
	for id, v := range d.variables {
		if _, member := d.records[v.Context]; member {
			continue
		}
		sc, keep := d.located(&v.xmlLocated)
		if !keep {
			continue
		}
		t, err := d.typeOf(v.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "variable %s", v.Name)
		}
		top = append(top, entry{d: &decl.Variable{Scope: sc, Type: t, Access: decl.Public}, order: idOrder(id)})
	}

	sort.SliceStable(top, func(i, j int) bool {
		a, b := top[i].d.Location(), top[j].d.Location()
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return top[i].order < top[j].order
	})
	decls := make([]decl.Declaration, len(top))
	for i, e := range top {
		decls[i] = e.d
	}
	return decl.NewSet(decls), nil
}

func (d *decoder) fillClass(c *decl.Class, rec *xmlRecord) error {
	for _, b := range d.bases(rec) {
		t, err := d.typeOf(b)
		if err != nil {
			return err
		}
		c.Bases = append(c.Bases, t)
	}
	for _, id := range strings.Fields(rec.Members) {
		if fn, ok := d.members[id]; ok {
			role := d.roles[id]
			if flag(fn.Artificial) && !(role == decl.Destructor || (role == decl.Constructor && len(fn.Arguments) == 0)) {
				continue
			}
			sc, _ := d.located(&fn.xmlLocated)
			if role == decl.Destructor {
				sc.Path[len(sc.Path)-1] = "~" + strings.TrimPrefix(fn.Name, "~")
			}
			f, err := d.function(fn, role, sc)
			if err != nil {
				return errors.Wrapf(err, "member %s", fn.Name)
			}
			c.Members = append(c.Members, f)
			continue
		}
		field, ok := d.fields[id]
		static := false
		if !ok {
			field, ok = d.variables[id]
			static = true
		}
		if ok {
			sc, _ := d.located(&field.xmlLocated)
			t, err := d.typeOf(field.Type)
			if err != nil {
				return errors.Wrapf(err, "field %s", field.Name)
			}
			c.Members = append(c.Members, &decl.Variable{Scope: sc, Type: t, Access: access(field.Access), Static: static})
		}
	}
	return nil
}

func (d *decoder) bases(rec *xmlRecord) []string {
	if len(rec.Bases) > 0 {
		var ids []string
		for _, b := range rec.Bases {
			if b.Access == "" || b.Access == "public" {
				ids = append(ids, b.Type)
			}
		}
		return ids
	}
	// gccxml 0.9 lists bases as "[access:]id"
	var ids []string
	for _, b := range strings.Fields(rec.BasesAttr) {
		if i := strings.IndexByte(b, ':'); i >= 0 {
			if b[:i] != "public" {
				continue
			}
			b = b[i+1:]
		}
		ids = append(ids, b)
	}
	return ids
}

func (d *decoder) function(fn *xmlFunction, role decl.Role, sc decl.Scope) (*decl.Function, error) {
	f := &decl.Function{
		Scope:       sc,
		Role:        role,
		Access:      access(fn.Access),
		Static:      flag(fn.Static),
		Virtual:     flag(fn.Virtual),
		PureVirtual: flag(fn.PureVirtual),
		Artificial:  flag(fn.Artificial),
	}
	f.Const = flag(fn.Const)
	if fn.Returns != "" {
		t, err := d.typeOf(fn.Returns)
		if err != nil {
			return nil, err
		}
		f.Result = t
	}
	for i, a := range fn.Arguments {
		t, err := d.typeOf(a.Type)
		if err != nil {
			return nil, err
		}
		name := a.Name
		if name == "" {
			name = "arg" + strconv.Itoa(i)
		}
		f.Params = append(f.Params, decl.Param{Name: name, Type: t, Default: a.Default})
	}
	return f, nil
}

// typeOf resolves a type id to a fresh Type value
func (d *decoder) typeOf(id string) (*decl.Type, error) {
	if name, ok := d.fundamentals[id]; ok {
		return &decl.Type{Scope: decl.Scope{Path: []string{name}}, Fundamental: true}, nil
	}
	if inner, ok := d.pointers[id]; ok {
		return d.decorate(inner, "*")
	}
	if inner, ok := d.references[id]; ok {
		return d.decorate(inner, "&")
	}
	if inner, ok := d.arrays[id]; ok {
		return d.decorate(inner, "*")
	}
	if inner, ok := d.elaborated[id]; ok {
		return d.typeOf(inner)
	}
	if q, ok := d.cv[id]; ok {
		t, err := d.typeOf(q.Type)
		if err != nil {
			return nil, err
		}
		if flag(q.Const) {
			markConst(t)
		}
		return t, nil
	}
	if d.funcTypes[id] {
		// Function pointers cross the boundary as opaque pointers
		return &decl.Type{Scope: decl.Scope{Path: []string{"void"}}, Fundamental: true}, nil
	}
	if n, ok := d.nodes[id]; ok {
		return &decl.Type{
			Scope: decl.Scope{
				Namespace: append([]string(nil), n.FullNameAbstract()[:len(n.FullNameAbstract())-len(n.Name())]...),
				Path:      append([]string(nil), n.Name()...),
				Loc:       n.Location(),
			},
			Decl: n,
		}, nil
	}
	// gccxml encodes cv-qualified variants as "<id>c", "<id>v" or "<id>cv"
	if base := strings.TrimRight(id, "cv"); base != id && base != "" {
		t, err := d.typeOf(base)
		if err != nil {
			return nil, err
		}
		if strings.Contains(id[len(base):], "c") {
			markConst(t)
		}
		return t, nil
	}
	if id == "" {
		return nil, errors.New("missing type id")
	}
	// OffsetType, MethodType and the like have no binding; treat as opaque
	return &decl.Type{Scope: decl.Scope{Path: []string{"void"}}, Fundamental: true, Suffix: "*"}, nil
}

func (d *decoder) decorate(inner, suffix string) (*decl.Type, error) {
	t, err := d.typeOf(inner)
	if err != nil {
		return nil, err
	}
	t.Suffix += suffix
	return t, nil
}

func markConst(t *decl.Type) {
	if t.Suffix == "" {
		t.Const = true
	} else {
		t.Suffix += " const"
	}
}

func access(a string) decl.Access {
	switch a {
	case "protected":
		return decl.Protected
	case "private":
		return decl.Private
	}
	return decl.Public
}

// idOrder extracts the numeric part of "_123"
func idOrder(id string) int {
	n, err := strconv.Atoi(strings.TrimLeft(id, "_"))
	if err != nil {
		return 0
	}
	return n
}
