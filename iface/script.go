package iface

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/teranos/cxxbind/errors"
	"github.com/teranos/cxxbind/export"
)

type script struct {
	Exports []entry `yaml:"exports" toml:"exports"`
}

// entry is one item of the exports list. Exactly one of the kind fields is set.
type entry struct {
	Import          string   `yaml:"import" toml:"import"`
	Function        string   `yaml:"function" toml:"function"`
	Class           string   `yaml:"class" toml:"class"`
	ValueType       string   `yaml:"value_type" toml:"value_type"`
	ReferenceType   string   `yaml:"reference_type" toml:"reference_type"`
	Template        string   `yaml:"template" toml:"template"`
	Enum            string   `yaml:"enum" toml:"enum"`
	AllFromHeader   string   `yaml:"all_from_header" toml:"all_from_header"`
	Var             string   `yaml:"var" toml:"var"`
	Include         string   `yaml:"include" toml:"include"`
	DeclarationCode string   `yaml:"declaration_code" toml:"declaration_code"`
	ModuleCode      string   `yaml:"module_code" toml:"module_code"`
	Instantiate     []string `yaml:"instantiate" toml:"instantiate"`
	Header          string   `yaml:"header" toml:"header"`

	export.Info `yaml:",inline"`
}

// decodeScript reads YAML, or TOML for .toml files. Unknown keys are errors.
func decodeScript(path string, data []byte) (*script, error) {
	var s script
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.Decode(string(data), &s)
		if err != nil {
			return nil, errors.Wrapf(err, "parse interface %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, errors.Newf("parse interface %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
		return &s, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil // empty file
		}
		return nil, errors.Wrapf(err, "parse interface %s", path)
	}
	return &s, nil
}

func (e *entry) kinds() []string {
	var set []string
	for name, v := range map[string]string{
		"import":           e.Import,
		"function":         e.Function,
		"class":            e.Class,
		"value_type":       e.ValueType,
		"reference_type":   e.ReferenceType,
		"template":         e.Template,
		"enum":             e.Enum,
		"all_from_header":  e.AllFromHeader,
		"var":              e.Var,
		"include":          e.Include,
		"declaration_code": e.DeclarationCode,
		"module_code":      e.ModuleCode,
	} {
		if v != "" {
			set = append(set, name)
		}
	}
	return set
}

func (e *entry) apply(b *Builder) error {
	if kinds := e.kinds(); len(kinds) != 1 {
		if len(kinds) == 0 {
			return errors.New("entry names no construct")
		}
		return errors.Newf("entry names %d constructs, want one", len(kinds))
	}
	if e.Template == "" && len(e.Instantiate) > 0 {
		return errors.New("instantiate is only valid on a template")
	}

	switch {
	case e.Import != "":
		return b.Import(e.Import)
	case e.Function != "":
		return b.Function(e.Header, e.Function, e.Info)
	case e.Class != "":
		return b.ValueType(e.Header, e.Class, e.Info)
	case e.ValueType != "":
		return b.ValueType(e.Header, e.ValueType, e.Info)
	case e.ReferenceType != "":
		return b.ReferenceType(e.Header, e.ReferenceType, e.Info)
	case e.Template != "":
		return b.Template(e.Header, e.Template, e.Instantiate, e.Info)
	case e.Enum != "":
		return b.Enum(e.Header, e.Enum, e.Info)
	case e.AllFromHeader != "":
		return b.AllFromHeader(e.AllFromHeader, e.Info)
	case e.Var != "":
		return b.Var(e.Header, e.Var, e.Info)
	case e.Include != "":
		return b.Include(e.Include)
	case e.DeclarationCode != "":
		return b.DeclarationCode(e.DeclarationCode)
	default:
		return b.ModuleCode(e.ModuleCode)
	}
}
