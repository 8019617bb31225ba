package gccxml

// Element types of GCC-XML output. CastXML emits the same vocabulary when run
// with --castxml-gccxml. Attributes not used by the decoder are omitted.

type document struct {
	Namespaces       []xmlNamespace    `xml:"Namespace"`
	Classes          []xmlRecord       `xml:"Class"`
	Structs          []xmlRecord       `xml:"Struct"`
	Unions           []xmlRecord       `xml:"Union"`
	Constructors     []xmlFunction     `xml:"Constructor"`
	Destructors      []xmlFunction     `xml:"Destructor"`
	Methods          []xmlFunction     `xml:"Method"`
	Functions        []xmlFunction     `xml:"Function"`
	Enumerations     []xmlEnumeration  `xml:"Enumeration"`
	Typedefs         []xmlTyped        `xml:"Typedef"`
	Variables        []xmlTyped        `xml:"Variable"`
	Fields           []xmlTyped        `xml:"Field"`
	FundamentalTypes []xmlFundamental  `xml:"FundamentalType"`
	PointerTypes     []xmlWrapper      `xml:"PointerType"`
	ReferenceTypes   []xmlWrapper      `xml:"ReferenceType"`
	CvQualifiedTypes []xmlCvQualified  `xml:"CvQualifiedType"`
	ArrayTypes       []xmlWrapper      `xml:"ArrayType"`
	ElaboratedTypes  []xmlWrapper      `xml:"ElaboratedType"`
	FunctionTypes    []xmlFunctionType `xml:"FunctionType"`
	Files            []xmlFile         `xml:"File"`
}

type xmlLocated struct {
	ID         string `xml:"id,attr"`
	Name       string `xml:"name,attr"`
	Context    string `xml:"context,attr"`
	File       string `xml:"file,attr"`
	Line       int    `xml:"line,attr"`
	Access     string `xml:"access,attr"`
	Artificial string `xml:"artificial,attr"`
}

type xmlNamespace struct {
	ID      string `xml:"id,attr"`
	Name    string `xml:"name,attr"`
	Context string `xml:"context,attr"`
}

type xmlBase struct {
	Type   string `xml:"type,attr"`
	Access string `xml:"access,attr"`
}

type xmlRecord struct {
	xmlLocated
	Abstract   string    `xml:"abstract,attr"`
	Incomplete string    `xml:"incomplete,attr"`
	Members    string    `xml:"members,attr"`
	BasesAttr  string    `xml:"bases,attr"`
	Bases      []xmlBase `xml:"Base"`
}

type xmlArgument struct {
	Name    string `xml:"name,attr"`
	Type    string `xml:"type,attr"`
	Default string `xml:"default,attr"`
}

type xmlFunction struct {
	xmlLocated
	Returns     string        `xml:"returns,attr"`
	Static      string        `xml:"static,attr"`
	Const       string        `xml:"const,attr"`
	Virtual     string        `xml:"virtual,attr"`
	PureVirtual string        `xml:"pure_virtual,attr"`
	Arguments   []xmlArgument `xml:"Argument"`
}

type xmlEnumValue struct {
	Name string `xml:"name,attr"`
	Init string `xml:"init,attr"`
}

type xmlEnumeration struct {
	xmlLocated
	Values []xmlEnumValue `xml:"EnumValue"`
}

type xmlTyped struct {
	xmlLocated
	Type   string `xml:"type,attr"`
	Static string `xml:"static,attr"`
}

type xmlFundamental struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type xmlWrapper struct {
	ID   string `xml:"id,attr"`
	Type string `xml:"type,attr"`
}

type xmlCvQualified struct {
	ID       string `xml:"id,attr"`
	Type     string `xml:"type,attr"`
	Const    string `xml:"const,attr"`
	Volatile string `xml:"volatile,attr"`
}

type xmlFunctionType struct {
	ID      string `xml:"id,attr"`
	Returns string `xml:"returns,attr"`
}

type xmlFile struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

// flag converts a "0"/"1" attribute
func flag(v string) bool {
	return v != "" && v != "0"
}
