package export

// Language of a generated file
type Language string

const (
	CPlusPlus Language = "cxx"
	CSharp    Language = "csharp"
)

// Section of a generated file
type Section string

const (
	SectionInclude            Section = "include"
	SectionDeclarationOutside Section = "declaration-outside"
	SectionDeclaration        Section = "declaration"
	SectionModule             Section = "module"
	SectionUsing              Section = "using"
)

// Sink receives generated code
type Sink interface {
	// Module is the name of the native library being generated
	Module() string
	Write(lang Language, section Section, code string)
}
