package model

// SectionSchema is the canonical, name-keyed schema for one section, merged
// across every template that declares it.
type SectionSchema struct {
	Form    bool              `json:"form" yaml:"form"`
	Options Params            `json:"options" yaml:"options"`
	Fields  map[string]Params `json:"fields" yaml:"fields"`
}

// NewSectionSchema returns an empty, non-form schema.
func NewSectionSchema() *SectionSchema {
	return &SectionSchema{
		Options: Params{},
		Fields:  map[string]Params{},
	}
}

// SchemaTree maps section names to their canonical schema.
type SchemaTree map[string]*SectionSchema

// Ensure returns the schema for name, creating it if necessary.
func (t SchemaTree) Ensure(name string) *SectionSchema {
	s, ok := t[name]
	if !ok {
		s = NewSectionSchema()
		t[name] = s
	}
	return s
}
