package model

import (
	"math"
	"sort"
	"strconv"
	"time"
)

// DefaultSectionName is the implicit section that owns top-level fields.
const DefaultSectionName = "general"

// DefaultPriority is the priority given to sections and fields that don't
// declare one, so they sort after everything that does.
const DefaultPriority = math.MaxInt32

// Params holds raw key/value parameters parsed from a template tag.
// Values are the unquoted strings exactly as written, e.g. {"required": "false"}.
type Params map[string]string

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Bool reports whether the parameter is set to the literal "true".
func (p Params) Bool(key string) bool {
	return p[key] == "true"
}

// Int returns the parameter as an integer, or def if missing or malformed.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Section is a named content group inferred from template markup.
type Section struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Form      bool              `json:"form"`
	Multiple  bool              `json:"multiple"`
	Sortable  bool              `json:"sortable"`
	Options   Params            `json:"options"`
	Fields    map[string]Params `json:"fields"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Label is the user-friendly section name. Templates override it with label=.
func (s *Section) Label() string {
	if l := s.Options["label"]; l != "" {
		return l
	}
	return StartCase(s.Name)
}

// LabelSingular is the singular form of Label.
func (s *Section) LabelSingular() string {
	return Singularize(s.Label())
}

// HasFields reports whether the section declares any fields.
func (s *Section) HasFields() bool {
	return len(s.Fields) > 0
}

// SortedField is a field schema paired with its name.
type SortedField struct {
	Name   string
	Params Params
}

// SortedFields returns fields ordered by their priority param, ascending.
// Fields without a numeric priority sort last, then by name.
func (s *Section) SortedFields() []SortedField {
	out := make([]SortedField, 0, len(s.Fields))
	for name, params := range s.Fields {
		out = append(out, SortedField{Name: name, Params: params})
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi := out[i].Params.Int("priority", DefaultPriority)
		pj := out[j].Params.Int("priority", DefaultPriority)
		if pi != pj {
			return pi < pj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TableColumns returns the names of the first three sorted fields.
func (s *Section) TableColumns() []string {
	fields := s.SortedFields()
	if len(fields) > 3 {
		fields = fields[:3]
	}
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	return cols
}

// TableColumnsHeaders returns labels for TableColumns.
func (s *Section) TableColumnsHeaders() []string {
	cols := s.TableColumns()
	headers := make([]string, len(cols))
	for i, c := range cols {
		if l := s.Fields[c]["label"]; l != "" {
			headers[i] = l
		} else {
			headers[i] = StartCase(c)
		}
	}
	return headers
}

// Record is one content item belonging to a Section.
type Record struct {
	ID        int64          `json:"id"`
	SectionID int64          `json:"section_id"`
	Content   map[string]any `json:"content"`
	Position  int            `json:"position"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	// Section is the owning section when loaded alongside the record.
	Section *Section `json:"-"`
}

// User is a dashboard account. Only the email is exposed to templates.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	PasswordDigest string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}
