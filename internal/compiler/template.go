package compiler

import (
	"errors"
	"fmt"
	"os"
)

// Option configures a Template.
type Option func(*Template)

// WithConditionalFields registers the test expression of if/unless blocks
// as a field of the enclosing section.
func WithConditionalFields() Option {
	return func(t *Template) {
		t.conditionalFields = true
	}
}

// WithFile records the source path for error positions.
func WithFile(path string) Option {
	return func(t *Template) {
		t.file = path
	}
}

// Template is partial-expanded markup ready to parse or render.
type Template struct {
	markup            string
	file              string
	conditionalFields bool
}

// New expands partials into markup and returns a Template.
func New(markup string, partials map[string]string, opts ...Option) *Template {
	t := &Template{markup: expandPartials(markup, partials)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FromFile reads a template from disk.
func FromFile(path string, partials map[string]string, opts ...Option) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}
	opts = append([]Option{WithFile(path)}, opts...)
	return New(string(data), partials, opts...), nil
}

// Markup returns the partial-expanded source.
func (t *Template) Markup() string {
	return t.markup
}

// Parse builds the schema tree. Top-level fields land in "general", which
// is always present.
func (t *Template) Parse() (Tree, error) {
	tokens, err := Lex(t.markup, t.file)
	if err != nil {
		return nil, err
	}

	w := &walker{tree: Tree{}, conditionalFields: t.conditionalFields}
	if err := w.walk(tokens, "general"); err != nil {
		var se *SyntaxError
		if errors.As(err, &se) && se.File == "" {
			se.File = t.file
		}
		return nil, err
	}
	return w.tree, nil
}
