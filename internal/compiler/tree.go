package compiler

import (
	"sort"
	"strings"

	"github.com/roach88/stencil/internal/model"
)

// Field is a field reference found in markup.
type Field struct {
	// Key is the lowercased field name without context or params.
	Key string `json:"key"`

	// Context names the section the field belongs to when written as
	// {{context.key}}. Empty means the enclosing section.
	Context string `json:"context,omitempty"`

	Params model.Params `json:"params"`

	// order is the position of the tag's first occurrence.
	order int
}

// Branch is a section scope keyed in Tree by its full tag text.
type Branch struct {
	Name    string `json:"name"`
	Keyword string `json:"keyword,omitempty"`

	Params model.Params `json:"params"`

	// Fields is keyed by the full field tag text, params included.
	Fields map[string]*Field `json:"fields"`

	order int
}

// IsForm reports whether the branch was opened with the form keyword.
func (b *Branch) IsForm() bool {
	return b.Keyword == "form"
}

// FieldTokens returns the keys of Fields in the order the tags first
// appear in the markup.
func (b *Branch) FieldTokens() []string {
	return inDocumentOrder(b.Fields, func(f *Field) int { return f.order })
}

// Tree maps section tokens ("general", "section offices limit=3") to branches.
type Tree map[string]*Branch

// Tokens returns the section tokens in the order the blocks first open.
func (t Tree) Tokens() []string {
	return inDocumentOrder(t, func(b *Branch) int { return b.order })
}

func inDocumentOrder[V any](m map[string]V, order func(V) int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sort.SliceStable(keys, func(i, j int) bool {
		return order(m[keys[i]]) < order(m[keys[j]])
	})
	return keys
}

// walker builds a Tree from tokens.
type walker struct {
	tree              Tree
	conditionalFields bool

	seq int
}

func (w *walker) next() int {
	w.seq++
	return w.seq
}

func (w *walker) addField(branch *Branch, token string, field *Field) {
	if _, ok := branch.Fields[token]; ok {
		return
	}
	field.order = w.next()
	branch.Fields[token] = field
}

func (w *walker) walk(tokens []Token, branchToken string) error {
	if _, ok := w.tree[branchToken]; !ok {
		branch, err := newBranch(branchToken)
		if err != nil {
			return err
		}
		branch.order = w.next()
		w.tree[branchToken] = branch
	}
	branch := w.tree[branchToken]

	for _, tok := range tokens {
		switch tok.Type {
		case TokenName:
			field, err := parseField(tok)
			if err != nil {
				return err
			}
			w.addField(branch, tok.Value, field)
		case TokenSection:
			keyword := ""
			if m := firstWordRegex.FindStringSubmatch(tok.Value); m != nil {
				keyword = strings.ToLower(m[1])
			}
			if !conditionals[keyword] {
				if err := w.walk(tok.Children, tok.Value); err != nil {
					return err
				}
				continue
			}
			if w.conditionalFields {
				if expr := conditionExpr(tok.Value); expr != "" {
					if field, err := parseField(Token{Value: expr, Line: tok.Line, Column: tok.Column}); err == nil {
						w.addField(branch, expr, field)
					}
				}
			}
			if err := w.walk(tok.Children, branchToken); err != nil {
				return err
			}
		case TokenInverted:
			if err := w.walk(tok.Children, branchToken); err != nil {
				return err
			}
		}
	}
	return nil
}

func newBranch(token string) (*Branch, error) {
	m := branchRegex.FindStringSubmatch(token)
	if m == nil {
		return nil, &SyntaxError{Message: "invalid section tag \"" + token + "\""}
	}
	return &Branch{
		Name:    strings.ToLower(m[2]),
		Keyword: strings.ToLower(m[1]),
		Params:  ParseParams(m[3]),
		Fields:  map[string]*Field{},
	}, nil
}

func parseField(tok Token) (*Field, error) {
	m := leafRegex.FindStringSubmatch(tok.Value)
	if m == nil {
		return nil, &SyntaxError{Line: tok.Line, Column: tok.Column, Message: "invalid field tag \"" + tok.Value + "\""}
	}
	return &Field{
		Key:     strings.ToLower(m[2]),
		Context: strings.ToLower(m[1]),
		Params:  ParseParams(m[3]),
	}, nil
}

// conditionExpr returns the test expression of an if/unless tag.
func conditionExpr(tag string) string {
	_, rest, _ := strings.Cut(strings.TrimSpace(tag), " ")
	return strings.TrimSpace(rest)
}
