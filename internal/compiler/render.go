package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Content maps section tokens to renderable values. Accepted values are
// record lists ([]map[string]string or []map[string]any), a single record
// (map), a pre-rendered string that replaces the whole block (forms), or a
// bool.
type Content map[string]any

// Render substitutes content into the markup. When the general section has
// content, the markup is wrapped in a general block so top-level fields
// resolve like nested ones.
func (t *Template) Render(content Content) (string, error) {
	markup := t.markup
	if !isEmpty(content["general"]) {
		markup = "{{#general}}" + markup + "{{/general}}"
	}

	tokens, err := Lex(markup, t.file)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	r := &renderer{out: &b}
	r.tokens(tokens, []any{map[string]any(content)})
	return b.String(), nil
}

type renderer struct {
	out *strings.Builder
}

func (r *renderer) tokens(tokens []Token, stack []any) {
	for _, tok := range tokens {
		switch tok.Type {
		case TokenText:
			r.out.WriteString(tok.Value)
		case TokenPartial:
			r.out.WriteString(tok.Raw)
		case TokenName:
			v, _ := lookup(stack, tok.Value)
			r.out.WriteString(stringify(v))
		case TokenSection:
			r.section(tok, stack)
		case TokenInverted:
			v, _ := lookupBlock(stack, tok.Value)
			if !truthy(v) {
				body, _ := splitElse(tok.Children)
				r.tokens(body, stack)
			}
		}
	}
}

func (r *renderer) section(tok Token, stack []any) {
	keyword := ""
	if m := firstWordRegex.FindStringSubmatch(tok.Value); m != nil {
		keyword = strings.ToLower(m[1])
	}

	if conditionals[keyword] {
		v, _ := lookup(stack, conditionExpr(tok.Value))
		pass := truthy(v)
		if keyword == "unless" {
			pass = !pass
		}
		body, alt := splitElse(tok.Children)
		if pass {
			r.tokens(body, stack)
		} else {
			r.tokens(alt, stack)
		}
		return
	}

	v, _ := lookupBlock(stack, tok.Value)
	body, _ := splitElse(tok.Children)

	switch val := v.(type) {
	case nil:
	case string:
		r.out.WriteString(val)
	case bool:
		if val {
			r.tokens(body, stack)
		}
	case []map[string]string:
		for _, item := range val {
			r.tokens(body, append(stack, item))
		}
	case []map[string]any:
		for _, item := range val {
			r.tokens(body, append(stack, item))
		}
	case []any:
		for _, item := range val {
			r.tokens(body, append(stack, item))
		}
	case map[string]string, map[string]any, Content:
		r.tokens(body, append(stack, val))
	default:
		if truthy(val) {
			r.tokens(body, stack)
		}
	}
}

// splitElse separates a block body at its first {{else}}.
func splitElse(children []Token) (body, alt []Token) {
	for i, tok := range children {
		if tok.Type == TokenElse {
			return children[:i], children[i+1:]
		}
	}
	return children, nil
}

// lookup walks the context stack from the innermost frame outward.
// Keys are full tag text and are never split on dots.
func lookup(stack []any, key string) (any, bool) {
	for i := len(stack) - 1; i >= 0; i-- {
		switch frame := stack[i].(type) {
		case map[string]any:
			if v, ok := frame[key]; ok {
				return v, true
			}
		case Content:
			if v, ok := frame[key]; ok {
				return v, true
			}
		case map[string]string:
			if v, ok := frame[key]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// lookupBlock finds block content by full token, then by section name.
func lookupBlock(stack []any, token string) (any, bool) {
	if v, ok := lookup(stack, token); ok {
		return v, true
	}
	if m := branchRegex.FindStringSubmatch(token); m != nil {
		return lookup(stack, strings.ToLower(m[2]))
	}
	return nil, false
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int, int64, float64:
		return fmt.Sprint(val)
	case fmt.Stringer:
		return val.String()
	}
	return ""
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	}
	return !isEmpty(v)
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []map[string]string:
		return len(val) == 0
	case []map[string]any:
		return len(val) == 0
	case []any:
		return len(val) == 0
	case map[string]string:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	case Content:
		return len(val) == 0
	}
	return false
}
