package directive

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/stencil/internal/model"
)

// Directive handles one field type.
type Directive interface {
	// Render returns the display value for the site. Nil values fall back
	// to the default option.
	Render(ctx context.Context, value any) string

	// Preview returns a short display value for the dashboard.
	Preview(ctx context.Context, value any) string

	// Serialize converts a submitted value before storage.
	Serialize(value any) (any, error)

	// Input renders the editing input for a form field named name.
	Input(name string, value any) string

	Options() Values
	Attrs() Values

	// Required reports whether the field must be non-empty on save.
	Required() bool
}

// Values holds coerced option or attr values.
type Values map[string]any

// String returns the value as a string, "" when absent.
func (v Values) String(key string) string {
	return toString(v[key])
}

// Bool returns the truthiness of the value.
func (v Values) Bool(key string) bool {
	return truthy(v[key])
}

// field is a declared default. A nil value means the key is accepted but
// unset.
type field struct {
	key   string
	value any
}

type defaults struct {
	options []field
	attrs   []field
}

var baseDefaults = defaults{
	options: []field{
		{"label", nil},
		{"help", nil},
		{"default", ""},
	},
	attrs: []field{
		{"placeholder", ""},
		{"required", true},
	},
}

// base carries the bucketed params shared by every directive.
type base struct {
	options Values
	attrs   Values

	// attrOrder keeps HTMLAttrs output stable.
	attrOrder []string
}

func newBase(params model.Params, own defaults) base {
	b := base{options: Values{}, attrs: Values{}}

	optionKeys := map[string]bool{}
	for _, f := range append(append([]field{}, baseDefaults.options...), own.options...) {
		b.options[f.key] = f.value
		optionKeys[f.key] = true
	}
	attrKeys := map[string]bool{}
	for _, f := range append(append([]field{}, baseDefaults.attrs...), own.attrs...) {
		if !attrKeys[f.key] {
			b.attrOrder = append(b.attrOrder, f.key)
		}
		b.attrs[f.key] = f.value
		attrKeys[f.key] = true
	}

	for key, raw := range params {
		coerced := coerce(raw)
		switch {
		case optionKeys[key]:
			b.options[key] = coerced
		case attrKeys[key]:
			b.attrs[key] = coerced
		}
	}
	return b
}

func (b *base) Options() Values { return b.options }
func (b *base) Attrs() Values   { return b.attrs }

func (b *base) Required() bool {
	return truthy(b.attrs["required"])
}

// orDefault substitutes the default option for a nil value.
func (b *base) orDefault(value any) any {
	if value == nil {
		return b.options["default"]
	}
	return value
}

// HTMLAttrs renders attrs as key="value" pairs, skipping unset and false.
func (b *base) HTMLAttrs() string {
	pairs := make([]string, 0, len(b.attrOrder))
	for _, key := range b.attrOrder {
		v := b.attrs[key]
		if v == nil || v == false {
			continue
		}
		pairs = append(pairs, fmt.Sprintf(`%s="%s"`, key, Escape(toString(v))))
	}
	return strings.Join(pairs, " ")
}

func (b *base) Serialize(value any) (any, error) {
	return value, nil
}

// coerce parses JSON-shaped strings into numbers, booleans, etc.
func coerce(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape converts &, <, >, " and ' to HTML entities.
func Escape(s string) string {
	return escaper.Replace(s)
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	case []any:
		parts := make([]string, len(val))
		for i, p := range val {
			parts[i] = toString(p)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(val, ",")
	}
	return fmt.Sprint(v)
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	}
	return true
}

// IsEmpty reports whether a content value counts as missing.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}
