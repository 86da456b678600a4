package directive

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/stencil/internal/model"
)

var choiceDefaults = defaults{
	options: []field{
		{"input", nil},
		{"multiple", false},
		{"options", ""},
	},
}

// inputTypes are the accepted values of the input= override.
var inputTypes = []string{"checkbox", "toggle", "radio", "dropdown"}

// Choice picks one or more values from the comma-separated options param.
type Choice struct {
	base

	// Possibilities are the trimmed, non-empty entries of options.
	Possibilities []string
}

func newChoice(_ *Registry, params model.Params) Directive {
	d := &Choice{base: newBase(params, choiceDefaults)}
	d.Possibilities = possibilities(d.options.String("options"))
	d.options["input"] = d.inputType()
	d.attrs["required"] = len(d.Possibilities) > 1 && truthy(d.attrs["required"])
	return d
}

// InputType is the widget chosen for this field.
func (d *Choice) InputType() string {
	return d.options.String("input")
}

// inputType picks the widget from the possibility count and overrides:
// checkbox (or toggle) for at most one, dropdown when multiple, radio for
// two or three, dropdown beyond that. Explicit radio/dropdown wins.
func (d *Choice) inputType() string {
	input := d.options.String("input")
	if !slices.Contains(inputTypes, input) {
		input = ""
	}

	n := len(d.Possibilities)
	if n <= 1 {
		if input == "toggle" {
			return "toggle"
		}
		return "checkbox"
	}
	if d.options.Bool("multiple") {
		return "dropdown"
	}

	if input != "radio" && input != "dropdown" {
		input = ""
	}
	if input != "" {
		return input
	}
	if n <= 3 {
		return "radio"
	}
	return "dropdown"
}

func (d *Choice) Input(name string, value any) string {
	value = d.orDefault(value)

	if d.InputType() == "dropdown" {
		return d.dropdown(name, value)
	}
	if len(d.Possibilities) <= 1 {
		return d.checkbox(name, value, "true", "")
	}

	var b strings.Builder
	for _, p := range d.Possibilities {
		b.WriteString(d.checkbox(name, value, p, p))
	}
	return b.String()
}

// Render joins multiple selections with ", ".
func (d *Choice) Render(_ context.Context, value any) string {
	values := selected(d.orDefault(value))
	for i, v := range values {
		values[i] = Escape(v)
	}
	return strings.Join(values, ", ")
}

func (d *Choice) Preview(ctx context.Context, value any) string {
	return d.Render(ctx, value)
}

func (d *Choice) requiredAttr() string {
	if d.Required() {
		return "required"
	}
	return ""
}

func (d *Choice) checkbox(name string, value any, inputValue, label string) string {
	input := d.InputType()
	klass := input
	if input == "checkbox" {
		klass = ""
	}
	typ := input
	if input == "toggle" {
		typ = "checkbox"
	}

	v := toString(value)
	checked := ""
	if (typ == "checkbox" && truthy(value)) || (v != "" && v == label) {
		checked = "checked"
	}

	return fmt.Sprintf(`<div class="ui %s checkbox"><input type="%s" name="%s" value="%s" %s %s><label>%s</label></div>`,
		klass, typ, name, Escape(inputValue), checked, d.requiredAttr(), Escape(label))
}

func (d *Choice) dropdown(name string, value any) string {
	multiple := ""
	if d.options.Bool("multiple") {
		multiple = "multiple"
	}
	values := selected(value)

	var opts strings.Builder
	for _, p := range d.Possibilities {
		sel := ""
		if slices.Contains(values, p) {
			sel = "selected"
		}
		fmt.Fprintf(&opts, `<option value="%s" %s>%s</option>`, Escape(p), sel, Escape(p))
	}

	return fmt.Sprintf(`<select name="%s" class="ui dropdown" %s %s><option value="">%s</option>%s</select>`,
		name, multiple, d.requiredAttr(), Escape(d.attrs.String("placeholder")), opts.String())
}

func possibilities(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// selected normalizes a stored value into a list of choices.
func selected(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case []string:
		return slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, toString(item))
		}
		return out
	case string:
		if v == "" {
			return []string{}
		}
		return possibilities(v)
	}
	return []string{toString(value)}
}
