package directive

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/stencil/internal/model"
)

var numberDefaults = defaults{
	options: []field{{"range", false}},
	attrs: []field{
		{"min", nil},
		{"max", nil},
		{"step", nil},
	},
}

// Number is a numeric value, stored as a JSON number.
type Number struct {
	base
}

func newNumber(_ *Registry, params model.Params) Directive {
	return &Number{base: newBase(params, numberDefaults)}
}

func (d *Number) Input(name string, value any) string {
	v := Escape(toString(d.orDefault(value)))
	if !d.options.Bool("range") {
		return fmt.Sprintf(`<input type="number" name="%s" value="%s" %s>`, name, v, d.HTMLAttrs())
	}

	label := v
	if label == "" {
		label = "&mdash;"
	}
	return fmt.Sprintf(`<input type="range" name="%s" value="%s" %s><div class="ui left pointing basic label">%s</div>`,
		name, v, d.HTMLAttrs(), label)
}

func (d *Number) Render(_ context.Context, value any) string {
	return Escape(toString(d.orDefault(value)))
}

func (d *Number) Preview(ctx context.Context, value any) string {
	return d.Render(ctx, value)
}

// Serialize converts strings to numbers. Blank input is stored as null.
func (d *Number) Serialize(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64, int, int64:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &SerializeError{Message: "must be a number"}
		}
		return n, nil
	}
	return nil, &SerializeError{Message: "must be a number"}
}
