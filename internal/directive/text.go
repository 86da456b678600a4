package directive

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/stencil/internal/model"
)

var textDefaults = defaults{
	options: []field{{"long", false}},
	attrs:   []field{{"maxlength", nil}},
}

// Text is plain text, rendered escaped.
type Text struct {
	base
}

func newText(_ *Registry, params model.Params) Directive {
	return &Text{base: newBase(params, textDefaults)}
}

// Input renders a textarea when long=true, an email input for the
// content[email] field, otherwise a text input.
func (d *Text) Input(name string, value any) string {
	v := Escape(toString(d.orDefault(value)))
	if d.options.Bool("long") {
		return fmt.Sprintf(`<textarea name="%s" %s>%s</textarea>`, name, d.HTMLAttrs(), v)
	}

	typ := "text"
	if strings.ToLower(name) == "content[email]" {
		typ = "email"
	}
	return fmt.Sprintf(`<input type="%s" name="%s" value="%s" %s>`, typ, name, v, d.HTMLAttrs())
}

func (d *Text) Render(_ context.Context, value any) string {
	return Escape(toString(d.orDefault(value)))
}

func (d *Text) Preview(ctx context.Context, value any) string {
	return d.Render(ctx, value)
}
