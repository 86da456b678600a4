package directive

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/roach88/stencil/internal/model"
)

var htmlDefaults = defaults{
	options: []field{
		{"editor", "wysiwyg"},
		{"images", false},
	},
}

var (
	markdown = goldmark.New(
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
			gmhtml.WithHardWraps(),
		),
	)
	stripTags = bluemonday.StrictPolicy()
)

// emptyParagraph is the artifact rich-text editors leave between blocks.
const emptyParagraph = "<p><br></p>"

// HTML is rich text, edited with a WYSIWYG editor or written as Markdown.
type HTML struct {
	base
}

func newHTML(_ *Registry, params model.Params) Directive {
	return &HTML{base: newBase(params, htmlDefaults)}
}

func (d *HTML) editor() string {
	if e, ok := d.options["editor"].(string); ok {
		return e
	}
	return ""
}

func (d *HTML) Input(name string, value any) string {
	v := toString(d.orDefault(value))
	if d.editor() == "wysiwyg" {
		return fmt.Sprintf(`<input id="%s" type="hidden" name="%s" value="%s"><div class="wysiwyg" data-input="%s" data-images="%t"></div>`,
			name, name, Escape(v), name, d.options.Bool("images"))
	}
	return fmt.Sprintf(`<div class="ace_editor"></div><textarea name="%s">%s</textarea>`, name, Escape(v))
}

// Render returns the stored HTML, or Markdown converted with raw HTML
// allowed and hard line breaks.
func (d *HTML) Render(_ context.Context, value any) string {
	v := toString(d.orDefault(value))
	if d.editor() == "markdown" {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(v), &buf); err == nil {
			v = buf.String()
		}
	}
	return strings.ReplaceAll(v, emptyParagraph, "")
}

// Preview strips every tag for a plain text summary.
func (d *HTML) Preview(ctx context.Context, value any) string {
	return strings.TrimSpace(stripTags.Sanitize(d.Render(ctx, value)))
}
