package directive

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/stencil/internal/model"
)

// UploadsPrefix is the URL path uploaded files are served from.
const UploadsPrefix = "/uploads/"

var imageDefaults = defaults{
	options: []field{{"tag", true}},
	attrs: []field{
		{"class", ""},
		{"alt", ""},
	},
}

// Image is an uploaded file name.
type Image struct {
	base
}

func newImage(_ *Registry, params model.Params) Directive {
	return &Image{base: newBase(params, imageDefaults)}
}

// Input renders the upload, preview and delete inputs. The delete checkbox
// only appears when the field is optional and has a value.
func (d *Image) Input(name string, value any) string {
	v := toString(value)

	var b strings.Builder
	b.WriteString(`<div class="previewable">`)
	fmt.Fprintf(&b, `<input type="file" name="%s" accept="image/*">`, name)
	fmt.Fprintf(&b, `<input type="hidden" name="%s" value="%s">`, name, Escape(v))
	if v != "" {
		fmt.Fprintf(&b, `<img class="preview" src="%s%s">`, UploadsPrefix, Escape(v))
		if !d.Required() {
			destroy := strings.Replace(name, "content", "_destroy", 1)
			fmt.Fprintf(&b, `<div class="ui checkbox"><input type="checkbox" name="%s"><label>Delete</label></div>`, destroy)
		}
	}
	b.WriteString(`</div>`)
	return b.String()
}

// Render returns an <img> tag, or the raw path when tag=false. A missing
// file renders as "".
func (d *Image) Render(_ context.Context, value any) string {
	file := toString(value)
	if file == "" {
		return ""
	}

	src := UploadsPrefix + file
	if !d.options.Bool("tag") {
		return src
	}

	attrs := ""
	for _, key := range []string{"class", "alt"} {
		if v := d.attrs.String(key); v != "" {
			attrs += fmt.Sprintf(` %s="%s"`, key, Escape(v))
		}
	}
	return fmt.Sprintf(`<img src="%s"%s>`, Escape(src), attrs)
}

func (d *Image) Preview(ctx context.Context, value any) string {
	return d.Render(ctx, value)
}
