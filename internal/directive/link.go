package directive

import (
	"context"
	"fmt"

	"github.com/roach88/stencil/internal/model"
)

var linkDefaults = defaults{
	options: []field{{"unfurl", false}},
}

// Link is a URL, rendered raw or unfurled into an oEmbed snippet.
type Link struct {
	base
	registry *Registry
}

func newLink(r *Registry, params model.Params) Directive {
	return &Link{base: newBase(params, linkDefaults), registry: r}
}

func (d *Link) Input(name string, value any) string {
	return fmt.Sprintf(`<input type="url" name="%s" value="%s">`, name, Escape(toString(d.orDefault(value))))
}

// Render returns the URL unescaped, or its oEmbed HTML when unfurl=true.
func (d *Link) Render(ctx context.Context, value any) string {
	url := toString(d.orDefault(value))
	if url == "" || !d.options.Bool("unfurl") || d.registry == nil {
		return url
	}
	return d.oembed(ctx, url)
}

func (d *Link) Preview(_ context.Context, value any) string {
	return toString(d.orDefault(value))
}

// oembed resolves and caches the snippet. Failures are cached as an anchor.
func (d *Link) oembed(ctx context.Context, url string) string {
	if html, ok := d.registry.cached(url); ok {
		return html
	}

	html, err := d.registry.unfurler.Unfurl(ctx, url)
	if err != nil || html == "" {
		d.registry.logger.Debug("unfurl failed, rendering anchor", "url", url, "error", err)
		html = fmt.Sprintf(`<a href="%s">%s</a>`, Escape(url), Escape(url))
	}
	return d.registry.store(url, html)
}
