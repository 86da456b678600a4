// Package render renders site templates with live content and renders
// error pages.
package render

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/stencil/internal/compiler"
	"github.com/roach88/stencil/internal/content"
	"github.com/roach88/stencil/internal/model"
	"github.com/roach88/stencil/internal/site"
)

// Content resolves template branches into renderable content.
type Content interface {
	SectionContent(ctx context.Context, branch *compiler.Branch, recordID int64) (*content.Rendered, error)
}

// Renderer renders request paths against a site.
type Renderer struct {
	site    *site.Site
	content Content
	logger  *slog.Logger

	// dev shows error traces instead of the generic 500 page.
	dev          bool
	placeholders bool

	conditionalFields bool

	// cache is nil when caching is disabled.
	cache *Cache
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = l
	}
}

// WithDevelopment enables error traces.
func WithDevelopment(dev bool) Option {
	return func(r *Renderer) {
		r.dev = dev
	}
}

// WithPlaceholders fills empty content with {{field}} markers.
func WithPlaceholders(on bool) Option {
	return func(r *Renderer) {
		r.placeholders = on
	}
}

// WithConditionalFields parses templates with
// compiler.WithConditionalFields, so {{#if x}} sees the content of x.
func WithConditionalFields(on bool) Option {
	return func(r *Renderer) {
		r.conditionalFields = on
	}
}

// WithCache enables the rendered page cache.
func WithCache(on bool) Option {
	return func(r *Renderer) {
		if on {
			r.cache = NewCache()
		} else {
			r.cache = nil
		}
	}
}

// New creates a Renderer.
func New(s *site.Site, c Content, opts ...Option) *Renderer {
	r := &Renderer{site: s, content: c, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ClearCache drops cached pages. It is a no-op without a cache.
func (r *Renderer) ClearCache() {
	if r.cache != nil {
		r.cache.Clear()
	}
}

// RenderContent renders the template addressed by uriPath.
// A path that matches no template fails with a *model.NotFoundError.
func (r *Renderer) RenderContent(ctx context.Context, uriPath string) (string, error) {
	if r.cache != nil {
		if page, ok := r.cache.Get(uriPath); ok {
			return page, nil
		}
	}

	page, err := r.render(ctx, uriPath)
	if err != nil {
		return "", err
	}

	if r.cache != nil {
		r.cache.Put(uriPath, page)
	}
	return page, nil
}

func (r *Renderer) render(ctx context.Context, uriPath string) (string, error) {
	match, err := r.site.Resolve(uriPath, site.DefaultExtension)
	if err != nil {
		return "", err
	}

	partials, err := r.site.LoadPartials()
	if err != nil {
		return "", err
	}
	var opts []compiler.Option
	if r.conditionalFields {
		opts = append(opts, compiler.WithConditionalFields())
	}
	tpl, err := compiler.FromFile(match.File, partials, opts...)
	if err != nil {
		return "", err
	}
	tree, err := tpl.Parse()
	if err != nil {
		return "", err
	}
	rehome(tree)

	data := compiler.Content{}
	for token, branch := range tree {
		var recordID int64
		if match.Section == branch.Name && branch.Params["multiple"] != "true" {
			recordID = match.RecordID
		}

		rendered, err := r.content.SectionContent(ctx, branch, recordID)
		if err != nil {
			return "", err
		}
		if r.placeholders {
			addPlaceholders(rendered, branch)
		}
		data[token] = rendered.Value()
	}

	out, err := tpl.Render(data)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", match.File, err)
	}
	return out, nil
}

// rehome moves every {{context.field}} into the branches of its context
// section. Field tokens are kept so nested lookups still resolve.
func rehome(tree compiler.Tree) {
	bySection := map[string]map[string]*compiler.Field{}
	for _, branch := range tree {
		for token, field := range branch.Fields {
			name := field.Context
			if name == "" {
				name = branch.Name
			}
			if bySection[name] == nil {
				bySection[name] = map[string]*compiler.Field{}
			}
			bySection[name][token] = field
		}
	}

	for _, branch := range tree {
		fields := bySection[branch.Name]
		if fields == nil {
			fields = map[string]*compiler.Field{}
		}
		branch.Fields = fields
	}
}

// addPlaceholders marks missing content. A branch without records gets one
// record of {{key}} markers; records with empty values get a marker per
// empty field. Forms are left alone.
func addPlaceholders(rendered *content.Rendered, branch *compiler.Branch) {
	if rendered.Form {
		return
	}

	if len(rendered.Records) == 0 {
		rec := map[string]string{}
		for token, field := range branch.Fields {
			if model.IsSpecialField(field.Key) {
				continue
			}
			rec[token] = placeholder(branch, field)
		}
		rendered.Records = append(rendered.Records, rec)
		return
	}

	for _, rec := range rendered.Records {
		for token, value := range rec {
			field, ok := branch.Fields[token]
			if !ok || field.Key == "" {
				continue
			}
			if value == "" {
				rec[token] = placeholder(branch, field)
			}
		}
	}
}

func placeholder(branch *compiler.Branch, field *compiler.Field) string {
	name := field.Context
	if name == "" {
		name = branch.Name
	}
	if name == model.DefaultSectionName {
		return "{{" + field.Key + "}}"
	}
	return "{{" + name + "::" + field.Key + "}}"
}
