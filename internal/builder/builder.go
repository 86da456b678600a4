// Package builder keeps the stored section schema in sync with the site
// templates.
//
// Tree parses every template and merges the branches by section name.
// Build writes the merged tree to storage and retires sections that no
// template references any more (general is never retired). IsDirty compares
// a fresh tree with the one last built or loaded by Init.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/stencil/internal/compiler"
	"github.com/roach88/stencil/internal/directive"
	"github.com/roach88/stencil/internal/model"
	"github.com/roach88/stencil/internal/site"
)

// Store is the section storage the builder reconciles against.
type Store interface {
	FindAllSections(ctx context.Context) ([]*model.Section, error)
	FindOrCreateSection(ctx context.Context, name string) (*model.Section, error)
	UpdateSection(ctx context.Context, sec *model.Section) error
	DestroySectionsExcept(ctx context.Context, keep []int64) (int64, error)
}

// Builder reconciles templates with stored sections. It is safe for
// concurrent use; builds are serialized.
type Builder struct {
	site   *site.Site
	store  Store
	logger *slog.Logger

	conditionalFields bool

	buildMu sync.Mutex

	mu   sync.RWMutex
	last model.SchemaTree
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// WithConditionalFields declares the test expression of if/unless blocks
// as a field, matching render.WithConditionalFields.
func WithConditionalFields(on bool) Option {
	return func(b *Builder) {
		b.conditionalFields = on
	}
}

// New creates a Builder for the templates of s.
func New(s *site.Site, store Store, opts ...Option) *Builder {
	b := &Builder{site: s, store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Result summarizes a build.
type Result struct {
	Sections []string `json:"sections" yaml:"sections"`
	Removed  int64    `json:"removed" yaml:"removed"`
}

// Tree parses every template and merges branches by section name: form is
// OR-ed, options are merged with later templates winning, and fields
// default to type text. A {{context.field}} reference lands in the context
// section.
func (b *Builder) Tree() (model.SchemaTree, error) {
	templates, err := b.site.Templates()
	if err != nil {
		return nil, err
	}
	partials, err := b.site.LoadPartials()
	if err != nil {
		return nil, err
	}

	var opts []compiler.Option
	if b.conditionalFields {
		opts = append(opts, compiler.WithConditionalFields())
	}

	tree := model.SchemaTree{}
	for _, path := range templates {
		tpl, err := compiler.FromFile(path, partials, opts...)
		if err != nil {
			return nil, err
		}
		parsed, err := tpl.Parse()
		if err != nil {
			return nil, err
		}
		b.warnUnknownTypes(path, parsed)
		merge(tree, parsed)
	}
	return tree, nil
}

// warnUnknownTypes logs fields whose type= names no directive. They still
// build and render as text.
func (b *Builder) warnUnknownTypes(path string, parsed compiler.Tree) {
	for _, token := range parsed.Tokens() {
		branch := parsed[token]
		for _, fieldToken := range branch.FieldTokens() {
			field := branch.Fields[fieldToken]
			if t := field.Params["type"]; t != "" && !directive.Exists(t) {
				b.logger.Warn("unknown directive type", "template", path, "section", branch.Name, "field", field.Key, "type", t)
			}
		}
	}
}

// merge folds one template's branches into tree in document order, so a
// later tag overrides an earlier one.
func merge(tree model.SchemaTree, parsed compiler.Tree) {
	for _, token := range parsed.Tokens() {
		branch := parsed[token]
		sec := tree.Ensure(branch.Name)
		for k, v := range branch.Params {
			sec.Options[k] = v
		}
		sec.Form = sec.Form || branch.IsForm()

		for _, fieldToken := range branch.FieldTokens() {
			field := branch.Fields[fieldToken]
			target := sec
			if field.Context != "" {
				target = tree.Ensure(field.Context)
			}

			params := model.Params{"type": "text"}
			for k, v := range target.Fields[field.Key] {
				params[k] = v
			}
			for k, v := range field.Params {
				params[k] = v
			}
			target.Fields[field.Key] = params
		}
	}
}

// IsDirty reports whether the templates describe a different schema than
// the last build (or Init).
func (b *Builder) IsDirty() (bool, error) {
	fresh, err := b.Tree()
	if err != nil {
		return false, err
	}

	b.mu.RLock()
	last := b.last
	b.mu.RUnlock()

	want, got := normalize(last), normalize(fresh)
	if cmp.Equal(want, got, cmpopts.EquateEmpty()) {
		return false, nil
	}
	b.logger.Debug("template tree changed", "diff", cmp.Diff(want, got, cmpopts.EquateEmpty()))
	return true, nil
}

// Build parses the templates and writes the resulting schema. A template
// syntax error fails the build before anything is written.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	b.buildMu.Lock()
	defer b.buildMu.Unlock()

	tree, err := b.Tree()
	if err != nil {
		return nil, err
	}

	result := &Result{Sections: []string{}}
	keep := make([]int64, 0, len(tree))
	for _, name := range sortedKeys(tree) {
		sec, err := b.rebuild(ctx, name, tree[name])
		if err != nil {
			return nil, err
		}
		keep = append(keep, sec.ID)
		result.Sections = append(result.Sections, sec.Name)
	}

	removed, err := b.store.DestroySectionsExcept(ctx, keep)
	if err != nil {
		return nil, err
	}
	result.Removed = removed

	b.mu.Lock()
	b.last = clone(tree)
	b.mu.Unlock()

	b.logger.Info("site built", "sections", len(result.Sections), "removed", removed)
	return result, nil
}

// rebuild upserts one section from its merged schema.
func (b *Builder) rebuild(ctx context.Context, name string, schema *model.SectionSchema) (*model.Section, error) {
	sec, err := b.store.FindOrCreateSection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("rebuild section %q: %w", name, err)
	}

	options := model.Params{"priority": strconv.Itoa(model.DefaultPriority)}
	for k, v := range schema.Options {
		options[k] = v
	}

	sec.Form = schema.Form
	sec.Options = options
	sec.Multiple = schema.Options.Bool("multiple") || model.IsPlural(name)
	sec.Sortable = schema.Options.Bool("sortable")
	sec.Fields = model.RemoveSpecialFields(schema.Fields)

	if err := b.store.UpdateSection(ctx, sec); err != nil {
		return nil, fmt.Errorf("rebuild section %q: %w", name, err)
	}
	return sec, nil
}

// Init seeds the last tree from stored sections.
func (b *Builder) Init(ctx context.Context) error {
	sections, err := b.store.FindAllSections(ctx)
	if err != nil {
		return err
	}

	tree := model.SchemaTree{}
	for _, sec := range sections {
		tree[sec.Name] = &model.SectionSchema{
			Form:    sec.Form,
			Options: sec.Options.Clone(),
			Fields:  cloneFields(sec.Fields),
		}
	}

	b.mu.Lock()
	b.last = tree
	b.mu.Unlock()
	return nil
}

// LastTree returns a copy of the last built or loaded tree.
func (b *Builder) LastTree() model.SchemaTree {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return clone(b.last)
}

// normalize strips what Build adds or drops so a fresh tree and a stored
// one compare equal: special and context-qualified fields, the default
// priority, and an empty general section.
func normalize(tree model.SchemaTree) model.SchemaTree {
	out := model.SchemaTree{}
	for name, sec := range tree {
		options := sec.Options.Clone()
		if options["priority"] == strconv.Itoa(model.DefaultPriority) {
			delete(options, "priority")
		}
		out[name] = &model.SectionSchema{
			Form:    sec.Form,
			Options: options,
			Fields:  model.RemoveSpecialFields(sec.Fields),
		}
	}
	out.Ensure(model.DefaultSectionName)
	return out
}

func clone(tree model.SchemaTree) model.SchemaTree {
	if tree == nil {
		return nil
	}
	out := make(model.SchemaTree, len(tree))
	for name, sec := range tree {
		out[name] = &model.SectionSchema{
			Form:    sec.Form,
			Options: sec.Options.Clone(),
			Fields:  cloneFields(sec.Fields),
		}
	}
	return out
}

func cloneFields(fields map[string]model.Params) map[string]model.Params {
	out := make(map[string]model.Params, len(fields))
	for k, v := range fields {
		out[k] = v.Clone()
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
