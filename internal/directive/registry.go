package directive

import (
	"log/slog"
	"sync"

	"github.com/roach88/stencil/internal/model"
)

type constructor func(r *Registry, params model.Params) Directive

// constructors is the static registration table. Names match the type=
// param in templates.
var constructors = map[string]constructor{
	"text":   newText,
	"number": newNumber,
	"date":   newDate,
	"choice": newChoice,
	"link":   newLink,
	"html":   newHTML,
	"image":  newImage,
}

// Exists reports whether name is a registered directive type.
func Exists(name string) bool {
	_, ok := constructors[name]
	return ok
}

// Registry constructs directives. A Registry is safe for concurrent use.
type Registry struct {
	unfurler Unfurler
	logger   *slog.Logger

	mu    sync.Mutex
	cache map[string]string
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithUnfurler sets the oEmbed resolver used by link directives.
func WithUnfurler(u Unfurler) RegistryOption {
	return func(r *Registry) {
		r.unfurler = u
	}
}

// WithLogger sets the logger for fallback warnings.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates a Registry. Without WithUnfurler, links unfurl over
// HTTP with NewHTTPUnfurler.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		cache: map[string]string{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.unfurler == nil {
		r.unfurler = NewHTTPUnfurler(nil)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Find returns the directive selected by params["type"], falling back to
// text. Only an explicit unknown type logs a warning.
func (r *Registry) Find(params model.Params) Directive {
	name := params["type"]
	if ctor, ok := constructors[name]; ok {
		return ctor(r, params)
	}
	if name != "" {
		r.logger.Warn("directive type does not exist, falling back to text", "type", name)
	}
	return newText(r, params)
}

// ClearCache empties the unfurl cache.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = map[string]string{}
}

func (r *Registry) cached(url string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.cache[url]
	return v, ok
}

func (r *Registry) store(url, html string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[url] = html
	return html
}
