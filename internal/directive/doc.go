// Package directive implements the field types a template can declare with
// the type= param: text, number, date, choice, link, html and image.
//
// A directive knows how to render a value for the site, preview it for the
// dashboard, serialize it before storage, and render an editing input.
// Construction never fails: params are bucketed into options and attrs by
// each directive's declared defaults and anything else is dropped.
//
// The set of directives is closed and registered statically in Registry.
// The registry also owns the per-URL unfurl cache used by link directives.
package directive
