// Package site locates templates inside a site's template directory and
// maps request paths onto them.
//
// A template is any file with an html, xml, rss or json extension. Files
// whose base name starts with an underscore are partials: they can be
// included with {{> name}} and a partial named after a section
// (_offices.html) renders single records of that section under
// /offices/<slug>-<id>. Partials and dotfiles are never served directly.
package site
