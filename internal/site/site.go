package site

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/stencil/internal/compiler"
)

// TemplateExtensions lists the file extensions treated as templates.
var TemplateExtensions = []string{".html", ".xml", ".rss", ".json"}

// DefaultExtension is appended to extensionless request paths.
const DefaultExtension = ".html"

// ErrorPartial is the site-provided 404 page.
const ErrorPartial = "_error.html"

// Site is a template directory on disk.
type Site struct {
	root string
}

// New creates a Site rooted at dir.
func New(dir string) *Site {
	return &Site{root: filepath.Clean(dir)}
}

// Root returns the template directory.
func (s *Site) Root() string {
	return s.root
}

// Templates returns every template file, partials included, sorted.
// Dot-directories are skipped.
func (s *Site) Templates() ([]string, error) {
	return s.collect(func(name string) bool {
		return isTemplate(name)
	})
}

// Partials returns every "_*.html" file at any depth, sorted.
func (s *Site) Partials() ([]string, error) {
	return s.collect(func(name string) bool {
		return strings.HasPrefix(name, "_") && filepath.Ext(name) == ".html"
	})
}

// LoadPartials reads all partials keyed by include name.
func (s *Site) LoadPartials() (map[string]string, error) {
	paths, err := s.Partials()
	if err != nil {
		return nil, err
	}
	return compiler.LoadPartials(s.root, paths)
}

// ErrorPage returns the path of the site's _error.html and whether it exists.
func (s *Site) ErrorPage() (string, bool) {
	p := filepath.Join(s.root, ErrorPartial)
	return p, isFile(p)
}

func (s *Site) collect(match func(name string) bool) ([]string, error) {
	var out []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if match(d.Name()) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan templates in %s: %w", s.root, err)
	}
	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func isTemplate(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range TemplateExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
