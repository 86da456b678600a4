package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// PartialsDepth is the number of expansion passes. Partials nested deeper
// than this are left as literal {{> name}} tags.
const PartialsDepth = 2

var partialRegex = regexp.MustCompile(`{{\s*>\s*([\w/.-]+)\s*}}`)

// PartialName derives the include name of a partial from its path relative
// to root: "_header.html" → "header", "blog/_card.html" → "blog/card".
func PartialName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)

	dir, base := "", rel
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		dir, base = rel[:i+1], rel[i+1:]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimPrefix(base, "_")
	return dir + base
}

// LoadPartials reads partial files and keys them by PartialName.
func LoadPartials(root string, paths []string) (map[string]string, error) {
	partials := make(map[string]string, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read partial %s: %w", p, err)
		}
		partials[PartialName(root, p)] = string(data)
	}
	return partials, nil
}

// expandPartials substitutes partial bodies. Unknown names become "".
func expandPartials(markup string, partials map[string]string) string {
	result := markup
	for i := 0; i < PartialsDepth; i++ {
		result = partialRegex.ReplaceAllStringFunc(result, func(match string) string {
			name := partialRegex.FindStringSubmatch(match)[1]
			return partials[name]
		})
	}
	return result
}
