package model

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ettle/strcase"
	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var titleCaser = cases.Title(language.English)

// IsPlural reports whether a section name is grammatically plural.
// Uncountable words ("news", "information") count as plural.
func IsPlural(word string) bool {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return false
	}
	return inflection.Plural(w) == w
}

// Singularize returns the singular form of a word or label.
func Singularize(word string) string {
	return inflection.Singular(word)
}

// Kebab converts free text into a URL-safe kebab-case slug.
// Accents are folded ("Café" → "cafe") and punctuation becomes a word break.
func Kebab(s string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from decomposition
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strcase.ToKebab(strings.TrimSpace(b.String()))
}

// StartCase turns an identifier into a human label: "office_hours" → "Office Hours".
func StartCase(s string) string {
	words := strings.ReplaceAll(Kebab(s), "-", " ")
	return titleCaser.String(words)
}

// Permalink returns the URI path to an individual record of a multiple
// section, e.g. "/offices/new-york-12". It is empty when the owning section
// is unknown or holds a single record.
func (r *Record) Permalink() string {
	if r.Section == nil || !r.Section.Multiple {
		return ""
	}

	title, _ := r.Content["title"].(string)
	if title == "" {
		title, _ = r.Content["name"].(string)
	}

	slug := fmt.Sprintf("%d", r.ID)
	if name := Kebab(title); name != "" {
		slug = fmt.Sprintf("%s-%d", name, r.ID)
	}
	return fmt.Sprintf("/%s/%s", r.Section.Name, slug)
}
