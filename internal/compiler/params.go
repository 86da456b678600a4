package compiler

import (
	"regexp"
	"strings"

	"github.com/roach88/stencil/internal/model"
)

var (
	// branchRegex splits a block tag into keyword, name and remainder.
	branchRegex = regexp.MustCompile(`(?i)^(?:(section|form)\s)?(\w+)(.*)`)

	// leafRegex splits a field tag into optional context, name and remainder.
	leafRegex = regexp.MustCompile(`^(?:(\w+)\.)?(\w+)(.*)`)

	paramRegex = regexp.MustCompile(`(?:[\w.]+|["'][^=]*)\s*=\s*(?:[\w.,-]+|["'][^'"](?:[^"\\]|\\.)*["'])`)
)

// conditionals are block keywords that do not open a section scope.
var conditionals = map[string]bool{
	"if":     true,
	"unless": true,
}

// ParseParams parses the remainder of a tag into key/value pairs.
// Keys are lowercased; values are unescaped and stripped of outer quotes.
//
//	ParseParams(`required=false placeholder="Your Name"`)
//	// {"required": "false", "placeholder": "Your Name"}
func ParseParams(s string) model.Params {
	params := model.Params{}
	for _, arg := range paramRegex.FindAllString(s, -1) {
		key, val, _ := strings.Cut(arg, "=")
		key = stripQuotes(strings.TrimSpace(key))
		params[strings.ToLower(key)] = stripQuotes(strings.TrimSpace(val))
	}
	return params
}

func stripQuotes(s string) string {
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\'`, `'`)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
