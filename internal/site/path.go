package site

import (
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/roach88/stencil/internal/model"
)

// Match is the template chosen for a request path.
type Match struct {
	// File is the absolute or root-relative template path.
	File string

	// Section and RecordID are set when the path addresses a single record
	// through a section partial, e.g. /offices/tokyo-12.
	Section  string
	RecordID int64
}

// IsPrivate reports whether any element of a request path starts with "_"
// or ".".
func IsPrivate(uriPath string) bool {
	for _, seg := range strings.Split(path.Clean("/"+uriPath), "/") {
		if strings.HasPrefix(seg, "_") || strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// Resolve maps a request path to a template.
//
// Resolution order: an existing file; a directory's index.html; the path
// plus ext; finally "/<section>/<slug>-<id>" through "_<section>.html".
// Returns a *model.NotFoundError when nothing matches.
func (s *Site) Resolve(uriPath, ext string) (Match, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	if IsPrivate(uriPath) {
		return Match{}, model.NewNotFound("template", uriPath)
	}

	clean := path.Clean("/" + uriPath)
	sysPath := filepath.Join(s.root, filepath.FromSlash(clean))

	if info, err := os.Stat(sysPath); err == nil {
		if info.IsDir() {
			index := filepath.Join(sysPath, "index"+DefaultExtension)
			if isFile(index) {
				return Match{File: index}, nil
			}
			return Match{}, model.NewNotFound("template", uriPath)
		}
		return Match{File: sysPath}, nil
	}

	if withExt := strings.TrimSuffix(sysPath, string(filepath.Separator)) + ext; isFile(withExt) {
		return Match{File: withExt}, nil
	}

	segments := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	if len(segments) < 2 || segments[1] == "" {
		return Match{}, model.NewNotFound("template", uriPath)
	}
	section, slug := segments[0], segments[1]

	partial := filepath.Join(s.root, "_"+section+DefaultExtension)
	if !isFile(partial) {
		return Match{}, model.NewNotFound("template", uriPath)
	}

	idPart := slug
	if i := strings.LastIndex(slug, "-"); i >= 0 {
		idPart = slug[i+1:]
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return Match{}, model.NewNotFound("template", uriPath)
	}

	return Match{File: partial, Section: strings.ToLower(section), RecordID: id}, nil
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
