package site

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stencil/internal/model"
	"github.com/roach88/stencil/internal/testutil"
)

func newTestSite(t *testing.T) *Site {
	t.Helper()
	return New(testutil.WriteSite(t, map[string]string{
		"index.html":       "home",
		"about.html":       "about",
		"feed.rss":         "rss",
		"data.json":        "{}",
		"_offices.html":    "{{city}}",
		"_header.html":     "<h1>{{title}}</h1>",
		"blog/index.html":  "blog",
		"blog/_card.html":  "card",
		"empty/readme.txt": "not a template",
		".git/config.html": "hidden",
		"styles/site.css":  "body{}",
	}))
}

func rel(t *testing.T, s *Site, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		r, err := filepath.Rel(s.Root(), p)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestTemplates(t *testing.T) {
	s := newTestSite(t)

	got, err := s.Templates()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"_header.html", "_offices.html", "about.html",
		"blog/_card.html", "blog/index.html", "data.json", "feed.rss", "index.html",
	}, rel(t, s, got))
}

func TestPartials(t *testing.T) {
	s := newTestSite(t)

	got, err := s.Partials()
	require.NoError(t, err)
	assert.Equal(t, []string{"_header.html", "_offices.html", "blog/_card.html"}, rel(t, s, got))

	loaded, err := s.LoadPartials()
	require.NoError(t, err)
	assert.Equal(t, "<h1>{{title}}</h1>", loaded["header"])
	assert.Equal(t, "card", loaded["blog/card"])
}

func TestResolve(t *testing.T) {
	s := newTestSite(t)

	tests := []struct {
		path     string
		file     string
		section  string
		recordID int64
	}{
		{"/", "index.html", "", 0},
		{"/about", "about.html", "", 0},
		{"/about/", "about.html", "", 0},
		{"/about.html", "about.html", "", 0},
		{"/feed.rss", "feed.rss", "", 0},
		{"/blog", "blog/index.html", "", 0},
		{"/offices/tokyo-headquarters-12", "_offices.html", "offices", 12},
		{"/offices/12", "_offices.html", "offices", 12},
		{"/offices/12/tokyo", "_offices.html", "offices", 12},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			m, err := s.Resolve(tt.path, "")
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(s.Root(), filepath.FromSlash(tt.file)), m.File)
			assert.Equal(t, tt.section, m.Section)
			assert.Equal(t, tt.recordID, m.RecordID)
		})
	}
}

func TestResolve_NotFound(t *testing.T) {
	s := newTestSite(t)

	for _, p := range []string{
		"/missing",
		"/empty",
		"/offices",
		"/offices/tokyo",
		"/staff/12",
		"/_header",
		"/_offices.html",
		"/.git/config.html",
		"/../../etc/passwd",
	} {
		t.Run(p, func(t *testing.T) {
			_, err := s.Resolve(p, "")
			require.Error(t, err)
			assert.True(t, model.IsNotFound(err), "got %v", err)
		})
	}
}

func TestIsPrivate(t *testing.T) {
	assert.True(t, IsPrivate("/_header.html"))
	assert.True(t, IsPrivate("/blog/_card"))
	assert.True(t, IsPrivate("/.env"))
	assert.False(t, IsPrivate("/"))
	assert.False(t, IsPrivate("/offices/tokyo-12"))
}

func TestErrorPage(t *testing.T) {
	s := newTestSite(t)
	_, ok := s.ErrorPage()
	assert.False(t, ok)

	testutil.WriteFiles(t, s.Root(), map[string]string{"_error.html": "oops"})
	p, ok := s.ErrorPage()
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(s.Root(), "_error.html"), p)
}
