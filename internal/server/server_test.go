package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stencil/internal/builder"
	"github.com/roach88/stencil/internal/content"
	"github.com/roach88/stencil/internal/directive"
	"github.com/roach88/stencil/internal/model"
	"github.com/roach88/stencil/internal/render"
	"github.com/roach88/stencil/internal/site"
	"github.com/roach88/stencil/internal/store"
	"github.com/roach88/stencil/internal/testutil"
	"github.com/roach88/stencil/internal/watch"
)

var testSite = map[string]string{
	"_header.html": `<header>{{title}}</header>`,
	"index.html":   `<html><body>{{> header}}<ul>{{#section offices sortable=true}}<li>{{city}}</li>{{/section}}</ul></body></html>`,
	"feed.json":    `{"title":"{{title}}"}`,
}

type fixture struct {
	dir     string
	server  *Server
	content *content.Service
	builder *builder.Builder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	dir := testutil.WriteSite(t, testSite)
	s := site.New(dir)

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), store.WithClock(testutil.NewFixedClock()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	b := builder.New(s, st)
	_, err = b.Build(context.Background())
	require.NoError(t, err)

	reg := directive.NewRegistry(directive.WithUnfurler(directive.UnfurlerFunc(
		func(context.Context, string) (string, error) { return "", errors.New("offline") })))
	c := content.New(st, content.WithRegistry(reg))
	r := render.New(s, c, render.WithCache(true))

	opts = append([]Option{WithIDGenerator(testutil.NewFixedIDGenerator(""))}, opts...)
	return &fixture{dir: dir, server: New(r, c, b, opts...), content: c, builder: b}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) create(t *testing.T, section, body string) *model.Record {
	t.Helper()
	resp := f.do(t, "POST", "/api/sections/"+section+"/records", body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var rec model.Record
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &rec))
	return &rec
}

func TestPage(t *testing.T) {
	f := newFixture(t)
	f.create(t, "general", `{"title":"Acme"}`)
	f.create(t, "offices", `{"city":"Berlin"}`)

	resp := f.do(t, "GET", "/", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.Equal(t, "test-request", resp.Header().Get(RequestIDHeader))
	assert.Equal(t, "<html><body><header>Acme</header><ul><li>Berlin</li></ul></body></html>", resp.Body.String())
}

func TestPageContentType(t *testing.T) {
	f := newFixture(t)
	f.create(t, "general", `{"title":"Acme"}`)

	resp := f.do(t, "GET", "/feed.json", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
	assert.Equal(t, `{"title":"Acme"}`, resp.Body.String())
}

func TestPageKeepsIncomingRequestID(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	resp := httptest.NewRecorder()
	f.server.ServeHTTP(resp, req)
	assert.Equal(t, "abc", resp.Header().Get(RequestIDHeader))
}

func TestPageNotFound(t *testing.T) {
	f := newFixture(t)
	for _, target := range []string{"/_header.html", "/.git/config", "/missing"} {
		t.Run(target, func(t *testing.T) {
			resp := f.do(t, "GET", target, "")
			assert.Equal(t, http.StatusNotFound, resp.Code)
			assert.Contains(t, resp.Body.String(), "doesn't exist")
		})
	}
}

func TestRecordWritesClearCache(t *testing.T) {
	f := newFixture(t)
	f.create(t, "offices", `{"city":"Berlin"}`)
	assert.Contains(t, f.do(t, "GET", "/", "").Body.String(), "Berlin")

	f.create(t, "offices", `{"city":"Tokyo"}`)
	assert.Contains(t, f.do(t, "GET", "/", "").Body.String(), "Tokyo")
}

func TestCreateRecordValidation(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, "POST", "/api/sections/offices/records", `{"city":""}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.JSONEq(t, `{"errors":{"city":"required field"}}`, resp.Body.String())
}

func TestCreateRecordErrors(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, "POST", "/api/sections/nope/records", `{"city":"x"}`)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = f.do(t, "POST", "/api/sections/offices/records", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.JSONEq(t, `{"error":"Invalid request payload"}`, resp.Body.String())
}

func TestUpdateAndDestroyRecord(t *testing.T) {
	f := newFixture(t)
	rec := f.create(t, "offices", `{"city":"Berlin"}`)
	target := "/api/records/" + itoa(rec.ID)

	resp := f.do(t, "PUT", target, `{"city":"Paris"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"city":"Paris"`)

	resp = f.do(t, "DELETE", target, "")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = f.do(t, "PUT", target, `{"city":"Rome"}`)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestReorderRecord(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, "offices", `{"city":"A"}`)
	f.create(t, "offices", `{"city":"B"}`)
	f.create(t, "offices", `{"city":"C"}`)
	assert.Equal(t, 0, first.Position)

	resp := f.do(t, "POST", "/api/records/"+itoa(first.ID)+"/reorder", `{"from":0,"to":2}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var moved model.Record
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &moved))
	assert.Equal(t, 2, moved.Position)
	assert.Contains(t, f.do(t, "GET", "/", "").Body.String(), "<li>B</li><li>C</li><li>A</li>")

	resp = f.do(t, "POST", "/api/records/"+itoa(first.ID)+"/reorder", `{"from":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestRecovererRendersPanic(t *testing.T) {
	f := newFixture(t)
	h := f.server.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "something went wrong")
}

func TestUploads(t *testing.T) {
	uploads := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "logo.txt"), []byte("logo"), 0o644))

	f := newFixture(t, WithUploads(uploads))
	resp := f.do(t, "GET", "/uploads/logo.txt", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "logo", resp.Body.String())
}

func TestLiveReload(t *testing.T) {
	hub := watch.NewHub(nil)
	f := newFixture(t, WithLiveReload(hub))

	page := f.do(t, "GET", "/", "").Body.String()
	assert.Contains(t, page, watch.Script+"</body>")

	srv := httptest.NewServer(f.server)
	defer srv.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+watch.Path, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	read := func() string {
		var msg watch.Message
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))
		return msg.Command
	}

	f.create(t, "offices", `{"city":"Berlin"}`)
	assert.Equal(t, watch.CommandReload, read())

	f.server.TemplatesChanged([]string{"index.html"})
	assert.Equal(t, watch.CommandReload, read())

	testutil.WriteFiles(t, f.dir, map[string]string{"about.html": `{{bio}}`})
	f.server.TemplatesChanged([]string{"about.html"})
	assert.Equal(t, watch.CommandDirty, read())
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	f := newFixture(t)
	f.create(t, "general", `{"title":"Acme"}`)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
