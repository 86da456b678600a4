// Package server is the HTTP boundary: it serves rendered pages, uploads,
// the content API and, in development, the live reload socket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/roach88/stencil/internal/builder"
	"github.com/roach88/stencil/internal/content"
	"github.com/roach88/stencil/internal/model"
	"github.com/roach88/stencil/internal/render"
	"github.com/roach88/stencil/internal/site"
	"github.com/roach88/stencil/internal/watch"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const shutdownTimeout = 5 * time.Second

// IDGenerator creates request ids.
type IDGenerator interface {
	Generate() string
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string { return uuid.NewString() }

// Server routes requests to the renderer and the content service.
type Server struct {
	router   *mux.Router
	renderer *render.Renderer
	content  *content.Service
	builder  *builder.Builder
	hub      *watch.Hub
	uploads  string
	ids      IDGenerator
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithIDGenerator replaces the uuid request id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Server) {
		s.ids = g
	}
}

// WithLiveReload mounts hub at /livereload and injects its script into
// HTML pages.
func WithLiveReload(hub *watch.Hub) Option {
	return func(s *Server) {
		s.hub = hub
	}
}

// WithUploads serves dir under /uploads/.
func WithUploads(dir string) Option {
	return func(s *Server) {
		s.uploads = dir
	}
}

// New wires the routes. Record writes clear the render cache and, with
// live reload, tell browsers to reload.
func New(r *render.Renderer, c *content.Service, b *builder.Builder, opts ...Option) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		renderer: r,
		content:  c,
		builder:  b,
		ids:      uuidGenerator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	c.Subscribe(func(e content.Event) {
		s.renderer.ClearCache()
		s.logger.Debug("content changed", "kind", e.Kind, "section", e.Section, "id", e.RecordID)
		if s.hub != nil {
			s.hub.Broadcast(watch.CommandReload)
		}
	})

	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.requestID, s.recoverer, s.logRequests)

	if s.hub != nil {
		s.router.Handle(watch.Path, s.hub)
	}
	if s.uploads != "" {
		s.router.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploads))))
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sections/{name}/records", s.handleCreateRecord).Methods("POST")
	api.HandleFunc("/records/{id:[0-9]+}", s.handleUpdateRecord).Methods("PUT")
	api.HandleFunc("/records/{id:[0-9]+}", s.handleDestroyRecord).Methods("DELETE")
	api.HandleFunc("/records/{id:[0-9]+}/reorder", s.handleReorderRecord).Methods("POST")

	s.router.PathPrefix("/").HandlerFunc(s.handlePage).Methods("GET", "HEAD")
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// TemplatesChanged reacts to template edits: the render cache is dropped
// and browsers are told the schema is dirty, or to reload when it is not.
func (s *Server) TemplatesChanged(paths []string) {
	s.renderer.ClearCache()
	if s.hub == nil {
		return
	}

	dirty, err := s.builder.IsDirty()
	if err != nil {
		s.logger.Warn("schema check failed", "error", err)
		dirty = true
	}
	if dirty {
		s.logger.Info("schema is dirty, run stencil build", "paths", paths)
		s.hub.Broadcast(watch.CommandDirty)
		return
	}
	s.hub.Broadcast(watch.CommandReload)
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	s.logger.Debug("listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if s.hub != nil {
			s.hub.Close()
		}
		return srv.Shutdown(shutdownCtx)
	case err, ok := <-serverErr:
		if !ok {
			return nil
		}
		return fmt.Errorf("serve %s: %w", ln.Addr(), err)
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if site.IsPrivate(r.URL.Path) {
		s.renderError(w, r, model.NewNotFound("template", r.URL.Path))
		return
	}

	page, err := s.renderer.RenderContent(r.Context(), r.URL.Path)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	ctype := contentType(r.URL.Path)
	if s.hub != nil && ctype == htmlType {
		page = watch.Inject(page)
	}
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte(page))
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := s.renderer.RenderError(err, r)
	w.Header().Set("Content-Type", htmlType)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

const htmlType = "text/html; charset=utf-8"

func contentType(uriPath string) string {
	ext := path.Ext(uriPath)
	if ext == "" || ext == site.DefaultExtension {
		return htmlType
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return htmlType
}
