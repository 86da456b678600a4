package render

import (
	"embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/roach88/stencil/internal/compiler"
	"github.com/roach88/stencil/internal/directive"
	"github.com/roach88/stencil/internal/model"
)

//go:embed pages/*.html
var pages embed.FS

// PanicError carries a recovered panic and the goroutine stack.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// StatusCode maps an error to an HTTP status: 404 for missing templates or
// records, 422 for validation failures, 500 otherwise.
func StatusCode(err error) int {
	switch {
	case model.IsNotFound(err):
		return http.StatusNotFound
	case model.IsValidation(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RenderError renders an error page.
//
// In development, errors other than 404 render a trace page. Otherwise the
// status is normalized to 404 or 500; 404s use the site's _error.html when
// present, everything else a built-in page. Errors other than 404 are
// logged with their stack.
func (r *Renderer) RenderError(err error, req *http.Request) (int, string) {
	status := StatusCode(err)
	stack := Stack(err)

	var body string
	if r.dev && status != http.StatusNotFound {
		body = r.trace(status, err, stack, req)
	} else {
		if status != http.StatusNotFound {
			status = http.StatusInternalServerError
		}
		body = r.errorPage(status)
	}

	if status != http.StatusNotFound {
		r.logger.Error("request failed", "status", status, "error", err, "stack", stack)
	}
	return status, body
}

func (r *Renderer) trace(status int, err error, stack string, req *http.Request) string {
	request := map[string]string{}
	if req != nil {
		request["method"] = directive.Escape(req.Method)
		request["url"] = directive.Escape(req.URL.String())
		request["id"] = directive.Escape(req.Header.Get("X-Request-ID"))
	}

	data := compiler.Content{
		"error": map[string]string{
			"status":  fmt.Sprint(status),
			"title":   http.StatusText(status),
			"message": directive.Escape(err.Error()),
			"stack":   directive.Escape(stack),
		},
		"request": request,
	}

	src, _ := pages.ReadFile("pages/trace.html")
	out, rerr := compiler.New(string(src), nil).Render(data)
	if rerr != nil {
		return r.errorPage(http.StatusInternalServerError)
	}
	return out
}

func (r *Renderer) errorPage(status int) string {
	if status == http.StatusNotFound {
		if p, ok := r.site.ErrorPage(); ok {
			if data, err := os.ReadFile(p); err == nil {
				return string(data)
			}
		}
	}
	data, _ := pages.ReadFile(fmt.Sprintf("pages/%d.html", status))
	return string(data)
}

// Stack describes where err came from: the recovered goroutine stack for
// panics, otherwise the chain of wrapped errors, outermost first.
func Stack(err error) string {
	var pe *PanicError
	if errors.As(err, &pe) {
		return string(pe.Stack)
	}

	var lines []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		lines = append(lines, fmt.Sprintf("%T: %s", e, e.Error()))
	}
	return strings.Join(lines, "\n")
}
