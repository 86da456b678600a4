package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/stencil/internal/builder"
	"github.com/roach88/stencil/internal/content"
	"github.com/roach88/stencil/internal/directive"
	"github.com/roach88/stencil/internal/render"
	"github.com/roach88/stencil/internal/server"
	"github.com/roach88/stencil/internal/site"
	"github.com/roach88/stencil/internal/store"
	"github.com/roach88/stencil/internal/testutil"
)

// Harness holds one scenario's site and services.
type Harness struct {
	dir     string
	store   *store.Store
	builder *builder.Builder
	content *content.Service
	server  *server.Server
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh site directory and in-memory database.
// Execution flow:
// 1. Write templates and build the schema
// 2. Create setup records
// 3. Replay flow requests, checking expect clauses
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}
	defer h.close()

	ctx := context.Background()
	result := NewResult()

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	if err := h.executeFlow(scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{Ctx: ctx, Harness: h}
	for _, errMsg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(errMsg)
	}
	return result, nil
}

func newHarness(scenario *Scenario) (*Harness, error) {
	dir, err := os.MkdirTemp("", "stencil-scenario-")
	if err != nil {
		return nil, fmt.Errorf("failed to create site directory: %w", err)
	}
	h := &Harness{
		dir:    dir,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in scenarios
	}

	for name, markup := range scenario.Templates {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			h.close()
			return nil, fmt.Errorf("failed to write template %s: %w", name, err)
		}
		if err := os.WriteFile(path, []byte(markup), 0o644); err != nil {
			h.close()
			return nil, fmt.Errorf("failed to write template %s: %w", name, err)
		}
	}

	h.store, err = store.Open(":memory:", store.WithClock(testutil.NewFixedClock()))
	if err != nil {
		h.close()
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}

	s := site.New(dir)
	h.builder = builder.New(s, h.store, builder.WithLogger(h.logger))
	if _, err := h.builder.Build(context.Background()); err != nil {
		h.close()
		return nil, fmt.Errorf("failed to build site: %w", err)
	}

	reg := directive.NewRegistry(
		directive.WithLogger(h.logger),
		directive.WithUnfurler(directive.UnfurlerFunc(func(context.Context, string) (string, error) {
			return "", errors.New("offline")
		})))
	h.content = content.New(h.store, content.WithRegistry(reg), content.WithLogger(h.logger))

	renderer := render.New(s, h.content,
		render.WithLogger(h.logger),
		render.WithPlaceholders(scenario.Placeholders))
	h.server = server.New(renderer, h.content, h.builder,
		server.WithLogger(h.logger),
		server.WithIDGenerator(testutil.NewFixedIDGenerator("")))
	return h, nil
}

func (h *Harness) close() {
	if h.store != nil {
		h.store.Close()
	}
	os.RemoveAll(h.dir)
}

// executeSetup creates the setup records through the content service, so
// sortable sections append and validation applies.
func (h *Harness) executeSetup(ctx context.Context, setup []RecordStep) error {
	for i, step := range setup {
		rec, err := h.content.CreateRecord(ctx, step.Section, step.Content)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		h.logger.Info("setup step completed", "step", i, "section", step.Section, "id", rec.ID)
	}
	return nil
}

// executeFlow replays every request and checks its expect clause.
func (h *Harness) executeFlow(flow []FlowStep, result *Result) error {
	for i, step := range flow {
		resp, err := h.do(step.Method(), step.Path(), step.Body)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}
		result.Responses = append(result.Responses, resp)

		if step.Expect != nil {
			for _, msg := range checkExpect(i, step, resp) {
				result.AddError(msg)
			}
		}
		h.logger.Info("flow step completed", "step", i, "request", step.Request, "status", resp.Status)
	}
	return nil
}

// do sends one request to the server.
func (h *Harness) do(method, path string, body map[string]any) (Response, error) {
	var req *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Response{}, fmt.Errorf("failed to encode body: %w", err)
		}
		req = httptest.NewRequest(method, path, strings.NewReader(string(data)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	h.server.ServeHTTP(rec, req)
	return Response{Method: method, Path: path, Status: rec.Code, Body: rec.Body.String()}, nil
}

func checkExpect(index int, step FlowStep, resp Response) []string {
	var errs []string
	if step.Expect.Status != 0 && step.Expect.Status != resp.Status {
		errs = append(errs, fmt.Sprintf("flow[%d] %s: expected status %d, got %d",
			index, step.Request, step.Expect.Status, resp.Status))
	}
	for _, s := range step.Expect.Contains {
		if !strings.Contains(resp.Body, s) {
			errs = append(errs, fmt.Sprintf("flow[%d] %s: body does not contain %q", index, step.Request, s))
		}
	}
	for _, s := range step.Expect.Excludes {
		if strings.Contains(resp.Body, s) {
			errs = append(errs, fmt.Sprintf("flow[%d] %s: body contains %q", index, step.Request, s))
		}
	}
	return errs
}
