package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/stencil/internal/builder"
	"github.com/roach88/stencil/internal/compiler"
	"github.com/roach88/stencil/internal/config"
	"github.com/roach88/stencil/internal/content"
	"github.com/roach88/stencil/internal/model"
	"github.com/roach88/stencil/internal/render"
	"github.com/roach88/stencil/internal/site"
	"github.com/roach88/stencil/internal/store"
)

// SiteOptions locates a site and overrides its stencil.yaml.
type SiteOptions struct {
	*RootOptions
	Site     string
	Database string
	Env      string
}

func (o *SiteOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Site, "site", ".", "site directory")
	cmd.Flags().StringVar(&o.Database, "db", "", "path to SQLite database (default <data_path>/stencil.sqlite)")
	cmd.Flags().StringVar(&o.Env, "env", "", "environment (development|production|test)")
}

func (o *SiteOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// loadConfig reads stencil.yaml and applies the command line overrides.
func (o *SiteOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.Site, config.WithEnv(o.Env))
	if err != nil {
		return nil, err
	}
	if o.Database != "" {
		abs, err := filepath.Abs(o.Database)
		if err != nil {
			return nil, err
		}
		cfg.Database = abs
	}
	return cfg, cfg.Validate()
}

// app is an opened site: its config, store and services.
type app struct {
	cfg      *config.Config
	site     *site.Site
	store    *store.Store
	builder  *builder.Builder
	content  *content.Service
	renderer *render.Renderer
}

func openApp(o *SiteOptions) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, &setupError{code: ErrCodeConfig, err: fmt.Errorf("invalid configuration: %w", err)}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath()), 0o755); err != nil {
		return nil, &setupError{code: ErrCodeDatabase, err: fmt.Errorf("create data directory: %w", err)}
	}
	slog.Debug("opening database", "path", cfg.DatabasePath())
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, &setupError{code: ErrCodeDatabase, err: fmt.Errorf("open database: %w", err)}
	}

	s := site.New(cfg.TemplatesDir())
	logger := slog.Default()
	c := content.New(st, content.WithLogger(logger))
	return &app{
		cfg:     cfg,
		site:    s,
		store:   st,
		builder: builder.New(s, st,
			builder.WithLogger(logger),
			builder.WithConditionalFields(cfg.ConditionalFields)),
		content: c,
		renderer: render.New(s, c,
			render.WithLogger(logger),
			render.WithDevelopment(cfg.IsDevelopment()),
			render.WithPlaceholders(cfg.Placeholders),
			render.WithCache(cfg.Cache),
			render.WithConditionalFields(cfg.ConditionalFields)),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// setupError is a failure opening the site, before the command ran.
type setupError struct {
	code string
	err  error
}

func (e *setupError) Error() string { return e.err.Error() }
func (e *setupError) Unwrap() error { return e.err }

// report writes a failed command to the formatter and returns an
// ExitError marked as already reported.
func report(f *OutputFormatter, err error) error {
	code, exit := ErrCodeGeneric, ExitFailure
	var details any

	var (
		setup *setupError
		se    *compiler.SyntaxError
		ve    *model.ValidationError
	)
	switch {
	case errors.As(err, &setup):
		code, exit = setup.code, ExitCommandError
	case errors.As(err, &se):
		code = ErrCodeBuildFailed
		details = map[string]any{"file": se.File, "line": se.Line, "column": se.Column}
	case errors.As(err, &ve):
		code, details = ErrCodeValidation, ve.Fields
	case model.IsNotFound(err):
		code = ErrCodeNotFound
	}

	if ferr := f.Error(code, err.Error(), details); ferr != nil {
		return ferr
	}
	return WrapExitError(exit, "command failed", errReported)
}

// errReported marks errors already written to the output.
var errReported = errors.New("reported")

// IsReported tells main the error was already printed.
func IsReported(err error) bool {
	return errors.Is(err, errReported)
}
