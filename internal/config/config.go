// Package config loads the site configuration from <site>/stencil.yaml,
// applies environment overrides and defaults, and validates the result
// against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the site directory.
const FileName = "stencil.yaml"

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Defaults.
const (
	DefaultPort          = 3000
	DefaultDataPath      = "./data"
	DefaultTemplatesPath = "./www"
	DefaultDatabaseName  = "stencil.sqlite"
)

//go:embed config.cue
var schemaSource string

// Config is the resolved site configuration.
type Config struct {
	// Root is the site directory. Relative paths resolve against it.
	Root string `json:"-" yaml:"-"`

	Env           string `json:"env" yaml:"env"`
	DataPath      string `json:"data_path" yaml:"data_path"`
	TemplatesPath string `json:"templates_path" yaml:"templates_path"`
	Database      string `json:"database" yaml:"database"`
	Cache         bool   `json:"cache" yaml:"cache"`
	Placeholders  bool   `json:"placeholders" yaml:"placeholders"`
	LiveReload    bool   `json:"live_reload" yaml:"live_reload"`
	Port          int    `json:"port" yaml:"port"`

	// ConditionalFields makes {{#if x}} and {{#unless x}} declare x as a
	// field of the enclosing section, so the test sees its content.
	ConditionalFields bool `json:"conditional_fields" yaml:"conditional_fields"`
}

// file mirrors stencil.yaml. Pointers distinguish unset from false/zero.
type file struct {
	Env               string `yaml:"env"`
	DataPath          string `yaml:"data_path"`
	TemplatesPath     string `yaml:"templates_path"`
	Database          string `yaml:"database"`
	Cache             *bool  `yaml:"cache"`
	Placeholders      *bool  `yaml:"placeholders"`
	LiveReload        *bool  `yaml:"live_reload"`
	ConditionalFields bool   `yaml:"conditional_fields"`
	Port              int    `yaml:"port"`
}

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// Option configures Load.
type Option func(*loader)

type loader struct {
	lookupEnv LookupEnv
	env       string
}

// WithLookupEnv replaces os.LookupEnv, for tests.
func WithLookupEnv(fn LookupEnv) Option {
	return func(l *loader) {
		l.lookupEnv = fn
	}
}

// WithEnv forces the environment over the file and STENCIL_ENV.
// An empty env changes nothing.
func WithEnv(env string) Option {
	return func(l *loader) {
		l.env = env
	}
}

// SchemaError is a config value rejected by the CUE schema.
type SchemaError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads <root>/stencil.yaml if present. STENCIL_ENV and PORT override
// the file; unset values take defaults that depend on the environment:
// cache is on only in production, placeholders and live reload only in
// development.
func Load(root string, opts ...Option) (*Config, error) {
	l := &loader{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(l)
	}

	var f file
	data, err := os.ReadFile(filepath.Join(root, FileName))
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true) // Reject unknown fields
		if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	if v, ok := l.lookupEnv("STENCIL_ENV"); ok && v != "" {
		f.Env = v
	}
	if l.env != "" {
		f.Env = l.env
	}
	if v, ok := l.lookupEnv("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, &SchemaError{Field: "port", Message: fmt.Sprintf("PORT %q is not a number", v)}
		}
		f.Port = port
	}

	cfg := resolve(root, f)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration of a site without stencil.yaml.
func Default(root, env string) *Config {
	return resolve(root, file{Env: env})
}

func resolve(root string, f file) *Config {
	cfg := &Config{
		Root:          root,
		Env:           orDefault(f.Env, EnvDevelopment),
		DataPath:      orDefault(f.DataPath, DefaultDataPath),
		TemplatesPath: orDefault(f.TemplatesPath, DefaultTemplatesPath),
		Database:      f.Database,
		Port:          f.Port,

		ConditionalFields: f.ConditionalFields,
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Database == "" {
		cfg.Database = filepath.Join(cfg.DataPath, DefaultDatabaseName)
	}

	cfg.Cache = boolOr(f.Cache, cfg.Env == EnvProduction)
	cfg.Placeholders = boolOr(f.Placeholders, cfg.Env == EnvDevelopment)
	cfg.LiveReload = boolOr(f.LiveReload, cfg.Env == EnvDevelopment)
	return cfg
}

// Validate checks the config against the CUE schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("config.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	value := def.Unify(ctx.Encode(c))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// IsDevelopment reports whether the site runs in development.
func (c *Config) IsDevelopment() bool { return c.Env == EnvDevelopment }

// IsProduction reports whether the site runs in production.
func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// TemplatesDir is the absolute-or-root-relative template directory.
func (c *Config) TemplatesDir() string { return c.path(c.TemplatesPath) }

// DataDir is the data directory.
func (c *Config) DataDir() string { return c.path(c.DataPath) }

// DatabasePath is the SQLite file.
func (c *Config) DatabasePath() string { return c.path(c.Database) }

// UploadsDir holds uploaded files, served under /uploads.
func (c *Config) UploadsDir() string { return filepath.Join(c.DataDir(), "uploads") }

func (c *Config) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := "config"
	if path := first.Path(); len(path) > 0 {
		field = path[len(path)-1]
	}

	format, args := first.Msg()
	se := &SchemaError{Field: field, Message: fmt.Sprintf(format, args...)}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		se.Pos = positions[0]
	}
	return se
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
