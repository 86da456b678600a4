package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(vars map[string]string) LookupEnv {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir, WithLookupEnv(noEnv))
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.False(t, cfg.Cache)
	assert.True(t, cfg.Placeholders)
	assert.True(t, cfg.LiveReload)
	assert.False(t, cfg.ConditionalFields)
	assert.Equal(t, filepath.Join(dir, "www"), cfg.TemplatesDir())
	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir())
	assert.Equal(t, filepath.Join(dir, "data", DefaultDatabaseName), cfg.DatabasePath())
	assert.Equal(t, filepath.Join(dir, "data", "uploads"), cfg.UploadsDir())
}

func TestLoadProductionDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), WithLookupEnv(envOf(map[string]string{"STENCIL_ENV": "production"})))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Cache)
	assert.False(t, cfg.Placeholders)
	assert.False(t, cfg.LiveReload)
}

func TestLoadFile(t *testing.T) {
	dir := writeConfig(t, `
env: production
data_path: /var/lib/site
port: 8080
placeholders: true
cache: false
conditional_fields: true
`)
	cfg, err := Load(dir, WithLookupEnv(noEnv))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.Cache)
	assert.True(t, cfg.Placeholders)
	assert.True(t, cfg.ConditionalFields)
	assert.Equal(t, "/var/lib/site", cfg.DataDir())
	assert.Equal(t, "/var/lib/site/stencil.sqlite", cfg.DatabasePath())
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""), WithLookupEnv(noEnv))
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := writeConfig(t, "env: production\nport: 8080\n")
	cfg, err := Load(dir, WithLookupEnv(envOf(map[string]string{"STENCIL_ENV": "test", "PORT": "9000"})))
	require.NoError(t, err)

	assert.Equal(t, EnvTest, cfg.Env)
	assert.Equal(t, 9000, cfg.Port)
	assert.False(t, cfg.Placeholders)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeConfig(t, "bogus: 1\n"), WithLookupEnv(noEnv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestLoadRejectsBadPort(t *testing.T) {
	_, err := Load(t.TempDir(), WithLookupEnv(envOf(map[string]string{"PORT": "http"})))
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "port", se.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown env", func(c *Config) { c.Env = "staging" }, "env"},
		{"port too large", func(c *Config) { c.Port = 70000 }, "port"},
		{"negative port", func(c *Config) { c.Port = -1 }, "port"},
		{"empty data path", func(c *Config) { c.DataPath = "" }, "data_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir(), EnvDevelopment)
			tt.mutate(cfg)

			err := cfg.Validate()
			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.field, se.Field)
			assert.NotEmpty(t, se.Message)
		})
	}
}

func TestValidateDefault(t *testing.T) {
	require.NoError(t, Default(t.TempDir(), EnvProduction).Validate())
}

func TestLoadWithEnvWins(t *testing.T) {
	dir := writeConfig(t, "env: development\n")
	cfg, err := Load(dir,
		WithLookupEnv(envOf(map[string]string{"STENCIL_ENV": "test"})),
		WithEnv(EnvProduction))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Cache)
}
