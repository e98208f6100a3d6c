package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semonto/ontology"
	"github.com/c360studio/semonto/source"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ontology.DefaultLoaderConfig(), cfg.OntologyConfig())
	assert.Equal(t, 30*time.Second, cfg.Remote.Timeout)
	assert.True(t, cfg.RemoteGuard().BlockPrivate)
	assert.False(t, cfg.RemoteGuard().RequireHTTPS)
	assert.Equal(t, "SEMONTO_DOCUMENTS", cfg.NATS.DocumentBucket)
	assert.Equal(t, "graph.ingest.entity", cfg.NATS.Subject)
	assert.Empty(t, cfg.StaticMappers())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:    "unknown missing import policy",
			modify:  func(c *Config) { c.Loader.MissingImports = "explode" },
			wantErr: "MissingImports",
		},
		{
			name:    "unknown missing header policy",
			modify:  func(c *Config) { c.Loader.MissingHeaders = "drop" },
			wantErr: "MissingHeaders",
		},
		{
			name:    "bad ignore pattern",
			modify:  func(c *Config) { c.Loader.IgnoredImports = []string{"http://ex/[a"} },
			wantErr: "ignored import pattern",
		},
		{
			name:    "directory without root",
			modify:  func(c *Config) { c.Mapping.Directories = []DirectoryConfig{{Pattern: "**/*.ttl"}} },
			wantErr: "Root",
		},
		{
			name:    "prefix without target",
			modify:  func(c *Config) { c.Mapping.Prefixes = []PrefixConfig{{From: "http://ex/"}} },
			wantErr: "To",
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Remote.Timeout = -time.Second },
			wantErr: "Timeout",
		},
		{
			name:    "malformed nats url",
			modify:  func(c *Config) { c.NATS.URL = "not a url" },
			wantErr: "URL",
		},
		{
			name:    "missing bucket",
			modify:  func(c *Config) { c.NATS.DocumentBucket = "" },
			wantErr: "DocumentBucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	writeConfig(t, configPath, `
loader:
  missing_imports: silent
  control_imports: true
  ignored_imports:
    - "http://purl.org/**"
mapping:
  iris:
    http://ex/core: file:///mirror/core.ttl
  prefixes:
    - from: http://ex/
      to: file:///mirror/
remote:
  timeout: 5s
  block_private: false
nats:
  url: nats://broker:4222
`)

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	oc := cfg.OntologyConfig()
	assert.Equal(t, ontology.MissingImportSilent, oc.MissingImports)
	assert.Equal(t, ontology.HeaderInclude, oc.MissingHeaders, "unset keys keep defaults")
	assert.True(t, oc.ControlImports)
	assert.True(t, oc.ProcessImports)
	assert.Equal(t, []string{"http://purl.org/**"}, oc.IgnoredImports)

	assert.Equal(t, 5*time.Second, cfg.HTTPClient().Timeout)
	assert.False(t, cfg.RemoteGuard().BlockPrivate)
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.Equal(t, "SEMONTO_DOCUMENTS", cfg.NATS.DocumentBucket)

	mappers := cfg.StaticMappers()
	require.Len(t, mappers, 2)
	loc, ok := mappers[0].DocumentIRI("http://ex/core")
	assert.True(t, ok)
	assert.Equal(t, "file:///mirror/core.ttl", loc)
	assert.Equal(t, source.PrefixMapper{From: "http://ex/", To: "file:///mirror/"}, mappers[1])
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	writeConfig(t, bad, "loader: [unterminated")
	_, err = LoadFromFile(bad)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestSaveAndReload(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Loader.MissingHeaders = "keep"
	cfg.Mapping.Directories = []DirectoryConfig{{Root: "/onto", Pattern: "**/*.ttl", Watch: true}}

	require.NoError(t, cfg.SaveToFile(configPath))
	loaded, err := LoadFromFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Mapping.Prefixes = []PrefixConfig{{From: "http://a/", To: "file:///a/"}}
	base.Mapping.IRIs = map[string]string{"http://a/x": "file:///x.ttl"}

	base.Merge(&Config{
		Loader: LoaderConfig{
			MissingImports:  "silent",
			Transformations: boolPtr(false),
		},
		Mapping: MappingConfig{
			Prefixes: []PrefixConfig{{From: "http://b/", To: "file:///b/"}},
			IRIs:     map[string]string{"http://b/y": "file:///y.ttl"},
		},
		Remote: RemoteConfig{RequireHTTPS: boolPtr(true)},
		NATS:   NATSConfig{Subject: "ontology.triples"},
	})

	assert.Equal(t, "silent", base.Loader.MissingImports)
	assert.False(t, base.OntologyConfig().Transformations)
	assert.True(t, base.OntologyConfig().ContentCache)
	assert.Equal(t, []PrefixConfig{
		{From: "http://b/", To: "file:///b/"},
		{From: "http://a/", To: "file:///a/"},
	}, base.Mapping.Prefixes)
	assert.Len(t, base.Mapping.IRIs, 2)
	assert.True(t, base.RemoteGuard().RequireHTTPS)
	assert.True(t, base.RemoteGuard().BlockPrivate)
	assert.Equal(t, "ontology.triples", base.NATS.Subject)
	assert.Equal(t, "SEMONTO_DOCUMENTS", base.NATS.DocumentBucket)

	base.Merge(nil)
	assert.Equal(t, "silent", base.Loader.MissingImports)
}

func TestLoaderLayers(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	work := filepath.Join(project, "sub", "dir")
	require.NoError(t, os.MkdirAll(work, 0o755))

	writeConfig(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
loader:
  missing_imports: silent
  missing_headers: keep
remote:
  timeout: 10s
`)
	writeConfig(t, filepath.Join(project, ProjectConfigFile), `
loader:
  missing_imports: throw
mapping:
  directories:
    - root: ontologies
      pattern: "**/*.ttl"
`)

	env := map[string]string{EnvNATSURL: "nats://env:4222"}
	l := testLoader(home, work, env)

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "throw", cfg.Loader.MissingImports, "project overrides user")
	assert.Equal(t, "keep", cfg.Loader.MissingHeaders, "user survives unset project keys")
	assert.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	require.Len(t, cfg.Mapping.Directories, 1)
	assert.Equal(t, filepath.Join(project, "ontologies"), cfg.Mapping.Directories[0].Root)

	t.Run("environment timeout", func(t *testing.T) {
		env[EnvRemoteTimeout] = "2s"
		cfg, err := l.Load()
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, cfg.Remote.Timeout)

		env[EnvRemoteTimeout] = "soon"
		cfg, err = l.Load()
		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	})

	t.Run("invalid project config fails", func(t *testing.T) {
		writeConfig(t, filepath.Join(project, ProjectConfigFile), "loader:\n  missing_headers: drop\n")
		_, err := l.Load()
		assert.ErrorContains(t, err, "MissingHeaders")
	})
}

func TestLoaderLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "explicit.yaml")
	writeConfig(t, path, `
mapping:
  directories:
    - root: /abs/onto
    - root: rel
`)
	cfg, err := testLoader(t.TempDir(), t.TempDir(), nil).LoadFile(path)
	require.NoError(t, err)
	require.Len(t, cfg.Mapping.Directories, 2)
	assert.Equal(t, "/abs/onto", cfg.Mapping.Directories[0].Root)
	assert.Equal(t, filepath.Join(dir, "rel"), cfg.Mapping.Directories[1].Root)
}

func TestEnsureUserConfig(t *testing.T) {
	home := t.TempDir()
	l := testLoader(home, t.TempDir(), nil)
	require.NoError(t, l.EnsureUserConfig())

	path := filepath.Join(home, UserConfigDir, UserConfigFile)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	writeConfig(t, path, "loader:\n  missing_imports: silent\n")
	require.NoError(t, l.EnsureUserConfig())
	cfg, err = LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "silent", cfg.Loader.MissingImports, "existing file is kept")
}

func testLoader(home, work string, env map[string]string) *Loader {
	l := NewLoader(slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.homeDir = func() (string, error) { return home, nil }
	l.workDir = func() (string, error) { return work, nil }
	l.getenv = func(k string) string { return env[k] }
	return l
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
