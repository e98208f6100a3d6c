// Package config provides configuration loading and management for semonto.
package config

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/semonto/ontology"
	"github.com/c360studio/semonto/source"
)

// Config represents the complete semonto configuration
type Config struct {
	Loader  LoaderConfig  `yaml:"loader"`
	Mapping MappingConfig `yaml:"mapping"`
	Remote  RemoteConfig  `yaml:"remote"`
	NATS    NATSConfig    `yaml:"nats"`
}

// LoaderConfig configures ontology loading and editing. Unset switches
// keep their defaults when configs are merged.
type LoaderConfig struct {
	// MissingImports is "throw" or "silent"
	MissingImports string `yaml:"missing_imports" validate:"omitempty,oneof=throw silent"`
	// MissingHeaders is "include" or "keep"
	MissingHeaders string `yaml:"missing_headers" validate:"omitempty,oneof=include keep"`

	ProcessImports  *bool `yaml:"process_imports,omitempty"`
	Transformations *bool `yaml:"transformations,omitempty"`
	ContentCache    *bool `yaml:"content_cache,omitempty"`
	ControlImports  *bool `yaml:"control_imports,omitempty"`

	// IgnoredImports are doublestar patterns of import IRIs never fetched
	IgnoredImports []string `yaml:"ignored_imports,omitempty"`
}

// MappingConfig configures where ontology documents are found
type MappingConfig struct {
	// Directories are scanned for documents declaring ontology IRIs
	Directories []DirectoryConfig `yaml:"directories,omitempty" validate:"dive"`
	// Prefixes rewrite whole namespaces to mirror locations
	Prefixes []PrefixConfig `yaml:"prefixes,omitempty" validate:"dive"`
	// IRIs map single ontology IRIs to document locations
	IRIs map[string]string `yaml:"iris,omitempty"`
}

// DirectoryConfig configures one automatic directory mapper
type DirectoryConfig struct {
	Root        string   `yaml:"root" validate:"required"`
	Pattern     string   `yaml:"pattern,omitempty"`
	ExcludeDirs []string `yaml:"exclude_dirs,omitempty"`
	// Watch rescans changed documents while the process runs
	Watch bool `yaml:"watch,omitempty"`
}

// PrefixConfig maps ontology IRIs under From to locations under To
type PrefixConfig struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to" validate:"required"`
}

// RemoteConfig restricts and tunes remote document fetches
type RemoteConfig struct {
	// Timeout bounds one HTTP fetch (default: 30s)
	Timeout      time.Duration `yaml:"timeout" validate:"gte=0"`
	RequireHTTPS *bool         `yaml:"require_https,omitempty"`
	BlockPrivate *bool         `yaml:"block_private,omitempty"`
	AllowHosts   []string      `yaml:"allow_hosts,omitempty"`
}

// NATSConfig configures the NATS connection used for publishing and the
// document store
type NATSConfig struct {
	// URL is the NATS server URL (empty = nats://localhost:4222)
	URL string `yaml:"url,omitempty" validate:"omitempty,url"`
	// DocumentBucket is the KV bucket holding ontology documents
	DocumentBucket string `yaml:"document_bucket" validate:"required"`
	// Subject is the stream subject ontology triples are published to
	Subject string `yaml:"subject" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	defaults := ontology.DefaultLoaderConfig()
	return &Config{
		Loader: LoaderConfig{
			MissingImports:  string(defaults.MissingImports),
			MissingHeaders:  string(defaults.MissingHeaders),
			ProcessImports:  boolPtr(defaults.ProcessImports),
			Transformations: boolPtr(defaults.Transformations),
			ContentCache:    boolPtr(defaults.ContentCache),
			ControlImports:  boolPtr(defaults.ControlImports),
		},
		Remote: RemoteConfig{
			Timeout:      30 * time.Second,
			RequireHTTPS: boolPtr(false),
			BlockPrivate: boolPtr(true),
		},
		NATS: NATSConfig{
			DocumentBucket: "SEMONTO_DOCUMENTS",
			Subject:        "graph.ingest.entity",
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func isSet(b *bool) bool {
	return b != nil && *b
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.OntologyConfig().Validate(); err != nil {
		return fmt.Errorf("invalid loader config: %w", err)
	}
	return nil
}

// OntologyConfig converts the loader section for an ontology.Manager.
func (c *Config) OntologyConfig() ontology.LoaderConfig {
	out := ontology.DefaultLoaderConfig()
	if c.Loader.MissingImports != "" {
		out.MissingImports = ontology.MissingImportPolicy(c.Loader.MissingImports)
	}
	if c.Loader.MissingHeaders != "" {
		out.MissingHeaders = ontology.MissingHeaderPolicy(c.Loader.MissingHeaders)
	}
	for _, sw := range []struct {
		src *bool
		dst *bool
	}{
		{c.Loader.ProcessImports, &out.ProcessImports},
		{c.Loader.Transformations, &out.Transformations},
		{c.Loader.ContentCache, &out.ContentCache},
		{c.Loader.ControlImports, &out.ControlImports},
	} {
		if sw.src != nil {
			*sw.dst = *sw.src
		}
	}
	out.IgnoredImports = append([]string(nil), c.Loader.IgnoredImports...)
	return out
}

// RemoteGuard builds the guard vetting remote locations
func (c *Config) RemoteGuard() *source.RemoteGuard {
	return &source.RemoteGuard{
		RequireHTTPS: isSet(c.Remote.RequireHTTPS),
		BlockPrivate: isSet(c.Remote.BlockPrivate),
		AllowHosts:   append([]string(nil), c.Remote.AllowHosts...),
	}
}

// HTTPClient builds the client used for remote documents
func (c *Config) HTTPClient() *http.Client {
	return &http.Client{Timeout: c.Remote.Timeout}
}

// StaticMappers returns the mappers that need no scanning: single IRIs
// first, then namespace prefixes in configured order.
func (c *Config) StaticMappers() []source.IRIMapper {
	var out []source.IRIMapper
	if len(c.Mapping.IRIs) > 0 {
		m := make(source.MapMapper, len(c.Mapping.IRIs))
		for k, v := range c.Mapping.IRIs {
			m[k] = v
		}
		out = append(out, m)
	}
	for _, p := range c.Mapping.Prefixes {
		out = append(out, source.PrefixMapper{From: p.From, To: p.To})
	}
	return out
}

// LoadFromFile loads configuration from a YAML file over the defaults
func LoadFromFile(path string) (*Config, error) {
	fileConfig, err := readFile(path)
	if err != nil {
		return nil, err
	}
	config := DefaultConfig()
	config.Merge(fileConfig)
	return config, nil
}

// readFile reads one layer without defaults so that Merge only sees the
// keys the file sets.
func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Loader
	if other.Loader.MissingImports != "" {
		c.Loader.MissingImports = other.Loader.MissingImports
	}
	if other.Loader.MissingHeaders != "" {
		c.Loader.MissingHeaders = other.Loader.MissingHeaders
	}
	if other.Loader.ProcessImports != nil {
		c.Loader.ProcessImports = other.Loader.ProcessImports
	}
	if other.Loader.Transformations != nil {
		c.Loader.Transformations = other.Loader.Transformations
	}
	if other.Loader.ContentCache != nil {
		c.Loader.ContentCache = other.Loader.ContentCache
	}
	if other.Loader.ControlImports != nil {
		c.Loader.ControlImports = other.Loader.ControlImports
	}
	if len(other.Loader.IgnoredImports) > 0 {
		c.Loader.IgnoredImports = other.Loader.IgnoredImports
	}

	// Mapping: later layers add mappings in front of earlier ones
	if len(other.Mapping.Directories) > 0 {
		c.Mapping.Directories = append(append([]DirectoryConfig(nil), other.Mapping.Directories...), c.Mapping.Directories...)
	}
	if len(other.Mapping.Prefixes) > 0 {
		c.Mapping.Prefixes = append(append([]PrefixConfig(nil), other.Mapping.Prefixes...), c.Mapping.Prefixes...)
	}
	if len(other.Mapping.IRIs) > 0 {
		if c.Mapping.IRIs == nil {
			c.Mapping.IRIs = make(map[string]string, len(other.Mapping.IRIs))
		}
		for k, v := range other.Mapping.IRIs {
			c.Mapping.IRIs[k] = v
		}
	}

	// Remote
	if other.Remote.Timeout != 0 {
		c.Remote.Timeout = other.Remote.Timeout
	}
	if other.Remote.RequireHTTPS != nil {
		c.Remote.RequireHTTPS = other.Remote.RequireHTTPS
	}
	if other.Remote.BlockPrivate != nil {
		c.Remote.BlockPrivate = other.Remote.BlockPrivate
	}
	if len(other.Remote.AllowHosts) > 0 {
		c.Remote.AllowHosts = other.Remote.AllowHosts
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.DocumentBucket != "" {
		c.NATS.DocumentBucket = other.NATS.DocumentBucket
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}
}
