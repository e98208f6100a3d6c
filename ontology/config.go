package ontology

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// MissingImportPolicy decides what happens when an import cannot be loaded.
type MissingImportPolicy string

const (
	// MissingImportThrow fails the whole load.
	MissingImportThrow MissingImportPolicy = "throw"
	// MissingImportSilent logs the failure, notifies listeners and goes on.
	MissingImportSilent MissingImportPolicy = "silent"
)

// MissingHeaderPolicy decides how an imported document without an
// ontology IRI is treated.
type MissingHeaderPolicy string

const (
	// HeaderInclude splices the document's statements into the importer.
	HeaderInclude MissingHeaderPolicy = "include"
	// HeaderKeep registers it as a separate anonymous ontology.
	HeaderKeep MissingHeaderPolicy = "keep"
)

// LoaderConfig controls loading and editing.
type LoaderConfig struct {
	MissingImports MissingImportPolicy
	MissingHeaders MissingHeaderPolicy

	// ProcessImports fetches imported documents. When false, import
	// declarations are kept but nothing is fetched.
	ProcessImports bool

	// Transformations runs the transform passes over freshly read graphs.
	Transformations bool

	// ContentCache enables the axiom cache. Axiom and annotation changes
	// require it.
	ContentCache bool

	// ControlImports keeps local declarations in step with imports: adding
	// an import drops local declarations the import now supplies, removing
	// it restores them.
	ControlImports bool

	// IgnoredImports are doublestar patterns of import IRIs never fetched.
	IgnoredImports []string
}

// DefaultLoaderConfig returns the default configuration.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		MissingImports:  MissingImportThrow,
		MissingHeaders:  HeaderInclude,
		ProcessImports:  true,
		Transformations: true,
		ContentCache:    true,
	}
}

// Validate checks the configuration.
func (c LoaderConfig) Validate() error {
	switch c.MissingImports {
	case MissingImportThrow, MissingImportSilent:
	default:
		return fmt.Errorf("invalid missing import policy %q", c.MissingImports)
	}
	switch c.MissingHeaders {
	case HeaderInclude, HeaderKeep:
	default:
		return fmt.Errorf("invalid missing header policy %q", c.MissingHeaders)
	}
	for _, p := range c.IgnoredImports {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid ignored import pattern %q", p)
		}
	}
	return nil
}

// ignored reports whether iri matches one of the ignore patterns.
func (c LoaderConfig) ignored(iri string) bool {
	for _, p := range c.IgnoredImports {
		if p == iri {
			return true
		}
		if ok, err := doublestar.Match(p, iri); err == nil && ok {
			return true
		}
	}
	return false
}
