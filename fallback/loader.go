// Package fallback reads ontologies that no native RDF reader accepts. It
// understands a structural YAML form in which classes, properties and
// individuals are listed by name, and documents may include others.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/rdf"
	"github.com/c360studio/semonto/source"
)

// ErrBadRecursion is returned when a document includes itself, directly or
// through other includes, within one load.
var ErrBadRecursion = errors.New("bad recursion: document is already being loaded")

// Options tunes one fallback load.
type Options struct {
	// ContentCache keeps decoded includes between loads until Reset. The
	// ontology loader always turns it off.
	ContentCache bool
}

// Result describes a completed fallback load.
type Result struct {
	Format    format.Kind
	Prefixes  format.Prefixes
	Locations []string
}

// Loader reads structural YAML documents into graphs.
type Loader struct {
	logger *slog.Logger
	client *http.Client
	guard  *source.RemoteGuard

	mu      sync.Mutex
	loading map[string]bool
	cache   map[string]*document
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithHTTPClient sets the client used for remote includes.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) {
		l.client = c
	}
}

// WithRemoteGuard vets remote includes before they are fetched.
func WithRemoteGuard(g *source.RemoteGuard) LoaderOption {
	return func(l *Loader) {
		l.guard = g
	}
}

// NewLoader creates a fallback loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		logger:  slog.Default(),
		loading: make(map[string]bool),
		cache:   make(map[string]*document),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads src into g.
func (l *Loader) Load(ctx context.Context, src source.Source, g rdf.Graph, opts Options) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := &Result{Format: format.YAML, Prefixes: format.DefaultPrefixes()}
	b := &builder{g: g, prefixes: res.Prefixes}
	if err := l.load(ctx, src, b, res, opts, true); err != nil {
		return nil, err
	}
	return res, nil
}

// Reset forgets the in-progress set and every cached include. It is safe
// to call at any time and more than once.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.loading)
	clear(l.cache)
}

func (l *Loader) load(ctx context.Context, src source.Source, b *builder, res *Result, opts Options, top bool) error {
	loc := source.NormalizeIRI(src.Location())
	if l.loading[loc] {
		return fmt.Errorf("%w: %s", ErrBadRecursion, src.Location())
	}
	l.loading[loc] = true
	defer delete(l.loading, loc)

	doc, err := l.document(ctx, src, loc, opts)
	if err != nil {
		return err
	}
	res.Locations = append(res.Locations, src.Location())

	// declared prefixes apply to this document and every later one
	for prefix, ns := range doc.Prefixes {
		b.prefixes[prefix] = ns
	}
	if top {
		if err := b.header(doc); err != nil {
			return fmt.Errorf("%s: %w", src.Location(), err)
		}
	} else if doc.Ontology != "" {
		l.logger.Debug("Ignoring header of included document",
			"location", src.Location(),
			"ontology", doc.Ontology)
	}
	if err := b.body(doc); err != nil {
		return fmt.Errorf("%s: %w", src.Location(), err)
	}

	for _, inc := range doc.Include {
		target, err := resolve(src.Location(), inc)
		if err != nil {
			return fmt.Errorf("%s: include %q: %w", src.Location(), inc, err)
		}
		child, err := source.ForLocation(target, l.client, l.guard)
		if err != nil {
			return fmt.Errorf("%s: include %q: %w", src.Location(), inc, err)
		}
		if file, ok := child.(*source.File); ok {
			file.Kind = format.YAML
		}
		if err := l.load(ctx, child, b, res, opts, false); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) document(ctx context.Context, src source.Source, loc string, opts Options) (*document, error) {
	if opts.ContentCache {
		if doc, ok := l.cache[loc]; ok {
			return doc, nil
		}
	}
	opened, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src.Location(), err)
	}
	defer opened.Body.Close()
	data, err := io.ReadAll(opened.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Location(), err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Location(), err)
	}
	if opts.ContentCache {
		l.cache[loc] = doc
	}
	return doc, nil
}

func resolve(base, ref string) (string, error) {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	if r.IsAbs() {
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if b.Scheme == "" {
		return "", fmt.Errorf("cannot resolve relative include against %q", base)
	}
	return b.ResolveReference(r).String(), nil
}
