package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/c360studio/semonto/storage"
)

// Provider supplies a replacement document for an import IRI. Providers
// are consulted before IRI mappers and before the IRI itself is fetched.
type Provider interface {
	// Provide returns a source for iri, or false when it has none.
	Provide(ctx context.Context, iri string) (Source, bool, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, iri string) (Source, bool, error)

// Provide calls f.
func (f ProviderFunc) Provide(ctx context.Context, iri string) (Source, bool, error) {
	return f(ctx, iri)
}

type prioritized struct {
	provider Provider
	priority int
	seq      int
}

// Providers is a priority-ordered collection of providers. Higher
// priorities are asked first; equal priorities keep insertion order.
type Providers struct {
	mu      sync.RWMutex
	entries []prioritized
	seq     int
}

// Add registers a provider.
func (ps *Providers) Add(p Provider, priority int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.seq++
	ps.entries = append(ps.entries, prioritized{provider: p, priority: priority, seq: ps.seq})
	sort.SliceStable(ps.entries, func(i, j int) bool {
		return ps.entries[i].priority > ps.entries[j].priority
	})
}

// Len returns the number of providers.
func (ps *Providers) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.entries)
}

// Clear removes every provider.
func (ps *Providers) Clear() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.entries = nil
}

// Provide asks each provider in priority order and returns the first hit.
func (ps *Providers) Provide(ctx context.Context, iri string) (Source, bool, error) {
	ps.mu.RLock()
	entries := append([]prioritized(nil), ps.entries...)
	ps.mu.RUnlock()

	for _, e := range entries {
		src, ok, err := e.provider.Provide(ctx, iri)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return src, true, nil
		}
	}
	return nil, false, nil
}

// MapProvider serves fixed sources by IRI.
type MapProvider map[string]Source

// Provide implements Provider.
func (m MapProvider) Provide(_ context.Context, iri string) (Source, bool, error) {
	src, ok := m[iri]
	return src, ok, nil
}

// KVProvider serves documents from a NATS KV document store.
type KVProvider struct {
	Store *storage.Store
}

// Provide implements Provider.
func (p *KVProvider) Provide(ctx context.Context, iri string) (Source, bool, error) {
	doc, err := p.Store.Get(ctx, iri)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv provider %s: %w", iri, err)
	}
	return &Bytes{Loc: iri, Data: doc.Content, Kind: doc.Format, ContentType: doc.ContentType}, true, nil
}

// IRIMapper maps an ontology IRI to the location of its document.
type IRIMapper interface {
	DocumentIRI(ontologyIRI string) (string, bool)
}

// MapMapper maps ontology IRIs to document locations one to one.
type MapMapper map[string]string

// DocumentIRI implements IRIMapper.
func (m MapMapper) DocumentIRI(iri string) (string, bool) {
	loc, ok := m[iri]
	return loc, ok
}

// PrefixMapper rewrites ontology IRIs under From to locations under To,
// for mirrors of a whole namespace.
type PrefixMapper struct {
	From string
	To   string
}

// DocumentIRI implements IRIMapper.
func (m PrefixMapper) DocumentIRI(iri string) (string, bool) {
	if m.From == "" || !strings.HasPrefix(iri, m.From) {
		return "", false
	}
	return m.To + strings.TrimPrefix(iri, m.From), true
}
