package ontology

import (
	"context"
	"io"
	"sync"

	"github.com/c360studio/semonto/axiom"
	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/rdf"
	"github.com/c360studio/semonto/source"
)

// Concurrent guards a Manager with a read/write lock. Reads run in
// parallel; loads and changes are exclusive. Every listing is drained
// into a slice before the lock is released.
type Concurrent struct {
	mu sync.RWMutex
	m  *Manager
}

// NewConcurrent wraps m. m must not be used directly afterwards.
func NewConcurrent(m *Manager) *Concurrent {
	return &Concurrent{m: m}
}

// View runs fn with shared access to the manager.
func (c *Concurrent) View(fn func(m *Manager) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fn(c.m)
}

// Update runs fn with exclusive access to the manager.
func (c *Concurrent) Update(fn func(m *Manager) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.m)
}

// LoadOntology loads src and its imports under the write lock.
func (c *Concurrent) LoadOntology(ctx context.Context, src source.Source) (*Ontology, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m.LoadOntology(ctx, src)
}

// LoadOntologyFromIRI loads the ontology named iri under the write lock.
func (c *Concurrent) LoadOntologyFromIRI(ctx context.Context, iri string) (*Ontology, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m.LoadOntologyFromIRI(ctx, iri)
}

// CreateOntology registers an empty ontology.
func (c *Concurrent) CreateOntology(id ID) (*Ontology, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m.CreateOntology(id)
}

// RemoveOntology unregisters o and detaches it from its importers.
func (c *Concurrent) RemoveOntology(o *Ontology) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m.RemoveOntology(o)
}

// CopyOntology registers a copy of o.
func (c *Concurrent) CopyOntology(o *Ontology, mode CopyMode) (*Ontology, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m.CopyOntology(o, mode)
}

// ApplyChanges applies a change batch atomically.
func (c *Concurrent) ApplyChanges(changes ...Change) (*ChangeReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m.ApplyChanges(changes...)
}

// ApplyChange applies a single change.
func (c *Concurrent) ApplyChange(ch Change) (ChangeStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m.ApplyChange(ch)
}

// SetDocumentLocation moves o to loc.
func (c *Concurrent) SetDocumentLocation(o *Ontology, loc string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m.SetDocumentLocation(o, loc)
}

// ContentHash needs the write lock because it fills a cache.
func (c *Concurrent) ContentHash(o *Ontology) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return o.ContentHash()
}

// Ontology returns the ontology registered under id.
func (c *Concurrent) Ontology(id ID) (*Ontology, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m.Ontology(id)
}

// OntologyByIRI finds an ontology by its ontology or version IRI.
func (c *Concurrent) OntologyByIRI(iri string) (*Ontology, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m.OntologyByIRI(iri)
}

// Contains reports whether id is registered.
func (c *Concurrent) Contains(id ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m.Contains(id)
}

// Ontologies lists the registered ontologies in registration order.
func (c *Concurrent) Ontologies() []*Ontology {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m.Ontologies()
}

// DocumentLocation returns where o was read from or will be written to.
func (c *Concurrent) DocumentLocation(o *Ontology) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m.DocumentLocation(o)
}

// ImportsClosure lists every ontology o reaches through imports.
func (c *Concurrent) ImportsClosure(o *Ontology) []*Ontology {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m.ImportsClosure(o)
}

// Axioms lists the axioms of o.
func (c *Concurrent) Axioms(o *Ontology) []axiom.Axiom {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return o.Axioms()
}

// AxiomsOfKind lists the axioms of o of kind k.
func (c *Concurrent) AxiomsOfKind(o *Ontology, k axiom.Kind) []axiom.Axiom {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return o.AxiomsOfKind(k)
}

// ClosureAxioms lists the axioms of o and its imports.
func (c *Concurrent) ClosureAxioms(o *Ontology) []axiom.Axiom {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return o.ClosureAxioms()
}

// ContainsAxiom reports whether o states a.
func (c *Concurrent) ContainsAxiom(o *Ontology, a axiom.Axiom) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return o.ContainsAxiom(a)
}

// Annotations lists the ontology annotations of o.
func (c *Concurrent) Annotations(o *Ontology) []axiom.Annotation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return o.Annotations()
}

// Triples drains the composite graph of o.
func (c *Concurrent) Triples(o *Ontology, p rdf.Pattern) []rdf.Triple {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return rdf.Collect(o.Graph(), p)
}

// WriteOntology writes o in the given syntax.
func (c *Concurrent) WriteOntology(w io.Writer, o *Ontology, kind format.Kind) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m.WriteOntology(w, o, kind)
}

// ProcessorState returns the state of the change processor.
func (c *Concurrent) ProcessorState() ProcessorState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m.ProcessorState()
}
