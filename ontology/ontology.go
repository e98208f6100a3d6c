// Package ontology manages ontologies that are at once sets of axioms and
// triple graphs. It loads documents and their imports into composite
// graphs, registers the results by identity, and applies structural
// changes so that the axiom view and the triples never disagree.
package ontology

import (
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/c360studio/semonto/axiom"
	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/rdf"
)

// Ontology is a registered ontology. Its composite graph is the source of
// truth; the axiom index is derived from it.
type Ontology struct {
	manager *Manager
	id      ID
	node    rdf.Term
	graph   *graph.Composite
	index   *axiom.Index
	format  format.Format

	hash      uint64
	hashValid bool
}

func newOntology(m *Manager, id ID, c *graph.Composite, f format.Format) *Ontology {
	o := &Ontology{manager: m, id: id, graph: c, format: f}
	if !id.IsAnonymous() {
		o.node = rdf.IRI(id.OntologyIRI)
	} else {
		o.node = rdf.OntologyNode(c.Base())
	}
	o.index = axiom.NewIndex(c.Base(), c, func() rdf.Term { return o.node })
	return o
}

// ID returns the ontology's identity.
func (o *Ontology) ID() ID { return o.id }

// Manager returns the owning manager, or nil once removed.
func (o *Ontology) Manager() *Manager { return o.manager }

// Graph returns the composite graph: the ontology's own statements merged
// with those of its imports.
func (o *Ontology) Graph() *graph.Composite { return o.graph }

// Base returns the graph holding the ontology's own statements.
func (o *Ontology) Base() rdf.Graph { return o.graph.Base() }

// Format returns the syntax and prefixes the ontology was read with.
func (o *Ontology) Format() format.Format { return o.format }

// Index returns the axiom index over the ontology's own statements.
func (o *Ontology) Index() *axiom.Index { return o.index }

// Axioms lists the axioms stated by the ontology itself.
func (o *Ontology) Axioms() []axiom.Axiom { return o.index.Axioms() }

// AxiomsOfKind lists the ontology's own axioms of one kind.
func (o *Ontology) AxiomsOfKind(k axiom.Kind) []axiom.Axiom { return o.index.AxiomsOfKind(k) }

// ContainsAxiom reports whether the ontology itself states a.
func (o *Ontology) ContainsAxiom(a axiom.Axiom) bool { return o.index.Contains(a) }

// Annotations lists the annotations on the ontology header.
func (o *Ontology) Annotations() []axiom.Annotation { return o.index.Annotations() }

// Referencing lists the own axioms that mention iri.
func (o *Ontology) Referencing(iri string) []axiom.Axiom { return o.index.Referencing(iri) }

// Signature lists the entities the ontology's own axioms mention.
func (o *Ontology) Signature() []axiom.Entity { return o.index.Signature() }

// Unparsed lists own statements that map to no axiom.
func (o *Ontology) Unparsed() []rdf.Triple { return o.index.Unparsed() }

// Imports lists the IRIs the ontology declares as imports, sorted.
func (o *Ontology) Imports() []string { return importIRIs(o.Base(), o.node) }

// ClosureAxioms lists the axioms of the ontology and of everything it
// imports, each once.
func (o *Ontology) ClosureAxioms() []axiom.Axiom {
	seen := make(map[axiom.Axiom]bool)
	var out []axiom.Axiom
	for _, member := range o.graph.Closure() {
		idx := o.memberIndex(member)
		for _, a := range idx.Axioms() {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return sortAxioms(out)
}

// ClosureContainsAxiom reports whether a is stated by the ontology or one
// of its imports.
func (o *Ontology) ClosureContainsAxiom(a axiom.Axiom) bool {
	for _, member := range o.graph.Closure() {
		if o.memberIndex(member).Contains(a) {
			return true
		}
	}
	return false
}

// memberIndex returns the index for one composite of the closure. Members
// that are registered ontologies use their own index.
func (o *Ontology) memberIndex(c *graph.Composite) *axiom.Index {
	if c == o.graph {
		return o.index
	}
	if o.manager != nil {
		if owner := o.manager.byGraph[c]; owner != nil {
			return owner.index
		}
	}
	return axiom.NewIndex(c.Base(), c, func() rdf.Term { return rdf.OntologyNode(c.Base()) })
}

// ContentHash hashes the identity and own statements. It is cached until
// the ontology changes.
func (o *Ontology) ContentHash() uint64 {
	if o.hashValid {
		return o.hash
	}
	d := xxhash.New()
	_, _ = d.WriteString(o.id.String())
	for _, t := range rdf.Collect(o.Base(), rdf.Any) {
		_, _ = d.WriteString("\n")
		_, _ = d.WriteString(t.String())
	}
	o.hash = d.Sum64()
	o.hashValid = true
	return o.hash
}

func (o *Ontology) String() string {
	return o.id.String()
}

// changed drops derived state after the base graph was edited.
func (o *Ontology) changed() {
	o.hashValid = false
	if o.index.State() == axiom.StateMaterialized {
		o.index.Clear()
		o.index.Materialize()
	}
}

func sortAxioms(as []axiom.Axiom) []axiom.Axiom {
	sort.Slice(as, func(i, j int) bool { return as[i].String() < as[j].String() })
	return as
}
