package ontology

import (
	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/rdf"
	"github.com/c360studio/semonto/transform"
)

// document tracks one graph through a single load: where it came from,
// how it was read, which imports it resolved to and, once registered, the
// ontology it became.
type document struct {
	graph    rdf.Graph
	format   format.Format
	location string
	id       ID

	// fresh is true until the document is registered or spliced into an
	// importer. Stale documents are never registered again.
	fresh           bool
	allowTransforms bool
	included        bool
	resolved        bool

	node      rdf.Term
	nodeDone  bool
	imports   []string
	importsOK bool

	children  []*document
	composite *graph.Composite
	stats     *transform.Stats

	// ontology is set for documents that already are registered ontologies.
	ontology *Ontology
}

func newDocument(g rdf.Graph, f format.Format, location string, id ID) *document {
	return &document{
		graph:           g,
		format:          f,
		location:        location,
		id:              id,
		fresh:           true,
		allowTransforms: true,
	}
}

// realized wraps a registered ontology so the loader can link to it.
func realized(o *Ontology) *document {
	return &document{
		graph:     o.Base(),
		format:    o.format,
		location:  o.manager.DocumentLocation(o),
		id:        o.id,
		composite: o.graph,
		ontology:  o,
	}
}

// ontologyNode is the header node, computed on first use.
func (d *document) ontologyNode() rdf.Term {
	if !d.nodeDone {
		d.node = rdf.OntologyNode(d.graph)
		d.nodeDone = true
	}
	return d.node
}

// importIRIs are the declared imports, sorted, computed on first use.
func (d *document) importIRIs() []string {
	if !d.importsOK {
		d.imports = importIRIs(d.graph, d.ontologyNode())
		d.importsOK = true
	}
	return d.imports
}

// invalidate forgets the lazily computed header data after d.graph changed.
func (d *document) invalidate() {
	d.nodeDone = false
	d.importsOK = false
}

func (d *document) setProcessed() {
	d.fresh = false
}
