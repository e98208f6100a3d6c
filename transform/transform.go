// Package transform normalizes freshly loaded graphs so more of their
// statements read back as axioms: RDFS vocabulary is lifted to its OWL
// counterparts and entities used without a declaration get one.
package transform

import (
	"fmt"
	"log/slog"

	"github.com/c360studio/semonto/axiom"
	"github.com/c360studio/semonto/rdf"
)

// Stats records what a transformation run changed in one graph.
type Stats struct {
	// Added counts triples written by all passes.
	Added int `json:"added"`

	// Removed counts triples deleted by all passes.
	Removed int `json:"removed"`

	// Unparsed counts the triples that still map to no axiom afterwards.
	Unparsed int `json:"unparsed"`

	// Passes holds the per-pass breakdown in run order.
	Passes []PassResult `json:"passes,omitempty"`
}

// String returns a one-line summary.
func (s Stats) String() string {
	return fmt.Sprintf("added=%d removed=%d unparsed=%d", s.Added, s.Removed, s.Unparsed)
}

// PassResult is the outcome of one pass.
type PassResult struct {
	Name    string `json:"name"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}

// Pass rewrites own, reading declarations from view. view includes own and
// the graphs of its imports.
type Pass interface {
	Name() string
	Apply(own, view rdf.Graph) PassResult
}

// Transformer runs an ordered list of passes.
type Transformer struct {
	passes []Pass
	logger *slog.Logger
}

// New creates a transformer. Without passes it runs Defaults().
func New(logger *slog.Logger, passes ...Pass) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(passes) == 0 {
		passes = Defaults()
	}
	return &Transformer{passes: passes, logger: logger}
}

// Defaults returns the standard passes in the order they must run.
func Defaults() []Pass {
	return []Pass{RDFSClasses{}, TypedProperties{}, ImpliedDeclarations{}}
}

// Run applies every pass to own and reports the totals.
func (t *Transformer) Run(own, view rdf.Graph) Stats {
	var stats Stats
	for _, p := range t.passes {
		res := p.Apply(own, view)
		res.Name = p.Name()
		stats.Added += res.Added
		stats.Removed += res.Removed
		stats.Passes = append(stats.Passes, res)
		if res.Added > 0 || res.Removed > 0 {
			t.logger.Debug("Transform pass changed graph",
				"pass", res.Name,
				"added", res.Added,
				"removed", res.Removed)
		}
	}
	stats.Unparsed = len(axiom.NewIndex(own, view, func() rdf.Term { return rdf.OntologyNode(own) }).Unparsed())
	return stats
}

// RDFSClasses retypes rdfs:Class resources as owl:Class.
type RDFSClasses struct{}

// Name implements Pass.
func (RDFSClasses) Name() string { return "rdfs-classes" }

// Apply implements Pass.
func (RDFSClasses) Apply(own, view rdf.Graph) PassResult {
	var res PassResult
	for _, t := range rdf.Collect(own, rdf.Match(rdf.Term{}, rdf.RDFType, rdf.RDFSClass)) {
		if !t.S.IsIRI() || rdf.IsBuiltin(t.S.Value) {
			continue
		}
		if !rdf.HasType(view, t.S, rdf.OWLClass) && own.Add(rdf.NewTriple(t.S, rdf.RDFType, rdf.OWLClass)) {
			res.Added++
		}
		if own.Delete(t) {
			res.Removed++
		}
	}
	return res
}

// TypedProperties replaces rdf:Property with an OWL property type chosen
// from how the property is used: literal values make it a datatype
// property, IRI values an object property, and anything else an
// annotation property.
type TypedProperties struct{}

// Name implements Pass.
func (TypedProperties) Name() string { return "typed-properties" }

// Apply implements Pass.
func (TypedProperties) Apply(own, view rdf.Graph) PassResult {
	var res PassResult
	for _, t := range rdf.Collect(own, rdf.Match(rdf.Term{}, rdf.RDFType, rdf.RDFProperty)) {
		p := t.S
		if !p.IsIRI() || rdf.IsBuiltin(p.Value) {
			continue
		}
		if !isTypedProperty(view, p) && own.Add(rdf.NewTriple(p, rdf.RDFType, propertyTypeByUsage(view, p))) {
			res.Added++
		}
		if own.Delete(t) {
			res.Removed++
		}
	}
	return res
}

func isTypedProperty(g rdf.Graph, p rdf.Term) bool {
	return rdf.HasType(g, p, rdf.OWLObjectProperty) ||
		rdf.HasType(g, p, rdf.OWLDatatypeProperty) ||
		rdf.HasType(g, p, rdf.OWLAnnotationProperty)
}

func propertyTypeByUsage(view rdf.Graph, p rdf.Term) rdf.Term {
	literals, iris := 0, 0
	for t := range view.Find(rdf.Match(rdf.Term{}, p, rdf.Term{})) {
		switch {
		case t.O.IsLiteral():
			literals++
		case t.O.IsIRI():
			iris++
		}
	}
	switch {
	case literals > 0 && iris == 0:
		return rdf.OWLDatatypeProperty
	case iris > 0 && literals == 0:
		return rdf.OWLObjectProperty
	default:
		return rdf.OWLAnnotationProperty
	}
}

// ImpliedDeclarations declares the classes and individuals that class
// axioms and class assertions use without declaring.
type ImpliedDeclarations struct{}

// Name implements Pass.
func (ImpliedDeclarations) Name() string { return "implied-declarations" }

// Apply implements Pass.
func (ImpliedDeclarations) Apply(own, view rdf.Graph) PassResult {
	var res PassResult
	declare := func(node, typ rdf.Term) {
		if !node.IsIRI() || rdf.IsBuiltin(node.Value) || rdf.HasType(view, node, typ) {
			return
		}
		if own.Add(rdf.NewTriple(node, rdf.RDFType, typ)) {
			res.Added++
		}
	}

	for _, pred := range []rdf.Term{rdf.RDFSSubClassOf, rdf.OWLEquivalentClass, rdf.OWLDisjointWith} {
		for _, t := range rdf.Collect(own, rdf.Match(rdf.Term{}, pred, rdf.Term{})) {
			declare(t.S, rdf.OWLClass)
			declare(t.O, rdf.OWLClass)
		}
	}

	for _, t := range rdf.Collect(own, rdf.Match(rdf.Term{}, rdf.RDFType, rdf.Term{})) {
		if !t.O.IsIRI() || (rdf.IsBuiltin(t.O.Value) && t.O != rdf.OWLThing) {
			continue
		}
		declare(t.O, rdf.OWLClass)
		if !isEntity(view, t.S) {
			declare(t.S, rdf.OWLNamedIndividual)
		}
	}
	return res
}

// isEntity reports whether node is already declared as something other
// than an individual.
func isEntity(g rdf.Graph, node rdf.Term) bool {
	return rdf.HasType(g, node, rdf.OWLClass) || isTypedProperty(g, node) || rdf.HasType(g, node, rdf.RDFSDatatype)
}
