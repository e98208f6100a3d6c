package axiom

import (
	"sort"

	"github.com/c360studio/semonto/rdf"
)

// State is the materialization state of an Index.
type State int

const (
	// StateEmpty means nothing is cached; reads scan the graph.
	StateEmpty State = iota
	// StateMaterializing is held while a full scan is filling the cache.
	StateMaterializing
	// StateMaterialized means the cache mirrors the graph.
	StateMaterialized
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateMaterializing:
		return "materializing"
	case StateMaterialized:
		return "materialized"
	default:
		return "unknown"
	}
}

// Index derives the axiom view of one ontology from its graphs. The own
// graph holds the statements the ontology asserts; the view graph (usually
// the composite with imports) supplies declarations used to disambiguate.
// The index is a cache, never the source of truth.
type Index struct {
	own   rdf.Graph
	view  rdf.Graph
	node  func() rdf.Term
	state State

	byKind      map[Kind]map[Axiom]struct{}
	byEntity    map[string]map[Axiom]struct{}
	annotations map[Annotation]struct{}
}

// NewIndex creates an empty index. node returns the current ontology header
// node, or the zero term when the graph has no header.
func NewIndex(own, view rdf.Graph, node func() rdf.Term) *Index {
	if node == nil {
		node = func() rdf.Term { return rdf.Term{} }
	}
	return &Index{own: own, view: view, node: node}
}

// State returns the current materialization state.
func (x *Index) State() State {
	return x.state
}

// Materialize scans the own graph into the cache. It is a no-op when the
// cache is already materialized.
func (x *Index) Materialize() {
	if x.state == StateMaterialized {
		return
	}
	x.state = StateMaterializing
	x.byKind = make(map[Kind]map[Axiom]struct{})
	x.byEntity = make(map[string]map[Axiom]struct{})
	x.annotations = make(map[Annotation]struct{})

	node := x.node()
	for t := range x.own.Find(rdf.Any) {
		if an, ok := ParseAnnotation(t, node); ok {
			x.annotations[an] = struct{}{}
			continue
		}
		if a, ok := Parse(t, x.view); ok {
			x.put(a)
		}
	}
	x.state = StateMaterialized
}

// Clear discards the cache; the next read derives lazily again.
func (x *Index) Clear() {
	x.state = StateEmpty
	x.byKind = nil
	x.byEntity = nil
	x.annotations = nil
}

// Axioms lists every axiom of the own graph, sorted by rendering.
func (x *Index) Axioms() []Axiom {
	if x.state == StateMaterialized {
		var out []Axiom
		for _, set := range x.byKind {
			for a := range set {
				out = append(out, a)
			}
		}
		return sortAxioms(out)
	}
	return sortAxioms(x.scan(rdf.Any, 0))
}

// AxiomsOfKind lists the axioms of one kind. Without a materialized cache it
// scans only the triples that can carry that kind and leaves the cache empty.
func (x *Index) AxiomsOfKind(k Kind) []Axiom {
	if x.state == StateMaterialized {
		out := make([]Axiom, 0, len(x.byKind[k]))
		for a := range x.byKind[k] {
			out = append(out, a)
		}
		return sortAxioms(out)
	}
	seen := make(map[Axiom]bool)
	var out []Axiom
	for _, p := range kindPatterns(k) {
		for _, a := range x.scan(p, k) {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return sortAxioms(out)
}

// Contains reports whether the own graph carries a.
func (x *Index) Contains(a Axiom) bool {
	if x.state == StateMaterialized {
		_, ok := x.byKind[a.kind][a]
		return ok
	}
	core := a.CoreTriple()
	if !x.own.Contains(core) {
		return false
	}
	if _, ok := ParseAnnotation(core, x.node()); ok {
		return false
	}
	parsed, ok := Parse(core, x.view)
	return ok && parsed == a
}

// Referencing lists the axioms whose signature includes iri.
func (x *Index) Referencing(iri string) []Axiom {
	if x.state == StateMaterialized {
		out := make([]Axiom, 0, len(x.byEntity[iri]))
		for a := range x.byEntity[iri] {
			out = append(out, a)
		}
		return sortAxioms(out)
	}
	var out []Axiom
	for _, a := range x.scan(rdf.Any, 0) {
		for _, e := range a.Signature() {
			if e.IRI == iri {
				out = append(out, a)
				break
			}
		}
	}
	return sortAxioms(out)
}

// Signature returns the entities referenced by the own axioms, sorted.
func (x *Index) Signature() []Entity {
	seen := make(map[Entity]bool)
	var out []Entity
	for _, a := range x.Axioms() {
		for _, e := range a.Signature() {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IRI != out[j].IRI {
			return out[i].IRI < out[j].IRI
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// Annotations lists the ontology annotations, sorted by rendering.
func (x *Index) Annotations() []Annotation {
	var out []Annotation
	if x.state == StateMaterialized {
		for an := range x.annotations {
			out = append(out, an)
		}
	} else {
		node := x.node()
		if !node.IsZero() {
			for t := range x.own.Find(rdf.Match(node, rdf.Term{}, rdf.Term{})) {
				if an, ok := ParseAnnotation(t, node); ok {
					out = append(out, an)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// ContainsAnnotation reports whether the ontology carries an.
func (x *Index) ContainsAnnotation(an Annotation) bool {
	if x.state == StateMaterialized {
		_, ok := x.annotations[an]
		return ok
	}
	node := x.node()
	return !node.IsZero() && x.own.Contains(an.Triple(node))
}

// Unparsed returns the own triples that carry neither an axiom, an ontology
// annotation nor a header statement.
func (x *Index) Unparsed() []rdf.Triple {
	node := x.node()
	var out []rdf.Triple
	for t := range x.own.Find(rdf.Any) {
		if IsHeaderTriple(t) {
			continue
		}
		if _, ok := ParseAnnotation(t, node); ok {
			continue
		}
		if _, ok := Parse(t, x.view); ok {
			continue
		}
		out = append(out, t)
	}
	rdf.SortTriples(out)
	return out
}

// Count returns the number of own axioms.
func (x *Index) Count() int {
	if x.state == StateMaterialized {
		n := 0
		for _, set := range x.byKind {
			n += len(set)
		}
		return n
	}
	return len(x.scan(rdf.Any, 0))
}

// Add records a in a materialized cache. It is ignored otherwise.
func (x *Index) Add(a Axiom) {
	if x.state == StateMaterialized {
		x.put(a)
	}
}

// Remove drops a from a materialized cache. It is ignored otherwise.
func (x *Index) Remove(a Axiom) {
	if x.state != StateMaterialized {
		return
	}
	delete(x.byKind[a.kind], a)
	for _, e := range a.Signature() {
		if set, ok := x.byEntity[e.IRI]; ok {
			delete(set, a)
			if len(set) == 0 {
				delete(x.byEntity, e.IRI)
			}
		}
	}
}

// AddAnnotation records an in a materialized cache.
func (x *Index) AddAnnotation(an Annotation) {
	if x.state == StateMaterialized {
		x.annotations[an] = struct{}{}
	}
}

// RemoveAnnotation drops an from a materialized cache.
func (x *Index) RemoveAnnotation(an Annotation) {
	if x.state == StateMaterialized {
		delete(x.annotations, an)
	}
}

// Produces reports whether any cached axiom other than except writes t.
// It requires a materialized cache.
func (x *Index) Produces(t rdf.Triple, except Axiom) bool {
	candidates := make(map[Axiom]struct{})
	for _, term := range []rdf.Term{t.S, t.O} {
		if term.IsIRI() {
			for a := range x.byEntity[term.Value] {
				candidates[a] = struct{}{}
			}
		}
	}
	for a := range candidates {
		if a == except {
			continue
		}
		for _, w := range a.Triples() {
			if w == t {
				return true
			}
		}
	}
	return false
}

func (x *Index) put(a Axiom) {
	set, ok := x.byKind[a.kind]
	if !ok {
		set = make(map[Axiom]struct{})
		x.byKind[a.kind] = set
	}
	set[a] = struct{}{}
	for _, e := range a.Signature() {
		es, ok := x.byEntity[e.IRI]
		if !ok {
			es = make(map[Axiom]struct{})
			x.byEntity[e.IRI] = es
		}
		es[a] = struct{}{}
	}
}

// scan parses own triples matching p. A non-zero kind filters the result.
func (x *Index) scan(p rdf.Pattern, k Kind) []Axiom {
	node := x.node()
	var out []Axiom
	for t := range x.own.Find(p) {
		if !node.IsZero() && t.S == node {
			if _, ok := ParseAnnotation(t, node); ok {
				continue
			}
		}
		a, ok := Parse(t, x.view)
		if !ok || (k != 0 && a.kind != k) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func sortAxioms(as []Axiom) []Axiom {
	sort.Slice(as, func(i, j int) bool { return as[i].String() < as[j].String() })
	return as
}
