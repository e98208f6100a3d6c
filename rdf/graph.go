package rdf

import (
	"iter"
	"sort"
)

// Graph is the mutable triple store capability the ontology layer builds on.
// Graphs have set semantics: adding a triple that is already present is a no-op.
type Graph interface {
	// Add inserts t and reports whether the graph changed.
	Add(t Triple) bool
	// Delete removes t and reports whether the graph changed.
	Delete(t Triple) bool
	// Remove deletes every triple matching p and returns how many were removed.
	Remove(p Pattern) int
	// Find yields the triples matching p. The sequence iterates a snapshot,
	// so callers may mutate the graph while ranging over it.
	Find(p Pattern) iter.Seq[Triple]
	// Contains reports whether t is present.
	Contains(t Triple) bool
	// Size returns the number of distinct triples.
	Size() int
}

// MemGraph is an in-memory Graph indexed by subject, predicate and object.
type MemGraph struct {
	triples map[Triple]struct{}
	bySubj  map[Term]map[Triple]struct{}
	byPred  map[Term]map[Triple]struct{}
	byObj   map[Term]map[Triple]struct{}
}

// NewMemGraph creates an empty in-memory graph, optionally seeded with triples.
func NewMemGraph(triples ...Triple) *MemGraph {
	g := &MemGraph{
		triples: make(map[Triple]struct{}),
		bySubj:  make(map[Term]map[Triple]struct{}),
		byPred:  make(map[Term]map[Triple]struct{}),
		byObj:   make(map[Term]map[Triple]struct{}),
	}
	for _, t := range triples {
		g.Add(t)
	}
	return g
}

// Add implements Graph.
func (g *MemGraph) Add(t Triple) bool {
	if !t.Valid() {
		return false
	}
	if _, ok := g.triples[t]; ok {
		return false
	}
	g.triples[t] = struct{}{}
	addIndex(g.bySubj, t.S, t)
	addIndex(g.byPred, t.P, t)
	addIndex(g.byObj, t.O, t)
	return true
}

// Delete implements Graph.
func (g *MemGraph) Delete(t Triple) bool {
	if _, ok := g.triples[t]; !ok {
		return false
	}
	delete(g.triples, t)
	dropIndex(g.bySubj, t.S, t)
	dropIndex(g.byPred, t.P, t)
	dropIndex(g.byObj, t.O, t)
	return true
}

// Remove implements Graph.
func (g *MemGraph) Remove(p Pattern) int {
	n := 0
	for _, t := range g.match(p) {
		if g.Delete(t) {
			n++
		}
	}
	return n
}

// Find implements Graph.
func (g *MemGraph) Find(p Pattern) iter.Seq[Triple] {
	matched := g.match(p)
	return func(yield func(Triple) bool) {
		for _, t := range matched {
			if !yield(t) {
				return
			}
		}
	}
}

// Contains implements Graph.
func (g *MemGraph) Contains(t Triple) bool {
	_, ok := g.triples[t]
	return ok
}

// Size implements Graph.
func (g *MemGraph) Size() int {
	return len(g.triples)
}

// match picks the most selective index for p and filters it.
func (g *MemGraph) match(p Pattern) []Triple {
	var candidates map[Triple]struct{}
	switch {
	case !p.S.IsZero():
		candidates = g.bySubj[p.S]
	case !p.O.IsZero():
		candidates = g.byObj[p.O]
	case !p.P.IsZero():
		candidates = g.byPred[p.P]
	default:
		candidates = g.triples
	}
	if !p.S.IsZero() && !p.O.IsZero() && len(g.byObj[p.O]) < len(candidates) {
		candidates = g.byObj[p.O]
	}
	out := make([]Triple, 0, len(candidates))
	for t := range candidates {
		if p.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

func addIndex(idx map[Term]map[Triple]struct{}, key Term, t Triple) {
	set, ok := idx[key]
	if !ok {
		set = make(map[Triple]struct{})
		idx[key] = set
	}
	set[t] = struct{}{}
}

func dropIndex(idx map[Term]map[Triple]struct{}, key Term, t Triple) {
	set := idx[key]
	delete(set, t)
	if len(set) == 0 {
		delete(idx, key)
	}
}

// Collect drains the triples of g matching p into a slice sorted by their
// N-Triples rendering, giving callers a deterministic order.
func Collect(g Graph, p Pattern) []Triple {
	var out []Triple
	for t := range g.Find(p) {
		out = append(out, t)
	}
	SortTriples(out)
	return out
}

// SortTriples orders triples by their N-Triples rendering.
func SortTriples(ts []Triple) {
	sort.Slice(ts, func(i, j int) bool {
		return ts[i].String() < ts[j].String()
	})
}

// CopyInto adds every triple of src to dst and returns how many were new.
func CopyInto(dst, src Graph) int {
	n := 0
	for t := range src.Find(Any) {
		if dst.Add(t) {
			n++
		}
	}
	return n
}

// Objects returns the distinct objects of triples matching (s, p, *).
func Objects(g Graph, s, p Term) []Term {
	seen := make(map[Term]bool)
	var out []Term
	for t := range g.Find(Match(s, p, Term{})) {
		if !seen[t.O] {
			seen[t.O] = true
			out = append(out, t.O)
		}
	}
	return out
}

// Subjects returns the distinct subjects of triples matching (*, p, o).
func Subjects(g Graph, p, o Term) []Term {
	seen := make(map[Term]bool)
	var out []Term
	for t := range g.Find(Match(Term{}, p, o)) {
		if !seen[t.S] {
			seen[t.S] = true
			out = append(out, t.S)
		}
	}
	return out
}

// OntologyNode finds the owl:Ontology node of g. IRI nodes win over blank
// nodes and the lexically smallest wins among several. It returns the zero
// term when g has no header.
func OntologyNode(g Graph) Term {
	nodes := Subjects(g, RDFType, OWLOntology)
	if len(nodes) == 0 {
		return Term{}
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].IsIRI() != nodes[j].IsIRI() {
			return nodes[i].IsIRI()
		}
		return nodes[i].Value < nodes[j].Value
	})
	return nodes[0]
}

// HasType reports whether g states that node has the given rdf:type.
func HasType(g Graph, node, typ Term) bool {
	return g.Contains(NewTriple(node, RDFType, typ))
}
