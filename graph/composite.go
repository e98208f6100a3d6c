// Package graph provides the composite triple graph that joins an ontology's
// own statements with those of its imports, and publishing of ontology
// statements to the semstreams knowledge graph.
package graph

import (
	"iter"

	"github.com/c360studio/semonto/rdf"
)

// Composite is the union of a base graph and zero or more child composites.
// Reads see the distinct merge of the base and every descendant; writes go
// only to the base.
//
// Loading assembles composites without cycles, but imports healed after
// loading may link two composites to each other, so every traversal tracks
// the composites it has already visited.
type Composite struct {
	base     rdf.Graph
	children []*Composite
}

var _ rdf.Graph = (*Composite)(nil)

// NewComposite wraps base with the given children.
func NewComposite(base rdf.Graph, children ...*Composite) *Composite {
	if base == nil {
		base = rdf.NewMemGraph()
	}
	c := &Composite{base: base}
	for _, child := range children {
		c.AddChild(child)
	}
	return c
}

// Base returns the graph that receives writes.
func (c *Composite) Base() rdf.Graph {
	return c.base
}

// Children returns the direct children in insertion order.
func (c *Composite) Children() []*Composite {
	out := make([]*Composite, len(c.children))
	copy(out, c.children)
	return out
}

// HasChild reports whether child is a direct child of c.
func (c *Composite) HasChild(child *Composite) bool {
	for _, existing := range c.children {
		if existing == child {
			return true
		}
	}
	return false
}

// AddChild links child below c. Self links and duplicates are ignored.
func (c *Composite) AddChild(child *Composite) bool {
	if child == nil || child == c || c.HasChild(child) {
		return false
	}
	c.children = append(c.children, child)
	return true
}

// RemoveChild unlinks child from c.
func (c *Composite) RemoveChild(child *Composite) bool {
	for i, existing := range c.children {
		if existing == child {
			c.children = append(c.children[:i], c.children[i+1:]...)
			return true
		}
	}
	return false
}

// Closure returns c followed by every reachable descendant, each once, in
// depth-first order.
func (c *Composite) Closure() []*Composite {
	var out []*Composite
	seen := make(map[*Composite]bool)
	var walk func(*Composite)
	walk = func(n *Composite) {
		if seen[n] {
			return
		}
		seen[n] = true
		out = append(out, n)
		for _, child := range n.children {
			walk(child)
		}
	}
	walk(c)
	return out
}

// Add implements rdf.Graph by writing to the base graph.
func (c *Composite) Add(t rdf.Triple) bool {
	return c.base.Add(t)
}

// Delete implements rdf.Graph on the base graph only.
func (c *Composite) Delete(t rdf.Triple) bool {
	return c.base.Delete(t)
}

// Remove implements rdf.Graph on the base graph only.
func (c *Composite) Remove(p rdf.Pattern) int {
	return c.base.Remove(p)
}

// Find implements rdf.Graph over the merged view. A triple present in several
// member graphs is yielded once.
func (c *Composite) Find(p rdf.Pattern) iter.Seq[rdf.Triple] {
	members := c.Closure()
	if len(members) == 1 {
		return c.base.Find(p)
	}
	return func(yield func(rdf.Triple) bool) {
		seen := make(map[rdf.Triple]bool)
		seenBase := make(map[rdf.Graph]bool)
		for _, m := range members {
			// shallow copies may share one base graph between composites
			if seenBase[m.base] {
				continue
			}
			seenBase[m.base] = true
			for t := range m.base.Find(p) {
				if seen[t] {
					continue
				}
				seen[t] = true
				if !yield(t) {
					return
				}
			}
		}
	}
}

// Contains implements rdf.Graph over the merged view.
func (c *Composite) Contains(t rdf.Triple) bool {
	for _, m := range c.Closure() {
		if m.base.Contains(t) {
			return true
		}
	}
	return false
}

// Size implements rdf.Graph and counts distinct triples of the merged view.
func (c *Composite) Size() int {
	members := c.Closure()
	if len(members) == 1 {
		return c.base.Size()
	}
	n := 0
	for range c.Find(rdf.Any) {
		n++
	}
	return n
}
