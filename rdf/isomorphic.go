package rdf

import (
	"sort"
	"strings"
)

// Isomorphic reports whether a and b are equal up to a renaming of blank nodes.
func Isomorphic(a, b Graph) bool {
	if a == b {
		return true
	}
	if a.Size() != b.Size() {
		return false
	}

	var blankA, blankB []Triple
	for t := range a.Find(Any) {
		if hasBlank(t) {
			blankA = append(blankA, t)
			continue
		}
		if !b.Contains(t) {
			return false
		}
	}
	for t := range b.Find(Any) {
		if hasBlank(t) {
			blankB = append(blankB, t)
		}
	}
	if len(blankA) != len(blankB) {
		return false
	}
	if len(blankA) == 0 {
		return true
	}

	sigA := signatures(blankA)
	sigB := signatures(blankB)
	if len(sigA) != len(sigB) {
		return false
	}
	counts := make(map[string]int)
	for _, s := range sigA {
		counts[s]++
	}
	for _, s := range sigB {
		counts[s]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}

	nodes := make([]Term, 0, len(sigA))
	for n := range sigA {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Value < nodes[j].Value })

	byNode := make(map[Term][]Triple)
	for _, t := range blankA {
		for _, n := range blanksOf(t) {
			byNode[n] = append(byNode[n], t)
		}
	}

	m := &isoMatcher{
		target:  b,
		sigA:    sigA,
		sigB:    sigB,
		byNode:  byNode,
		mapping: make(map[Term]Term),
		used:    make(map[Term]bool),
	}
	return m.solve(nodes, 0)
}

type isoMatcher struct {
	target  Graph
	sigA    map[Term]string
	sigB    map[Term]string
	byNode  map[Term][]Triple
	mapping map[Term]Term
	used    map[Term]bool
}

func (m *isoMatcher) solve(nodes []Term, i int) bool {
	if i == len(nodes) {
		return true
	}
	n := nodes[i]
	for cand, sig := range m.sigB {
		if m.used[cand] || sig != m.sigA[n] {
			continue
		}
		m.mapping[n] = cand
		m.used[cand] = true
		if m.consistent(n) && m.solve(nodes, i+1) {
			return true
		}
		delete(m.mapping, n)
		delete(m.used, cand)
	}
	return false
}

// consistent checks every triple touching n whose blank nodes are all mapped.
func (m *isoMatcher) consistent(n Term) bool {
	for _, t := range m.byNode[n] {
		mapped, ok := m.apply(t)
		if !ok {
			continue
		}
		if !m.target.Contains(mapped) {
			return false
		}
	}
	return true
}

func (m *isoMatcher) apply(t Triple) (Triple, bool) {
	out := t
	for _, pos := range []*Term{&out.S, &out.O} {
		if pos.IsBlank() {
			to, ok := m.mapping[*pos]
			if !ok {
				return Triple{}, false
			}
			*pos = to
		}
	}
	return out, true
}

func hasBlank(t Triple) bool {
	return t.S.IsBlank() || t.O.IsBlank()
}

func blanksOf(t Triple) []Term {
	var out []Term
	if t.S.IsBlank() {
		out = append(out, t.S)
	}
	if t.O.IsBlank() && t.O != t.S {
		out = append(out, t.O)
	}
	return out
}

// signatures summarises each blank node by the ground shape of its triples.
func signatures(ts []Triple) map[Term]string {
	parts := make(map[Term][]string)
	for _, t := range ts {
		if t.S.IsBlank() {
			parts[t.S] = append(parts[t.S], "s|"+t.P.Value+"|"+groundKey(t.O))
		}
		if t.O.IsBlank() {
			parts[t.O] = append(parts[t.O], "o|"+t.P.Value+"|"+groundKey(t.S))
		}
	}
	out := make(map[Term]string, len(parts))
	for n, p := range parts {
		sort.Strings(p)
		out[n] = strings.Join(p, ";")
	}
	return out
}

func groundKey(t Term) string {
	if t.IsBlank() {
		return "_"
	}
	return t.String()
}
