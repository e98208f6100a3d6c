// Package export serializes ontology graphs to Turtle, N-Triples, N-Quads
// and JSON-LD.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/rdf"
)

// RDFExporter serializes graphs with a prefix map.
type RDFExporter struct {
	prefixes format.Prefixes
}

// NewRDFExporter creates an exporter. The standard rdf, rdfs, owl and xsd
// prefixes are added when prefixes does not define them.
func NewRDFExporter(prefixes format.Prefixes) *RDFExporter {
	p := prefixes.Clone()
	p.Merge(format.DefaultPrefixes())
	return &RDFExporter{prefixes: p}
}

// Prefixes returns the prefix map the exporter writes with.
func (e *RDFExporter) Prefixes() format.Prefixes {
	return e.prefixes.Clone()
}

// Export serializes g to the given syntax.
func (e *RDFExporter) Export(g rdf.Graph, kind format.Kind) (string, error) {
	var sb strings.Builder
	if err := e.Write(&sb, g, kind); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Write serializes g to w in the given syntax.
func (e *RDFExporter) Write(w io.Writer, g rdf.Graph, kind format.Kind) error {
	triples := rdf.Collect(g, rdf.Any)
	switch kind {
	case format.Turtle:
		tw := NewTurtleWriter(e.prefixes)
		tw.WriteGraph(triples)
		_, err := io.WriteString(w, tw.String())
		return err
	case format.NTriples, format.NQuads:
		return NewNTriplesWriter(w).WriteTriples(triples)
	case format.JSONLD:
		jw := NewJSONLDWriter(e.prefixes)
		jw.AddTriples(triples)
		_, err := io.WriteString(w, jw.String())
		return err
	default:
		return fmt.Errorf("unsupported format: %s", kind)
	}
}

// subjectGroup holds the statements of one subject, with rdf:type objects
// split out for the Turtle "a" shorthand.
type subjectGroup struct {
	subject rdf.Term
	types   []rdf.Term
	preds   []rdf.Term
	objects map[rdf.Term][]rdf.Term
}

// groupBySubject groups sorted triples by subject. IRI subjects come before
// blank ones; predicates keep triple order.
func groupBySubject(triples []rdf.Triple) []*subjectGroup {
	index := make(map[rdf.Term]*subjectGroup)
	var groups []*subjectGroup
	for _, t := range triples {
		grp, ok := index[t.S]
		if !ok {
			grp = &subjectGroup{subject: t.S, objects: make(map[rdf.Term][]rdf.Term)}
			index[t.S] = grp
			groups = append(groups, grp)
		}
		if t.P == rdf.RDFType {
			grp.types = append(grp.types, t.O)
			continue
		}
		if _, seen := grp.objects[t.P]; !seen {
			grp.preds = append(grp.preds, t.P)
		}
		grp.objects[t.P] = append(grp.objects[t.P], t.O)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].subject.IsIRI() && groups[j].subject.IsBlank()
	})
	return groups
}
