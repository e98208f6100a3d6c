package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"

	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/rdf"
)

// TurtleWriter writes RDF in Turtle format.
type TurtleWriter struct {
	prefixes format.Prefixes
	sb       strings.Builder
}

// NewTurtleWriter creates a new Turtle writer with the given prefixes.
func NewTurtleWriter(prefixes format.Prefixes) *TurtleWriter {
	return &TurtleWriter{prefixes: prefixes}
}

// WritePrefixes writes prefix declarations.
func (w *TurtleWriter) WritePrefixes() {
	for _, prefix := range w.prefixes.Names() {
		w.sb.WriteString(fmt.Sprintf("@prefix %s: <%s> .\n", prefix, w.prefixes[prefix]))
	}
	w.sb.WriteString("\n")
}

// WriteGraph writes the prefix block followed by one block per subject.
func (w *TurtleWriter) WriteGraph(triples []rdf.Triple) {
	w.WritePrefixes()
	for _, grp := range groupBySubject(triples) {
		w.writeGroup(grp)
		w.sb.WriteString("\n")
	}
}

func (w *TurtleWriter) writeGroup(grp *subjectGroup) {
	w.sb.WriteString(w.term(grp.subject))
	w.sb.WriteString("\n")

	lines := make([]string, 0, len(grp.preds)+1)
	if len(grp.types) > 0 {
		lines = append(lines, "    a "+w.terms(grp.types))
	}
	for _, p := range grp.preds {
		lines = append(lines, "    "+w.term(p)+" "+w.terms(grp.objects[p]))
	}
	for i, line := range lines {
		terminator := " ;"
		if i == len(lines)-1 {
			terminator = " ."
		}
		w.sb.WriteString(line + terminator + "\n")
	}
}

func (w *TurtleWriter) terms(ts []rdf.Term) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = w.term(t)
	}
	return strings.Join(parts, ", ")
}

// term renders t, abbreviating IRIs and datatypes with the prefix map.
func (w *TurtleWriter) term(t rdf.Term) string {
	switch t.Kind {
	case rdf.KindIRI:
		if short, ok := w.prefixes.Shorten(t.Value); ok {
			return short
		}
		return t.String()
	case rdf.KindLiteral:
		if t.Lang != "" || t.Datatype == rdf.XSDString {
			return t.String()
		}
		lex := `"` + rdf.EscapeLiteral(t.Value) + `"`
		return lex + "^^" + w.term(rdf.IRI(t.Datatype))
	default:
		return t.String()
	}
}

// String returns the accumulated Turtle output.
func (w *TurtleWriter) String() string {
	return w.sb.String()
}

// NTriplesWriter writes RDF in N-Triples format through the cayley N-Quads
// encoder.
type NTriplesWriter struct {
	w io.Writer
}

// NewNTriplesWriter creates a new N-Triples writer.
func NewNTriplesWriter(w io.Writer) *NTriplesWriter {
	return &NTriplesWriter{w: w}
}

// WriteTriples writes every triple, one per line.
func (w *NTriplesWriter) WriteTriples(triples []rdf.Triple) error {
	qw := nquads.NewWriter(w.w)
	for _, t := range triples {
		q := quad.Quad{
			Subject:   format.ToQuadValue(t.S),
			Predicate: format.ToQuadValue(t.P),
			Object:    format.ToQuadValue(t.O),
		}
		if err := qw.WriteQuad(q); err != nil {
			return fmt.Errorf("write %s: %w", t, err)
		}
	}
	return qw.Close()
}

// JSONLDDocument represents a JSON-LD document structure.
type JSONLDDocument struct {
	Context map[string]any `json:"@context"`
	Graph   []JSONLDNode   `json:"@graph"`
}

// JSONLDNode represents a node in a JSON-LD graph.
type JSONLDNode struct {
	ID         string         `json:"@id"`
	Type       []string       `json:"@type,omitempty"`
	Properties map[string]any `json:"-"`
}

// MarshalJSON implements custom JSON marshaling for JSONLDNode.
func (n JSONLDNode) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(n.Properties)+2)
	m["@id"] = n.ID
	if len(n.Type) > 0 {
		m["@type"] = n.Type
	}
	for k, v := range n.Properties {
		m[k] = v
	}
	return json.Marshal(m)
}

// JSONLDWriter writes RDF in JSON-LD format.
type JSONLDWriter struct {
	prefixes format.Prefixes
	doc      JSONLDDocument
}

// NewJSONLDWriter creates a new JSON-LD writer whose @context declares the
// given prefixes.
func NewJSONLDWriter(prefixes format.Prefixes) *JSONLDWriter {
	ctx := make(map[string]any, len(prefixes))
	for k, v := range prefixes {
		ctx[k] = v
	}
	return &JSONLDWriter{
		prefixes: prefixes,
		doc: JSONLDDocument{
			Context: ctx,
			Graph:   make([]JSONLDNode, 0),
		},
	}
}

// AddTriples adds one node per subject.
func (w *JSONLDWriter) AddTriples(triples []rdf.Triple) {
	for _, grp := range groupBySubject(triples) {
		node := JSONLDNode{ID: w.id(grp.subject), Properties: make(map[string]any)}
		for _, t := range grp.types {
			if t.IsIRI() {
				node.Type = append(node.Type, w.compact(t.Value))
				continue
			}
			// blank or literal types cannot use @type
			key := w.compact(rdf.RDFType.Value)
			node.Properties[key] = append(valueList(node.Properties[key]), w.value(t))
		}
		for _, p := range grp.preds {
			values := make([]any, 0, len(grp.objects[p]))
			for _, o := range grp.objects[p] {
				values = append(values, w.value(o))
			}
			node.Properties[w.compact(p.Value)] = values
		}
		w.doc.Graph = append(w.doc.Graph, node)
	}
}

func valueList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

func (w *JSONLDWriter) id(t rdf.Term) string {
	if t.IsBlank() {
		return "_:" + t.Value
	}
	return w.compact(t.Value)
}

func (w *JSONLDWriter) compact(iri string) string {
	if short, ok := w.prefixes.Shorten(iri); ok {
		return short
	}
	return iri
}

func (w *JSONLDWriter) value(t rdf.Term) any {
	switch {
	case t.IsResource():
		return map[string]any{"@id": w.id(t)}
	case t.Lang != "":
		return map[string]any{"@value": t.Value, "@language": t.Lang}
	case t.Datatype == rdf.XSDString:
		return t.Value
	default:
		return map[string]any{"@value": t.Value, "@type": w.compact(t.Datatype)}
	}
}

// String returns the JSON-LD output.
func (w *JSONLDWriter) String() string {
	data, err := json.MarshalIndent(w.doc, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data) + "\n"
}
