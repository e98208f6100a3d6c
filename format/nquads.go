package format

import (
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"

	"github.com/c360studio/semonto/rdf"
)

// QuadReader reads N-Triples and N-Quads. Graph labels are dropped; every
// statement lands in the target graph.
type QuadReader struct{}

// Read implements Reader.
func (QuadReader) Read(g rdf.Graph, r io.Reader, base string) (Prefixes, error) {
	qr := nquads.NewReader(r, false)
	blanks := blankScope{}
	line := 0
	for {
		q, err := qr.ReadQuad()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &ParseError{Kind: NTriples, Line: line, Msg: err.Error()}
		}
		t, err := quadTriple(q, base, blanks)
		if err != nil {
			return nil, &ParseError{Kind: NTriples, Line: line, Msg: err.Error()}
		}
		g.Add(t)
	}
	return Prefixes{}, nil
}

func quadTriple(q quad.Quad, base string, blanks blankScope) (rdf.Triple, error) {
	s, err := fromQuadValue(q.Subject, base, blanks)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("subject: %w", err)
	}
	p, err := fromQuadValue(q.Predicate, base, blanks)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("predicate: %w", err)
	}
	o, err := fromQuadValue(q.Object, base, blanks)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("object: %w", err)
	}
	t := rdf.NewTriple(s, p, o)
	if !t.Valid() {
		return rdf.Triple{}, fmt.Errorf("malformed statement %s", t)
	}
	return t, nil
}

func fromQuadValue(v quad.Value, base string, blanks blankScope) (rdf.Term, error) {
	switch v := v.(type) {
	case nil:
		return rdf.Term{}, errors.New("missing term")
	case quad.IRI:
		return rdf.IRI(resolveIRI(base, string(v.Full()))), nil
	case quad.BNode:
		return blanks.get(string(v)), nil
	case quad.String:
		return rdf.PlainLiteral(string(v)), nil
	case quad.LangString:
		return rdf.LangLiteral(string(v.Value), v.Lang), nil
	case quad.TypedString:
		return rdf.Literal(string(v.Value), string(v.Type.Full())), nil
	case quad.TypedStringer:
		ts := v.TypedString()
		return rdf.Literal(string(ts.Value), string(ts.Type.Full())), nil
	default:
		return rdf.Term{}, fmt.Errorf("unsupported term %q", v.String())
	}
}

// ToQuadValue converts a term for the cayley writers.
func ToQuadValue(t rdf.Term) quad.Value {
	switch t.Kind {
	case rdf.KindIRI:
		return quad.IRI(t.Value)
	case rdf.KindBlank:
		return quad.BNode(t.Value)
	case rdf.KindLiteral:
		switch {
		case t.Lang != "":
			return quad.LangString{Value: quad.String(t.Value), Lang: t.Lang}
		case t.Datatype == "" || t.Datatype == rdf.XSDString:
			return quad.String(t.Value)
		default:
			return quad.TypedString{Value: quad.String(t.Value), Type: quad.IRI(t.Datatype)}
		}
	default:
		return nil
	}
}

// resolveIRI resolves ref against base. Absolute references and unusable
// bases leave ref unchanged.
func resolveIRI(base, ref string) string {
	if base == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(u).String()
}
