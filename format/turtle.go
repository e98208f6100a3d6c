package format

import (
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	ttl "github.com/knakk/rdf"

	"github.com/c360studio/semonto/rdf"
)

// TurtleReader reads Turtle documents, including the SPARQL-style PREFIX and
// BASE directives. N-Triples documents are valid Turtle.
type TurtleReader struct{}

var (
	prefixDirective = regexp.MustCompile(`(?im)^\s*(?:@prefix|prefix)\s+([^\s:]*):\s*<([^>]*)>`)
	errorLine       = regexp.MustCompile(`^(\d+):`)
)

// Read implements Reader. Relative IRIs left after the document's own base
// directive are resolved against base.
func (TurtleReader) Read(g rdf.Graph, r io.Reader, base string) (Prefixes, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dec := ttl.NewTripleDecoder(strings.NewReader(string(data)), ttl.Turtle)
	blanks := blankScope{}
	var triples []rdf.Triple
	for {
		tr, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, turtleError(err)
		}
		t, err := fromTurtle(tr, base, blanks)
		if err != nil {
			return nil, &ParseError{Kind: Turtle, Msg: err.Error()}
		}
		triples = append(triples, t)
	}
	for _, t := range triples {
		g.Add(t)
	}
	return scanPrefixes(string(data), base), nil
}

// scanPrefixes collects the prefix directives of a document.
func scanPrefixes(doc, base string) Prefixes {
	prefixes := Prefixes{}
	for _, m := range prefixDirective.FindAllStringSubmatch(doc, -1) {
		prefixes[m[1]] = resolveIRI(base, m[2])
	}
	return prefixes
}

func turtleError(err error) error {
	perr := &ParseError{Kind: Turtle, Msg: err.Error()}
	if m := errorLine.FindStringSubmatch(err.Error()); m != nil {
		perr.Line, _ = strconv.Atoi(m[1])
	}
	return perr
}

func fromTurtle(tr ttl.Triple, base string, blanks blankScope) (rdf.Triple, error) {
	t := rdf.NewTriple(
		fromTurtleTerm(tr.Subj, base, blanks),
		fromTurtleTerm(tr.Pred, base, blanks),
		fromTurtleTerm(tr.Obj, base, blanks),
	)
	if !t.Valid() {
		return rdf.Triple{}, errors.New("malformed statement " + t.String())
	}
	return t, nil
}

func fromTurtleTerm(term ttl.Term, base string, blanks blankScope) rdf.Term {
	switch v := term.(type) {
	case ttl.IRI:
		return rdf.IRI(resolveIRI(base, v.String()))
	case ttl.Blank:
		return blanks.get(strings.TrimPrefix(v.String(), "_:"))
	case ttl.Literal:
		if lang := v.Lang(); lang != "" {
			return rdf.LangLiteral(v.String(), lang)
		}
		return rdf.Literal(v.String(), v.DataType.String())
	default:
		return rdf.Term{}
	}
}
