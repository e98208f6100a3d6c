// Package rdf provides the triple-level data model: terms, triples, match
// patterns, the Graph capability consumed by the ontology layer and an
// indexed in-memory implementation of it.
package rdf

import (
	"fmt"
	"strings"
)

// TermKind distinguishes the three kinds of RDF terms.
type TermKind uint8

const (
	// KindNone marks the zero Term, which acts as a wildcard in patterns.
	KindNone TermKind = iota
	// KindIRI is an IRI reference.
	KindIRI
	// KindBlank is a blank node with a document-scoped label.
	KindBlank
	// KindLiteral is a literal with lexical form, datatype and optional language tag.
	KindLiteral
)

// String returns the string representation of the term kind.
func (k TermKind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "none"
	}
}

// Term is an immutable RDF term. Terms are comparable and usable as map keys.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Lang     string
}

// IRI creates an IRI term.
func IRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// Blank creates a blank node term with the given label.
func Blank(label string) Term {
	return Term{Kind: KindBlank, Value: label}
}

// Literal creates a typed literal. An empty datatype means xsd:string.
func Literal(lexical, datatype string) Term {
	if datatype == "" {
		datatype = XSDString
	}
	return Term{Kind: KindLiteral, Value: lexical, Datatype: datatype}
}

// PlainLiteral creates an xsd:string literal.
func PlainLiteral(lexical string) Term {
	return Literal(lexical, XSDString)
}

// LangLiteral creates a language-tagged literal.
func LangLiteral(lexical, lang string) Term {
	return Term{Kind: KindLiteral, Value: lexical, Datatype: RDFLangString, Lang: strings.ToLower(lang)}
}

// IsZero reports whether t is the wildcard term.
func (t Term) IsZero() bool { return t.Kind == KindNone }

// IsIRI reports whether t is an IRI.
func (t Term) IsIRI() bool { return t.Kind == KindIRI }

// IsBlank reports whether t is a blank node.
func (t Term) IsBlank() bool { return t.Kind == KindBlank }

// IsLiteral reports whether t is a literal.
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// IsResource reports whether t may appear in subject position.
func (t Term) IsResource() bool { return t.Kind == KindIRI || t.Kind == KindBlank }

// String renders the term in N-Triples syntax.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		lex := `"` + EscapeLiteral(t.Value) + `"`
		switch {
		case t.Lang != "":
			return lex + "@" + t.Lang
		case t.Datatype == "" || t.Datatype == XSDString:
			return lex
		default:
			return lex + "^^<" + t.Datatype + ">"
		}
	default:
		return "?"
	}
}

// Triple is a single subject-predicate-object statement.
type Triple struct {
	S Term
	P Term
	O Term
}

// NewTriple builds a triple from its three terms.
func NewTriple(s, p, o Term) Triple {
	return Triple{S: s, P: p, O: o}
}

// Valid reports whether the triple is well formed.
func (t Triple) Valid() bool {
	return t.S.IsResource() && t.P.IsIRI() && !t.O.IsZero()
}

// String renders the triple as one N-Triples line without the newline.
func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s .", t.S, t.P, t.O)
}

// Pattern matches triples. Zero terms match anything.
type Pattern struct {
	S Term
	P Term
	O Term
}

// Any matches every triple.
var Any = Pattern{}

// Match builds a pattern from its three positions.
func Match(s, p, o Term) Pattern {
	return Pattern{S: s, P: p, O: o}
}

// Matches reports whether t satisfies the pattern.
func (p Pattern) Matches(t Triple) bool {
	if !p.S.IsZero() && p.S != t.S {
		return false
	}
	if !p.P.IsZero() && p.P != t.P {
		return false
	}
	if !p.O.IsZero() && p.O != t.O {
		return false
	}
	return true
}

// EscapeLiteral escapes a lexical form for N-Triples and Turtle output.
func EscapeLiteral(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
