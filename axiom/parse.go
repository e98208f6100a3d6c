package axiom

import "github.com/c360studio/semonto/rdf"

// Parse is the read projection. It maps one triple to the axiom it carries,
// consulting declarations in view to resolve predicates whose meaning depends
// on the type of their subject (rdfs:subPropertyOf, rdfs:domain, rdfs:range
// and plain property assertions). Triples that carry no axiom return false.
func Parse(t rdf.Triple, view rdf.Graph) (Axiom, bool) {
	if !t.S.IsIRI() || IsHeaderPredicate(t.P) {
		return Axiom{}, false
	}

	switch t.P {
	case rdf.RDFType:
		return parseType(t, view)
	case rdf.RDFSSubClassOf:
		return parseBinary(SubClassOf, t)
	case rdf.OWLEquivalentClass:
		return parseBinary(EquivalentClasses, t)
	case rdf.OWLDisjointWith:
		return parseBinary(DisjointClasses, t)
	case rdf.OWLInverseOf:
		return parseBinary(InverseObjectProperties, t)
	case rdf.OWLSameAs:
		return parseBinary(SameIndividual, t)
	case rdf.OWLDifferentFrom:
		return parseBinary(DifferentIndividuals, t)
	case rdf.RDFSSubPropertyOf:
		return parseByPropertyType(t, view, SubObjectPropertyOf, SubDataPropertyOf)
	case rdf.RDFSDomain:
		return parseByPropertyType(t, view, ObjectPropertyDomain, DataPropertyDomain)
	case rdf.RDFSRange:
		return parseByPropertyType(t, view, ObjectPropertyRange, DataPropertyRange)
	}

	return parseAssertion(t, view)
}

func parseType(t rdf.Triple, view rdf.Graph) (Axiom, bool) {
	if !t.O.IsIRI() {
		return Axiom{}, false
	}
	if typ, ok := EntityTypeOf(t.O); ok {
		return Axiom{kind: Declaration, entity: typ, subject: t.S}, true
	}
	switch t.O {
	case rdf.OWLFunctionalProperty:
		switch {
		case rdf.HasType(view, t.S, rdf.OWLObjectProperty):
			return Axiom{kind: FunctionalObjectProperty, subject: t.S}, true
		case rdf.HasType(view, t.S, rdf.OWLDatatypeProperty):
			return Axiom{kind: FunctionalDataProperty, subject: t.S}, true
		}
		return Axiom{}, false
	case rdf.OWLThing:
		return Axiom{kind: ClassAssertion, subject: t.S, object: t.O}, true
	}
	if rdf.IsBuiltin(t.O.Value) {
		return Axiom{}, false
	}
	return Axiom{kind: ClassAssertion, subject: t.S, object: t.O}, true
}

func parseBinary(k Kind, t rdf.Triple) (Axiom, bool) {
	if !t.O.IsIRI() {
		return Axiom{}, false
	}
	return Axiom{kind: k, subject: t.S, object: t.O}, true
}

func parseByPropertyType(t rdf.Triple, view rdf.Graph, object, data Kind) (Axiom, bool) {
	if !t.O.IsIRI() {
		return Axiom{}, false
	}
	switch {
	case rdf.HasType(view, t.S, rdf.OWLObjectProperty):
		return Axiom{kind: object, subject: t.S, object: t.O}, true
	case rdf.HasType(view, t.S, rdf.OWLDatatypeProperty):
		return Axiom{kind: data, subject: t.S, object: t.O}, true
	}
	return Axiom{}, false
}

func parseAssertion(t rdf.Triple, view rdf.Graph) (Axiom, bool) {
	if t.O.IsBlank() {
		return Axiom{}, false
	}
	if IsAnnotationProperty(t.P, view) {
		return Axiom{kind: AnnotationAssertion, subject: t.S, property: t.P, object: t.O}, true
	}
	if t.O.IsIRI() && rdf.HasType(view, t.P, rdf.OWLObjectProperty) {
		return Axiom{kind: ObjectPropertyAssertion, subject: t.S, property: t.P, object: t.O}, true
	}
	if t.O.IsLiteral() && rdf.HasType(view, t.P, rdf.OWLDatatypeProperty) {
		return Axiom{kind: DataPropertyAssertion, subject: t.S, property: t.P, object: t.O}, true
	}
	return Axiom{}, false
}

// IsAnnotationProperty reports whether p is a built-in annotation property or
// is declared as one in view.
func IsAnnotationProperty(p rdf.Term, view rdf.Graph) bool {
	return rdf.BuiltinAnnotationProperties[p] || rdf.HasType(view, p, rdf.OWLAnnotationProperty)
}

// IsHeaderPredicate reports whether p only ever appears in ontology headers.
func IsHeaderPredicate(p rdf.Term) bool {
	return p == rdf.OWLImports || p == rdf.OWLVersionIRI
}

// IsHeaderTriple reports whether t belongs to an ontology header: a type
// statement, a version IRI or an import.
func IsHeaderTriple(t rdf.Triple) bool {
	return (t.P == rdf.RDFType && t.O == rdf.OWLOntology) || IsHeaderPredicate(t.P)
}

// ParseAnnotation reads an ontology annotation from a triple on the
// ontology node. Header statements are not annotations.
func ParseAnnotation(t rdf.Triple, node rdf.Term) (Annotation, bool) {
	if node.IsZero() || t.S != node || IsHeaderTriple(t) || t.P == rdf.RDFType {
		return Annotation{}, false
	}
	if t.O.IsBlank() {
		return Annotation{}, false
	}
	return Annotation{Property: t.P, Value: t.O}, true
}

// kindPatterns narrows the triples that can carry axioms of a kind, so a
// single kind can be listed without scanning for everything else.
func kindPatterns(k Kind) []rdf.Pattern {
	var wild rdf.Term
	switch k {
	case Declaration:
		out := make([]rdf.Pattern, 0, len(entityTypeTerms))
		for _, typ := range []EntityType{Class, ObjectProperty, DataProperty, AnnotationProperty, NamedIndividual, Datatype} {
			out = append(out, rdf.Match(wild, rdf.RDFType, typ.Term()))
		}
		return out
	case FunctionalObjectProperty, FunctionalDataProperty:
		return []rdf.Pattern{rdf.Match(wild, rdf.RDFType, rdf.OWLFunctionalProperty)}
	case ClassAssertion:
		return []rdf.Pattern{rdf.Match(wild, rdf.RDFType, wild)}
	case ObjectPropertyAssertion, DataPropertyAssertion, AnnotationAssertion:
		return []rdf.Pattern{rdf.Any}
	default:
		return []rdf.Pattern{rdf.Match(wild, predicates[k], wild)}
	}
}
