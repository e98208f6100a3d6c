// Package axiom provides the structural view of an ontology: immutable axiom
// and annotation values, their projection to and from triples, and the
// cached index derived from a graph.
package axiom

import "github.com/c360studio/semonto/rdf"

// Kind is the closed set of axiom types.
type Kind int

const (
	Declaration Kind = iota + 1
	SubClassOf
	EquivalentClasses
	DisjointClasses
	SubObjectPropertyOf
	SubDataPropertyOf
	InverseObjectProperties
	ObjectPropertyDomain
	ObjectPropertyRange
	DataPropertyDomain
	DataPropertyRange
	FunctionalObjectProperty
	FunctionalDataProperty
	ClassAssertion
	ObjectPropertyAssertion
	DataPropertyAssertion
	SameIndividual
	DifferentIndividuals
	AnnotationAssertion
)

// Kinds lists every axiom kind in declaration order.
var Kinds = []Kind{
	Declaration, SubClassOf, EquivalentClasses, DisjointClasses,
	SubObjectPropertyOf, SubDataPropertyOf, InverseObjectProperties,
	ObjectPropertyDomain, ObjectPropertyRange, DataPropertyDomain, DataPropertyRange,
	FunctionalObjectProperty, FunctionalDataProperty,
	ClassAssertion, ObjectPropertyAssertion, DataPropertyAssertion,
	SameIndividual, DifferentIndividuals, AnnotationAssertion,
}

var kindNames = map[Kind]string{
	Declaration:              "Declaration",
	SubClassOf:               "SubClassOf",
	EquivalentClasses:        "EquivalentClasses",
	DisjointClasses:          "DisjointClasses",
	SubObjectPropertyOf:      "SubObjectPropertyOf",
	SubDataPropertyOf:        "SubDataPropertyOf",
	InverseObjectProperties:  "InverseObjectProperties",
	ObjectPropertyDomain:     "ObjectPropertyDomain",
	ObjectPropertyRange:      "ObjectPropertyRange",
	DataPropertyDomain:       "DataPropertyDomain",
	DataPropertyRange:        "DataPropertyRange",
	FunctionalObjectProperty: "FunctionalObjectProperty",
	FunctionalDataProperty:   "FunctionalDataProperty",
	ClassAssertion:           "ClassAssertion",
	ObjectPropertyAssertion:  "ObjectPropertyAssertion",
	DataPropertyAssertion:    "DataPropertyAssertion",
	SameIndividual:           "SameIndividual",
	DifferentIndividuals:     "DifferentIndividuals",
	AnnotationAssertion:      "AnnotationAssertion",
}

// String returns the functional-syntax name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// ParseKind resolves a functional-syntax kind name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// EntityType is the type of a named entity.
type EntityType int

const (
	Class EntityType = iota + 1
	ObjectProperty
	DataProperty
	AnnotationProperty
	NamedIndividual
	Datatype
)

var entityTypeTerms = map[EntityType]rdf.Term{
	Class:              rdf.OWLClass,
	ObjectProperty:     rdf.OWLObjectProperty,
	DataProperty:       rdf.OWLDatatypeProperty,
	AnnotationProperty: rdf.OWLAnnotationProperty,
	NamedIndividual:    rdf.OWLNamedIndividual,
	Datatype:           rdf.RDFSDatatype,
}

var entityTypeNames = map[EntityType]string{
	Class:              "Class",
	ObjectProperty:     "ObjectProperty",
	DataProperty:       "DataProperty",
	AnnotationProperty: "AnnotationProperty",
	NamedIndividual:    "NamedIndividual",
	Datatype:           "Datatype",
}

// String returns the functional-syntax name of the entity type.
func (e EntityType) String() string {
	if name, ok := entityTypeNames[e]; ok {
		return name
	}
	return "Unknown"
}

// ParseEntityType resolves a functional-syntax entity type name.
func ParseEntityType(name string) (EntityType, bool) {
	for e, n := range entityTypeNames {
		if n == name {
			return e, true
		}
	}
	return 0, false
}

// Term returns the rdf:type object that declares entities of this type.
func (e EntityType) Term() rdf.Term {
	return entityTypeTerms[e]
}

// EntityTypeOf maps a declaration type term back to its entity type.
func EntityTypeOf(t rdf.Term) (EntityType, bool) {
	for e, term := range entityTypeTerms {
		if term == t {
			return e, true
		}
	}
	return 0, false
}

// Entity is a named, typed element of an ontology signature.
type Entity struct {
	Type EntityType
	IRI  string
}

// Term returns the entity IRI as a term.
func (e Entity) Term() rdf.Term {
	return rdf.IRI(e.IRI)
}

// String renders the entity in functional syntax.
func (e Entity) String() string {
	return e.Type.String() + "(<" + e.IRI + ">)"
}
