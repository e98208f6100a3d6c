package axiom

import (
	"strings"

	"github.com/c360studio/semonto/rdf"
)

// Axiom is an immutable structural assertion. Axioms are comparable and can
// be used as map keys; two axioms are equal when they assert the same
// statement in the same direction.
//
// The meaning of the three term slots depends on the kind:
//
//	Declaration              subject=entity                     (entity type carried separately)
//	SubClassOf..Range        subject=first operand, object=second operand
//	Functional*Property      subject=property
//	ClassAssertion           subject=individual, object=class
//	*PropertyAssertion       subject=source, property=property, object=target
//	AnnotationAssertion      subject=annotated IRI, property=annotation property, object=value
type Axiom struct {
	kind     Kind
	entity   EntityType
	subject  rdf.Term
	property rdf.Term
	object   rdf.Term
}

// NewDeclaration declares iri as an entity of the given type.
func NewDeclaration(typ EntityType, iri string) Axiom {
	return Axiom{kind: Declaration, entity: typ, subject: rdf.IRI(iri)}
}

// NewSubClassOf states that sub is a subclass of super.
func NewSubClassOf(sub, super string) Axiom {
	return binary(SubClassOf, sub, super)
}

// NewEquivalentClasses states that a and b are equivalent classes.
func NewEquivalentClasses(a, b string) Axiom {
	return binary(EquivalentClasses, a, b)
}

// NewDisjointClasses states that a and b share no instances.
func NewDisjointClasses(a, b string) Axiom {
	return binary(DisjointClasses, a, b)
}

// NewSubObjectPropertyOf states an object sub-property relation.
func NewSubObjectPropertyOf(sub, super string) Axiom {
	return binary(SubObjectPropertyOf, sub, super)
}

// NewSubDataPropertyOf states a data sub-property relation.
func NewSubDataPropertyOf(sub, super string) Axiom {
	return binary(SubDataPropertyOf, sub, super)
}

// NewInverseObjectProperties states that p and q are inverses.
func NewInverseObjectProperties(p, q string) Axiom {
	return binary(InverseObjectProperties, p, q)
}

// NewObjectPropertyDomain states the domain class of an object property.
func NewObjectPropertyDomain(property, class string) Axiom {
	return binary(ObjectPropertyDomain, property, class)
}

// NewObjectPropertyRange states the range class of an object property.
func NewObjectPropertyRange(property, class string) Axiom {
	return binary(ObjectPropertyRange, property, class)
}

// NewDataPropertyDomain states the domain class of a data property.
func NewDataPropertyDomain(property, class string) Axiom {
	return binary(DataPropertyDomain, property, class)
}

// NewDataPropertyRange states the datatype range of a data property.
func NewDataPropertyRange(property, datatype string) Axiom {
	return binary(DataPropertyRange, property, datatype)
}

// NewFunctionalObjectProperty marks an object property as functional.
func NewFunctionalObjectProperty(property string) Axiom {
	return Axiom{kind: FunctionalObjectProperty, subject: rdf.IRI(property)}
}

// NewFunctionalDataProperty marks a data property as functional.
func NewFunctionalDataProperty(property string) Axiom {
	return Axiom{kind: FunctionalDataProperty, subject: rdf.IRI(property)}
}

// NewClassAssertion states that individual is an instance of class.
func NewClassAssertion(class, individual string) Axiom {
	return Axiom{kind: ClassAssertion, subject: rdf.IRI(individual), object: rdf.IRI(class)}
}

// NewObjectPropertyAssertion relates two individuals through property.
func NewObjectPropertyAssertion(property, subject, object string) Axiom {
	return Axiom{
		kind:     ObjectPropertyAssertion,
		subject:  rdf.IRI(subject),
		property: rdf.IRI(property),
		object:   rdf.IRI(object),
	}
}

// NewDataPropertyAssertion relates an individual to a literal.
func NewDataPropertyAssertion(property, subject string, value rdf.Term) Axiom {
	return Axiom{
		kind:     DataPropertyAssertion,
		subject:  rdf.IRI(subject),
		property: rdf.IRI(property),
		object:   value,
	}
}

// NewSameIndividual states that a and b denote the same individual.
func NewSameIndividual(a, b string) Axiom {
	return binary(SameIndividual, a, b)
}

// NewDifferentIndividuals states that a and b denote different individuals.
func NewDifferentIndividuals(a, b string) Axiom {
	return binary(DifferentIndividuals, a, b)
}

// NewAnnotationAssertion annotates subject with a property value.
func NewAnnotationAssertion(property, subject string, value rdf.Term) Axiom {
	return Axiom{
		kind:     AnnotationAssertion,
		subject:  rdf.IRI(subject),
		property: rdf.IRI(property),
		object:   value,
	}
}

func binary(k Kind, first, second string) Axiom {
	return Axiom{kind: k, subject: rdf.IRI(first), object: rdf.IRI(second)}
}

// Kind returns the axiom kind.
func (a Axiom) Kind() Kind { return a.kind }

// EntityType returns the declared entity type of a Declaration.
func (a Axiom) EntityType() EntityType { return a.entity }

// Subject returns the first term slot.
func (a Axiom) Subject() rdf.Term { return a.subject }

// Property returns the property slot of assertion axioms.
func (a Axiom) Property() rdf.Term { return a.property }

// Object returns the second operand slot.
func (a Axiom) Object() rdf.Term { return a.object }

// IsZero reports whether a is the zero axiom.
func (a Axiom) IsZero() bool { return a.kind == 0 }

// Valid reports whether the axiom's slots are filled for its kind.
func (a Axiom) Valid() bool {
	if !a.subject.IsIRI() {
		return false
	}
	switch a.kind {
	case Declaration:
		_, ok := entityTypeTerms[a.entity]
		return ok
	case FunctionalObjectProperty, FunctionalDataProperty:
		return true
	case ObjectPropertyAssertion:
		return a.property.IsIRI() && a.object.IsIRI()
	case DataPropertyAssertion:
		return a.property.IsIRI() && a.object.IsLiteral()
	case AnnotationAssertion:
		return a.property.IsIRI() && !a.object.IsZero() && !a.object.IsBlank()
	case 0:
		return false
	default:
		return a.object.IsIRI()
	}
}

// CoreTriple returns the single statement that carries the axiom.
func (a Axiom) CoreTriple() rdf.Triple {
	switch a.kind {
	case Declaration:
		return rdf.NewTriple(a.subject, rdf.RDFType, a.entity.Term())
	case FunctionalObjectProperty, FunctionalDataProperty:
		return rdf.NewTriple(a.subject, rdf.RDFType, rdf.OWLFunctionalProperty)
	case ClassAssertion:
		return rdf.NewTriple(a.subject, rdf.RDFType, a.object)
	case ObjectPropertyAssertion, DataPropertyAssertion, AnnotationAssertion:
		return rdf.NewTriple(a.subject, a.property, a.object)
	default:
		return rdf.NewTriple(a.subject, predicates[a.kind], a.object)
	}
}

// predicates holds the fixed predicate of kinds whose core triple is
// (subject, predicate, object).
var predicates = map[Kind]rdf.Term{
	SubClassOf:              rdf.RDFSSubClassOf,
	EquivalentClasses:       rdf.OWLEquivalentClass,
	DisjointClasses:         rdf.OWLDisjointWith,
	SubObjectPropertyOf:     rdf.RDFSSubPropertyOf,
	SubDataPropertyOf:       rdf.RDFSSubPropertyOf,
	InverseObjectProperties: rdf.OWLInverseOf,
	ObjectPropertyDomain:    rdf.RDFSDomain,
	ObjectPropertyRange:     rdf.RDFSRange,
	DataPropertyDomain:      rdf.RDFSDomain,
	DataPropertyRange:       rdf.RDFSRange,
	SameIndividual:          rdf.OWLSameAs,
	DifferentIndividuals:    rdf.OWLDifferentFrom,
}

// Signature returns the entities the axiom refers to, with the types the
// axiom implies for them. Built-in vocabulary is never part of a signature.
func (a Axiom) Signature() []Entity {
	var out []Entity
	add := func(typ EntityType, t rdf.Term) {
		if t.IsIRI() && !rdf.IsBuiltin(t.Value) {
			out = append(out, Entity{Type: typ, IRI: t.Value})
		}
	}
	switch a.kind {
	case Declaration:
		add(a.entity, a.subject)
	case SubClassOf, EquivalentClasses, DisjointClasses:
		add(Class, a.subject)
		add(Class, a.object)
	case SubObjectPropertyOf, InverseObjectProperties:
		add(ObjectProperty, a.subject)
		add(ObjectProperty, a.object)
	case SubDataPropertyOf:
		add(DataProperty, a.subject)
		add(DataProperty, a.object)
	case ObjectPropertyDomain, ObjectPropertyRange:
		add(ObjectProperty, a.subject)
		add(Class, a.object)
	case DataPropertyDomain:
		add(DataProperty, a.subject)
		add(Class, a.object)
	case DataPropertyRange:
		add(DataProperty, a.subject)
		add(Datatype, a.object)
	case FunctionalObjectProperty:
		add(ObjectProperty, a.subject)
	case FunctionalDataProperty:
		add(DataProperty, a.subject)
	case ClassAssertion:
		add(NamedIndividual, a.subject)
		add(Class, a.object)
	case ObjectPropertyAssertion:
		add(ObjectProperty, a.property)
		add(NamedIndividual, a.subject)
		add(NamedIndividual, a.object)
	case DataPropertyAssertion:
		add(DataProperty, a.property)
		add(NamedIndividual, a.subject)
	case SameIndividual, DifferentIndividuals:
		add(NamedIndividual, a.subject)
		add(NamedIndividual, a.object)
	case AnnotationAssertion:
		if !rdf.BuiltinAnnotationProperties[a.property] {
			add(AnnotationProperty, a.property)
		}
	}
	return out
}

// Triples is the write projection: the core triple followed by the
// declaration of every entity the axiom introduces, so that the written
// graph reads back to the same axiom.
func (a Axiom) Triples() []rdf.Triple {
	out := []rdf.Triple{a.CoreTriple()}
	if a.kind == Declaration {
		return out
	}
	seen := map[rdf.Triple]bool{out[0]: true}
	for _, e := range a.Signature() {
		if a.kind == AnnotationAssertion && e.Type != AnnotationProperty {
			continue
		}
		t := rdf.NewTriple(e.Term(), rdf.RDFType, e.Type.Term())
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// String renders the axiom in a functional-syntax style.
func (a Axiom) String() string {
	var sb strings.Builder
	sb.WriteString(a.kind.String())
	sb.WriteString("(")
	switch a.kind {
	case Declaration:
		sb.WriteString(a.entity.String())
		sb.WriteString("(")
		sb.WriteString(a.subject.String())
		sb.WriteString(")")
	case FunctionalObjectProperty, FunctionalDataProperty:
		sb.WriteString(a.subject.String())
	case ClassAssertion:
		sb.WriteString(a.object.String())
		sb.WriteString(" ")
		sb.WriteString(a.subject.String())
	case ObjectPropertyAssertion, DataPropertyAssertion, AnnotationAssertion:
		sb.WriteString(a.property.String())
		sb.WriteString(" ")
		sb.WriteString(a.subject.String())
		sb.WriteString(" ")
		sb.WriteString(a.object.String())
	default:
		sb.WriteString(a.subject.String())
		sb.WriteString(" ")
		sb.WriteString(a.object.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// Annotation is an annotation on the ontology itself.
type Annotation struct {
	Property rdf.Term
	Value    rdf.Term
}

// NewAnnotation builds an ontology annotation.
func NewAnnotation(property string, value rdf.Term) Annotation {
	return Annotation{Property: rdf.IRI(property), Value: value}
}

// Triple places the annotation on the given ontology node.
func (an Annotation) Triple(node rdf.Term) rdf.Triple {
	return rdf.NewTriple(node, an.Property, an.Value)
}

// String renders the annotation in functional syntax.
func (an Annotation) String() string {
	return "Annotation(" + an.Property.String() + " " + an.Value.String() + ")"
}
