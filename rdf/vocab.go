package rdf

import "github.com/c360studio/semstreams/vocabulary"

// Namespaces.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
)

// Datatypes.
const (
	XSDString     = XSDNamespace + "string"
	XSDInteger    = XSDNamespace + "integer"
	XSDDecimal    = XSDNamespace + "decimal"
	XSDDouble     = XSDNamespace + "double"
	XSDBoolean    = XSDNamespace + "boolean"
	RDFLangString = RDFNamespace + "langString"
)

// RDF and RDFS terms.
var (
	RDFType           = IRI(RDFNamespace + "type")
	RDFProperty       = IRI(RDFNamespace + "Property")
	RDFFirst          = IRI(RDFNamespace + "first")
	RDFRest           = IRI(RDFNamespace + "rest")
	RDFNil            = IRI(RDFNamespace + "nil")
	RDFSClass         = IRI(RDFSNamespace + "Class")
	RDFSDatatype      = IRI(RDFSNamespace + "Datatype")
	RDFSSubClassOf    = IRI(RDFSNamespace + "subClassOf")
	RDFSSubPropertyOf = IRI(RDFSNamespace + "subPropertyOf")
	RDFSDomain        = IRI(RDFSNamespace + "domain")
	RDFSRange         = IRI(RDFSNamespace + "range")
	RDFSLabel         = IRI(vocabulary.RdfsLabel)
	RDFSComment       = IRI(vocabulary.RdfsComment)
	RDFSSeeAlso       = IRI(vocabulary.RdfsSeeAlso)
	RDFSIsDefinedBy   = IRI(RDFSNamespace + "isDefinedBy")
)

// OWL terms.
var (
	OWLOntology               = IRI(OWLNamespace + "Ontology")
	OWLImports                = IRI(OWLNamespace + "imports")
	OWLVersionIRI             = IRI(OWLNamespace + "versionIRI")
	OWLVersionInfo            = IRI(OWLNamespace + "versionInfo")
	OWLPriorVersion           = IRI(OWLNamespace + "priorVersion")
	OWLDeprecated             = IRI(OWLNamespace + "deprecated")
	OWLClass                  = IRI(OWLNamespace + "Class")
	OWLThing                  = IRI(OWLNamespace + "Thing")
	OWLObjectProperty         = IRI(OWLNamespace + "ObjectProperty")
	OWLDatatypeProperty       = IRI(OWLNamespace + "DatatypeProperty")
	OWLAnnotationProperty     = IRI(OWLNamespace + "AnnotationProperty")
	OWLNamedIndividual        = IRI(OWLNamespace + "NamedIndividual")
	OWLFunctionalProperty     = IRI(OWLNamespace + "FunctionalProperty")
	OWLEquivalentClass        = IRI(vocabulary.OwlEquivalentClass)
	OWLEquivalentProperty     = IRI(vocabulary.OwlEquivalentProperty)
	OWLDisjointWith           = IRI(OWLNamespace + "disjointWith")
	OWLInverseOf              = IRI(OWLNamespace + "inverseOf")
	OWLSameAs                 = IRI(vocabulary.OwlSameAs)
	OWLDifferentFrom          = IRI(OWLNamespace + "differentFrom")
	OWLAllDisjointClasses     = IRI(OWLNamespace + "AllDisjointClasses")
	OWLAxiom                  = IRI(OWLNamespace + "Axiom")
	OWLIncompatibleWith       = IRI(OWLNamespace + "incompatibleWith")
	OWLBackwardCompatibleWith = IRI(OWLNamespace + "backwardCompatibleWith")
)

// IsBuiltin reports whether iri belongs to the RDF, RDFS, OWL or XSD namespaces.
func IsBuiltin(iri string) bool {
	for _, ns := range []string{RDFNamespace, RDFSNamespace, OWLNamespace, XSDNamespace} {
		if len(iri) >= len(ns) && iri[:len(ns)] == ns {
			return true
		}
	}
	return false
}

// BuiltinAnnotationProperties are annotation properties usable without a declaration.
var BuiltinAnnotationProperties = map[Term]bool{
	RDFSLabel:                 true,
	RDFSComment:               true,
	RDFSSeeAlso:               true,
	RDFSIsDefinedBy:           true,
	OWLDeprecated:             true,
	OWLVersionInfo:            true,
	OWLPriorVersion:           true,
	OWLIncompatibleWith:       true,
	OWLBackwardCompatibleWith: true,
}
