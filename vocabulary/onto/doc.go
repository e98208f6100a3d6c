// Package onto provides the dotted predicates used when ontology statements
// are published to the semstreams knowledge graph.
//
// Predicates follow the semstreams three-level notation
// (domain.category.property) and are registered in init() with
// vocabulary.Register. Each one carries the RDF/OWL IRI it stands for via
// vocabulary.WithIRI, so exported triples can be mapped back to standard
// vocabulary.
//
// # Usage
//
//	pred, ok := onto.Predicate("http://www.w3.org/2000/01/rdf-schema#subClassOf")
//	// pred == onto.ClassSubClassOf, ok == true
//
//	iri := onto.PredicateIRIMap[onto.OntologyImports]
//	// iri == "http://www.w3.org/2002/07/owl#imports"
//
// Statements whose predicate has no dotted form keep their full IRI.
package onto
