package onto

import (
	"github.com/c360studio/semstreams/vocabulary"

	"github.com/c360studio/semonto/rdf"
)

// Ontology header predicates.
const (
	// OntologyImports links an ontology to an ontology it imports.
	OntologyImports = "onto.ontology.imports"

	// OntologyVersionIRI is the version IRI of an ontology.
	OntologyVersionIRI = "onto.ontology.version_iri"

	// OntologyVersionInfo is free-form version text.
	OntologyVersionInfo = "onto.ontology.version_info"

	// OntologyPriorVersion links to the previous version of an ontology.
	OntologyPriorVersion = "onto.ontology.prior_version"
)

// Entity predicates apply to any named entity.
const (
	// EntityType is the rdf:type of an entity.
	EntityType = "onto.entity.type"

	// EntityLabel is a human-readable label.
	EntityLabel = "onto.entity.label"

	// EntityComment is a human-readable description.
	EntityComment = "onto.entity.comment"

	// EntitySeeAlso points to related information.
	EntitySeeAlso = "onto.entity.see_also"

	// EntityDefinedBy points to the defining ontology.
	EntityDefinedBy = "onto.entity.defined_by"

	// EntityDeprecated marks a deprecated entity.
	EntityDeprecated = "onto.entity.deprecated"
)

// Class predicates.
const (
	ClassSubClassOf   = "onto.class.subclass_of"
	ClassEquivalentTo = "onto.class.equivalent_to"
	ClassDisjointWith = "onto.class.disjoint_with"
)

// Property predicates.
const (
	PropertySubPropertyOf = "onto.property.subproperty_of"
	PropertyEquivalentTo  = "onto.property.equivalent_to"
	PropertyInverseOf     = "onto.property.inverse_of"
	PropertyDomain        = "onto.property.domain"
	PropertyRange         = "onto.property.range"
)

// Individual predicates.
const (
	IndividualSameAs        = "onto.individual.same_as"
	IndividualDifferentFrom = "onto.individual.different_from"
)

// PredicateIRIMap maps each predicate to the IRI it stands for.
var PredicateIRIMap = map[string]string{
	OntologyImports:         rdf.OWLImports.Value,
	OntologyVersionIRI:      rdf.OWLVersionIRI.Value,
	OntologyVersionInfo:     rdf.OWLVersionInfo.Value,
	OntologyPriorVersion:    rdf.OWLPriorVersion.Value,
	EntityType:              rdf.RDFType.Value,
	EntityLabel:             rdf.RDFSLabel.Value,
	EntityComment:           rdf.RDFSComment.Value,
	EntitySeeAlso:           rdf.RDFSSeeAlso.Value,
	EntityDefinedBy:         rdf.RDFSIsDefinedBy.Value,
	EntityDeprecated:        rdf.OWLDeprecated.Value,
	ClassSubClassOf:         rdf.RDFSSubClassOf.Value,
	ClassEquivalentTo:       rdf.OWLEquivalentClass.Value,
	ClassDisjointWith:       rdf.OWLDisjointWith.Value,
	PropertySubPropertyOf:   rdf.RDFSSubPropertyOf.Value,
	PropertyEquivalentTo:    rdf.OWLEquivalentProperty.Value,
	PropertyInverseOf:       rdf.OWLInverseOf.Value,
	PropertyDomain:          rdf.RDFSDomain.Value,
	PropertyRange:           rdf.RDFSRange.Value,
	IndividualSameAs:        rdf.OWLSameAs.Value,
	IndividualDifferentFrom: rdf.OWLDifferentFrom.Value,
}

var byIRI = make(map[string]string, len(PredicateIRIMap))

// Predicate returns the dotted predicate standing for iri.
func Predicate(iri string) (string, bool) {
	p, ok := byIRI[iri]
	return p, ok
}

// IRI returns the IRI a dotted predicate stands for.
func IRI(predicate string) (string, bool) {
	iri, ok := PredicateIRIMap[predicate]
	return iri, ok
}

func init() {
	for p, iri := range PredicateIRIMap {
		byIRI[iri] = p
	}
	registerOntologyPredicates()
	registerEntityPredicates()
	registerAxiomPredicates()
}

func registerOntologyPredicates() {
	vocabulary.Register(OntologyImports,
		vocabulary.WithDescription("Ontology imported by this ontology"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(PredicateIRIMap[OntologyImports]))

	vocabulary.Register(OntologyVersionIRI,
		vocabulary.WithDescription("Version IRI of the ontology"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(PredicateIRIMap[OntologyVersionIRI]))

	vocabulary.Register(OntologyVersionInfo,
		vocabulary.WithDescription("Version text of the ontology"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PredicateIRIMap[OntologyVersionInfo]))

	vocabulary.Register(OntologyPriorVersion,
		vocabulary.WithDescription("Previous version of the ontology"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(PredicateIRIMap[OntologyPriorVersion]))
}

func registerEntityPredicates() {
	vocabulary.Register(EntityType,
		vocabulary.WithDescription("Class or declaration type of the entity"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(PredicateIRIMap[EntityType]))

	vocabulary.Register(EntityLabel,
		vocabulary.WithDescription("Human-readable label"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PredicateIRIMap[EntityLabel]),
		vocabulary.WithAlias(vocabulary.AliasTypeLabel, 1))

	vocabulary.Register(EntityComment,
		vocabulary.WithDescription("Human-readable description"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PredicateIRIMap[EntityComment]))

	vocabulary.Register(EntitySeeAlso,
		vocabulary.WithDescription("Related resource"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(PredicateIRIMap[EntitySeeAlso]))

	vocabulary.Register(EntityDefinedBy,
		vocabulary.WithDescription("Ontology defining the entity"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(PredicateIRIMap[EntityDefinedBy]))

	vocabulary.Register(EntityDeprecated,
		vocabulary.WithDescription("Whether the entity is deprecated"),
		vocabulary.WithDataType("bool"),
		vocabulary.WithIRI(PredicateIRIMap[EntityDeprecated]))
}

func registerAxiomPredicates() {
	relations := []struct {
		name string
		desc string
	}{
		{ClassSubClassOf, "Superclass of the class"},
		{ClassEquivalentTo, "Class with the same extension"},
		{ClassDisjointWith, "Class sharing no instances"},
		{PropertySubPropertyOf, "Superproperty of the property"},
		{PropertyEquivalentTo, "Property with the same extension"},
		{PropertyInverseOf, "Inverse of the property"},
		{PropertyDomain, "Domain class of the property"},
		{PropertyRange, "Range of the property"},
		{IndividualSameAs, "Individual denoting the same thing"},
		{IndividualDifferentFrom, "Individual denoting a different thing"},
	}
	for _, r := range relations {
		vocabulary.Register(r.name,
			vocabulary.WithDescription(r.desc),
			vocabulary.WithDataType("entity_id"),
			vocabulary.WithIRI(PredicateIRIMap[r.name]))
	}
}
