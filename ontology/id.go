package ontology

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/c360studio/semonto/rdf"
)

// ID identifies an ontology by its ontology IRI and optional version IRI.
// Anonymous IDs have no ontology IRI and carry a private key instead, so
// an anonymous ID only ever equals itself.
type ID struct {
	OntologyIRI string
	VersionIRI  string
	anonymous   string
}

// NewID creates a named ID. A version IRI without an ontology IRI is
// dropped.
func NewID(ontologyIRI, versionIRI string) ID {
	if ontologyIRI == "" {
		return NewAnonymousID()
	}
	return ID{OntologyIRI: ontologyIRI, VersionIRI: versionIRI}
}

// NewAnonymousID creates a fresh anonymous ID.
func NewAnonymousID() ID {
	return ID{anonymous: "urn:uuid:" + uuid.NewString()}
}

// placeholderID is the anonymous ID of a graph without a usable header.
// It is derived from the graph's address, so reading the same in-memory
// graph twice yields the same ID.
func placeholderID(g rdf.Graph) ID {
	return ID{anonymous: fmt.Sprintf("graph:%p", g)}
}

// IsAnonymous reports whether the ID has no ontology IRI.
func (id ID) IsAnonymous() bool { return id.OntologyIRI == "" }

// IsZero reports whether id is the zero ID.
func (id ID) IsZero() bool { return id == ID{} }

// Matches reports whether iri names this ontology by either of its IRIs.
func (id ID) Matches(iri string) bool {
	return iri != "" && (iri == id.OntologyIRI || iri == id.VersionIRI)
}

// DefaultDocumentIRI is where the ontology is expected to be published:
// the version IRI if any, else the ontology IRI.
func (id ID) DefaultDocumentIRI() string {
	if id.VersionIRI != "" {
		return id.VersionIRI
	}
	return id.OntologyIRI
}

func (id ID) String() string {
	switch {
	case id.IsAnonymous():
		return "OntologyID(Anonymous-" + id.anonymous + ")"
	case id.VersionIRI != "":
		return "OntologyID(<" + id.OntologyIRI + "> <" + id.VersionIRI + ">)"
	default:
		return "OntologyID(<" + id.OntologyIRI + ">)"
	}
}

// identify computes the ID a graph declares and its header node.
func identify(g rdf.Graph) (ID, rdf.Term) {
	node := rdf.OntologyNode(g)
	if !node.IsIRI() {
		return placeholderID(g), node
	}
	id := ID{OntologyIRI: node.Value}
	for _, v := range rdf.Objects(g, node, rdf.OWLVersionIRI) {
		if v.IsIRI() && (id.VersionIRI == "" || v.Value < id.VersionIRI) {
			id.VersionIRI = v.Value
		}
	}
	return id, node
}

// importIRIs lists the IRIs node imports in g, sorted.
func importIRIs(g rdf.Graph, node rdf.Term) []string {
	if node.IsZero() {
		return nil
	}
	var out []string
	for _, o := range rdf.Objects(g, node, rdf.OWLImports) {
		if o.IsIRI() {
			out = append(out, o.Value)
		}
	}
	sort.Strings(out)
	return out
}
