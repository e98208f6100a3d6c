package axiom

import (
	"testing"

	"github.com/c360studio/semonto/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ex       = "http://ex/"
	personC  = ex + "Person"
	agentC   = ex + "Agent"
	knowsP   = ex + "knows"
	ageP     = ex + "age"
	aliceI   = ex + "alice"
	bobI     = ex + "bob"
	ontology = ex + "onto"
)

// roundTrip writes a into a fresh graph and reads every triple back.
func roundTrip(t *testing.T, a Axiom) []Axiom {
	t.Helper()
	g := rdf.NewMemGraph(a.Triples()...)
	x := NewIndex(g, g, nil)
	return x.Axioms()
}

func TestWriteReadProjection(t *testing.T) {
	tests := []struct {
		name  string
		axiom Axiom
	}{
		{"declaration", NewDeclaration(Class, personC)},
		{"subclass", NewSubClassOf(personC, agentC)},
		{"equivalent", NewEquivalentClasses(personC, agentC)},
		{"disjoint", NewDisjointClasses(personC, agentC)},
		{"sub object property", NewSubObjectPropertyOf(knowsP, ex+"related")},
		{"sub data property", NewSubDataPropertyOf(ageP, ex+"measure")},
		{"inverse", NewInverseObjectProperties(knowsP, ex+"knownBy")},
		{"object domain", NewObjectPropertyDomain(knowsP, personC)},
		{"object range", NewObjectPropertyRange(knowsP, personC)},
		{"data domain", NewDataPropertyDomain(ageP, personC)},
		{"data range", NewDataPropertyRange(ageP, rdf.XSDInteger)},
		{"functional object", NewFunctionalObjectProperty(knowsP)},
		{"functional data", NewFunctionalDataProperty(ageP)},
		{"class assertion", NewClassAssertion(personC, aliceI)},
		{"object assertion", NewObjectPropertyAssertion(knowsP, aliceI, bobI)},
		{"data assertion", NewDataPropertyAssertion(ageP, aliceI, rdf.Literal("42", rdf.XSDInteger))},
		{"same individual", NewSameIndividual(aliceI, bobI)},
		{"different individuals", NewDifferentIndividuals(aliceI, bobI)},
		{"builtin annotation", NewAnnotationAssertion(rdf.RDFSLabel.Value, personC, rdf.PlainLiteral("Person"))},
		{"declared annotation", NewAnnotationAssertion(ex+"note", personC, rdf.LangLiteral("hi", "en"))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.True(t, tc.axiom.Valid())
			read := roundTrip(t, tc.axiom)
			assert.Contains(t, read, tc.axiom)
			for _, e := range tc.axiom.Signature() {
				if tc.axiom.Kind() == AnnotationAssertion && e.Type != AnnotationProperty {
					continue
				}
				assert.Contains(t, read, NewDeclaration(e.Type, e.IRI), "implied declaration of %s", e)
			}
		})
	}
}

func TestParseNeedsDeclarations(t *testing.T) {
	g := rdf.NewMemGraph(
		rdf.NewTriple(rdf.IRI(aliceI), rdf.IRI(knowsP), rdf.IRI(bobI)),
		rdf.NewTriple(rdf.IRI(knowsP), rdf.RDFSDomain, rdf.IRI(personC)),
	)
	x := NewIndex(g, g, nil)
	assert.Empty(t, x.Axioms())
	assert.Len(t, x.Unparsed(), 2)

	g.Add(rdf.NewTriple(rdf.IRI(knowsP), rdf.RDFType, rdf.OWLObjectProperty))
	assert.ElementsMatch(t, []Axiom{
		NewDeclaration(ObjectProperty, knowsP),
		NewObjectPropertyAssertion(knowsP, aliceI, bobI),
		NewObjectPropertyDomain(knowsP, personC),
	}, x.Axioms())
	assert.Empty(t, x.Unparsed())
}

func TestParseUsesViewForDeclarations(t *testing.T) {
	own := rdf.NewMemGraph(rdf.NewTriple(rdf.IRI(aliceI), rdf.IRI(ageP), rdf.Literal("3", rdf.XSDInteger)))
	imported := rdf.NewMemGraph(rdf.NewTriple(rdf.IRI(ageP), rdf.RDFType, rdf.OWLDatatypeProperty))
	view := rdf.NewMemGraph()
	rdf.CopyInto(view, own)
	rdf.CopyInto(view, imported)

	x := NewIndex(own, view, nil)
	assert.Equal(t, []Axiom{NewDataPropertyAssertion(ageP, aliceI, rdf.Literal("3", rdf.XSDInteger))}, x.Axioms())
}

func TestAxiomString(t *testing.T) {
	assert.Equal(t, "Declaration(Class(<http://ex/Person>))", NewDeclaration(Class, personC).String())
	assert.Equal(t, "SubClassOf(<http://ex/Person> <http://ex/Agent>)", NewSubClassOf(personC, agentC).String())
	assert.Equal(t, "ClassAssertion(<http://ex/Person> <http://ex/alice>)", NewClassAssertion(personC, aliceI).String())
}

func TestKindNames(t *testing.T) {
	for _, k := range Kinds {
		parsed, ok := ParseKind(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, parsed)
	}
	_, ok := ParseKind("Nope")
	assert.False(t, ok)
}

func TestInvalidAxioms(t *testing.T) {
	assert.False(t, Axiom{}.Valid())
	assert.False(t, NewDataPropertyAssertion(ageP, aliceI, rdf.IRI(bobI)).Valid())
	assert.False(t, NewDeclaration(EntityType(99), personC).Valid())
}
