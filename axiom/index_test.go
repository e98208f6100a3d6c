package axiom

import (
	"testing"

	"github.com/c360studio/semonto/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph(axioms ...Axiom) *rdf.MemGraph {
	g := rdf.NewMemGraph(
		rdf.NewTriple(rdf.IRI(ontology), rdf.RDFType, rdf.OWLOntology),
		rdf.NewTriple(rdf.IRI(ontology), rdf.RDFSComment, rdf.PlainLiteral("sample")),
	)
	for _, a := range axioms {
		for _, t := range a.Triples() {
			g.Add(t)
		}
	}
	return g
}

func ontologyNode() rdf.Term { return rdf.IRI(ontology) }

func TestIndexStates(t *testing.T) {
	g := sampleGraph(NewSubClassOf(personC, agentC))
	x := NewIndex(g, g, ontologyNode)
	assert.Equal(t, StateEmpty, x.State())

	x.Materialize()
	assert.Equal(t, StateMaterialized, x.State())
	assert.Equal(t, 3, x.Count())

	x.Clear()
	assert.Equal(t, StateEmpty, x.State())
	assert.Equal(t, 3, x.Count())
	assert.Equal(t, "materialized", StateMaterialized.String())
}

func TestIndexKindListingDoesNotMaterialize(t *testing.T) {
	g := sampleGraph(
		NewSubClassOf(personC, agentC),
		NewClassAssertion(personC, aliceI),
	)
	x := NewIndex(g, g, ontologyNode)

	assert.Equal(t, []Axiom{NewSubClassOf(personC, agentC)}, x.AxiomsOfKind(SubClassOf))
	assert.Equal(t, []Axiom{NewClassAssertion(personC, aliceI)}, x.AxiomsOfKind(ClassAssertion))
	assert.Len(t, x.AxiomsOfKind(Declaration), 3)
	assert.Empty(t, x.AxiomsOfKind(ObjectPropertyAssertion))
	assert.Equal(t, StateEmpty, x.State())

	x.Materialize()
	assert.Equal(t, []Axiom{NewSubClassOf(personC, agentC)}, x.AxiomsOfKind(SubClassOf))
	assert.Len(t, x.AxiomsOfKind(Declaration), 3)
}

func TestIndexSeparatesOntologyAnnotations(t *testing.T) {
	g := sampleGraph(NewDeclaration(Class, personC))
	x := NewIndex(g, g, ontologyNode)

	want := NewAnnotation(rdf.RDFSComment.Value, rdf.PlainLiteral("sample"))
	assert.Equal(t, []Annotation{want}, x.Annotations())
	assert.True(t, x.ContainsAnnotation(want))
	assert.Equal(t, []Axiom{NewDeclaration(Class, personC)}, x.Axioms())
	assert.Empty(t, x.Unparsed())

	x.Materialize()
	assert.Equal(t, []Annotation{want}, x.Annotations())
	assert.Equal(t, []Axiom{NewDeclaration(Class, personC)}, x.Axioms())
}

func TestIndexContainsLazyAndMaterialized(t *testing.T) {
	a := NewObjectPropertyAssertion(knowsP, aliceI, bobI)
	g := sampleGraph(a)
	x := NewIndex(g, g, ontologyNode)

	assert.True(t, x.Contains(a))
	assert.True(t, x.Contains(NewDeclaration(ObjectProperty, knowsP)))
	assert.False(t, x.Contains(NewSameIndividual(aliceI, bobI)))

	x.Materialize()
	assert.True(t, x.Contains(a))
	x.Remove(a)
	assert.False(t, x.Contains(a))
	x.Add(a)
	assert.True(t, x.Contains(a))
}

func TestIndexReferencingAndSignature(t *testing.T) {
	g := sampleGraph(
		NewSubClassOf(personC, agentC),
		NewObjectPropertyDomain(knowsP, personC),
	)
	x := NewIndex(g, g, ontologyNode)

	lazy := x.Referencing(personC)
	x.Materialize()
	assert.Equal(t, lazy, x.Referencing(personC))
	assert.Len(t, lazy, 3)

	sig := x.Signature()
	assert.Equal(t, []Entity{
		{Type: Class, IRI: agentC},
		{Type: Class, IRI: personC},
		{Type: ObjectProperty, IRI: knowsP},
	}, sig)
}

func TestIndexProducesSharedDeclarations(t *testing.T) {
	sub := NewSubClassOf(personC, agentC)
	assertion := NewClassAssertion(personC, aliceI)
	g := sampleGraph(sub, assertion)
	x := NewIndex(g, g, ontologyNode)
	x.Materialize()

	personDecl := rdf.NewTriple(rdf.IRI(personC), rdf.RDFType, rdf.OWLClass)
	agentDecl := rdf.NewTriple(rdf.IRI(agentC), rdf.RDFType, rdf.OWLClass)

	assert.True(t, x.Produces(personDecl, sub), "class assertion also declares Person")
	assert.True(t, x.Produces(agentDecl, sub), "the declaration axiom itself writes it")

	x.Remove(NewDeclaration(Class, agentC))
	assert.False(t, x.Produces(agentDecl, sub))
	require.True(t, x.Produces(sub.CoreTriple(), NewDeclaration(Class, personC)))
}
