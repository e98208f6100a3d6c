package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/semonto/rdf"
)

func TestID(t *testing.T) {
	named := NewID(ex1, ex("1/v2"))
	assert.False(t, named.IsAnonymous())
	assert.True(t, named.Matches(ex1))
	assert.True(t, named.Matches(ex("1/v2")))
	assert.False(t, named.Matches(""))
	assert.Equal(t, ex("1/v2"), named.DefaultDocumentIRI())
	assert.Equal(t, "OntologyID(<http://ex/1> <http://ex/1/v2>)", named.String())
	assert.Equal(t, ex1, NewID(ex1, "").DefaultDocumentIRI())

	a, b := NewAnonymousID(), NewID("", ex("ignored"))
	assert.True(t, a.IsAnonymous())
	assert.True(t, b.IsAnonymous())
	assert.Empty(t, b.VersionIRI)
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsZero())
	assert.True(t, ID{}.IsZero())
	assert.Contains(t, a.String(), "Anonymous-urn:uuid:")
}

func TestIdentify(t *testing.T) {
	tests := []struct {
		name    string
		triples []rdf.Triple
		want    ID
		node    rdf.Term
	}{
		{
			name: "named with smallest version",
			triples: []rdf.Triple{
				rdf.NewTriple(rdf.IRI(ex1), rdf.RDFType, rdf.OWLOntology),
				rdf.NewTriple(rdf.IRI(ex1), rdf.OWLVersionIRI, rdf.IRI(ex("1/b"))),
				rdf.NewTriple(rdf.IRI(ex1), rdf.OWLVersionIRI, rdf.IRI(ex("1/a"))),
			},
			want: NewID(ex1, ex("1/a")),
			node: rdf.IRI(ex1),
		},
		{
			name: "iri header wins over blank",
			triples: []rdf.Triple{
				rdf.NewTriple(rdf.Blank("h"), rdf.RDFType, rdf.OWLOntology),
				rdf.NewTriple(rdf.IRI(ex2), rdf.RDFType, rdf.OWLOntology),
			},
			want: NewID(ex2, ""),
			node: rdf.IRI(ex2),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, node := identify(rdf.NewMemGraph(tt.triples...))
			assert.Equal(t, tt.want, id)
			assert.Equal(t, tt.node, node)
		})
	}

	t.Run("anonymous graphs keep a stable placeholder", func(t *testing.T) {
		g := rdf.NewMemGraph(rdf.NewTriple(rdf.Blank("h"), rdf.RDFType, rdf.OWLOntology))
		first, node := identify(g)
		second, _ := identify(g)
		other, _ := identify(rdf.NewMemGraph())
		assert.True(t, first.IsAnonymous())
		assert.Equal(t, first, second)
		assert.NotEqual(t, first, other)
		assert.Equal(t, rdf.Blank("h"), node)
	})
}
