package ontology

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semonto/axiom"
	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/rdf"
)

func TestConcurrentReadersAndWriters(t *testing.T) {
	c := NewConcurrent(newTestManager(t))
	o, err := c.LoadOntology(context.Background(), turtle(ex1, `<http://ex/1> a owl:Ontology . ex:A a owl:Class .`))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := c.ApplyChange(AddAxiom{Ontology: o, Axiom: axiom.NewSubClassOf(ex(fmt.Sprintf("C%d", i)), ex("A"))})
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			_ = c.Axioms(o)
			_ = c.Triples(o, rdf.Match(rdf.Term{}, rdf.RDFSSubClassOf, rdf.Term{}))
			var buf bytes.Buffer
			assert.NoError(t, c.WriteOntology(&buf, o, format.NTriples))
		}()
	}
	wg.Wait()

	assert.Len(t, c.AxiomsOfKind(o, axiom.SubClassOf), 8)
	assert.Len(t, c.Triples(o, rdf.Match(rdf.Term{}, rdf.RDFSSubClassOf, rdf.Term{})), 8)
	assert.Equal(t, StateCommitted, c.ProcessorState())
	assert.True(t, c.ContainsAxiom(o, axiom.NewSubClassOf(ex("C3"), ex("A"))))
	assert.NotZero(t, c.ContentHash(o))
}

func TestConcurrentViewAndUpdate(t *testing.T) {
	c := NewConcurrent(newTestManager(t))
	var created *Ontology
	require.NoError(t, c.Update(func(m *Manager) error {
		var err error
		created, err = m.CreateOntology(NewID(ex1, ""))
		return err
	}))

	require.NoError(t, c.View(func(m *Manager) error {
		o, ok := m.Ontology(NewID(ex1, ""))
		assert.True(t, ok)
		assert.Same(t, created, o)
		return nil
	}))
	assert.True(t, c.Contains(NewID(ex1, "")))
	assert.Len(t, c.Ontologies(), 1)
	assert.Equal(t, ex1, c.DocumentLocation(created))
}
