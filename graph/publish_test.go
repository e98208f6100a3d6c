package graph

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/c360studio/semonto/rdf"
	"github.com/c360studio/semonto/vocabulary/onto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	subjects []string
	messages [][]byte
	err      error
}

func (r *recordingPublisher) PublishToStream(_ context.Context, subject string, data []byte) error {
	if r.err != nil {
		return r.err
	}
	r.subjects = append(r.subjects, subject)
	r.messages = append(r.messages, data)
	return nil
}

func TestPublishGraph(t *testing.T) {
	g := rdf.NewMemGraph(
		rdf.NewTriple(a, rdf.RDFType, rdf.OWLClass),
		rdf.NewTriple(a, rdf.RDFSLabel, rdf.PlainLiteral("A")),
		rdf.NewTriple(b, rdf.RDFSSubClassOf, a),
		rdf.NewTriple(rdf.Blank("x"), rdf.RDFType, rdf.OWLClass),
	)

	rec := &recordingPublisher{}
	n, err := NewPublisher(rec, nil).PublishGraph(context.Background(), "http://ex/o", g)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, rec.messages, 2)
	assert.Equal(t, GraphIngestSubject, rec.subjects[0])

	var first EntityPayload
	require.NoError(t, json.Unmarshal(rec.messages[0], &first))
	assert.Equal(t, "http://ex/a", first.EntityID())
	assert.Equal(t, "http://ex/o", first.Ontology)
	require.Len(t, first.Triples(), 2)
	assert.NoError(t, first.Validate())

	predicates := []string{first.Triples()[0].Predicate, first.Triples()[1].Predicate}
	assert.ElementsMatch(t, []string{onto.EntityType, onto.EntityLabel}, predicates)
}

func TestPublishGraphOptions(t *testing.T) {
	custom := rdf.IRI("http://ex/custom")
	g := rdf.NewMemGraph(rdf.NewTriple(a, custom, b))

	rec := &recordingPublisher{}
	_, err := NewPublisher(rec, nil, WithSubject("ontology.triples"), WithSource("test")).
		PublishGraph(context.Background(), "http://ex/o", g)
	require.NoError(t, err)
	require.Len(t, rec.subjects, 1)
	assert.Equal(t, "ontology.triples", rec.subjects[0])

	var payload EntityPayload
	require.NoError(t, json.Unmarshal(rec.messages[0], &payload))
	require.Len(t, payload.Triples(), 1)
	assert.Equal(t, "http://ex/custom", payload.Triples()[0].Predicate)
	assert.Equal(t, "test", payload.Triples()[0].Source)
}

func TestPublishGraphNilClient(t *testing.T) {
	n, err := NewPublisher(nil, nil).PublishGraph(context.Background(), "http://ex/o", rdf.NewMemGraph())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPublishGraphError(t *testing.T) {
	g := rdf.NewMemGraph(rdf.NewTriple(a, rdf.RDFType, rdf.OWLClass))
	rec := &recordingPublisher{err: errors.New("stream unavailable")}
	_, err := NewPublisher(rec, nil).PublishGraph(context.Background(), "http://ex/o", g)
	assert.ErrorContains(t, err, "stream unavailable")
}
