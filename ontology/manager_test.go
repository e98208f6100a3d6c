package ontology

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semonto/axiom"
	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/rdf"
	"github.com/c360studio/semonto/source"
)

type recordingFactory struct {
	prefix    string
	locations []string
}

func (f *recordingFactory) CanCreate(location string) bool {
	return len(location) >= len(f.prefix) && location[:len(f.prefix)] == f.prefix
}

func (f *recordingFactory) CreateGraph(_ ID, location string) rdf.Graph {
	f.locations = append(f.locations, location)
	return rdf.NewMemGraph()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewManagerRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultLoaderConfig()
	cfg.MissingImports = "explode"
	_, err := NewManager(WithConfig(cfg))
	assert.ErrorContains(t, err, "missing import policy")

	cfg = DefaultLoaderConfig()
	cfg.IgnoredImports = []string{"[unclosed"}
	_, err = NewManager(WithConfig(cfg))
	assert.ErrorContains(t, err, "ignored import pattern")
}

func TestCreateOntology(t *testing.T) {
	factory := &recordingFactory{prefix: "file:///store/"}
	m := newTestManager(t,
		WithIRIMapper(source.MapMapper{ex("mapped"): "file:///store/mapped.ttl"}),
		WithFactory(factory))

	t.Run("named", func(t *testing.T) {
		o, err := m.CreateOntology(NewID(ex1, ex("1/v2")))
		require.NoError(t, err)
		assert.Same(t, m, o.Manager())
		assert.Equal(t, ex("1/v2"), m.DocumentLocation(o))
		assert.True(t, o.Base().Contains(rdf.NewTriple(rdf.IRI(ex1), rdf.OWLVersionIRI, rdf.IRI(ex("1/v2")))))

		byVersion, ok := m.OntologyByIRI(ex("1/v2"))
		require.True(t, ok)
		assert.Same(t, o, byVersion)
		assert.True(t, m.ContainsIRI(ex1))
	})

	t.Run("mapped location uses matching factory", func(t *testing.T) {
		o, err := m.CreateOntology(NewID(ex("mapped"), ""))
		require.NoError(t, err)
		assert.Equal(t, "file:///store/mapped.ttl", m.DocumentLocation(o))
		assert.Equal(t, []string{"file:///store/mapped.ttl"}, factory.locations)
	})

	t.Run("anonymous", func(t *testing.T) {
		a, err := m.CreateOntology(ID{})
		require.NoError(t, err)
		b, err := m.CreateOntology(ID{})
		require.NoError(t, err)
		assert.NotEqual(t, a.ID(), b.ID())
		assert.Contains(t, m.DocumentLocation(a), "urn:uuid:")
		assert.Zero(t, a.Base().Size())
	})

	t.Run("location taken", func(t *testing.T) {
		_, err := m.CreateOntology(NewID(ex("other"), ex("1/v2")))
		assert.ErrorIs(t, err, ErrDocumentAlreadyExists)
	})
}

func TestDocumentLocations(t *testing.T) {
	m := newTestManager(t)
	a := mustCreate(t, m, ex1)
	b := mustCreate(t, m, ex2)

	require.NoError(t, m.SetDocumentLocation(a, "file:///tmp/a.ttl"))
	assert.Equal(t, "file:///tmp/a.ttl", m.DocumentLocation(a))
	assert.ErrorIs(t, m.SetDocumentLocation(b, "file:///tmp/a.ttl"), ErrDocumentAlreadyExists)

	loaded, err := m.LoadOntology(context.Background(), source.NewBytes("file:///tmp/a.ttl", nil, format.Turtle))
	require.NoError(t, err)
	assert.Same(t, a, loaded, "a registered location is never read again")
}

func TestRemoveOntologyDetachesImporters(t *testing.T) {
	m := newTestManager(t)
	o1 := mustCreate(t, m, ex1)
	o2 := mustCreate(t, m, ex2)
	_, err := m.ApplyChange(AddImport{Ontology: o1, IRI: ex2})
	require.NoError(t, err)
	require.Equal(t, []*Ontology{o2}, m.DirectImports(o1))

	require.NoError(t, m.RemoveOntology(o2))
	assert.False(t, m.Contains(o2.ID()))
	assert.Nil(t, o2.Manager())
	assert.Empty(t, m.DirectImports(o1))
	assert.Equal(t, []string{ex2}, o1.Imports(), "the declaration stays")
	assert.ErrorIs(t, m.RemoveOntology(o2), ErrUnknownOntology)

	_, err = m.ApplyChange(AddImport{Ontology: o2, IRI: ex3})
	assert.ErrorIs(t, err, ErrUnknownOntology)
}

func TestCopyOntology(t *testing.T) {
	src := newTestManager(t)
	imported := mustCreate(t, src, ex2)
	o, err := src.LoadOntology(context.Background(),
		turtle(ex1, `<http://ex/1> a owl:Ontology ; owl:imports <http://ex/2> . ex:A rdfs:subClassOf ex:B .`))
	require.NoError(t, err)
	require.Equal(t, []*Ontology{imported}, src.DirectImports(o))

	t.Run("shallow", func(t *testing.T) {
		dst := newTestManager(t)
		cp, err := dst.CopyOntology(o, CopyShallow)
		require.NoError(t, err)
		assert.Same(t, o.Base(), cp.Base())
		assert.Equal(t, o.Axioms(), cp.Axioms())
		assert.Equal(t, ex1, dst.DocumentLocation(cp))

		_, err = dst.CopyOntology(o, CopyShallow)
		assert.ErrorIs(t, err, ErrOntologyAlreadyExists)
	})

	t.Run("deep", func(t *testing.T) {
		dst := newTestManager(t)
		target := mustCreate(t, dst, ex2)
		cp, err := dst.CopyOntology(o, CopyDeep)
		require.NoError(t, err)

		assert.NotSame(t, o.Base(), cp.Base())
		assert.True(t, rdf.Isomorphic(o.Base(), cp.Base()))
		assert.Equal(t, []string{ex2}, cp.Imports())
		assert.Equal(t, []*Ontology{target}, dst.DirectImports(cp))

		_, err = dst.ApplyChange(AddAxiom{Ontology: cp, Axiom: axiom.NewDeclaration(axiom.Class, ex("Only"))})
		require.NoError(t, err)
		assert.False(t, o.ContainsAxiom(axiom.NewDeclaration(axiom.Class, ex("Only"))))
	})
}

func TestWriteOntologyRoundTrip(t *testing.T) {
	m := newTestManager(t)
	o, err := m.LoadOntology(context.Background(), turtle(ex1, `<http://ex/1> a owl:Ontology ;
    rdfs:label "core" .
ex:A rdfs:subClassOf ex:B .
ex:p a owl:ObjectProperty ; rdfs:domain ex:A .`))
	require.NoError(t, err)

	for _, kind := range []format.Kind{"", format.Turtle, format.NTriples, format.JSONLD} {
		t.Run(string(kind), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, m.WriteOntology(&buf, o, kind))
			if kind == "" {
				assert.Contains(t, buf.String(), "@prefix ex: <http://ex/>")
			}

			readKind := kind
			if readKind == "" {
				readKind = format.Turtle
			}
			back, err := newTestManager(t).LoadOntology(context.Background(),
				source.NewBytes(ex("copy"), buf.Bytes(), readKind))
			require.NoError(t, err)
			assert.Equal(t, o.ID(), back.ID())
			assert.Equal(t, o.Axioms(), back.Axioms())
			assert.Equal(t, o.Annotations(), back.Annotations())
		})
	}
}

func TestContentHashFollowsChanges(t *testing.T) {
	m := newTestManager(t)
	o := mustCreate(t, m, ex1)
	h := o.ContentHash()
	assert.Equal(t, h, o.ContentHash())

	_, err := m.ApplyChange(AddAxiom{Ontology: o, Axiom: axiom.NewDeclaration(axiom.Class, ex("A"))})
	require.NoError(t, err)
	changed := o.ContentHash()
	assert.NotEqual(t, h, changed)

	_, err = m.ApplyChange(RemoveAxiom{Ontology: o, Axiom: axiom.NewDeclaration(axiom.Class, ex("A"))})
	require.NoError(t, err)
	assert.Equal(t, h, o.ContentHash())
}

func TestLoadOntologyFromIRIUsesMappers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "core.ttl")
	writeFile(t, path, turtlePrefixes+`<http://ex/core> a owl:Ontology . ex:A a owl:Class .`)

	m := newTestManager(t, WithIRIMapper(source.MapMapper{ex("core"): source.FileIRI(path)}))
	o, err := m.LoadOntologyFromIRI(context.Background(), ex("core"))
	require.NoError(t, err)
	assert.Equal(t, NewID(ex("core"), ""), o.ID())
	assert.Equal(t, source.FileIRI(path), m.DocumentLocation(o))
}
