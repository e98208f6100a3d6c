package ontology

import (
	"errors"
	"testing"

	"github.com/c360studio/semstreams/pkg/errs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semonto/axiom"
	"github.com/c360studio/semonto/rdf"
)

// brokenChange succeeds when applied and fails when its reverse is applied.
type brokenChange struct {
	o    *Ontology
	fail bool
}

func (c brokenChange) Target() *Ontology { return c.o }
func (c brokenChange) Reverse() Change   { return brokenChange{o: c.o, fail: !c.fail} }
func (c brokenChange) String() string    { return "Broken()" }
func (c brokenChange) name() string      { return "broken" }
func (c brokenChange) apply(*processor) (ChangeStatus, error) {
	if c.fail {
		return 0, errors.New("store unavailable")
	}
	return StatusApplied, nil
}

func declares(iri string) rdf.Triple {
	return rdf.NewTriple(rdf.IRI(iri), rdf.RDFType, rdf.OWLClass)
}

func mustCreate(t *testing.T, m *Manager, iri string) *Ontology {
	t.Helper()
	o, err := m.CreateOntology(NewID(iri, ""))
	require.NoError(t, err)
	return o
}

func label(v string) axiom.Annotation {
	return axiom.NewAnnotation(rdf.RDFSLabel.Value, rdf.PlainLiteral(v))
}

func TestAddAndRemoveAxiom(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	m := newTestManager(t, WithMetrics(metrics))
	o := mustCreate(t, m, ex1)
	sub := axiom.NewSubClassOf(ex("A"), ex("B"))

	status, err := m.ApplyChange(AddAxiom{Ontology: o, Axiom: sub})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, status)
	assert.Equal(t, StateCommitted, m.ProcessorState())

	assert.True(t, o.ContainsAxiom(sub))
	assert.True(t, o.ContainsAxiom(axiom.NewDeclaration(axiom.Class, ex("A"))))
	assert.True(t, o.ContainsAxiom(axiom.NewDeclaration(axiom.Class, ex("B"))))
	assert.Equal(t, 4, o.Base().Size(), "header, core triple and two declarations")

	status, err = m.ApplyChange(AddAxiom{Ontology: o, Axiom: sub})
	require.NoError(t, err)
	assert.Equal(t, StatusNoOp, status)

	status, err = m.ApplyChange(RemoveAxiom{Ontology: o, Axiom: sub})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, status)
	assert.False(t, o.ContainsAxiom(sub))
	assert.False(t, o.Base().Contains(sub.CoreTriple()))
	assert.True(t, o.Base().Contains(declares(ex("A"))), "declarations stay as axioms of their own")

	size := o.Base().Size()
	status, err = m.ApplyChange(RemoveAxiom{Ontology: o, Axiom: sub})
	require.NoError(t, err)
	assert.Equal(t, StatusNoOp, status)
	assert.Equal(t, size, o.Base().Size())

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Changes.WithLabelValues("add_axiom", "applied")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Changes.WithLabelValues("add_axiom", "no-op")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Changes.WithLabelValues("remove_axiom", "no-op")))
}

func TestRemoveAxiomDropsDeclarationsTheImportsState(t *testing.T) {
	m := newTestManager(t)
	o2 := mustCreate(t, m, ex2)
	_, err := m.ApplyChange(AddAxiom{Ontology: o2, Axiom: axiom.NewDeclaration(axiom.Class, ex("A"))})
	require.NoError(t, err)

	o1 := mustCreate(t, m, ex1)
	sub := axiom.NewSubClassOf(ex("A"), ex("B"))
	_, err = m.ApplyChanges(AddImport{Ontology: o1, IRI: ex2}, AddAxiom{Ontology: o1, Axiom: sub})
	require.NoError(t, err)
	require.True(t, o1.Base().Contains(declares(ex("A"))))

	status, err := m.ApplyChange(RemoveAxiom{Ontology: o1, Axiom: sub})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, status)

	assert.False(t, o1.Base().Contains(declares(ex("A"))))
	assert.True(t, o1.Graph().Contains(declares(ex("A"))))
	assert.True(t, o1.Base().Contains(declares(ex("B"))))
	assert.True(t, o2.Base().Contains(declares(ex("A"))))
}

func TestRemoveDeclarationAnotherAxiomImplies(t *testing.T) {
	m := newTestManager(t)
	o := mustCreate(t, m, ex1)
	decl := axiom.NewDeclaration(axiom.Class, ex("A"))
	sub := axiom.NewSubClassOf(ex("A"), ex("B"))
	_, err := m.ApplyChanges(AddAxiom{Ontology: o, Axiom: decl}, AddAxiom{Ontology: o, Axiom: sub})
	require.NoError(t, err)

	status, err := m.ApplyChange(RemoveAxiom{Ontology: o, Axiom: decl})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, status)
	assert.False(t, o.ContainsAxiom(decl))
	assert.False(t, o.Base().Contains(declares(ex("A"))))
	assert.True(t, o.ContainsAxiom(sub))
}

func TestBatchRollsBackAtomically(t *testing.T) {
	m := newTestManager(t)
	o := mustCreate(t, m, ex1)
	other := mustCreate(t, m, ex2)
	_, err := m.ApplyChanges(
		AddAxiom{Ontology: o, Axiom: axiom.NewDeclaration(axiom.Class, ex("Seed"))},
		AddOntologyAnnotation{Ontology: o, Annotation: label("before")},
	)
	require.NoError(t, err)

	axiomsBefore := o.Axioms()
	triplesBefore := rdf.Collect(o.Base(), rdf.Any)
	annotationsBefore := o.Annotations()

	_, err = m.ApplyChanges(
		AddAxiom{Ontology: o, Axiom: axiom.NewSubClassOf(ex("Seed"), ex("Parent"))},
		RemoveAxiom{Ontology: o, Axiom: axiom.NewDeclaration(axiom.Class, ex("Seed"))},
		AddOntologyAnnotation{Ontology: o, Annotation: label("after")},
		RemoveOntologyAnnotation{Ontology: o, Annotation: label("before")},
		AddImport{Ontology: o, IRI: ex3},
		NewSetOntologyID(o, other.ID()),
	)
	require.Error(t, err)

	var cerr *ChangeError
	require.ErrorAs(t, err, &cerr)
	assert.IsType(t, SetOntologyID{}, cerr.Change)
	assert.ErrorIs(t, err, ErrIdentityConflict)
	assert.NotErrorIs(t, err, ErrRollbackFailure)
	assert.Equal(t, errs.ErrorInvalid, Class(err))

	assert.Equal(t, StateRolledBack, m.ProcessorState())
	assert.False(t, m.Inconsistent())
	assert.Equal(t, axiomsBefore, o.Axioms())
	assert.Equal(t, triplesBefore, rdf.Collect(o.Base(), rdf.Any))
	assert.Equal(t, annotationsBefore, o.Annotations())
	assert.Empty(t, o.Imports())
	assert.Equal(t, NewID(ex1, ""), o.ID())
}

func TestValidationRejectsBatchBeforeAnyEdit(t *testing.T) {
	m := newTestManager(t)
	o := mustCreate(t, m, ex1)
	foreign := mustCreate(t, newTestManager(t), ex2)

	tests := []struct {
		name   string
		change Change
		want   error
	}{
		{"malformed axiom", AddAxiom{Ontology: o}, ErrInvalidChange},
		{"malformed annotation", AddOntologyAnnotation{Ontology: o}, ErrInvalidChange},
		{"empty import", AddImport{Ontology: o}, ErrInvalidChange},
		{"empty id", SetOntologyID{Ontology: o}, ErrInvalidChange},
		{"foreign ontology", AddImport{Ontology: foreign, IRI: ex3}, ErrUnknownOntology},
		{"nil change", nil, ErrInvalidChange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ApplyChanges(AddImport{Ontology: o, IRI: ex3}, tt.change)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, errs.ErrorInvalid, Class(err))
			assert.Empty(t, o.Imports())
			assert.Equal(t, StateRolledBack, m.ProcessorState())
		})
	}
}

func TestModificationDeniedWithoutCache(t *testing.T) {
	cfg := DefaultLoaderConfig()
	cfg.ContentCache = false
	m := newTestManager(t, WithConfig(cfg))
	o := mustCreate(t, m, ex1)

	_, err := m.ApplyChange(AddAxiom{Ontology: o, Axiom: axiom.NewDeclaration(axiom.Class, ex("A"))})
	assert.ErrorIs(t, err, ErrModificationDenied)
	_, err = m.ApplyChange(AddOntologyAnnotation{Ontology: o, Annotation: label("x")})
	assert.ErrorIs(t, err, ErrModificationDenied)
	assert.Equal(t, 1, o.Base().Size())

	status, err := m.ApplyChange(AddImport{Ontology: o, IRI: ex2})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, status, "import changes do not need the cache")
}

func TestRollbackFailureLeavesManagerInconsistent(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	m := newTestManager(t, WithMetrics(metrics))
	o := mustCreate(t, m, ex1)
	other := mustCreate(t, m, ex2)

	_, err := m.ApplyChanges(brokenChange{o: o}, NewSetOntologyID(o, other.ID()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIdentityConflict)
	assert.ErrorIs(t, err, ErrRollbackFailure)
	assert.Equal(t, errs.ErrorFatal, Class(err))
	assert.True(t, m.Inconsistent())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Rollbacks.WithLabelValues("error")))

	_, err = m.ApplyChange(AddImport{Ontology: o, IRI: ex3})
	assert.ErrorIs(t, err, ErrInconsistentState)
	assert.Empty(t, o.Imports())

	m.MarkConsistent()
	assert.Equal(t, StateIdle, m.ProcessorState())
	_, err = m.ApplyChange(AddImport{Ontology: o, IRI: ex3})
	require.NoError(t, err)
	assert.Equal(t, []string{ex3}, o.Imports())
}

func TestSetOntologyID(t *testing.T) {
	m := newTestManager(t)
	o := mustCreate(t, m, ex1)
	_, err := m.ApplyChanges(
		AddImport{Ontology: o, IRI: ex2},
		AddOntologyAnnotation{Ontology: o, Annotation: label("core")},
	)
	require.NoError(t, err)

	renamed := NewID(ex("renamed"), ex("renamed/1"))
	ch := NewSetOntologyID(o, renamed)
	status, err := m.ApplyChange(ch)
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, status)

	assert.Equal(t, renamed, o.ID())
	assert.False(t, m.Contains(NewID(ex1, "")))
	got, ok := m.Ontology(renamed)
	require.True(t, ok)
	assert.Same(t, o, got)
	byVersion, ok := m.OntologyByIRI(ex("renamed/1"))
	require.True(t, ok)
	assert.Same(t, o, byVersion)

	node := rdf.IRI(ex("renamed"))
	assert.True(t, o.Base().Contains(rdf.NewTriple(node, rdf.RDFType, rdf.OWLOntology)))
	assert.True(t, o.Base().Contains(rdf.NewTriple(node, rdf.OWLVersionIRI, rdf.IRI(ex("renamed/1")))))
	assert.Empty(t, rdf.Collect(o.Base(), rdf.Match(rdf.IRI(ex1), rdf.Term{}, rdf.Term{})))
	assert.Equal(t, []string{ex2}, o.Imports())
	assert.Equal(t, []axiom.Annotation{label("core")}, o.Annotations())

	t.Run("no-op", func(t *testing.T) {
		status, err := m.ApplyChange(NewSetOntologyID(o, renamed))
		require.NoError(t, err)
		assert.Equal(t, StatusNoOp, status)
	})

	t.Run("conflict", func(t *testing.T) {
		taken := mustCreate(t, m, ex3)
		_, err := m.ApplyChange(NewSetOntologyID(o, taken.ID()))
		assert.ErrorIs(t, err, ErrIdentityConflict)
		assert.Equal(t, renamed, o.ID())
	})

	t.Run("reverse", func(t *testing.T) {
		_, err := m.ApplyChange(ch.Reverse())
		require.NoError(t, err)
		assert.Equal(t, NewID(ex1, ""), o.ID())
		assert.Empty(t, rdf.Collect(o.Base(), rdf.Match(rdf.Term{}, rdf.OWLVersionIRI, rdf.Term{})))
		assert.Equal(t, []string{ex2}, o.Imports())
	})
}

func TestImportChangesLinkRegisteredOntologies(t *testing.T) {
	m := newTestManager(t)
	o1 := mustCreate(t, m, ex1)
	o2 := mustCreate(t, m, ex2)
	decl := axiom.NewDeclaration(axiom.Class, ex("C"))
	_, err := m.ApplyChange(AddAxiom{Ontology: o2, Axiom: decl})
	require.NoError(t, err)

	status, err := m.ApplyChange(AddImport{Ontology: o1, IRI: ex2})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, status)
	assert.Equal(t, []*Ontology{o2}, m.DirectImports(o1))
	assert.True(t, o1.ClosureContainsAxiom(decl))
	assert.False(t, o1.ContainsAxiom(decl))

	status, err = m.ApplyChange(AddImport{Ontology: o1, IRI: ex2})
	require.NoError(t, err)
	assert.Equal(t, StatusNoOp, status)

	status, err = m.ApplyChange(RemoveImport{Ontology: o1, IRI: ex2})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, status)
	assert.Empty(t, m.DirectImports(o1))
	assert.Empty(t, o1.Imports())
	assert.False(t, o1.ClosureContainsAxiom(decl))

	status, err = m.ApplyChange(RemoveImport{Ontology: o1, IRI: ex2})
	require.NoError(t, err)
	assert.Equal(t, StatusNoOp, status)
}

func TestRemoveImportKeepsLinkWhileAnotherDeclarationMatches(t *testing.T) {
	m := newTestManager(t)
	o1 := mustCreate(t, m, ex1)
	o2, err := m.CreateOntology(NewID(ex2, ex("2/v1")))
	require.NoError(t, err)

	_, err = m.ApplyChanges(AddImport{Ontology: o1, IRI: ex2}, AddImport{Ontology: o1, IRI: ex("2/v1")})
	require.NoError(t, err)
	require.Equal(t, []*Ontology{o2}, m.DirectImports(o1))

	status, err := m.ApplyChange(RemoveImport{Ontology: o1, IRI: ex2})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, status)
	assert.Equal(t, []string{ex("2/v1")}, o1.Imports())
	assert.Equal(t, []*Ontology{o2}, m.ImportsClosure(o1))

	_, err = m.ApplyChange(RemoveImport{Ontology: o1, IRI: ex("2/v1")})
	require.NoError(t, err)
	assert.Empty(t, o1.Imports())
	assert.Empty(t, m.ImportsClosure(o1))
}

func TestRollbackUnlinksImportersOfRenamedOntology(t *testing.T) {
	m := newTestManager(t)
	o1 := mustCreate(t, m, ex1)
	o2 := mustCreate(t, m, ex2)
	taken := mustCreate(t, m, ex("taken"))
	_, err := m.ApplyChange(AddImport{Ontology: o1, IRI: ex3})
	require.NoError(t, err)
	require.Empty(t, m.ImportsClosure(o1))

	_, err = m.ApplyChanges(
		NewSetOntologyID(o2, NewID(ex3, "")),
		NewSetOntologyID(o1, taken.ID()),
	)
	require.ErrorIs(t, err, ErrIdentityConflict)
	assert.Equal(t, StateRolledBack, m.ProcessorState())
	assert.Equal(t, NewID(ex2, ""), o2.ID())
	assert.Equal(t, []string{ex3}, o1.Imports())
	assert.Empty(t, m.ImportsClosure(o1))

	t.Run("committed rename links the importer", func(t *testing.T) {
		_, err := m.ApplyChange(NewSetOntologyID(o2, NewID(ex3, "")))
		require.NoError(t, err)
		assert.Equal(t, []*Ontology{o2}, m.ImportsClosure(o1))
	})
}

func TestControlledImportsCompensate(t *testing.T) {
	cfg := DefaultLoaderConfig()
	cfg.ControlImports = true
	m := newTestManager(t, WithConfig(cfg))

	o2 := mustCreate(t, m, ex2)
	_, err := m.ApplyChange(AddAxiom{Ontology: o2, Axiom: axiom.NewDeclaration(axiom.Class, ex("A"))})
	require.NoError(t, err)

	o1 := mustCreate(t, m, ex1)
	_, err = m.ApplyChange(AddAxiom{Ontology: o1, Axiom: axiom.NewSubClassOf(ex("A"), ex("B"))})
	require.NoError(t, err)
	require.True(t, o1.Base().Contains(declares(ex("A"))))

	report, err := m.ApplyChanges(AddImport{Ontology: o1, IRI: ex2})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.False(t, report.Results[0].Compensating)
	assert.True(t, report.Results[1].Compensating)
	assert.Equal(t, RemoveAxiom{Ontology: o1, Axiom: axiom.NewDeclaration(axiom.Class, ex("A"))}, report.Results[1].Change)
	assert.Equal(t, 2, report.Applied())
	assert.False(t, o1.Base().Contains(declares(ex("A"))))
	assert.True(t, o1.Graph().Contains(declares(ex("A"))))

	report, err = m.ApplyChanges(RemoveImport{Ontology: o1, IRI: ex2})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, AddAxiom{Ontology: o1, Axiom: axiom.NewDeclaration(axiom.Class, ex("A"))}, report.Results[1].Change)
	assert.True(t, o1.Base().Contains(declares(ex("A"))))
}

func TestAnonymousOntologyAnnotations(t *testing.T) {
	m := newTestManager(t)
	o, err := m.CreateOntology(ID{})
	require.NoError(t, err)
	require.True(t, o.ID().IsAnonymous())
	assert.Zero(t, o.Base().Size())

	t.Run("rolled back annotation leaves no header", func(t *testing.T) {
		other := mustCreate(t, m, ex1)
		_, err := m.ApplyChanges(
			AddOntologyAnnotation{Ontology: o, Annotation: label("draft")},
			NewSetOntologyID(o, other.ID()),
		)
		assert.ErrorIs(t, err, ErrIdentityConflict)
		assert.Zero(t, o.Base().Size())
		assert.Empty(t, o.Annotations())
	})

	status, err := m.ApplyChange(AddOntologyAnnotation{Ontology: o, Annotation: label("draft")})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, status)
	assert.Equal(t, []axiom.Annotation{label("draft")}, o.Annotations())
	assert.Len(t, rdf.Subjects(o.Base(), rdf.RDFType, rdf.OWLOntology), 1)
}
