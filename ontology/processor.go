package ontology

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/c360studio/semonto/axiom"
	"github.com/c360studio/semonto/rdf"
)

// ProcessorState is the state of the change processor.
type ProcessorState int

const (
	// StateIdle means no batch has run yet.
	StateIdle ProcessorState = iota
	// StateValidating is held while a batch is checked before any edit.
	StateValidating
	// StateApplying is held while changes are applied.
	StateApplying
	// StateCommitted means the last batch was applied completely.
	StateCommitted
	// StateRolledBack means the last batch failed and was undone.
	StateRolledBack
)

// String returns the string representation of ProcessorState.
func (s ProcessorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateApplying:
		return "applying"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// processor applies change batches for one manager.
type processor struct {
	m            *Manager
	state        ProcessorState
	inconsistent bool

	// journal records the triple edits of the change being applied.
	journal journal
}

type journal struct {
	added   []rdf.Triple
	removed []rdf.Triple
	links   []importLink
	// renamed is the ID a rename replaced.
	renamed ID
}

// ApplyChange applies a single change.
func (m *Manager) ApplyChange(ch Change) (ChangeStatus, error) {
	report, err := m.ApplyChanges(ch)
	if err != nil {
		return 0, err
	}
	return report.Results[0].Status, nil
}

// ApplyChanges applies changes in order. The first failure stops the batch
// and every change applied so far is undone in reverse order. If undoing
// fails too, the error wraps ErrRollbackFailure and the manager refuses
// further batches until MarkConsistent is called.
func (m *Manager) ApplyChanges(changes ...Change) (*ChangeReport, error) {
	p := m.processor
	if p.inconsistent {
		return nil, ErrInconsistentState
	}

	p.state = StateValidating
	for _, ch := range changes {
		if err := m.validateChange(ch); err != nil {
			p.state = StateRolledBack
			return nil, &ChangeError{Change: ch, Err: err}
		}
	}

	p.state = StateApplying
	report := &ChangeReport{}
	var undo []Change
	for _, ch := range changes {
		imported := p.importTarget(ch)
		status, rev, err := p.applyOne(ch)
		if err != nil {
			return nil, p.rollback(ch, err, undo)
		}
		report.Results = append(report.Results, ChangeResult{Change: ch, Status: status})
		if status != StatusApplied {
			continue
		}
		undo = append(undo, rev)

		for _, comp := range p.compensations(ch, imported) {
			status, rev, err := p.applyOne(comp)
			if err != nil {
				return nil, p.rollback(comp, err, undo)
			}
			report.Results = append(report.Results, ChangeResult{Change: comp, Status: status, Compensating: true})
			if status == StatusApplied {
				undo = append(undo, rev)
			}
		}
	}
	p.state = StateCommitted
	m.logger.Debug("Applied change batch", "changes", len(changes), "applied", report.Applied())
	return report, nil
}

// ProcessorState returns the state the change processor is in.
func (m *Manager) ProcessorState() ProcessorState {
	return m.processor.state
}

// Inconsistent reports whether a failed rollback left the manager in an
// unknown state.
func (m *Manager) Inconsistent() bool {
	return m.processor.inconsistent
}

// MarkConsistent lifts the refusal of change batches after a failed
// rollback. Call it only once the ontologies were repaired or discarded.
func (m *Manager) MarkConsistent() {
	m.processor.inconsistent = false
	m.processor.state = StateIdle
}

func (m *Manager) validateChange(ch Change) error {
	if ch == nil {
		return ErrInvalidChange
	}
	o := ch.Target()
	if o == nil || o.manager != m || m.ontologies[o.id] != o {
		return ErrUnknownOntology
	}
	switch c := ch.(type) {
	case AddAxiom:
		return validAxiom(c.Axiom)
	case RemoveAxiom:
		return validAxiom(c.Axiom)
	case AddOntologyAnnotation:
		return validAnnotation(c.Annotation)
	case RemoveOntologyAnnotation:
		return validAnnotation(c.Annotation)
	case SetOntologyID:
		if c.NewID.IsZero() {
			return fmt.Errorf("%w: empty ontology ID", ErrInvalidChange)
		}
	case AddImport:
		if c.IRI == "" {
			return fmt.Errorf("%w: empty import IRI", ErrInvalidChange)
		}
	case RemoveImport:
		if c.IRI == "" {
			return fmt.Errorf("%w: empty import IRI", ErrInvalidChange)
		}
	}
	return nil
}

func validAxiom(a axiom.Axiom) error {
	if !a.Valid() {
		return fmt.Errorf("%w: malformed axiom %s", ErrInvalidChange, a)
	}
	return nil
}

func validAnnotation(an axiom.Annotation) error {
	if !an.Property.IsIRI() || an.Value.IsZero() {
		return fmt.Errorf("%w: malformed annotation %s", ErrInvalidChange, an)
	}
	return nil
}

// applyOne applies ch and returns the change that undoes it.
func (p *processor) applyOne(ch Change) (ChangeStatus, Change, error) {
	p.journal = journal{}
	status, err := ch.apply(p)
	if err != nil {
		p.m.metrics.Changes.WithLabelValues(ch.name(), "error").Inc()
		return 0, nil, err
	}
	p.m.metrics.Changes.WithLabelValues(ch.name(), status.String()).Inc()
	return status, p.inverse(ch), nil
}

// inverse picks the undo of an applied change. Axiom and annotation edits
// are undone from the journal so implied declarations come back exactly as
// they were. A rename is undone together with the import links it made.
func (p *processor) inverse(ch Change) Change {
	switch c := ch.(type) {
	case SetOntologyID:
		c.OldID = p.journal.renamed
		return unrename{rename: c, links: p.journal.links}
	case AddAxiom, RemoveAxiom, AddOntologyAnnotation, RemoveOntologyAnnotation:
		return restore{
			ontology: ch.Target(),
			added:    p.journal.added,
			removed:  p.journal.removed,
			label:    ch.String(),
		}
	default:
		return ch.Reverse()
	}
}

func (p *processor) rollback(failed Change, cause error, undo []Change) error {
	p.m.logger.Warn("Change failed, rolling back batch",
		"change", failed.String(),
		"applied", len(undo),
		"error", cause)

	for i := len(undo) - 1; i >= 0; i-- {
		if _, err := undo[i].apply(p); err != nil {
			p.inconsistent = true
			p.m.metrics.Rollbacks.WithLabelValues("error").Inc()
			p.m.logger.Error("Rollback failed, manager is inconsistent",
				"undo", undo[i].String(),
				"error", err)
			return &ChangeError{
				Change: failed,
				Err:    errors.Join(cause, fmt.Errorf("%w: %s: %w", ErrRollbackFailure, undo[i], err)),
			}
		}
	}
	p.state = StateRolledBack
	p.m.metrics.Rollbacks.WithLabelValues("success").Inc()
	return &ChangeError{Change: failed, Err: cause}
}

// add writes t to the base graph of o and journals it.
func (p *processor) add(o *Ontology, t rdf.Triple) bool {
	if !o.Base().Add(t) {
		return false
	}
	p.journal.added = append(p.journal.added, t)
	return true
}

// del deletes t from the base graph of o and journals it.
func (p *processor) del(o *Ontology, t rdf.Triple) bool {
	if !o.Base().Delete(t) {
		return false
	}
	p.journal.removed = append(p.journal.removed, t)
	return true
}

// ensureNode returns the header node of o, creating one for an anonymous
// ontology without a header.
func (p *processor) ensureNode(o *Ontology) rdf.Term {
	if o.node.IsZero() {
		o.node = rdf.Blank("ontology-" + uuid.NewString())
	}
	p.add(o, rdf.NewTriple(o.node, rdf.RDFType, rdf.OWLOntology))
	return o.node
}

func (p *processor) requireCache(o *Ontology) error {
	if !p.m.cfg.ContentCache {
		return ErrModificationDenied
	}
	o.index.Materialize()
	return nil
}

func (p *processor) addAxiom(o *Ontology, a axiom.Axiom) (ChangeStatus, error) {
	if err := p.requireCache(o); err != nil {
		return 0, err
	}
	if o.index.Contains(a) {
		return StatusNoOp, nil
	}
	for _, t := range a.Triples() {
		p.add(o, t)
	}
	p.m.refresh(o)
	return StatusApplied, nil
}

// removeAxiom deletes the core triple of a. A declaration a implies is
// deleted too when the imports already declare the entity or no other own
// axiom writes it.
func (p *processor) removeAxiom(o *Ontology, a axiom.Axiom) (ChangeStatus, error) {
	if err := p.requireCache(o); err != nil {
		return 0, err
	}
	if !o.index.Contains(a) {
		return StatusNoOp, nil
	}
	triples := a.Triples()
	p.del(o, triples[0])
	for _, t := range triples[1:] {
		if !p.keep(o, t, a) {
			p.del(o, t)
		}
	}
	p.m.refresh(o)
	return StatusApplied, nil
}

func (p *processor) keep(o *Ontology, t rdf.Triple, removing axiom.Axiom) bool {
	return o.index.Produces(t, removing) && !inImports(o, t)
}

// inImports reports whether an import of o states t in its own graph.
func inImports(o *Ontology, t rdf.Triple) bool {
	for _, member := range o.graph.Closure()[1:] {
		if member.Base() != o.Base() && member.Base().Contains(t) {
			return true
		}
	}
	return false
}

func (p *processor) addAnnotation(o *Ontology, an axiom.Annotation) (ChangeStatus, error) {
	if err := p.requireCache(o); err != nil {
		return 0, err
	}
	if o.index.ContainsAnnotation(an) {
		return StatusNoOp, nil
	}
	node := p.ensureNode(o)
	p.add(o, an.Triple(node))
	p.m.refresh(o)
	return StatusApplied, nil
}

func (p *processor) removeAnnotation(o *Ontology, an axiom.Annotation) (ChangeStatus, error) {
	if err := p.requireCache(o); err != nil {
		return 0, err
	}
	if !o.index.ContainsAnnotation(an) {
		return StatusNoOp, nil
	}
	p.del(o, an.Triple(o.node))
	p.m.refresh(o)
	return StatusApplied, nil
}

// setID renames o. The header statements move to the new node and the
// version IRI statement follows the new ID.
func (p *processor) setID(o *Ontology, id ID) (ChangeStatus, error) {
	if id == o.id {
		return StatusNoOp, nil
	}
	if other, ok := p.m.ontologies[id]; ok && other != o {
		return 0, fmt.Errorf("%w: %s", ErrIdentityConflict, id)
	}

	old := o.node
	var node rdf.Term
	switch {
	case !id.IsAnonymous():
		node = rdf.IRI(id.OntologyIRI)
	case old.IsBlank():
		node = old
	default:
		node = rdf.Blank("ontology-" + uuid.NewString())
	}

	if !old.IsZero() {
		for _, t := range rdf.Collect(o.Base(), rdf.Match(old, rdf.Term{}, rdf.Term{})) {
			p.del(o, t)
			if t.P == rdf.OWLVersionIRI {
				continue
			}
			p.add(o, rdf.NewTriple(node, t.P, t.O))
		}
	}
	p.add(o, rdf.NewTriple(node, rdf.RDFType, rdf.OWLOntology))
	if id.VersionIRI != "" {
		p.add(o, rdf.NewTriple(node, rdf.OWLVersionIRI, rdf.IRI(id.VersionIRI)))
	}

	previous := o.id
	delete(p.m.ontologies, o.id)
	o.id = id
	o.node = node
	p.m.ontologies[id] = o
	p.m.refresh(o)
	p.journal.renamed = previous
	p.journal.links = p.m.heal(o)

	p.m.logger.Debug("Renamed ontology", "from", previous.String(), "to", id.String())
	return StatusApplied, nil
}

func (p *processor) addImport(o *Ontology, iri string) (ChangeStatus, error) {
	node := p.ensureNode(o)
	added := p.add(o, rdf.NewTriple(node, rdf.OWLImports, rdf.IRI(iri)))
	if imp, ok := p.m.OntologyByIRI(iri); ok && imp != o {
		o.graph.AddChild(imp.graph)
	}
	if !added {
		return StatusNoOp, nil
	}
	p.m.refresh(o)
	return StatusApplied, nil
}

func (p *processor) removeImport(o *Ontology, iri string) (ChangeStatus, error) {
	if o.node.IsZero() {
		return StatusNoOp, nil
	}
	if !p.del(o, rdf.NewTriple(o.node, rdf.OWLImports, rdf.IRI(iri))) {
		return StatusNoOp, nil
	}
	if imp, ok := p.m.OntologyByIRI(iri); ok && !importsMatch(o, imp.id) {
		o.graph.RemoveChild(imp.graph)
	}
	p.m.refresh(o)
	return StatusApplied, nil
}

// importsMatch reports whether any import declaration of o names id.
func importsMatch(o *Ontology, id ID) bool {
	for _, iri := range o.Imports() {
		if id.Matches(iri) {
			return true
		}
	}
	return false
}

// importTarget returns the registered ontology an import change refers to,
// captured before the change runs. It is nil unless imports are controlled.
func (p *processor) importTarget(ch Change) *Ontology {
	if !p.m.cfg.ControlImports {
		return nil
	}
	var iri string
	switch c := ch.(type) {
	case AddImport:
		iri = c.IRI
	case RemoveImport:
		iri = c.IRI
	default:
		return nil
	}
	imp, ok := p.m.OntologyByIRI(iri)
	if !ok || imp == ch.Target() {
		return nil
	}
	return imp
}

// compensations keeps local declarations in step with an applied import
// change: declarations the new import supplies are dropped, declarations a
// removed import supplied are restored for entities still in use.
func (p *processor) compensations(ch Change, imported *Ontology) []Change {
	if imported == nil {
		return nil
	}
	o := ch.Target()
	var out []Change
	for _, e := range imported.Signature() {
		if len(o.Referencing(e.IRI)) == 0 {
			continue
		}
		decl := axiom.NewDeclaration(e.Type, e.IRI)
		core := decl.CoreTriple()
		switch ch.(type) {
		case AddImport:
			if o.ContainsAxiom(decl) && inImports(o, core) {
				out = append(out, RemoveAxiom{Ontology: o, Axiom: decl})
			}
		case RemoveImport:
			if !o.Graph().Contains(core) {
				out = append(out, AddAxiom{Ontology: o, Axiom: decl})
			}
		}
	}
	return out
}

// restore undoes the journaled triple edits of one change.
type restore struct {
	ontology *Ontology
	added    []rdf.Triple
	removed  []rdf.Triple
	label    string
}

func (c restore) Target() *Ontology { return c.ontology }
func (c restore) Reverse() Change {
	return restore{ontology: c.ontology, added: c.removed, removed: c.added, label: c.label}
}
func (c restore) String() string { return "Undo(" + c.label + ")" }
func (c restore) name() string   { return "restore" }
func (c restore) apply(p *processor) (ChangeStatus, error) {
	o := c.ontology
	for _, t := range c.added {
		o.Base().Delete(t)
	}
	for _, t := range c.removed {
		o.Base().Add(t)
	}
	if o.id.IsAnonymous() && !o.node.IsZero() && !rdf.HasType(o.Base(), o.node, rdf.OWLOntology) {
		o.node = rdf.OntologyNode(o.Base())
	}
	p.m.refresh(o)
	return StatusApplied, nil
}

// unrename undoes a rename and unlinks the importers the rename linked.
type unrename struct {
	rename SetOntologyID
	links  []importLink
}

func (c unrename) Target() *Ontology { return c.rename.Ontology }
func (c unrename) Reverse() Change   { return c.rename }
func (c unrename) String() string    { return "Undo(" + c.rename.String() + ")" }
func (c unrename) name() string      { return "restore" }
func (c unrename) apply(p *processor) (ChangeStatus, error) {
	status, err := p.setID(c.rename.Ontology, c.rename.OldID)
	if err != nil {
		return 0, err
	}
	p.m.unlink(c.links)
	return status, nil
}
