package ontology

import (
	"fmt"

	"github.com/c360studio/semonto/axiom"
)

// Change is one structural edit of an ontology. Every change has an
// inverse, used to roll back failed batches.
type Change interface {
	// Target is the ontology the change edits.
	Target() *Ontology
	// Reverse returns the change that undoes this one.
	Reverse() Change
	String() string

	name() string
	apply(p *processor) (ChangeStatus, error)
}

// ChangeStatus is the outcome of one applied change.
type ChangeStatus int

const (
	// StatusApplied means the ontology changed.
	StatusApplied ChangeStatus = iota + 1
	// StatusNoOp means the ontology already was in the requested state.
	StatusNoOp
)

// String returns the string representation of ChangeStatus.
func (s ChangeStatus) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusNoOp:
		return "no-op"
	default:
		return "unknown"
	}
}

// ChangeResult pairs a change with its outcome.
type ChangeResult struct {
	Change Change
	Status ChangeStatus

	// Compensating is true for changes the processor added itself.
	Compensating bool
}

// ChangeReport lists the results of a committed batch, in order.
type ChangeReport struct {
	Results []ChangeResult
}

// Applied counts the results that changed an ontology.
func (r *ChangeReport) Applied() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusApplied {
			n++
		}
	}
	return n
}

// AddAxiom adds an axiom and the declarations it implies.
type AddAxiom struct {
	Ontology *Ontology
	Axiom    axiom.Axiom
}

func (c AddAxiom) Target() *Ontology { return c.Ontology }
func (c AddAxiom) Reverse() Change   { return RemoveAxiom(c) }
func (c AddAxiom) String() string    { return "AddAxiom(" + c.Axiom.String() + ")" }
func (c AddAxiom) name() string      { return "add_axiom" }
func (c AddAxiom) apply(p *processor) (ChangeStatus, error) {
	return p.addAxiom(c.Ontology, c.Axiom)
}

// RemoveAxiom removes an axiom. Declarations other axioms still imply
// stay in place.
type RemoveAxiom struct {
	Ontology *Ontology
	Axiom    axiom.Axiom
}

func (c RemoveAxiom) Target() *Ontology { return c.Ontology }
func (c RemoveAxiom) Reverse() Change   { return AddAxiom(c) }
func (c RemoveAxiom) String() string    { return "RemoveAxiom(" + c.Axiom.String() + ")" }
func (c RemoveAxiom) name() string      { return "remove_axiom" }
func (c RemoveAxiom) apply(p *processor) (ChangeStatus, error) {
	return p.removeAxiom(c.Ontology, c.Axiom)
}

// AddOntologyAnnotation annotates the ontology header.
type AddOntologyAnnotation struct {
	Ontology   *Ontology
	Annotation axiom.Annotation
}

func (c AddOntologyAnnotation) Target() *Ontology { return c.Ontology }
func (c AddOntologyAnnotation) Reverse() Change   { return RemoveOntologyAnnotation(c) }
func (c AddOntologyAnnotation) String() string {
	return "AddOntologyAnnotation(" + c.Annotation.String() + ")"
}
func (c AddOntologyAnnotation) name() string { return "add_annotation" }
func (c AddOntologyAnnotation) apply(p *processor) (ChangeStatus, error) {
	return p.addAnnotation(c.Ontology, c.Annotation)
}

// RemoveOntologyAnnotation removes a header annotation.
type RemoveOntologyAnnotation struct {
	Ontology   *Ontology
	Annotation axiom.Annotation
}

func (c RemoveOntologyAnnotation) Target() *Ontology { return c.Ontology }
func (c RemoveOntologyAnnotation) Reverse() Change   { return AddOntologyAnnotation(c) }
func (c RemoveOntologyAnnotation) String() string {
	return "RemoveOntologyAnnotation(" + c.Annotation.String() + ")"
}
func (c RemoveOntologyAnnotation) name() string { return "remove_annotation" }
func (c RemoveOntologyAnnotation) apply(p *processor) (ChangeStatus, error) {
	return p.removeAnnotation(c.Ontology, c.Annotation)
}

// SetOntologyID renames an ontology. Use NewSetOntologyID so the change
// remembers the ID it replaces.
type SetOntologyID struct {
	Ontology *Ontology
	NewID    ID
	OldID    ID
}

// NewSetOntologyID creates a rename of o to id.
func NewSetOntologyID(o *Ontology, id ID) SetOntologyID {
	return SetOntologyID{Ontology: o, NewID: id, OldID: o.ID()}
}

func (c SetOntologyID) Target() *Ontology { return c.Ontology }
func (c SetOntologyID) Reverse() Change {
	return SetOntologyID{Ontology: c.Ontology, NewID: c.OldID, OldID: c.NewID}
}
func (c SetOntologyID) String() string {
	return fmt.Sprintf("SetOntologyID(%s -> %s)", c.OldID, c.NewID)
}
func (c SetOntologyID) name() string { return "set_id" }
func (c SetOntologyID) apply(p *processor) (ChangeStatus, error) {
	return p.setID(c.Ontology, c.NewID)
}

// AddImport declares an import and links the imported ontology if it is
// registered.
type AddImport struct {
	Ontology *Ontology
	IRI      string
}

func (c AddImport) Target() *Ontology { return c.Ontology }
func (c AddImport) Reverse() Change   { return RemoveImport(c) }
func (c AddImport) String() string    { return "AddImport(<" + c.IRI + ">)" }
func (c AddImport) name() string      { return "add_import" }
func (c AddImport) apply(p *processor) (ChangeStatus, error) {
	return p.addImport(c.Ontology, c.IRI)
}

// RemoveImport drops an import declaration and unlinks the import.
type RemoveImport struct {
	Ontology *Ontology
	IRI      string
}

func (c RemoveImport) Target() *Ontology { return c.Ontology }
func (c RemoveImport) Reverse() Change   { return AddImport(c) }
func (c RemoveImport) String() string    { return "RemoveImport(<" + c.IRI + ">)" }
func (c RemoveImport) name() string      { return "remove_import" }
func (c RemoveImport) apply(p *processor) (ChangeStatus, error) {
	return p.removeImport(c.Ontology, c.IRI)
}
