package ontology

import (
	"errors"
	"fmt"
	"strings"

	"github.com/c360studio/semstreams/pkg/errs"

	"github.com/c360studio/semonto/fallback"
)

// Sentinel errors. Typed errors below wrap them so errors.Is works on
// every failure the manager reports.
var (
	ErrUnsupportedFormat           = errors.New("unsupported format")
	ErrIO                          = errors.New("document I/O failure")
	ErrBadRecursion                = fallback.ErrBadRecursion
	ErrUnloadableImport            = errors.New("unloadable import")
	ErrOntologyAlreadyExists       = errors.New("ontology already exists")
	ErrDocumentAlreadyExists       = errors.New("document location already in use")
	ErrModificationDenied          = errors.New("modification denied: axiom cache disabled")
	ErrIdentityConflict            = errors.New("identity already used by another ontology")
	ErrDuplicateNonIsomorphicGraph = errors.New("different graphs claim the same ontology identity")
	ErrRollbackFailure             = errors.New("rollback failed")
	ErrUnknownOntology             = errors.New("ontology is not managed here")
	ErrInconsistentState           = errors.New("manager is in an inconsistent state")
	ErrInvalidChange               = errors.New("invalid change")
)

// LoadError is a failed load. It unwraps to its kind and to every attempt
// made, in the order they were made.
type LoadError struct {
	Kind     error
	Location string
	Attempts []error
}

func (e *LoadError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "load %s: %v", e.Location, e.Kind)
	if len(e.Attempts) > 0 {
		sb.WriteString(" (")
		for i, a := range e.Attempts {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(a.Error())
		}
		sb.WriteString(")")
	}
	return sb.String()
}

// Unwrap returns the kind followed by the attempts.
func (e *LoadError) Unwrap() []error {
	out := make([]error, 0, len(e.Attempts)+1)
	out = append(out, e.Kind)
	return append(out, e.Attempts...)
}

// ImportError is an import that could not be loaded.
type ImportError struct {
	// Declaration is the imported IRI as written.
	Declaration string
	// Importer is the location of the importing document.
	Importer string
	Err      error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("%v: %s imported by %s: %v", ErrUnloadableImport, e.Declaration, e.Importer, e.Err)
}

// Unwrap returns ErrUnloadableImport and the cause.
func (e *ImportError) Unwrap() []error {
	return []error{ErrUnloadableImport, e.Err}
}

// ChangeError is a change the processor refused or failed to apply.
type ChangeError struct {
	Change Change
	Err    error
}

func (e *ChangeError) Error() string {
	return fmt.Sprintf("apply %s: %v", e.Change, e.Err)
}

func (e *ChangeError) Unwrap() error {
	return e.Err
}

// Class classifies err with the semstreams error classes. Errors that
// leave the manager unusable are fatal, classified errors keep their class,
// I/O failures are transient and the manager's other sentinels are invalid.
// Anything else is classified by errs.Classify. A nil error is invalid so
// callers never retry it.
func Class(err error) errs.ErrorClass {
	var classified *errs.ClassifiedError
	switch {
	case err == nil:
		return errs.ErrorInvalid
	case errors.Is(err, ErrRollbackFailure),
		errors.Is(err, ErrInconsistentState),
		errors.Is(err, ErrBadRecursion):
		return errs.ErrorFatal
	case errors.As(err, &classified):
		return classified.Class
	case errors.Is(err, ErrIO):
		return errs.ErrorTransient
	case isInvalid(err):
		return errs.ErrorInvalid
	default:
		return errs.Classify(err)
	}
}

var invalidErrors = []error{
	ErrUnsupportedFormat,
	ErrUnloadableImport,
	ErrOntologyAlreadyExists,
	ErrDocumentAlreadyExists,
	ErrModificationDenied,
	ErrIdentityConflict,
	ErrDuplicateNonIsomorphicGraph,
	ErrUnknownOntology,
	ErrInvalidChange,
}

func isInvalid(err error) bool {
	for _, target := range invalidErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
