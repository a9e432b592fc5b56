package rdf

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrUnresolvableIRI is returned when a relative reference has no
	// absolute base to resolve against.
	ErrUnresolvableIRI = errors.New("unresolvable IRI")

	// ErrUndefinedPrefix is returned when a prefixed name uses a prefix
	// that is not declared in any enclosing scope.
	ErrUndefinedPrefix = errors.New("undefined prefix")

	ErrIncompleteTriple = errors.New("triple has an empty position")
	ErrInvalidPosition  = errors.New("term not allowed in position")

	// ErrLiteralConflict is returned for a language-tagged literal whose
	// datatype is not rdf:langString.
	ErrLiteralConflict = errors.New("language tag conflicts with datatype")

	// ErrScopeUnderflow is returned when popping the document scope.
	ErrScopeUnderflow = errors.New("cannot pop the document scope")
)

func newPositionError(position string, term Term) error {
	return errors.Wrapf(ErrInvalidPosition, "%s cannot be a %s (%s)", position, term.Type(), term)
}
