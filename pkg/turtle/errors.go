package turtle

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/aleksaelezovic/tortoise/pkg/rdf"
)

// ErrorKind is the category of a parse or serialize failure
type ErrorKind int

const (
	KindLex ErrorKind = iota + 1
	KindSyntax
	KindUndefinedPrefix
	KindUnresolvableIRI
	KindUnsupportedConstruct
	KindSerialize
)

func (k ErrorKind) String() string {
	switch k {
	case KindLex:
		return "lex error"
	case KindSyntax:
		return "syntax error"
	case KindUndefinedPrefix:
		return "undefined prefix"
	case KindUnresolvableIRI:
		return "unresolvable IRI"
	case KindUnsupportedConstruct:
		return "unsupported construct"
	case KindSerialize:
		return "serialize error"
	default:
		return "error"
	}
}

// Sentinels for errors.Is matching on the kind of an *Error
var (
	ErrLex                  = errors.New("lex error")
	ErrSyntax               = errors.New("syntax error")
	ErrUndefinedPrefix      = errors.New("undefined prefix")
	ErrUnresolvableIRI      = errors.New("unresolvable IRI")
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	ErrSerialize            = errors.New("serialize error")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindLex:
		return ErrLex
	case KindSyntax:
		return ErrSyntax
	case KindUndefinedPrefix:
		return ErrUndefinedPrefix
	case KindUnresolvableIRI:
		return ErrUnresolvableIRI
	case KindUnsupportedConstruct:
		return ErrUnsupportedConstruct
	case KindSerialize:
		return ErrSerialize
	default:
		return nil
	}
}

// ErrorCode names the specific failure within a kind
type ErrorCode string

const (
	// Lexer
	CodeUnterminatedString  ErrorCode = "unterminated-string"
	CodeUnterminatedIRI     ErrorCode = "unterminated-iri"
	CodeIllegalEscape       ErrorCode = "illegal-escape"
	CodeIllegalCodepoint    ErrorCode = "illegal-codepoint"
	CodeMalformedNumber     ErrorCode = "malformed-number"
	CodeUnexpectedCharacter ErrorCode = "unexpected-character"
	CodeInvalidUTF8         ErrorCode = "invalid-utf8"
	CodeRead                ErrorCode = "read"

	// Parser
	CodeExpectedStatementEnd ErrorCode = "expected-statement-end"
	CodeUnexpectedToken      ErrorCode = "unexpected-token"
	CodeMalformedDirective   ErrorCode = "malformed-directive"
	CodeInvalidPosition      ErrorCode = "invalid-position"
	CodeNestingTooDeep       ErrorCode = "nesting-too-deep"
	CodeLiteralConflict      ErrorCode = "literal-conflict"
	CodeUndefinedPrefix      ErrorCode = "undefined-prefix"
	CodeUnresolvableIRI      ErrorCode = "unresolvable-iri"
	CodeKeywords             ErrorCode = "keywords"
	CodeRuleNotEvaluated     ErrorCode = "rule-not-evaluated"

	// Serializer
	CodeUnresolvableTerm     ErrorCode = "unresolvable-term"
	CodeCyclicBlankStructure ErrorCode = "cyclic-blank-structure"
)

// Error is a located parse or serialize failure
type Error struct {
	Kind   ErrorKind
	Code   ErrorCode
	Offset int // byte offset into the input, -1 when not applicable
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s at line %d, column %d (offset %d): %s", e.Kind, e.Line, e.Column, e.Offset, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinel, so errors.Is(err, ErrSyntax) works
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not an *Error
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// KindOf returns the ErrorKind carried by err, or 0 if err is not an *Error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newSerializeError(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Kind:   KindSerialize,
		Code:   code,
		Offset: -1,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// resolutionError maps errors from the resolution context onto kinds
func resolutionError(pos Position, err error) *Error {
	e := &Error{Offset: pos.Offset, Line: pos.Line, Column: pos.Column, Msg: err.Error(), Err: err}
	switch {
	case errors.Is(err, rdf.ErrUndefinedPrefix):
		e.Kind, e.Code = KindUndefinedPrefix, CodeUndefinedPrefix
	case errors.Is(err, rdf.ErrUnresolvableIRI):
		e.Kind, e.Code = KindUnresolvableIRI, CodeUnresolvableIRI
	default:
		e.Kind, e.Code = KindSyntax, CodeInvalidPosition
	}
	return e
}
