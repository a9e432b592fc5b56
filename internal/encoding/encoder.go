package encoding

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/zeebo/xxh3"

	"github.com/aleksaelezovic/tortoise/pkg/rdf"
	"github.com/aleksaelezovic/tortoise/pkg/store"
)

const (
	// Maximum size for inline strings. The first data byte holds the length.
	MaxInlineStringSize = 15

	// Encoded term size (type byte + 16 bytes for 128-bit hash or inline data)
	EncodedTermSize = 17
)

// ErrFormulaNotStorable is returned for N3 formulas, which have no flat
// key-value representation.
var ErrFormulaNotStorable = errors.New("formulas cannot be stored")

// EncodedTerm is the fixed-size key form of a term.
type EncodedTerm = store.EncodedTerm

// Kind is the first byte of an encoded term.
type Kind byte

const (
	KindNamedNode Kind = iota + 1
	KindBlankNode
	KindInlineString
	KindString
	KindLangString
	KindInteger
	KindBoolean
	KindTypedLiteral
	KindVariable
)

// separator joins the parts of composite id2str values. It cannot occur
// in IRIs, language tags, blank node labels or scope ids.
const separator = "\x00"

// TermEncoder handles encoding of RDF terms
type TermEncoder struct{}

func NewTermEncoder() *TermEncoder {
	return &TermEncoder{}
}

// Hash128 computes a 128-bit xxhash3 hash of the input string
func (e *TermEncoder) Hash128(s string) [16]byte {
	hash := xxh3.HashString128(s)
	var result [16]byte
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// EncodeTerm encodes an RDF term into a fixed-size byte array
// Returns the encoded term and optionally a string to store in id2str table
func (e *TermEncoder) EncodeTerm(term rdf.Term) (EncodedTerm, *string, error) {
	var encoded EncodedTerm

	switch t := term.(type) {
	case *rdf.NamedNode:
		return e.hashed(KindNamedNode, t.IRI)
	case *rdf.BlankNode:
		return e.hashed(KindBlankNode, t.Scope+separator+t.ID)
	case *rdf.Literal:
		return e.encodeLiteral(t)
	case *rdf.Variable:
		return e.hashed(KindVariable, strconv.Itoa(int(t.Quantifier))+separator+t.Name+separator+t.IRI)
	case *rdf.Formula:
		return encoded, nil, errors.WithStack(ErrFormulaNotStorable)
	default:
		return encoded, nil, errors.Newf("unknown term type: %T", term)
	}
}

func (e *TermEncoder) hashed(kind Kind, value string) (EncodedTerm, *string, error) {
	var encoded EncodedTerm
	encoded[0] = byte(kind)
	hash := e.Hash128(value)
	copy(encoded[1:], hash[:])
	return encoded, &value, nil
}

func (e *TermEncoder) encodeLiteral(lit *rdf.Literal) (EncodedTerm, *string, error) {
	var encoded EncodedTerm

	if lit.Language != "" {
		return e.hashed(KindLangString, lit.Language+separator+lit.Value)
	}

	switch datatype := lit.DatatypeIRI(); datatype {
	case rdf.XSDString.IRI:
		if len(lit.Value) <= MaxInlineStringSize {
			encoded[0] = byte(KindInlineString)
			encoded[1] = byte(len(lit.Value))
			copy(encoded[2:], lit.Value)
			return encoded, nil, nil
		}
		return e.hashed(KindString, lit.Value)

	case rdf.XSDInteger.IRI:
		// Only the canonical lexical form is inlined so "+7" and "007"
		// come back exactly as written.
		if v, err := strconv.ParseInt(lit.Value, 10, 64); err == nil && strconv.FormatInt(v, 10) == lit.Value {
			encoded[0] = byte(KindInteger)
			binary.BigEndian.PutUint64(encoded[1:9], uint64(v))
			return encoded, nil, nil
		}

	case rdf.XSDBoolean.IRI:
		if lit.Value == "true" || lit.Value == "false" {
			encoded[0] = byte(KindBoolean)
			if lit.Value == "true" {
				encoded[1] = 1
			}
			return encoded, nil, nil
		}
	}

	return e.hashed(KindTypedLiteral, lit.DatatypeIRI()+separator+lit.Value)
}

// EncodeKey concatenates encoded terms into an index key
func (e *TermEncoder) EncodeKey(terms ...EncodedTerm) []byte {
	key := make([]byte, 0, len(terms)*EncodedTermSize)
	for _, term := range terms {
		key = append(key, term[:]...)
	}
	return key
}

// GetKind extracts the kind byte from an encoded term
func GetKind(encoded EncodedTerm) Kind {
	return Kind(encoded[0])
}

// NeedsLookup reports whether the term's value is kept in the id2str table.
func NeedsLookup(encoded EncodedTerm) bool {
	switch GetKind(encoded) {
	case KindInlineString, KindInteger, KindBoolean:
		return false
	default:
		return true
	}
}

func splitValue(s string, parts int) ([]string, bool) {
	fields := strings.SplitN(s, separator, parts)
	return fields, len(fields) == parts
}
