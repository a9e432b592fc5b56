package encoding

import (
	"encoding/binary"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/aleksaelezovic/tortoise/pkg/rdf"
)

// TermDecoder handles decoding of RDF terms
type TermDecoder struct{}

// NewTermDecoder creates a new term decoder
func NewTermDecoder() *TermDecoder {
	return &TermDecoder{}
}

// NeedsLookup reports whether DecodeTerm needs the id2str value.
func (d *TermDecoder) NeedsLookup(encoded EncodedTerm) bool {
	return NeedsLookup(encoded)
}

// DecodeTerm decodes an encoded term back to an rdf.Term
// For terms that require string lookup, stringValue should be provided
func (d *TermDecoder) DecodeTerm(encoded EncodedTerm, stringValue *string) (rdf.Term, error) {
	kind := GetKind(encoded)

	switch kind {
	case KindInlineString:
		n := int(encoded[1])
		if n > MaxInlineStringSize {
			return nil, errors.Newf("inline string length %d out of range", n)
		}
		return rdf.NewLiteral(string(encoded[2 : 2+n])), nil

	case KindInteger:
		v := int64(binary.BigEndian.Uint64(encoded[1:9]))
		return rdf.NewIntegerLiteral(v), nil

	case KindBoolean:
		return rdf.NewBooleanLiteral(encoded[1] == 1), nil
	}

	if stringValue == nil {
		return nil, errors.Newf("string value required for term kind %d", kind)
	}
	value := *stringValue

	switch kind {
	case KindNamedNode:
		return rdf.NewNamedNode(value), nil

	case KindString:
		return rdf.NewLiteral(value), nil

	case KindBlankNode:
		parts, ok := splitValue(value, 2)
		if !ok {
			return nil, errors.Newf("malformed blank node record %q", value)
		}
		return rdf.NewScopedBlankNode(parts[1], parts[0]), nil

	case KindLangString:
		parts, ok := splitValue(value, 2)
		if !ok {
			return nil, errors.Newf("malformed language-tagged literal record %q", value)
		}
		return rdf.NewLiteralWithLanguage(parts[1], parts[0]), nil

	case KindTypedLiteral:
		parts, ok := splitValue(value, 2)
		if !ok {
			return nil, errors.Newf("malformed typed literal record %q", value)
		}
		return rdf.NewLiteralWithDatatype(parts[1], rdf.NewNamedNode(parts[0])), nil

	case KindVariable:
		parts, ok := splitValue(value, 3)
		if !ok {
			return nil, errors.Newf("malformed variable record %q", value)
		}
		q, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, errors.Wrapf(err, "malformed variable quantifier %q", parts[0])
		}
		return &rdf.Variable{Name: parts[1], IRI: parts[2], Quantifier: rdf.Quantifier(q)}, nil

	default:
		return nil, errors.Newf("unknown term kind: %d", kind)
	}
}
