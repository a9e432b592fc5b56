package rdf

import (
	"fmt"
	"io"
	"strings"
)

// SerializeTriplesCanonical renders triples one per line in N-Triples
// form. Input order is preserved. Formula terms are written in N3 braces
// and variables as ?name, so the output is only N-Triples when the
// triples are plain RDF.
func SerializeTriplesCanonical(triples []*Triple) string {
	if len(triples) == 0 {
		return ""
	}

	var builder strings.Builder
	for _, triple := range triples {
		_ = writeTripleCanonical(&builder, triple)
	}
	return builder.String()
}

// WriteTripleCanonical writes one N-Triples line for t
func WriteTripleCanonical(w io.Writer, t *Triple) error {
	return writeTripleCanonical(w, t)
}

func writeTripleCanonical(w io.Writer, t *Triple) error {
	_, err := fmt.Fprintf(w, "%s %s %s .\n",
		SerializeTermCanonical(t.Subject),
		SerializeTermCanonical(t.Predicate),
		SerializeTermCanonical(t.Object))
	return err
}

// SerializeTermCanonical serializes a single term in canonical form
func SerializeTermCanonical(term Term) string {
	switch t := term.(type) {
	case *NamedNode:
		return fmt.Sprintf("<%s>", t.IRI)
	case *BlankNode:
		return fmt.Sprintf("_:%s", t.ID)
	case *Literal:
		return serializeLiteralCanonical(t)
	case *Variable:
		return t.String()
	case *Formula:
		var sb strings.Builder
		sb.WriteString("{")
		for _, inner := range t.graph.triples {
			fmt.Fprintf(&sb, " %s %s %s .",
				SerializeTermCanonical(inner.Subject),
				SerializeTermCanonical(inner.Predicate),
				SerializeTermCanonical(inner.Object))
		}
		sb.WriteString(" }")
		return sb.String()
	default:
		return ""
	}
}

// serializeLiteralCanonical serializes a literal in canonical format
func serializeLiteralCanonical(lit *Literal) string {
	escaped := EscapeString(lit.Value)

	if lit.Language != "" {
		return fmt.Sprintf(`"%s"@%s`, escaped, strings.ToLower(lit.Language))
	}

	// xsd:string is implicit
	if dt := lit.DatatypeIRI(); dt != XSDString.IRI {
		return fmt.Sprintf(`"%s"^^<%s>`, escaped, dt)
	}
	return fmt.Sprintf(`"%s"`, escaped)
}

// EscapeString escapes a string value for a double-quoted literal:
// - named escapes: \t \b \n \r \f \" \\
// - \uXXXX for other control characters, DEL and U+FFFE/U+FFFF
func EscapeString(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))

	for _, r := range s {
		switch r {
		case '\t':
			builder.WriteString(`\t`)
		case '\b':
			builder.WriteString(`\b`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\f':
			builder.WriteString(`\f`)
		case '"':
			builder.WriteString(`\"`)
		case '\\':
			builder.WriteString(`\\`)
		default:
			if r < 0x20 || r == 0x7F || r == 0xFFFE || r == 0xFFFF {
				fmt.Fprintf(&builder, `\u%04X`, r)
			} else {
				builder.WriteRune(r)
			}
		}
	}

	return builder.String()
}
