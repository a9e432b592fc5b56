package turtle

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aleksaelezovic/tortoise/pkg/rdf"
)

var (
	integerForm = regexp.MustCompile(`^[+-]?[0-9]+$`)
	decimalForm = regexp.MustCompile(`^[+-]?[0-9]*\.[0-9]+$`)
	doubleForm  = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)[eE][+-]?[0-9]+$`)
)

// bareLiteral returns the unquoted form of numeric and boolean literals
// whose lexical form the grammar accepts as written
func bareLiteral(l *rdf.Literal) (string, bool) {
	if l.Language != "" {
		return "", false
	}
	switch l.DatatypeIRI() {
	case rdf.XSDInteger.IRI:
		return l.Value, integerForm.MatchString(l.Value)
	case rdf.XSDDecimal.IRI:
		return l.Value, decimalForm.MatchString(l.Value)
	case rdf.XSDDouble.IRI:
		return l.Value, doubleForm.MatchString(l.Value)
	case rdf.XSDBoolean.IRI:
		return l.Value, l.Value == "true" || l.Value == "false"
	}
	return "", false
}

// quoteLiteral picks the shortest quoting for s. Text with a line break or
// with both quote characters goes in """ ... """.
func quoteLiteral(s string) string {
	hasDouble := strings.ContainsRune(s, '"')
	hasSingle := strings.ContainsRune(s, '\'')
	switch {
	case strings.ContainsRune(s, '\n') || (hasDouble && hasSingle):
		return `"""` + escapeLong(s) + `"""`
	case hasDouble:
		return "'" + escapeShort(s, '\'') + "'"
	default:
		return `"` + escapeShort(s, '"') + `"`
	}
}

func escapeShort(s string, quote rune) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	for _, r := range s {
		switch r {
		case quote:
			sb.WriteRune('\\')
			sb.WriteRune(r)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			writeRuneEscaped(&sb, r)
		}
	}
	return sb.String()
}

// escapeLong keeps line breaks and escapes a '"' only where it could end
// the literal early
func escapeLong(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 6)
	for i, r := range s {
		switch r {
		case '"':
			rest := s[i+1:]
			if rest == "" || rest[0] == '"' {
				sb.WriteString(`\"`)
			} else {
				sb.WriteRune(r)
			}
		case '\\':
			sb.WriteString(`\\`)
		case '\r':
			sb.WriteString(`\r`)
		case '\n', '\t':
			sb.WriteRune(r)
		default:
			writeRuneEscaped(&sb, r)
		}
	}
	return sb.String()
}

func writeRuneEscaped(sb *strings.Builder, r rune) {
	if r < 0x20 || r == 0x7F || r == 0xFFFE || r == 0xFFFF || r == utf8.RuneError {
		fmt.Fprintf(sb, `\u%04X`, r)
		return
	}
	sb.WriteRune(r)
}

// escapeLocalName returns local as a PN_LOCAL, escaping reserved
// characters, or false when some character cannot appear in a local name
func escapeLocalName(local string) (string, bool) {
	var sb strings.Builder
	runes := []rune(local)
	for i, r := range runes {
		first, last := i == 0, i == len(runes)-1
		switch {
		case r == '%' && i+2 < len(runes) && isHexDigit(runes[i+1]) && isHexDigit(runes[i+2]):
			sb.WriteRune(r)
		case r == ':' || isPN_CHARS_U(r) || isDigit(r):
			sb.WriteRune(r)
		case isPN_CHARS(r) && !first:
			sb.WriteRune(r)
		case r == '.' && !first && !last:
			sb.WriteRune(r)
		case isLocalEscapable(r):
			sb.WriteRune('\\')
			sb.WriteRune(r)
		default:
			return "", false
		}
	}
	return sb.String(), true
}

// validPrefixLabel checks PN_PREFIX; the empty prefix is allowed
func validPrefixLabel(prefix string) bool {
	runes := []rune(prefix)
	for i, r := range runes {
		switch {
		case i == 0:
			if !isPN_CHARS_BASE(r) {
				return false
			}
		case r == '.':
			if i == len(runes)-1 {
				return false
			}
		case !isPN_CHARS(r):
			return false
		}
	}
	return true
}
