package rdf

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// iriRef holds the five components of an RFC 3986 reference
type iriRef struct {
	scheme       string
	authority    string
	path         string
	query        string
	fragment     string
	hasAuthority bool
	hasQuery     bool
	hasFragment  bool
}

// IsAbsoluteIRI reports whether s starts with a scheme
// (scheme ::= ALPHA *( ALPHA / DIGIT / "+" / "-" / "." ) ":")
func IsAbsoluteIRI(s string) bool {
	return schemeEnd(s) > 0
}

func schemeEnd(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case i > 0 && ((c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.'):
		case i > 0 && c == ':':
			return i
		default:
			return -1
		}
	}
	return -1
}

func splitIRI(s string) iriRef {
	var r iriRef
	if i := schemeEnd(s); i > 0 {
		r.scheme = s[:i]
		s = s[i+1:]
	}
	if i := strings.IndexByte(s, '#'); i >= 0 {
		r.fragment = s[i+1:]
		r.hasFragment = true
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		r.query = s[i+1:]
		r.hasQuery = true
		s = s[:i]
	}
	if strings.HasPrefix(s, "//") {
		s = s[2:]
		r.hasAuthority = true
		if i := strings.IndexByte(s, '/'); i >= 0 {
			r.authority = s[:i]
			s = s[i:]
		} else {
			r.authority = s
			s = ""
		}
	}
	r.path = s
	return r
}

func (r iriRef) String() string {
	var sb strings.Builder
	if r.scheme != "" {
		sb.WriteString(r.scheme)
		sb.WriteByte(':')
	}
	if r.hasAuthority {
		sb.WriteString("//")
		sb.WriteString(r.authority)
	}
	sb.WriteString(r.path)
	if r.hasQuery {
		sb.WriteByte('?')
		sb.WriteString(r.query)
	}
	if r.hasFragment {
		sb.WriteByte('#')
		sb.WriteString(r.fragment)
	}
	return sb.String()
}

// ResolveIRI resolves ref against base following RFC 3986 section 5.2.
// An absolute ref is returned unchanged, so resolution is idempotent.
func ResolveIRI(base, ref string) (string, error) {
	if IsAbsoluteIRI(ref) {
		return ref, nil
	}
	if base == "" {
		return "", errors.Wrapf(ErrUnresolvableIRI, "relative IRI <%s> with no base", ref)
	}
	if !IsAbsoluteIRI(base) {
		return "", errors.Wrapf(ErrUnresolvableIRI, "base <%s> is not absolute", base)
	}

	b := splitIRI(base)
	r := splitIRI(ref)
	var t iriRef

	if r.hasAuthority {
		t.authority, t.hasAuthority = r.authority, true
		t.path = removeDotSegments(r.path)
		t.query, t.hasQuery = r.query, r.hasQuery
	} else {
		if r.path == "" {
			t.path = b.path
			if r.hasQuery {
				t.query, t.hasQuery = r.query, true
			} else {
				t.query, t.hasQuery = b.query, b.hasQuery
			}
		} else {
			if strings.HasPrefix(r.path, "/") {
				t.path = removeDotSegments(r.path)
			} else {
				t.path = removeDotSegments(mergePaths(b, r.path))
			}
			t.query, t.hasQuery = r.query, r.hasQuery
		}
		t.authority, t.hasAuthority = b.authority, b.hasAuthority
	}
	t.scheme = b.scheme
	t.fragment, t.hasFragment = r.fragment, r.hasFragment

	return t.String(), nil
}

// mergePaths implements RFC 3986 section 5.2.3
func mergePaths(base iriRef, ref string) string {
	if base.hasAuthority && base.path == "" {
		return "/" + ref
	}
	if i := strings.LastIndexByte(base.path, '/'); i >= 0 {
		return base.path[:i+1] + ref
	}
	return ref
}

// removeDotSegments implements RFC 3986 section 5.2.4
func removeDotSegments(path string) string {
	if !strings.Contains(path, ".") {
		return path
	}
	in := path
	out := make([]string, 0, strings.Count(path, "/")+1)
	for in != "" {
		switch {
		case strings.HasPrefix(in, "../"):
			in = in[3:]
		case strings.HasPrefix(in, "./"):
			in = in[2:]
		case strings.HasPrefix(in, "/./"):
			in = in[2:]
		case in == "/.":
			in = "/"
		case strings.HasPrefix(in, "/../"):
			in = in[3:]
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case in == "/..":
			in = "/"
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case in == "." || in == "..":
			in = ""
		default:
			// Move the first segment, including its leading slash, to the output
			start := 0
			if in[0] == '/' {
				start = 1
			}
			end := strings.IndexByte(in[start:], '/')
			if end < 0 {
				out = append(out, in)
				in = ""
			} else {
				out = append(out, in[:start+end])
				in = in[start+end:]
			}
		}
	}
	return strings.Join(out, "")
}
