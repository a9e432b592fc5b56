// Package rdfio picks a parser configuration for a file or media type.
package rdfio

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/aleksaelezovic/tortoise/pkg/rdf"
	"github.com/aleksaelezovic/tortoise/pkg/turtle"
)

// ErrUnsupportedFormat is returned when no format matches a name, path or
// content type.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Format describes one of the text syntaxes the turtle parser reads.
// N-Triples is read with the Turtle grammar, of which it is a subset.
type Format struct {
	Name        string
	ContentType string
	Aliases     []string // alternative content types
	Extensions  []string
	Syntax      turtle.Syntax
}

var (
	Turtle = Format{
		Name:        "turtle",
		ContentType: "text/turtle",
		Aliases:     []string{"application/x-turtle"},
		Extensions:  []string{".ttl", ".turtle"},
		Syntax:      turtle.SyntaxTurtle,
	}
	NTriples = Format{
		Name:        "ntriples",
		ContentType: "application/n-triples",
		Aliases:     []string{"text/plain"},
		Extensions:  []string{".nt"},
		Syntax:      turtle.SyntaxTurtle,
	}
	N3 = Format{
		Name:        "n3",
		ContentType: "text/n3",
		Aliases:     []string{"text/rdf+n3", "application/n3"},
		Extensions:  []string{".n3"},
		Syntax:      turtle.SyntaxN3,
	}
)

// Formats returns every supported format
func Formats() []Format {
	return []Format{Turtle, NTriples, N3}
}

// ForName looks a format up by its short name.
func ForName(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range Formats() {
		if f.Name == name {
			return f, nil
		}
	}
	return Format{}, errors.Wrapf(ErrUnsupportedFormat, "name %q", name)
}

// ForContentType looks a format up by media type. Parameters such as
// charset are ignored.
func ForContentType(contentType string) (Format, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = strings.TrimSpace(ct[:idx])
	}

	for _, f := range Formats() {
		if f.ContentType == ct {
			return f, nil
		}
		for _, alias := range f.Aliases {
			if alias == ct {
				return f, nil
			}
		}
	}
	return Format{}, errors.Wrapf(ErrUnsupportedFormat, "content type %q", contentType)
}

// ForPath looks a format up by file extension.
func ForPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range Formats() {
		for _, e := range f.Extensions {
			if e == ext {
				return f, nil
			}
		}
	}
	return Format{}, errors.WithHint(
		errors.Wrapf(ErrUnsupportedFormat, "file %q", path),
		"use a .ttl, .nt or .n3 extension or pass --format")
}

// NewParser returns a parser for r in this format. Options given later
// override the format's syntax.
func (f Format) NewParser(r io.Reader, opts ...turtle.Option) *turtle.Parser {
	return turtle.NewParser(r, append([]turtle.Option{turtle.WithSyntax(f.Syntax)}, opts...)...)
}

// FileIRI returns the file:// IRI of path, used as the default base.
func FileIRI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

// ParseFile parses the file at path with its own IRI as base. Options
// given here come after the base, so WithBase overrides it. The parser
// is returned for its prefixes and diagnostics, also on error.
func ParseFile(path string, f Format, opts ...turtle.Option) (*rdf.Graph, *turtle.Parser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", path)
	}
	defer file.Close()

	p := f.NewParser(file, append([]turtle.Option{turtle.WithBase(FileIRI(path))}, opts...)...)
	g := rdf.NewGraph()
	for t, err := range p.All() {
		if err != nil {
			return g, p, errors.Wrapf(err, "%s", path)
		}
		g.Add(t)
	}
	return g, p, nil
}

// WriteNTriples writes one line per triple in input order.
func WriteNTriples(w io.Writer, triples []*rdf.Triple) error {
	for _, t := range triples {
		if err := rdf.WriteTripleCanonical(w, t); err != nil {
			return err
		}
	}
	return nil
}
