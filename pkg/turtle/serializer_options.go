package turtle

import (
	"maps"
	"strings"

	"go.uber.org/zap"

	"github.com/aleksaelezovic/tortoise/pkg/rdf"
)

// IndentKind selects how nested lines are indented
type IndentKind int

const (
	IndentSpaces IndentKind = iota
	IndentTab
	IndentNone
)

// MaxIndentWidth caps the number of spaces per level
const MaxIndentWidth = 32

// DefaultIndentWidth is the number of spaces per level unless configured
const DefaultIndentWidth = 4

// Indentation is one indentation unit
type Indentation struct {
	Kind  IndentKind
	Width int
}

// Spaces indents with n spaces per level; n is clamped to MaxIndentWidth
// and n <= 0 means no indentation.
func Spaces(n int) Indentation {
	if n <= 0 {
		return Indentation{Kind: IndentNone}
	}
	return Indentation{Kind: IndentSpaces, Width: min(n, MaxIndentWidth)}
}

// Tab indents with one tab per level
func Tab() Indentation {
	return Indentation{Kind: IndentTab}
}

// NoIndent writes nested lines flush left
func NoIndent() Indentation {
	return Indentation{Kind: IndentNone}
}

func (i Indentation) unit() string {
	switch i.Kind {
	case IndentTab:
		return "\t"
	case IndentNone:
		return ""
	default:
		return strings.Repeat(" ", i.Width)
	}
}

// SerializerOptions configures Turtle output
type SerializerOptions struct {
	// Prefixes maps prefix labels to namespaces to compact IRIs with.
	// Only prefixes that end up used are written.
	Prefixes map[string]string
	// AutoPrefix adds prefixes for well-known vocabularies found in the graph
	AutoPrefix bool
	Indent     Indentation
	// InlineBlankNodes writes blank nodes referenced at most once as [ ... ]
	InlineBlankNodes bool
	// Base is written as @base when set
	Base   string
	Logger *zap.Logger
}

// DefaultSerializerOptions returns four-space indentation with blank
// node inlining enabled
func DefaultSerializerOptions() SerializerOptions {
	return SerializerOptions{
		Prefixes:         map[string]string{},
		Indent:           Spaces(DefaultIndentWidth),
		InlineBlankNodes: true,
		Logger:           zap.NewNop(),
	}
}

// SerializerOption configures a Serializer
type SerializerOption func(*SerializerOptions)

// WithOptions replaces all options at once
func WithOptions(o SerializerOptions) SerializerOption {
	return func(opts *SerializerOptions) {
		*opts = o
		opts.Prefixes = maps.Clone(o.Prefixes)
		if opts.Prefixes == nil {
			opts.Prefixes = map[string]string{}
		}
		if opts.Logger == nil {
			opts.Logger = zap.NewNop()
		}
	}
}

// WithPrefixes adds prefix bindings
func WithPrefixes(prefixes map[string]string) SerializerOption {
	return func(opts *SerializerOptions) {
		maps.Copy(opts.Prefixes, prefixes)
	}
}

// WithPrefix adds one prefix binding
func WithPrefix(prefix, namespace string) SerializerOption {
	return func(opts *SerializerOptions) {
		opts.Prefixes[prefix] = namespace
	}
}

func WithAutoPrefix(enabled bool) SerializerOption {
	return func(opts *SerializerOptions) {
		opts.AutoPrefix = enabled
	}
}

func WithIndentWidth(width int) SerializerOption {
	return func(opts *SerializerOptions) {
		opts.Indent = Spaces(width)
	}
}

func WithIndentation(indent Indentation) SerializerOption {
	return func(opts *SerializerOptions) {
		opts.Indent = indent
	}
}

func WithInlineBlankNodes(enabled bool) SerializerOption {
	return func(opts *SerializerOptions) {
		opts.InlineBlankNodes = enabled
	}
}

func WithSerializerBase(base string) SerializerOption {
	return func(opts *SerializerOptions) {
		opts.Base = base
	}
}

func WithSerializerLogger(logger *zap.Logger) SerializerOption {
	return func(opts *SerializerOptions) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}

// WellKnownPrefixes are the vocabularies AutoPrefix may bind
var WellKnownPrefixes = map[string]string{
	"rdf":     rdf.RDFNamespace,
	"rdfs":    rdf.RDFSNamespace,
	"xsd":     rdf.XSDNamespace,
	"owl":     rdf.OWLNamespace,
	"foaf":    "http://xmlns.com/foaf/0.1/",
	"dc":      "http://purl.org/dc/elements/1.1/",
	"dcterms": "http://purl.org/dc/terms/",
	"skos":    "http://www.w3.org/2004/02/skos/core#",
	"schema":  "https://schema.org/",
	"prov":    "http://www.w3.org/ns/prov#",
	"log":     rdf.LogNamespace,
	"math":    rdf.MathNamespace,
}
