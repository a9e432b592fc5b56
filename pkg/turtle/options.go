package turtle

import (
	"go.uber.org/zap"
)

// Syntax selects the grammar accepted by the parser
type Syntax int

const (
	SyntaxTurtle Syntax = iota
	SyntaxN3
)

func (s Syntax) String() string {
	if s == SyntaxN3 {
		return "n3"
	}
	return "turtle"
}

// DefaultMaxDepth bounds nesting of '[', '(' and '{'
const DefaultMaxDepth = 64

type parserConfig struct {
	base            string
	syntax          Syntax
	maxDepth        int
	scope           string
	logger          *zap.Logger
	defaultPrefixes bool
	strict          bool
}

func defaultParserConfig() parserConfig {
	return parserConfig{
		syntax:          SyntaxTurtle,
		maxDepth:        DefaultMaxDepth,
		logger:          zap.NewNop(),
		defaultPrefixes: true,
	}
}

// Option configures a Parser
type Option func(*parserConfig)

// WithBase sets the document base IRI used to resolve relative references
func WithBase(base string) Option {
	return func(c *parserConfig) {
		c.base = base
	}
}

// WithSyntax selects Turtle (the default) or N3
func WithSyntax(s Syntax) Option {
	return func(c *parserConfig) {
		c.syntax = s
	}
}

// WithMaxDepth sets the nesting limit; values below 1 keep the default
func WithMaxDepth(depth int) Option {
	return func(c *parserConfig) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithDocumentScope fixes the scope id of the document's blank nodes.
// By default every parse gets a fresh random scope.
func WithDocumentScope(scope string) Option {
	return func(c *parserConfig) {
		c.scope = scope
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *zap.Logger) Option {
	return func(c *parserConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithoutDefaultPrefixes disables the rdf, rdfs and xsd prefixes that are
// otherwise bound before the first statement.
func WithoutDefaultPrefixes() Option {
	return func(c *parserConfig) {
		c.defaultPrefixes = false
	}
}

// WithStrict turns unsupported-construct diagnostics into fatal errors
func WithStrict(strict bool) Option {
	return func(c *parserConfig) {
		c.strict = strict
	}
}
