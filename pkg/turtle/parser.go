package turtle

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aleksaelezovic/tortoise/pkg/rdf"
)

// Parser reads Turtle or N3 and produces triples one at a time. Each call
// to Next parses at most one statement; the triples of that statement are
// queued and handed out before the next statement is read. The first error
// is terminal.
type Parser struct {
	lex *Lexer
	ctx *rdf.ResolutionContext
	cfg parserConfig
	log *zap.Logger

	// bufs[0] collects the current top-level statement, every open formula
	// pushes its own buffer
	bufs    [][]*rdf.Triple
	pending []*rdf.Triple
	depth   int

	prefixes    map[string]string
	diagnostics []*Error
	ruleNoted   bool
	done        bool
	err         error
}

// NewParser creates a parser reading from r
func NewParser(r io.Reader, opts ...Option) *Parser {
	cfg := defaultParserConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.scope == "" {
		cfg.scope = uuid.NewString()
	}

	ctx := rdf.NewResolutionContext(cfg.scope, cfg.base)
	if cfg.defaultPrefixes {
		for prefix, ns := range rdf.DefaultPrefixes() {
			_ = ctx.SetPrefix(prefix, ns)
		}
	}

	return &Parser{
		lex: NewLexer(r),
		ctx: ctx,
		cfg: cfg,
		log: cfg.logger.With(zap.String("syntax", cfg.syntax.String())),
	}
}

// ParseGraph parses the whole input into a graph
func ParseGraph(r io.Reader, opts ...Option) (*rdf.Graph, error) {
	p := NewParser(r, opts...)
	g := rdf.NewGraph()
	for t, err := range p.All() {
		if err != nil {
			return nil, err
		}
		g.Add(t)
	}
	return g, nil
}

// ParseString parses s into a graph
func ParseString(s string, opts ...Option) (*rdf.Graph, error) {
	return ParseGraph(strings.NewReader(s), opts...)
}

// Next returns the next triple. It returns io.EOF once the input is
// exhausted, and keeps returning the first error after a failure.
func (p *Parser) Next() (*rdf.Triple, error) {
	for len(p.pending) == 0 {
		if p.err != nil {
			return nil, p.err
		}
		if p.done {
			return nil, io.EOF
		}
		if err := p.statement(); err != nil {
			p.fail(err)
			return nil, p.err
		}
	}
	t := p.pending[0]
	p.pending[0] = nil
	p.pending = p.pending[1:]
	return t, nil
}

// All iterates the triples. Iteration ends after the first error, which
// is yielded with a nil triple.
func (p *Parser) All() iter.Seq2[*rdf.Triple, error] {
	return func(yield func(*rdf.Triple, error) bool) {
		for {
			t, err := p.Next()
			if err == io.EOF {
				return
			}
			if !yield(t, err) || err != nil {
				return
			}
		}
	}
}

// Prefixes returns the document-level prefixes declared so far, including
// the default ones.
func (p *Parser) Prefixes() map[string]string {
	if p.ctx == nil {
		return p.prefixes
	}
	return p.ctx.Prefixes()
}

// Base returns the document base IRI in effect
func (p *Parser) Base() string {
	if p.ctx == nil {
		return p.cfg.base
	}
	return p.ctx.Base()
}

// Diagnostics returns the unsupported constructs that were accepted
// without being fatal.
func (p *Parser) Diagnostics() []*Error {
	return p.diagnostics
}

func (p *Parser) fail(err error) {
	p.err = err
	p.bufs = nil
	p.release()
	p.log.Debug("parse failed", zap.Error(err))
}

// release drops the resolution context once no more statements can follow
func (p *Parser) release() {
	if p.ctx != nil {
		p.prefixes = p.ctx.Prefixes()
		p.cfg.base = p.ctx.Base()
		p.ctx = nil
	}
}

func (p *Parser) n3() bool {
	return p.cfg.syntax == SyntaxN3
}

func (p *Parser) peek() (Token, error) {
	return p.lex.Peek()
}

func (p *Parser) next() (Token, error) {
	return p.lex.Next()
}

func (p *Parser) errorAt(tok Token, kind ErrorKind, code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Kind:   kind,
		Code:   code,
		Offset: tok.Pos.Offset,
		Line:   tok.Pos.Line,
		Column: tok.Pos.Column,
		Msg:    fmt.Sprintf(format, args...),
	}
}

func (p *Parser) unexpected(tok Token, expected string) *Error {
	return p.errorAt(tok, KindSyntax, CodeUnexpectedToken, "expected %s, found %s", expected, tok)
}

// expect consumes the next token and checks its kind
func (p *Parser) expect(kind TokenKind, code ErrorCode, expected string) (Token, error) {
	tok, err := p.next()
	if err != nil {
		return tok, err
	}
	if tok.Kind != kind {
		return tok, p.errorAt(tok, KindSyntax, code, "expected %s, found %s", expected, tok)
	}
	return tok, nil
}

// statement parses one top-level statement and queues its triples
func (p *Parser) statement() error {
	tok, err := p.peek()
	if err != nil {
		return err
	}
	if tok.Kind == TokenEOF {
		p.done = true
		p.release()
		return nil
	}

	p.bufs = [][]*rdf.Triple{nil}
	handled, err := p.directive(tok)
	if err != nil {
		return err
	}
	if !handled {
		if err := p.triples(); err != nil {
			return err
		}
		if _, err := p.expect(TokenDot, CodeExpectedStatementEnd, "'.' to end the statement"); err != nil {
			return err
		}
	}

	p.pending = append(p.pending, p.bufs[0]...)
	p.bufs = nil
	return nil
}

// directive handles @prefix, @base, PREFIX, BASE and the N3 declarations
func (p *Parser) directive(tok Token) (bool, error) {
	switch {
	case tok.Kind == TokenAtWord && tok.Text == "prefix":
		return true, p.prefixDirective(true)
	case tok.Kind == TokenAtWord && tok.Text == "base":
		return true, p.baseDirective(true)
	case tok.Kind == TokenName && strings.EqualFold(tok.Text, "PREFIX"):
		return true, p.prefixDirective(false)
	case tok.Kind == TokenName && strings.EqualFold(tok.Text, "BASE"):
		return true, p.baseDirective(false)
	case tok.Kind == TokenAtWord && (tok.Text == "forAll" || tok.Text == "forSome"):
		if !p.n3() {
			return true, p.errorAt(tok, KindSyntax, CodeUnexpectedToken, "@%s is only allowed in N3", tok.Text)
		}
		return true, p.quantifier(tok.Text == "forSome")
	case tok.Kind == TokenAtWord && tok.Text == "keywords":
		if !p.n3() {
			return true, p.errorAt(tok, KindSyntax, CodeUnexpectedToken, "@keywords is only allowed in N3")
		}
		return true, p.keywords()
	}
	return false, nil
}

func (p *Parser) prefixDirective(turtleStyle bool) error {
	if _, err := p.next(); err != nil {
		return err
	}
	name, err := p.next()
	if err != nil {
		return err
	}
	if name.Kind != TokenPrefixedName || name.Local != "" {
		return p.errorAt(name, KindSyntax, CodeMalformedDirective, "expected a prefix name ending in ':', found %s", name)
	}
	iri, err := p.expect(TokenIRIRef, CodeMalformedDirective, "an IRI for the prefix")
	if err != nil {
		return err
	}
	if err := p.ctx.SetPrefix(name.Prefix, iri.Text); err != nil {
		return resolutionError(iri.Pos, err)
	}
	ns, _ := p.ctx.Prefix(name.Prefix)
	p.log.Debug("prefix declared",
		zap.String(FieldPrefix, name.Prefix),
		zap.String(FieldIRI, ns),
		zap.Int(FieldDepth, p.ctx.Depth()))

	if turtleStyle {
		if _, err := p.expect(TokenDot, CodeExpectedStatementEnd, "'.' after @prefix"); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) baseDirective(turtleStyle bool) error {
	if _, err := p.next(); err != nil {
		return err
	}
	iri, err := p.expect(TokenIRIRef, CodeMalformedDirective, "an IRI for the base")
	if err != nil {
		return err
	}
	if err := p.ctx.SetBase(iri.Text); err != nil {
		return resolutionError(iri.Pos, err)
	}
	p.log.Debug("base set", zap.String(FieldIRI, p.ctx.Base()), zap.Int(FieldDepth, p.ctx.Depth()))

	if turtleStyle {
		if _, err := p.expect(TokenDot, CodeExpectedStatementEnd, "'.' after @base"); err != nil {
			return err
		}
	}
	return nil
}

// triples parses subject predicateObjectList?
func (p *Parser) triples() error {
	start, err := p.peek()
	if err != nil {
		return err
	}
	subject, propertyList, err := p.expression()
	if err != nil {
		return err
	}
	if err := p.checkSubject(start, subject); err != nil {
		return err
	}

	tok, err := p.peek()
	if err != nil {
		return err
	}
	if isStatementEnd(tok) && (propertyList || p.n3()) {
		return nil
	}
	return p.predicateObjectList(subject)
}

func isStatementEnd(tok Token) bool {
	switch tok.Kind {
	case TokenDot, TokenRBrace, TokenEOF:
		return true
	}
	return false
}

func (p *Parser) checkSubject(tok Token, subject rdf.Term) error {
	switch subject.(type) {
	case *rdf.NamedNode, *rdf.BlankNode, *rdf.Variable, *rdf.Formula:
		return nil
	}
	return p.errorAt(tok, KindSyntax, CodeInvalidPosition, "%s cannot be used as a subject", subject.Type())
}

// predicateObjectList parses verb objectList (';' (verb objectList)?)*
func (p *Parser) predicateObjectList(subject rdf.Term) error {
	for {
		predicate, reversed, err := p.verb()
		if err != nil {
			return err
		}
		if err := p.objectList(subject, predicate, reversed); err != nil {
			return err
		}

		tok, err := p.peek()
		if err != nil {
			return err
		}
		if tok.Kind != TokenSemicolon {
			return nil
		}
		for tok.Kind == TokenSemicolon {
			if _, err := p.next(); err != nil {
				return err
			}
			if tok, err = p.peek(); err != nil {
				return err
			}
		}
		if isStatementEnd(tok) || tok.Kind == TokenRBracket {
			return nil
		}
	}
}

// objectList parses object (',' object)*, tolerating a trailing comma
func (p *Parser) objectList(subject, predicate rdf.Term, reversed bool) error {
	for {
		start, err := p.peek()
		if err != nil {
			return err
		}
		at := p.reserve()
		object, _, err := p.expression()
		if err != nil {
			return err
		}

		t := rdf.NewTriple(subject, predicate, object)
		if reversed {
			t = rdf.NewTriple(object, predicate, subject)
		}
		if err := p.fill(start, at, t); err != nil {
			return err
		}

		tok, err := p.peek()
		if err != nil {
			return err
		}
		if tok.Kind != TokenComma {
			return nil
		}
		if _, err := p.next(); err != nil {
			return err
		}
		if tok, err = p.peek(); err != nil {
			return err
		}
		if isStatementEnd(tok) || tok.Kind == TokenRBracket || tok.Kind == TokenSemicolon {
			return nil
		}
	}
}

// verb parses a predicate. reversed is set for "is ... of" and "<=".
func (p *Parser) verb() (rdf.Term, bool, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, false, err
	}

	switch {
	case tok.Kind == TokenName && tok.Text == "a":
		_, err := p.next()
		return rdf.RDFType, false, err
	case p.n3() && tok.Kind == TokenAtWord && tok.Text == "a":
		_, err := p.next()
		return rdf.RDFType, false, err
	case p.n3() && tok.Kind == TokenEquals:
		_, err := p.next()
		return rdf.OWLSameAs, false, err
	case p.n3() && (tok.Kind == TokenImplies || tok.Kind == TokenImpliedBy):
		if _, err := p.next(); err != nil {
			return nil, false, err
		}
		if err := p.noteUnsupported(tok, CodeRuleNotEvaluated, "rules are parsed as formulas and never evaluated"); err != nil {
			return nil, false, err
		}
		return rdf.LogImplies, tok.Kind == TokenImpliedBy, nil
	case p.n3() && isWord(tok, "has"):
		if _, err := p.next(); err != nil {
			return nil, false, err
		}
		predicate, err := p.predicate()
		return predicate, false, err
	case p.n3() && isWord(tok, "is"):
		if _, err := p.next(); err != nil {
			return nil, false, err
		}
		predicate, err := p.predicate()
		if err != nil {
			return nil, false, err
		}
		of, err := p.next()
		if err != nil {
			return nil, false, err
		}
		if !isWord(of, "of") {
			return nil, false, p.unexpected(of, "'of'")
		}
		return predicate, true, nil
	}

	predicate, err := p.predicate()
	return predicate, false, err
}

func isWord(tok Token, word string) bool {
	return (tok.Kind == TokenName || tok.Kind == TokenAtWord) && tok.Text == word
}

func (p *Parser) predicate() (rdf.Term, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if isStatementEnd(tok) || tok.Kind == TokenRBracket {
		return nil, p.unexpected(tok, "a predicate")
	}
	predicate, _, err := p.expression()
	if err != nil {
		return nil, err
	}
	switch predicate.(type) {
	case *rdf.NamedNode, *rdf.Variable:
		return predicate, nil
	}
	return nil, p.errorAt(tok, KindSyntax, CodeInvalidPosition, "%s cannot be used as a predicate", predicate.Type())
}

// expression parses a path item followed, in N3, by '!' and '^' steps.
// propertyList reports a non-empty [ ... ] with no path applied.
func (p *Parser) expression() (term rdf.Term, propertyList bool, err error) {
	term, propertyList, err = p.pathItem()
	if err != nil || !p.n3() {
		return term, propertyList, err
	}

	for {
		tok, err := p.peek()
		if err != nil {
			return nil, false, err
		}
		if tok.Kind != TokenBang && tok.Kind != TokenCaret {
			return term, propertyList, nil
		}
		if _, err := p.next(); err != nil {
			return nil, false, err
		}
		step, err := p.peek()
		if err != nil {
			return nil, false, err
		}
		predicate, _, err := p.pathItem()
		if err != nil {
			return nil, false, err
		}

		node := p.ctx.FreshBlankNode()
		t := rdf.NewTriple(term, predicate, node)
		if tok.Kind == TokenCaret {
			t = rdf.NewTriple(node, predicate, term)
		}
		if err := p.emit(step, t); err != nil {
			return nil, false, err
		}
		term, propertyList = node, false
	}
}

func (p *Parser) pathItem() (rdf.Term, bool, error) {
	tok, err := p.next()
	if err != nil {
		return nil, false, err
	}

	switch tok.Kind {
	case TokenIRIRef:
		iri, err := p.ctx.ResolveIRI(tok.Text)
		if err != nil {
			return nil, false, resolutionError(tok.Pos, err)
		}
		return p.named(iri), false, nil
	case TokenPrefixedName:
		iri, err := p.ctx.Expand(tok.Prefix, tok.Local)
		if err != nil {
			return nil, false, resolutionError(tok.Pos, err)
		}
		return p.named(iri), false, nil
	case TokenBlankNodeLabel:
		return p.ctx.BlankNode(tok.Text), false, nil
	case TokenLBracket:
		return p.blankNodePropertyList(tok)
	case TokenLParen:
		term, err := p.collection(tok)
		return term, false, err
	case TokenString:
		term, err := p.literal(tok)
		return term, false, err
	case TokenInteger:
		return rdf.NewLiteralWithDatatype(tok.Text, rdf.XSDInteger), false, nil
	case TokenDecimal:
		return rdf.NewLiteralWithDatatype(tok.Text, rdf.XSDDecimal), false, nil
	case TokenDouble:
		return rdf.NewLiteralWithDatatype(tok.Text, rdf.XSDDouble), false, nil
	case TokenName:
		if tok.Text == "true" || tok.Text == "false" {
			return rdf.NewLiteralWithDatatype(tok.Text, rdf.XSDBoolean), false, nil
		}
	case TokenLBrace:
		if p.n3() {
			term, err := p.formula(tok)
			return term, false, err
		}
		return nil, false, p.errorAt(tok, KindSyntax, CodeUnexpectedToken, "formulas are only allowed in N3")
	case TokenVariable:
		if p.n3() {
			return rdf.NewVariable(tok.Text), false, nil
		}
		return nil, false, p.errorAt(tok, KindSyntax, CodeUnexpectedToken, "variables are only allowed in N3")
	}
	return nil, false, p.unexpected(tok, "a term")
}

// named returns the quantified variable bound to iri, or the IRI itself
func (p *Parser) named(iri string) rdf.Term {
	if p.n3() {
		if v, ok := p.ctx.LookupVariable(iri); ok {
			return v
		}
	}
	return rdf.NewNamedNode(iri)
}

func (p *Parser) literal(tok Token) (rdf.Term, error) {
	next, err := p.peek()
	if err != nil {
		return nil, err
	}

	switch next.Kind {
	case TokenAtWord:
		if _, err := p.next(); err != nil {
			return nil, err
		}
		after, err := p.peek()
		if err != nil {
			return nil, err
		}
		if after.Kind == TokenDoubleCaret {
			return nil, p.errorAt(after, KindSyntax, CodeLiteralConflict, "a literal cannot have both a language tag and a datatype")
		}
		return rdf.NewLiteralWithLanguage(tok.Text, next.Text), nil
	case TokenDoubleCaret:
		if _, err := p.next(); err != nil {
			return nil, err
		}
		dt, err := p.next()
		if err != nil {
			return nil, err
		}
		var iri string
		switch dt.Kind {
		case TokenIRIRef:
			iri, err = p.ctx.ResolveIRI(dt.Text)
		case TokenPrefixedName:
			iri, err = p.ctx.Expand(dt.Prefix, dt.Local)
		default:
			return nil, p.unexpected(dt, "a datatype IRI")
		}
		if err != nil {
			return nil, resolutionError(dt.Pos, err)
		}
		return rdf.NewLiteralWithDatatype(tok.Text, rdf.NewNamedNode(iri)), nil
	}
	return rdf.NewLiteral(tok.Text), nil
}

// enter guards the nesting depth of brackets, parentheses and braces
func (p *Parser) enter(tok Token) error {
	p.depth++
	if p.depth > p.cfg.maxDepth {
		return p.errorAt(tok, KindSyntax, CodeNestingTooDeep, "nesting deeper than %d levels", p.cfg.maxDepth)
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// blankNodePropertyList parses '[' predicateObjectList? ']'; the '[' is consumed
func (p *Parser) blankNodePropertyList(open Token) (rdf.Term, bool, error) {
	if err := p.enter(open); err != nil {
		return nil, false, err
	}
	defer p.leave()

	node := p.ctx.FreshBlankNode()
	tok, err := p.peek()
	if err != nil {
		return nil, false, err
	}
	if tok.Kind == TokenRBracket {
		_, err := p.next()
		return node, false, err
	}

	if err := p.predicateObjectList(node); err != nil {
		return nil, false, err
	}
	if _, err := p.expect(TokenRBracket, CodeUnexpectedToken, "']'"); err != nil {
		return nil, false, err
	}
	return node, true, nil
}

// collection parses '(' object* ')'; the '(' is consumed
func (p *Parser) collection(open Token) (rdf.Term, error) {
	if err := p.enter(open); err != nil {
		return nil, err
	}
	defer p.leave()

	var items []rdf.Term
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == TokenRParen {
			if _, err := p.next(); err != nil {
				return nil, err
			}
			break
		}
		if tok.Kind == TokenEOF {
			return nil, p.unexpected(tok, "')'")
		}
		item, _, err := p.expression()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return rdf.RDFNil, nil
	}

	head := p.ctx.FreshBlankNode()
	current := head
	for i, item := range items {
		if err := p.emit(open, rdf.NewTriple(current, rdf.RDFFirst, item)); err != nil {
			return nil, err
		}
		var rest rdf.Term = rdf.RDFNil
		if i < len(items)-1 {
			rest = p.ctx.FreshBlankNode()
		}
		if err := p.emit(open, rdf.NewTriple(current, rdf.RDFRest, rest)); err != nil {
			return nil, err
		}
		if next, ok := rest.(*rdf.BlankNode); ok {
			current = next
		}
	}
	return head, nil
}

// emit appends t to the innermost open buffer
func (p *Parser) emit(tok Token, t *rdf.Triple) error {
	if err := p.check(tok, t); err != nil {
		return err
	}
	top := len(p.bufs) - 1
	p.bufs[top] = append(p.bufs[top], t)
	return nil
}

// reserve appends an empty slot to the innermost buffer and returns its
// index. A triple filled into it precedes the triples produced while
// parsing its own object.
func (p *Parser) reserve() int {
	top := len(p.bufs) - 1
	p.bufs[top] = append(p.bufs[top], nil)
	return len(p.bufs[top]) - 1
}

func (p *Parser) fill(tok Token, at int, t *rdf.Triple) error {
	if err := p.check(tok, t); err != nil {
		return err
	}
	p.bufs[len(p.bufs)-1][at] = t
	return nil
}

func (p *Parser) check(tok Token, t *rdf.Triple) error {
	if err := t.Validate(); err != nil {
		return p.errorAt(tok, KindSyntax, CodeInvalidPosition, "%v", err)
	}
	return nil
}

func (p *Parser) noteUnsupported(tok Token, code ErrorCode, msg string) error {
	if code == CodeRuleNotEvaluated {
		if p.ruleNoted {
			return nil
		}
		p.ruleNoted = true
	}
	e := p.errorAt(tok, KindUnsupportedConstruct, code, "%s", msg)
	if p.cfg.strict {
		return e
	}
	p.diagnostics = append(p.diagnostics, e)
	p.log.Debug("unsupported construct accepted", zap.String(FieldCode, string(code)), zap.Int(FieldOffset, tok.Pos.Offset))
	return nil
}
