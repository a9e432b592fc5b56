package turtle

import (
	"go.uber.org/zap"

	"github.com/aleksaelezovic/tortoise/pkg/rdf"
)

// formula parses '{' statements '}' into a Formula term; the '{' is
// consumed. The formula gets its own scope for blank nodes, prefixes, the
// base IRI and quantified variables.
func (p *Parser) formula(open Token) (rdf.Term, error) {
	if err := p.enter(open); err != nil {
		return nil, err
	}
	defer p.leave()

	scope := p.ctx.Push()
	p.bufs = append(p.bufs, nil)
	p.log.Debug("formula opened", zap.String(FieldScope, scope), zap.Int(FieldDepth, p.ctx.Depth()))

	if err := p.formulaBody(); err != nil {
		return nil, err
	}

	top := len(p.bufs) - 1
	triples := p.bufs[top]
	p.bufs = p.bufs[:top]
	quantified, err := p.ctx.Pop()
	if err != nil {
		return nil, p.errorAt(open, KindSyntax, CodeUnexpectedToken, "%v", err)
	}
	p.log.Debug("formula closed", zap.String(FieldScope, scope), zap.Int(FieldTriples, len(triples)))

	return rdf.NewFormula(rdf.NewGraphFromTriples(triples...), quantified...), nil
}

// formulaBody parses statements separated by '.' up to and including the
// closing '}'. The last statement may omit its '.'.
func (p *Parser) formulaBody() error {
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case TokenRBrace:
			_, err := p.next()
			return err
		case TokenEOF:
			return p.unexpected(tok, "'}' to close the formula")
		}

		handled, err := p.directive(tok)
		if err != nil {
			return err
		}
		if handled {
			continue
		}
		if err := p.triples(); err != nil {
			return err
		}

		end, err := p.peek()
		if err != nil {
			return err
		}
		switch end.Kind {
		case TokenDot:
			if _, err := p.next(); err != nil {
				return err
			}
		case TokenRBrace:
		default:
			return p.errorAt(end, KindSyntax, CodeExpectedStatementEnd, "expected '.' or '}', found %s", end)
		}
	}
}

// quantifier parses @forAll or @forSome followed by a comma separated list
// of IRIs, binding each one as a variable of the innermost scope
func (p *Parser) quantifier(existential bool) error {
	keyword, err := p.next()
	if err != nil {
		return err
	}
	q := rdf.Universal
	if existential {
		q = rdf.Existential
	}

	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		if tok.Kind == TokenDot || tok.Kind == TokenRBrace {
			break
		}
		if _, err := p.next(); err != nil {
			return err
		}
		var iri string
		switch tok.Kind {
		case TokenIRIRef:
			iri, err = p.ctx.ResolveIRI(tok.Text)
		case TokenPrefixedName:
			iri, err = p.ctx.Expand(tok.Prefix, tok.Local)
		default:
			return p.unexpected(tok, "an IRI to quantify")
		}
		if err != nil {
			return resolutionError(tok.Pos, err)
		}
		p.ctx.Declare(iri, q)
		p.log.Debug("variable declared", zap.String(FieldIRI, iri), zap.Stringer("quantifier", q))

		sep, err := p.peek()
		if err != nil {
			return err
		}
		if sep.Kind != TokenComma {
			break
		}
		if _, err := p.next(); err != nil {
			return err
		}
	}

	end, err := p.peek()
	if err != nil {
		return err
	}
	switch end.Kind {
	case TokenDot:
		_, err = p.next()
		return err
	case TokenRBrace:
		if p.ctx.Depth() > 0 {
			return nil
		}
	}
	return p.errorAt(end, KindSyntax, CodeExpectedStatementEnd, "expected '.' after @%s, found %s", keyword.Text, end)
}

// keywords accepts "@keywords a, is, of ." without switching the lexer to
// bare-word keywords
func (p *Parser) keywords() error {
	keyword, err := p.next()
	if err != nil {
		return err
	}
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case TokenDot:
			return p.noteUnsupported(keyword, CodeKeywords, "@keywords is accepted but bare-word keywords are not enabled")
		case TokenName, TokenComma:
		default:
			return p.unexpected(tok, "a keyword name or '.'")
		}
	}
}
