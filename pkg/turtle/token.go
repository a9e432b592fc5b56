package turtle

import "fmt"

// TokenKind identifies the lexical class of a token
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIRIRef
	TokenPrefixedName
	TokenBlankNodeLabel
	TokenString
	TokenAtWord // @prefix, @base, @en-GB, @forAll ...
	TokenInteger
	TokenDecimal
	TokenDouble
	TokenName // bare words: a, true, false, PREFIX, BASE, is, of, has
	TokenVariable
	TokenDot
	TokenSemicolon
	TokenComma
	TokenLBracket
	TokenRBracket
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenDoubleCaret
	TokenCaret
	TokenBang
	TokenEquals
	TokenImplies
	TokenImpliedBy
)

func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "end of input"
	case TokenIRIRef:
		return "IRI"
	case TokenPrefixedName:
		return "prefixed name"
	case TokenBlankNodeLabel:
		return "blank node label"
	case TokenString:
		return "string"
	case TokenAtWord:
		return "@keyword"
	case TokenInteger:
		return "integer"
	case TokenDecimal:
		return "decimal"
	case TokenDouble:
		return "double"
	case TokenName:
		return "name"
	case TokenVariable:
		return "variable"
	case TokenDot:
		return "'.'"
	case TokenSemicolon:
		return "';'"
	case TokenComma:
		return "','"
	case TokenLBracket:
		return "'['"
	case TokenRBracket:
		return "']'"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenLBrace:
		return "'{'"
	case TokenRBrace:
		return "'}'"
	case TokenDoubleCaret:
		return "'^^'"
	case TokenCaret:
		return "'^'"
	case TokenBang:
		return "'!'"
	case TokenEquals:
		return "'='"
	case TokenImplies:
		return "'=>'"
	case TokenImpliedBy:
		return "'<='"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

// Position locates a token in the input
type Position struct {
	Offset int // byte offset
	Line   int // 1-based
	Column int // 1-based, in runes
}

// Token is a lexical unit. Text holds the unescaped value: IRI contents
// for IRIs, the label for blank nodes, the name for variables, the word
// after '@' for at-words and the lexical form for strings and numbers.
// Prefixed names keep the prefix and the unescaped local part apart.
type Token struct {
	Kind   TokenKind
	Text   string
	Prefix string
	Local  string
	Long   bool // triple-quoted string
	Pos    Position
	Len    int // byte length of the raw token
}

func (t Token) String() string {
	switch t.Kind {
	case TokenEOF, TokenDot, TokenSemicolon, TokenComma, TokenLBracket, TokenRBracket,
		TokenLParen, TokenRParen, TokenLBrace, TokenRBrace, TokenDoubleCaret, TokenCaret,
		TokenBang, TokenEquals, TokenImplies, TokenImpliedBy:
		return t.Kind.String()
	case TokenPrefixedName:
		return fmt.Sprintf("%s %s:%s", t.Kind, t.Prefix, t.Local)
	default:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	}
}
