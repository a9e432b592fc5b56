package turtle

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, input string) []Token {
	t.Helper()
	lex := NewLexer(strings.NewReader(input))
	var out []Token
	for {
		tok, err := lex.Next()
		require.NoError(t, err)
		if tok.Kind == TokenEOF {
			return out
		}
		out = append(out, tok)
	}
}

func lexErr(t *testing.T, input string) *Error {
	t.Helper()
	lex := NewLexer(strings.NewReader(input))
	for {
		tok, err := lex.Next()
		if err != nil {
			var e *Error
			require.True(t, errors.As(err, &e), "unexpected error type %T", err)
			return e
		}
		require.NotEqual(t, TokenEOF, tok.Kind, "expected a lexical error in %q", input)
	}
}

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestLexer_Punctuation(t *testing.T) {
	tokens := lexAll(t, ". ; , [ ] ( ) { } ^^ ^ ! = => <=")
	assert.Equal(t, []TokenKind{
		TokenDot, TokenSemicolon, TokenComma,
		TokenLBracket, TokenRBracket, TokenLParen, TokenRParen, TokenLBrace, TokenRBrace,
		TokenDoubleCaret, TokenCaret, TokenBang, TokenEquals, TokenImplies, TokenImpliedBy,
	}, kinds(tokens))
}

func TestLexer_ImpliedByVersusIRI(t *testing.T) {
	tokens := lexAll(t, "<=> <= <x>")
	require.Len(t, tokens, 3)
	assert.Equal(t, TokenIRIRef, tokens[0].Kind)
	assert.Equal(t, "=", tokens[0].Text)
	assert.Equal(t, TokenImpliedBy, tokens[1].Kind)
	assert.Equal(t, TokenIRIRef, tokens[2].Kind)
}

func TestLexer_IRIs(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"<http://example.org/a>", "http://example.org/a"},
		{"<>", ""},
		{"<rel/path#frag>", "rel/path#frag"},
		{`<http://example.org/\u00E9>`, "http://example.org/é"},
		{`<http://example.org/\U0001F600>`, "http://example.org/😀"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := lexAll(t, tt.input)
			require.Len(t, tokens, 1)
			assert.Equal(t, TokenIRIRef, tokens[0].Kind)
			assert.Equal(t, tt.expected, tokens[0].Text)
		})
	}
}

func TestLexer_Strings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		long     bool
	}{
		{"double", `"hello"`, "hello", false},
		{"single", `'hello'`, "hello", false},
		{"other quote inside", `"it's"`, "it's", false},
		{"echar", `"a\tb\nc\"d\\e\'f"`, "a\tb\nc\"d\\e'f", false},
		{"uchar", `"\u00e9\U0001F600"`, "é😀", false},
		{"long double", "\"\"\"line1\nline2\"\"\"", "line1\nline2", true},
		{"long single", "'''a 'b' c'''", "a 'b' c", true},
		{"long with inner quotes", `"""a""b"""`, `a""b`, true},
		{"long starting with quote", `""""a"""`, `"a`, true},
		{"empty", `""`, "", false},
		{"empty long", `""""""`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := lexAll(t, tt.input)
			require.Len(t, tokens, 1)
			assert.Equal(t, TokenString, tokens[0].Kind)
			assert.Equal(t, tt.expected, tokens[0].Text)
			assert.Equal(t, tt.long, tokens[0].Long)
		})
	}
}

func TestLexer_Numbers(t *testing.T) {
	tests := []struct {
		input string
		kind  TokenKind
		text  string
	}{
		{"42", TokenInteger, "42"},
		{"-7", TokenInteger, "-7"},
		{"+3", TokenInteger, "+3"},
		{"3.14", TokenDecimal, "3.14"},
		{".5", TokenDecimal, ".5"},
		{"-.5", TokenDecimal, "-.5"},
		{"1e10", TokenDouble, "1e10"},
		{"1.5E-3", TokenDouble, "1.5E-3"},
		{"1.e5", TokenDouble, "1.e5"},
		{".5e1", TokenDouble, ".5e1"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := lexAll(t, tt.input)
			require.Len(t, tokens, 1)
			assert.Equal(t, tt.kind, tokens[0].Kind)
			assert.Equal(t, tt.text, tokens[0].Text)
		})
	}
}

func TestLexer_NumberFollowedByDot(t *testing.T) {
	tokens := lexAll(t, "<s> <p> 1.")
	assert.Equal(t, []TokenKind{TokenIRIRef, TokenIRIRef, TokenInteger, TokenDot}, kinds(tokens))
	assert.Equal(t, "1", tokens[2].Text)
}

func TestLexer_Names(t *testing.T) {
	tokens := lexAll(t, "ex:local :empty ex: a true PREFIX ex:a.b ex:a. ex:%41 ex:a\\/b ex:9x")
	require.Len(t, tokens, 12)

	assert.Equal(t, TokenPrefixedName, tokens[0].Kind)
	assert.Equal(t, "ex", tokens[0].Prefix)
	assert.Equal(t, "local", tokens[0].Local)

	assert.Equal(t, "", tokens[1].Prefix)
	assert.Equal(t, "empty", tokens[1].Local)

	assert.Equal(t, "ex", tokens[2].Prefix)
	assert.Equal(t, "", tokens[2].Local)

	assert.Equal(t, TokenName, tokens[3].Kind)
	assert.Equal(t, "a", tokens[3].Text)
	assert.Equal(t, TokenName, tokens[4].Kind)
	assert.Equal(t, TokenName, tokens[5].Kind)

	assert.Equal(t, "a.b", tokens[6].Local, "inner dots belong to the name")
	assert.Equal(t, "a", tokens[7].Local, "a trailing dot ends the statement")
	assert.Equal(t, TokenDot, tokens[8].Kind)
	assert.Equal(t, "%41", tokens[9].Local, "percent encoding is kept")
	assert.Equal(t, "a/b", tokens[10].Local, "reserved character escapes are removed")
	assert.Equal(t, "9x", tokens[11].Local)
}

func TestLexer_BlankNodesVariablesAtWords(t *testing.T) {
	tokens := lexAll(t, "_:b1 _:x.y _:z. ?var @prefix @en-GB @forAll")
	assert.Equal(t, []TokenKind{
		TokenBlankNodeLabel, TokenBlankNodeLabel, TokenBlankNodeLabel, TokenDot,
		TokenVariable, TokenAtWord, TokenAtWord, TokenAtWord,
	}, kinds(tokens))
	assert.Equal(t, "b1", tokens[0].Text)
	assert.Equal(t, "x.y", tokens[1].Text)
	assert.Equal(t, "z", tokens[2].Text)
	assert.Equal(t, "var", tokens[4].Text)
	assert.Equal(t, "en-GB", tokens[6].Text)
}

func TestLexer_CommentsAndPositions(t *testing.T) {
	tokens := lexAll(t, "# comment\n  <a> # trailing\n\t<b>")
	require.Len(t, tokens, 2)
	assert.Equal(t, Position{Offset: 12, Line: 2, Column: 3}, tokens[0].Pos)
	assert.Equal(t, 3, tokens[0].Len)
	assert.Equal(t, 2, tokens[1].Pos.Column)
	assert.Equal(t, 3, tokens[1].Pos.Line)
}

func TestLexer_Peek(t *testing.T) {
	lex := NewLexer(strings.NewReader("<a> ."))
	peeked, err := lex.Peek()
	require.NoError(t, err)
	again, err := lex.Peek()
	require.NoError(t, err)
	assert.Equal(t, peeked, again)

	next, err := lex.Next()
	require.NoError(t, err)
	assert.Equal(t, peeked, next)

	dot, err := lex.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenDot, dot.Kind)
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  ErrorCode
	}{
		{"unterminated string", `"abc`, CodeUnterminatedString},
		{"newline in short string", "\"a\nb\"", CodeUnterminatedString},
		{"unterminated long string", `"""abc""`, CodeUnterminatedString},
		{"unterminated IRI", "<http://example.org", CodeUnterminatedIRI},
		{"space in IRI", "<http://exa mple.org>", CodeIllegalCodepoint},
		{"escaped illegal IRI char", `<http://example.org/\u0020>`, CodeIllegalCodepoint},
		{"bad escape", `"\q"`, CodeIllegalEscape},
		{"short uchar", `"\u12"`, CodeIllegalEscape},
		{"surrogate", `"\uD800"`, CodeIllegalCodepoint},
		{"beyond unicode", `"\U00110000"`, CodeIllegalCodepoint},
		{"exponent without digits", "1e", CodeMalformedNumber},
		{"lone sign", "- 1", CodeMalformedNumber},
		{"stray character", "~", CodeUnexpectedCharacter},
		{"bad local escape", `ex:a\q`, CodeIllegalEscape},
		{"bad percent", "ex:a%4", CodeIllegalEscape},
		{"invalid utf8", "<a> \xff", CodeInvalidUTF8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := lexErr(t, tt.input)
			assert.Equal(t, KindLex, e.Kind)
			assert.Equal(t, tt.code, e.Code)
			assert.ErrorIs(t, e, ErrLex)
		})
	}
}

func TestLexer_ErrorIsSticky(t *testing.T) {
	lex := NewLexer(strings.NewReader(`"abc`))
	_, err1 := lex.Next()
	require.Error(t, err1)
	_, err2 := lex.Next()
	assert.Equal(t, err1, err2)
}

func TestLexer_ErrorPosition(t *testing.T) {
	e := lexErr(t, "<a> <b>\n  \"\\q\"")
	assert.Equal(t, 2, e.Line)
	assert.Equal(t, 4, e.Column)
	assert.Contains(t, e.Error(), "line 2, column 4")
}
