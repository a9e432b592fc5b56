package turtle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

const (
	eofRune = -1
	badRune = -2
)

// Lexer turns a character stream into tokens. It reads the input lazily
// and supports one token of look-ahead through Peek.
type Lexer struct {
	r       *bufio.Reader
	buf     []rune
	sizes   []int
	pos     Position
	readErr error

	peeked  *Token
	peekErr error
	err     error
}

// NewLexer creates a lexer reading from r
func NewLexer(r io.Reader) *Lexer {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Lexer{
		r:   br,
		pos: Position{Offset: 0, Line: 1, Column: 1},
	}
}

// Next returns the next token. At the end of input it returns a token of
// kind TokenEOF. After an error every call returns the same error.
func (l *Lexer) Next() (Token, error) {
	if l.peeked != nil || l.peekErr != nil {
		tok, err := *l.peeked, l.peekErr
		l.peeked, l.peekErr = nil, nil
		return tok, err
	}
	return l.scan()
}

// Peek returns the next token without consuming it
func (l *Lexer) Peek() (Token, error) {
	if l.peeked == nil && l.peekErr == nil {
		tok, err := l.scan()
		l.peeked, l.peekErr = &tok, err
	}
	return *l.peeked, l.peekErr
}

// Position returns the position of the next unread character
func (l *Lexer) Position() Position {
	return l.pos
}

// fill makes sure at least n runes are buffered unless the input ends
func (l *Lexer) fill(n int) {
	for len(l.buf) < n && l.readErr == nil {
		r, size, err := l.r.ReadRune()
		if err != nil {
			l.readErr = err
			return
		}
		if r == utf8.RuneError && size == 1 {
			r = badRune
		}
		l.buf = append(l.buf, r)
		l.sizes = append(l.sizes, size)
	}
}

// peekAt returns the rune i positions ahead without consuming anything
func (l *Lexer) peekAt(i int) rune {
	l.fill(i + 1)
	if i < len(l.buf) {
		return l.buf[i]
	}
	return eofRune
}

func (l *Lexer) advance() rune {
	l.fill(1)
	if len(l.buf) == 0 {
		return eofRune
	}
	r, size := l.buf[0], l.sizes[0]
	l.buf, l.sizes = l.buf[1:], l.sizes[1:]
	l.pos.Offset += size
	if r == '\n' {
		l.pos.Line++
		l.pos.Column = 1
	} else {
		l.pos.Column++
	}
	return r
}

func (l *Lexer) errorf(code ErrorCode, pos Position, format string, args ...any) *Error {
	return &Error{
		Kind:   KindLex,
		Code:   code,
		Offset: pos.Offset,
		Line:   pos.Line,
		Column: pos.Column,
		Msg:    fmt.Sprintf(format, args...),
	}
}

func (l *Lexer) scan() (Token, error) {
	if l.err != nil {
		return Token{}, l.err
	}
	tok, err := l.scanToken()
	if err != nil {
		l.err = err
		return Token{}, err
	}
	tok.Len = l.pos.Offset - tok.Pos.Offset
	return tok, nil
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch l.peekAt(0) {
		case ' ', '\t', '\r', '\n':
			l.advance()
		case '#':
			for r := l.peekAt(0); r != '\n' && r != eofRune; r = l.peekAt(0) {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) scanToken() (Token, error) {
	l.skipWhitespaceAndComments()
	start := l.pos
	tok := Token{Pos: start}

	r := l.peekAt(0)
	switch {
	case r == eofRune:
		if l.readErr != nil && !errors.Is(l.readErr, io.EOF) {
			e := l.errorf(CodeRead, start, "reading input: %v", l.readErr)
			e.Err = l.readErr
			return tok, e
		}
		tok.Kind = TokenEOF
		return tok, nil
	case r == badRune:
		return tok, l.errorf(CodeInvalidUTF8, start, "invalid UTF-8 byte sequence")
	case r == '<':
		if l.peekAt(1) == '=' && isTokenBoundary(l.peekAt(2)) {
			l.advance()
			l.advance()
			tok.Kind = TokenImpliedBy
			return tok, nil
		}
		return l.scanIRIRef(tok)
	case r == '"' || r == '\'':
		return l.scanString(tok)
	case r == '_' && l.peekAt(1) == ':':
		return l.scanBlankNodeLabel(tok)
	case r == '@':
		return l.scanAtWord(tok)
	case r == '?':
		return l.scanVariable(tok)
	case isDigit(r), r == '.' && isDigit(l.peekAt(1)):
		return l.scanNumber(tok)
	case r == '+' || r == '-':
		if isDigit(l.peekAt(1)) || (l.peekAt(1) == '.' && isDigit(l.peekAt(2))) {
			return l.scanNumber(tok)
		}
		return tok, l.errorf(CodeMalformedNumber, start, "sign %q is not followed by a number", r)
	case r == ':' || isPN_CHARS_BASE(r):
		return l.scanName(tok)
	}

	l.advance()
	switch r {
	case '.':
		tok.Kind = TokenDot
	case ';':
		tok.Kind = TokenSemicolon
	case ',':
		tok.Kind = TokenComma
	case '[':
		tok.Kind = TokenLBracket
	case ']':
		tok.Kind = TokenRBracket
	case '(':
		tok.Kind = TokenLParen
	case ')':
		tok.Kind = TokenRParen
	case '{':
		tok.Kind = TokenLBrace
	case '}':
		tok.Kind = TokenRBrace
	case '!':
		tok.Kind = TokenBang
	case '^':
		tok.Kind = TokenCaret
		if l.peekAt(0) == '^' {
			l.advance()
			tok.Kind = TokenDoubleCaret
		}
	case '=':
		tok.Kind = TokenEquals
		if l.peekAt(0) == '>' {
			l.advance()
			tok.Kind = TokenImplies
		}
	default:
		return tok, l.errorf(CodeUnexpectedCharacter, start, "unexpected character %q", r)
	}
	return tok, nil
}

// isTokenBoundary reports whether r ends "<=" as an operator: it must be a
// character that could not continue an IRI reference.
func isTokenBoundary(r rune) bool {
	return r == eofRune || (r != '>' && isIllegalIRIRune(r))
}

// scanIRIRef scans '<' ([^#x00-#x20<>"{}|^`\] | UCHAR)* '>'
func (l *Lexer) scanIRIRef(tok Token) (Token, error) {
	l.advance() // skip '<'

	var sb strings.Builder
	for {
		at := l.pos
		r := l.peekAt(0)
		switch r {
		case eofRune:
			return tok, l.errorf(CodeUnterminatedIRI, tok.Pos, "unterminated IRI")
		case '>':
			l.advance()
			tok.Kind = TokenIRIRef
			tok.Text = sb.String()
			return tok, nil
		case '\\':
			l.advance()
			e := l.peekAt(0)
			if e != 'u' && e != 'U' {
				return tok, l.errorf(CodeIllegalEscape, at, "invalid escape sequence in IRI")
			}
			decoded, err := l.scanUnicodeEscape(at)
			if err != nil {
				return tok, err
			}
			if isIllegalIRIRune(decoded) {
				return tok, l.errorf(CodeIllegalCodepoint, at, "escaped character U+%04X not allowed in IRI", decoded)
			}
			sb.WriteRune(decoded)
		default:
			if r == badRune {
				return tok, l.errorf(CodeInvalidUTF8, at, "invalid UTF-8 byte sequence in IRI")
			}
			if isIllegalIRIRune(r) {
				return tok, l.errorf(CodeIllegalCodepoint, at, "invalid character in IRI: %q", r)
			}
			l.advance()
			sb.WriteRune(r)
		}
	}
}

func isIllegalIRIRune(r rune) bool {
	if r <= 0x20 {
		return true
	}
	switch r {
	case '<', '>', '"', '{', '}', '|', '^', '`', '\\':
		return true
	}
	return false
}

// scanUnicodeEscape consumes uXXXX or UXXXXXXXX; the backslash is already consumed
func (l *Lexer) scanUnicodeEscape(at Position) (rune, error) {
	kind := l.advance()
	n := 4
	if kind == 'U' {
		n = 8
	}
	var hex strings.Builder
	for i := 0; i < n; i++ {
		r := l.peekAt(0)
		if !isHexDigit(r) {
			return 0, l.errorf(CodeIllegalEscape, at, "incomplete \\%c escape", kind)
		}
		hex.WriteRune(l.advance())
	}
	codePoint, err := strconv.ParseUint(hex.String(), 16, 32)
	if err != nil {
		return 0, l.errorf(CodeIllegalEscape, at, "invalid hex digits in unicode escape: %s", hex.String())
	}
	if codePoint >= 0xD800 && codePoint <= 0xDFFF {
		return 0, l.errorf(CodeIllegalCodepoint, at, "surrogate code point U+%04X not allowed", codePoint)
	}
	if codePoint > 0x10FFFF {
		return 0, l.errorf(CodeIllegalCodepoint, at, "code point U+%X exceeds maximum U+10FFFF", codePoint)
	}
	return rune(codePoint), nil
}

// scanString scans the four quoting forms
func (l *Lexer) scanString(tok Token) (Token, error) {
	q := l.advance()
	if l.peekAt(0) == q && l.peekAt(1) == q {
		l.advance()
		l.advance()
		tok.Long = true
	}

	var sb strings.Builder
	for {
		at := l.pos
		r := l.peekAt(0)
		switch {
		case r == eofRune:
			return tok, l.errorf(CodeUnterminatedString, tok.Pos, "unterminated string")
		case r == badRune:
			return tok, l.errorf(CodeInvalidUTF8, at, "invalid UTF-8 byte sequence in string")
		case r == q:
			l.advance()
			if !tok.Long {
				tok.Kind, tok.Text = TokenString, sb.String()
				return tok, nil
			}
			if l.peekAt(0) == q && l.peekAt(1) == q {
				l.advance()
				l.advance()
				tok.Kind, tok.Text = TokenString, sb.String()
				return tok, nil
			}
			sb.WriteRune(r)
		case r == '\\':
			l.advance()
			decoded, err := l.scanStringEscape(at)
			if err != nil {
				return tok, err
			}
			sb.WriteRune(decoded)
		case (r == '\n' || r == '\r') && !tok.Long:
			return tok, l.errorf(CodeUnterminatedString, tok.Pos, "line break in single-quoted string")
		default:
			l.advance()
			sb.WriteRune(r)
		}
	}
}

// scanStringEscape handles ECHAR and UCHAR; the backslash is already consumed
func (l *Lexer) scanStringEscape(at Position) (rune, error) {
	switch e := l.peekAt(0); e {
	case 't':
		l.advance()
		return '\t', nil
	case 'b':
		l.advance()
		return '\b', nil
	case 'n':
		l.advance()
		return '\n', nil
	case 'r':
		l.advance()
		return '\r', nil
	case 'f':
		l.advance()
		return '\f', nil
	case '"', '\'', '\\':
		l.advance()
		return e, nil
	case 'u', 'U':
		return l.scanUnicodeEscape(at)
	case eofRune:
		return 0, l.errorf(CodeUnterminatedString, at, "unterminated string")
	default:
		return 0, l.errorf(CodeIllegalEscape, at, "invalid escape sequence \\%c", e)
	}
}

// scanBlankNodeLabel scans '_:' (PN_CHARS_U | [0-9]) ((PN_CHARS | '.')* PN_CHARS)?
func (l *Lexer) scanBlankNodeLabel(tok Token) (Token, error) {
	l.advance()
	l.advance()

	first := l.peekAt(0)
	if !isPN_CHARS_U(first) && !isDigit(first) {
		return tok, l.errorf(CodeUnexpectedCharacter, l.pos, "invalid blank node label start %q", first)
	}
	var sb strings.Builder
	sb.WriteRune(l.advance())
	l.scanDotted(&sb, isPN_CHARS)

	tok.Kind, tok.Text = TokenBlankNodeLabel, sb.String()
	return tok, nil
}

// scanDotted consumes runes accepted by ok, plus dots that are followed by
// such runes. A trailing dot is left for the statement terminator.
func (l *Lexer) scanDotted(sb *strings.Builder, ok func(rune) bool) {
	for {
		r := l.peekAt(0)
		if ok(r) {
			sb.WriteRune(l.advance())
			continue
		}
		if r != '.' {
			return
		}
		n := 1
		for l.peekAt(n) == '.' {
			n++
		}
		if !ok(l.peekAt(n)) {
			return
		}
		for ; n > 0; n-- {
			sb.WriteRune(l.advance())
		}
	}
}

// scanAtWord scans '@' [a-zA-Z]+ ('-' [a-zA-Z0-9]+)*
func (l *Lexer) scanAtWord(tok Token) (Token, error) {
	l.advance()
	if !isLetter(l.peekAt(0)) {
		return tok, l.errorf(CodeUnexpectedCharacter, tok.Pos, "expected a keyword or language tag after '@'")
	}
	var sb strings.Builder
	for isLetter(l.peekAt(0)) {
		sb.WriteRune(l.advance())
	}
	for l.peekAt(0) == '-' && isAlnum(l.peekAt(1)) {
		sb.WriteRune(l.advance())
		for isAlnum(l.peekAt(0)) {
			sb.WriteRune(l.advance())
		}
	}
	tok.Kind, tok.Text = TokenAtWord, sb.String()
	return tok, nil
}

// scanVariable scans '?' VARNAME
func (l *Lexer) scanVariable(tok Token) (Token, error) {
	l.advance()
	first := l.peekAt(0)
	if !isPN_CHARS_U(first) && !isDigit(first) {
		return tok, l.errorf(CodeUnexpectedCharacter, tok.Pos, "expected a variable name after '?'")
	}
	var sb strings.Builder
	for r := l.peekAt(0); isPN_CHARS(r); r = l.peekAt(0) {
		sb.WriteRune(l.advance())
	}
	tok.Kind, tok.Text = TokenVariable, sb.String()
	return tok, nil
}

// scanNumber scans INTEGER, DECIMAL and DOUBLE
func (l *Lexer) scanNumber(tok Token) (Token, error) {
	var sb strings.Builder
	if r := l.peekAt(0); r == '+' || r == '-' {
		sb.WriteRune(l.advance())
	}
	for isDigit(l.peekAt(0)) {
		sb.WriteRune(l.advance())
	}
	tok.Kind = TokenInteger

	if l.peekAt(0) == '.' {
		switch {
		case isDigit(l.peekAt(1)):
			sb.WriteRune(l.advance())
			for isDigit(l.peekAt(0)) {
				sb.WriteRune(l.advance())
			}
			tok.Kind = TokenDecimal
		case isExponentStart(l.peekAt(1)) && sb.Len() > 0 && l.validExponentAt(2):
			sb.WriteRune(l.advance())
		}
	}

	if isExponentStart(l.peekAt(0)) {
		at := l.pos
		sb.WriteRune(l.advance())
		if r := l.peekAt(0); r == '+' || r == '-' {
			sb.WriteRune(l.advance())
		}
		if !isDigit(l.peekAt(0)) {
			return tok, l.errorf(CodeMalformedNumber, at, "exponent without digits in %q", sb.String())
		}
		for isDigit(l.peekAt(0)) {
			sb.WriteRune(l.advance())
		}
		tok.Kind = TokenDouble
	}

	tok.Text = sb.String()
	return tok, nil
}

func isExponentStart(r rune) bool {
	return r == 'e' || r == 'E'
}

// validExponentAt reports whether an exponent's digits start at offset i+1
func (l *Lexer) validExponentAt(i int) bool {
	r := l.peekAt(i)
	if r == '+' || r == '-' {
		r = l.peekAt(i + 1)
	}
	return isDigit(r)
}

// scanName scans bare words and prefixed names
func (l *Lexer) scanName(tok Token) (Token, error) {
	var prefix strings.Builder
	if l.peekAt(0) != ':' {
		prefix.WriteRune(l.advance())
		l.scanDotted(&prefix, isPN_CHARS)
	}

	if l.peekAt(0) != ':' {
		tok.Kind, tok.Text = TokenName, prefix.String()
		return tok, nil
	}
	l.advance() // skip ':'

	local, err := l.scanLocalName()
	if err != nil {
		return tok, err
	}
	tok.Kind = TokenPrefixedName
	tok.Prefix = prefix.String()
	tok.Local = local
	tok.Text = tok.Prefix + ":" + local
	return tok, nil
}

// scanLocalName scans PN_LOCAL, unescaping PN_LOCAL_ESC and keeping
// percent-encodings as written.
func (l *Lexer) scanLocalName() (string, error) {
	var sb strings.Builder

	first := l.peekAt(0)
	if !(isPN_CHARS_U(first) || first == ':' || isDigit(first) || first == '%' || first == '\\') {
		return "", nil
	}

	for {
		r := l.peekAt(0)
		switch {
		case r == '%':
			at := l.pos
			if !isHexDigit(l.peekAt(1)) || !isHexDigit(l.peekAt(2)) {
				return "", l.errorf(CodeIllegalEscape, at, "invalid percent-encoding in local name")
			}
			sb.WriteRune(l.advance())
			sb.WriteRune(l.advance())
			sb.WriteRune(l.advance())
		case r == '\\':
			at := l.pos
			if !isLocalEscapable(l.peekAt(1)) {
				return "", l.errorf(CodeIllegalEscape, at, "invalid escape %q in local name", l.peekAt(1))
			}
			l.advance()
			sb.WriteRune(l.advance())
		case isPN_CHARS(r) || r == ':':
			sb.WriteRune(l.advance())
		case r == '.':
			n := 1
			for l.peekAt(n) == '.' {
				n++
			}
			next := l.peekAt(n)
			if !(isPN_CHARS(next) || next == ':' || next == '%' || next == '\\') {
				return sb.String(), nil
			}
			for ; n > 0; n-- {
				sb.WriteRune(l.advance())
			}
		default:
			return sb.String(), nil
		}
	}
}

func isLocalEscapable(r rune) bool {
	return strings.ContainsRune("_~.-!$&'()*+,;=/?#@%", r)
}

// isPN_CHARS_BASE checks if a rune is a PN_CHARS_BASE character
// PN_CHARS_BASE ::= [A-Z] | [a-z] | [#x00C0-#x00D6] | [#x00D8-#x00F6] | [#x00F8-#x02FF] |
//
//	[#x0370-#x037D] | [#x037F-#x1FFF] | [#x200C-#x200D] | [#x2070-#x218F] |
//	[#x2C00-#x2FEF] | [#x3001-#xD7FF] | [#xF900-#xFDCF] | [#xFDF0-#xFFFD] |
//	[#x10000-#xEFFFF]
func isPN_CHARS_BASE(r rune) bool {
	return (r >= 'A' && r <= 'Z') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 0x00C0 && r <= 0x00D6) ||
		(r >= 0x00D8 && r <= 0x00F6) ||
		(r >= 0x00F8 && r <= 0x02FF) ||
		(r >= 0x0370 && r <= 0x037D) ||
		(r >= 0x037F && r <= 0x1FFF) ||
		(r >= 0x200C && r <= 0x200D) ||
		(r >= 0x2070 && r <= 0x218F) ||
		(r >= 0x2C00 && r <= 0x2FEF) ||
		(r >= 0x3001 && r <= 0xD7FF) ||
		(r >= 0xF900 && r <= 0xFDCF) ||
		(r >= 0xFDF0 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0xEFFFF)
}

// PN_CHARS_U ::= PN_CHARS_BASE | '_'
func isPN_CHARS_U(r rune) bool {
	return isPN_CHARS_BASE(r) || r == '_'
}

// PN_CHARS ::= PN_CHARS_U | '-' | [0-9] | #x00B7 | [#x0300-#x036F] | [#x203F-#x2040]
func isPN_CHARS(r rune) bool {
	return isPN_CHARS_U(r) ||
		r == '-' ||
		(r >= '0' && r <= '9') ||
		r == 0x00B7 ||
		(r >= 0x0300 && r <= 0x036F) ||
		(r >= 0x203F && r <= 0x2040)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isAlnum(r rune) bool {
	return isLetter(r) || isDigit(r)
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
