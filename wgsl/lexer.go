package wgsl

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes WGSL source code.
type Lexer struct {
	source    string
	pos       int
	line      int
	lineStart int

	start     int
	startLine int
	startCol  int
	tokens    []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	return &Lexer{
		source: source,
		line:   1,
		tokens: make([]Token, 0, max(len(source)/6, 16)),
	}
}

// Tokenize returns all tokens from the source, terminated by TokenEOF.
// The first malformed character or unterminated comment stops the scan.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		if err := l.skipSpace(); err != nil {
			return nil, err
		}
		l.start, l.startLine, l.startCol = l.pos, l.line, l.column()
		if l.pos >= len(l.source) {
			break
		}
		if err := l.next(); err != nil {
			return nil, err
		}
	}
	l.tokens = append(l.tokens, Token{Kind: TokenEOF, Line: l.line, Column: l.column(), Offset: l.pos})
	return l.tokens, nil
}

// operator is one punctuation spelling.
type operator struct {
	text string
	kind TokenKind
}

// operatorTable groups punctuation by first byte, longest spelling first.
var operatorTable = func() [128][]operator {
	all := []operator{
		{"<<=", TokenLessLessEqual}, {">>=", TokenGreaterGreaterEqual},

		{"->", TokenArrow}, {"++", TokenPlusPlus}, {"--", TokenMinusMinus},
		{"==", TokenEqualEqual}, {"!=", TokenBangEqual},
		{"<=", TokenLessEqual}, {">=", TokenGreaterEqual},
		{"<<", TokenLessLess}, {">>", TokenGreaterGreater},
		{"&&", TokenAmpAmp}, {"||", TokenPipePipe},
		{"+=", TokenPlusEqual}, {"-=", TokenMinusEqual},
		{"*=", TokenStarEqual}, {"/=", TokenSlashEqual}, {"%=", TokenPercentEqual},
		{"&=", TokenAmpEqual}, {"|=", TokenPipeEqual}, {"^=", TokenCaretEqual},

		{"(", TokenLeftParen}, {")", TokenRightParen},
		{"{", TokenLeftBrace}, {"}", TokenRightBrace},
		{"[", TokenLeftBracket}, {"]", TokenRightBracket},
		{",", TokenComma}, {".", TokenDot}, {":", TokenColon}, {";", TokenSemicolon},
		{"@", TokenAt}, {"~", TokenTilde}, {"!", TokenBang}, {"=", TokenEqual},
		{"+", TokenPlus}, {"-", TokenMinus}, {"*", TokenStar}, {"/", TokenSlash},
		{"%", TokenPercent}, {"^", TokenCaret}, {"&", TokenAmpersand}, {"|", TokenPipe},
		{"<", TokenLess}, {">", TokenGreater},
	}
	var table [128][]operator
	for _, op := range all {
		table[op.text[0]] = append(table[op.text[0]], op)
	}
	return table
}()

func (l *Lexer) next() error {
	rest := l.source[l.pos:]
	c := rest[0]

	switch {
	case isDigit(rune(c)), c == '.' && len(rest) > 1 && isDigit(rune(rest[1])):
		l.number()
		return nil
	case c < utf8.RuneSelf:
		for _, op := range operatorTable[c] {
			if strings.HasPrefix(rest, op.text) {
				l.pos += len(op.text)
				l.emit(op.kind)
				return nil
			}
		}
	}

	r, size := utf8.DecodeRuneInString(rest)
	if r == '_' || unicode.IsLetter(r) {
		l.pos += size
		for l.pos < len(l.source) {
			r, size := utf8.DecodeRuneInString(l.source[l.pos:])
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				break
			}
			l.pos += size
		}
		l.emit(lookupKeyword(l.source[l.start:l.pos]))
		return nil
	}

	l.pos += size
	return l.errorf("invalid character %q", r)
}

// skipSpace consumes blanks and comments.
func (l *Lexer) skipSpace() error {
	for l.pos < len(l.source) {
		switch c := l.source[l.pos]; {
		case c == '\n':
			l.pos++
			l.line++
			l.lineStart = l.pos
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case strings.HasPrefix(l.source[l.pos:], "//"):
			if i := strings.IndexByte(l.source[l.pos:], '\n'); i >= 0 {
				l.pos += i
			} else {
				l.pos = len(l.source)
			}
		case strings.HasPrefix(l.source[l.pos:], "/*"):
			if err := l.blockComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

// blockComment skips a possibly nested block comment.
func (l *Lexer) blockComment() error {
	pos, line, lineStart := l.pos+2, l.line, l.lineStart
	for depth := 1; depth > 0; {
		if pos >= len(l.source) {
			l.start, l.startLine, l.startCol = l.pos, l.line, l.column()
			l.pos, l.line, l.lineStart = pos, line, lineStart
			return l.errorf("unterminated block comment")
		}
		switch rest := l.source[pos:]; {
		case strings.HasPrefix(rest, "/*"):
			depth++
			pos += 2
		case strings.HasPrefix(rest, "*/"):
			depth--
			pos += 2
		case rest[0] == '\n':
			pos++
			line++
			lineStart = pos
		default:
			pos++
		}
	}
	l.pos, l.line, l.lineStart = pos, line, lineStart
	return nil
}

// number scans a decimal or hexadecimal literal with its optional suffix.
// "1." is a float, "1.x" is a member access on an integer.
func (l *Lexer) number() {
	digits := func(ok func(rune) bool) {
		for l.pos < len(l.source) && ok(rune(l.source[l.pos])) {
			l.pos++
		}
	}

	if strings.HasPrefix(l.source[l.pos:], "0x") || strings.HasPrefix(l.source[l.pos:], "0X") {
		l.pos += 2
		digits(isHexDigit)
		l.suffix("iu")
		l.emit(TokenIntLiteral)
		return
	}

	float := false
	digits(isDigit)
	if l.peekByte(0) == '.' && !isIdentStart(l.peekByte(1)) {
		float = true
		l.pos++
		digits(isDigit)
	}
	if e := l.peekByte(0); e == 'e' || e == 'E' {
		float = true
		l.pos++
		if s := l.peekByte(0); s == '+' || s == '-' {
			l.pos++
		}
		digits(isDigit)
	}
	if l.suffix("fh") {
		float = true
	} else if !float {
		l.suffix("iu")
	}

	if float {
		l.emit(TokenFloatLiteral)
	} else {
		l.emit(TokenIntLiteral)
	}
}

// suffix consumes one byte from set if it is next.
func (l *Lexer) suffix(set string) bool {
	if c := l.peekByte(0); c != 0 && strings.IndexByte(set, c) >= 0 {
		l.pos++
		return true
	}
	return false
}

func (l *Lexer) peekByte(n int) byte {
	if l.pos+n >= len(l.source) {
		return 0
	}
	return l.source[l.pos+n]
}

// Type names are deliberately absent: they are predeclared identifiers that
// resolve through scopes and may be shadowed by user declarations.
var keywords = map[string]TokenKind{
	"alias":        TokenAlias,
	"break":        TokenBreak,
	"case":         TokenCase,
	"const":        TokenConst,
	"const_assert": TokenConstAssert,
	"continue":     TokenContinue,
	"continuing":   TokenContinuing,
	"default":      TokenDefault,
	"diagnostic":   TokenDiagnostic,
	"discard":      TokenDiscard,
	"else":         TokenElse,
	"enable":       TokenEnable,
	"fn":           TokenFn,
	"for":          TokenFor,
	"if":           TokenIf,
	"let":          TokenLet,
	"loop":         TokenLoop,
	"override":     TokenOverride,
	"return":       TokenReturn,
	"struct":       TokenStruct,
	"switch":       TokenSwitch,
	"var":          TokenVar,
	"while":        TokenWhile,

	"true":  TokenBoolLiteral,
	"false": TokenBoolLiteral,

	"null":  TokenNull,
	"self":  TokenSelf,
	"super": TokenSuper,
	"trait": TokenTrait,
	"type":  TokenType,
	"using": TokenUsing,
}

func lookupKeyword(text string) TokenKind {
	if kind, ok := keywords[text]; ok {
		return kind
	}
	return TokenIdent
}

func (l *Lexer) emit(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Line:   l.startLine,
		Column: l.startCol,
		Offset: l.start,
	})
}

// column is the 1-based rune column of the current position.
func (l *Lexer) column() int {
	return utf8.RuneCountInString(l.source[l.lineStart:l.pos]) + 1
}

func (l *Lexer) errorf(format string, args ...any) error {
	return &SourceError{
		Message: fmt.Sprintf(format, args...),
		Span: Span{
			Start: Position{Line: l.startLine, Column: l.startCol, Offset: l.start},
			End:   Position{Line: l.line, Column: l.column(), Offset: l.pos},
		},
		Source: l.source,
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= utf8.RuneSelf
}
