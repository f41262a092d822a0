package wgsl

import "fmt"

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenError

	// Literals
	TokenIdent
	TokenIntLiteral
	TokenFloatLiteral
	TokenBoolLiteral

	// Operators
	TokenPlus                // +
	TokenMinus               // -
	TokenStar                // *
	TokenSlash               // /
	TokenPercent             // %
	TokenAmpersand           // &
	TokenPipe                // |
	TokenCaret               // ^
	TokenTilde               // ~
	TokenBang                // !
	TokenEqual               // =
	TokenLess                // <
	TokenGreater             // >
	TokenDot                 // .
	TokenComma               // ,
	TokenColon               // :
	TokenSemicolon           // ;
	TokenAt                  // @
	TokenArrow               // ->
	TokenPlusPlus            // ++
	TokenMinusMinus          // --
	TokenEqualEqual          // ==
	TokenBangEqual           // !=
	TokenLessEqual           // <=
	TokenGreaterEqual        // >=
	TokenAmpAmp              // &&
	TokenPipePipe            // ||
	TokenLessLess            // <<
	TokenGreaterGreater      // >>
	TokenPlusEqual           // +=
	TokenMinusEqual          // -=
	TokenStarEqual           // *=
	TokenSlashEqual          // /=
	TokenPercentEqual        // %=
	TokenAmpEqual            // &=
	TokenPipeEqual           // |=
	TokenCaretEqual          // ^=
	TokenLessLessEqual       // <<=
	TokenGreaterGreaterEqual // >>=

	// Delimiters
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftBracket  // [
	TokenRightBracket // ]

	// Keywords
	TokenAlias
	TokenBreak
	TokenCase
	TokenConst
	TokenConstAssert
	TokenContinue
	TokenContinuing
	TokenDefault
	TokenDiagnostic
	TokenDiscard
	TokenElse
	TokenEnable
	TokenFn
	TokenFor
	TokenIf
	TokenLet
	TokenLoop
	TokenOverride
	TokenReturn
	TokenStruct
	TokenSwitch
	TokenVar
	TokenWhile

	// Reserved words
	TokenNull
	TokenSelf
	TokenSuper
	TokenTrait
	TokenType
	TokenUsing

	tokenCount
)

var tokenNames = [tokenCount]string{
	TokenEOF:          "end of file",
	TokenError:        "invalid token",
	TokenIdent:        "identifier",
	TokenIntLiteral:   "integer literal",
	TokenFloatLiteral: "float literal",
	TokenBoolLiteral:  "bool literal",

	TokenPlus:                "+",
	TokenMinus:               "-",
	TokenStar:                "*",
	TokenSlash:               "/",
	TokenPercent:             "%",
	TokenAmpersand:           "&",
	TokenPipe:                "|",
	TokenCaret:               "^",
	TokenTilde:               "~",
	TokenBang:                "!",
	TokenEqual:               "=",
	TokenLess:                "<",
	TokenGreater:             ">",
	TokenDot:                 ".",
	TokenComma:               ",",
	TokenColon:               ":",
	TokenSemicolon:           ";",
	TokenAt:                  "@",
	TokenArrow:               "->",
	TokenPlusPlus:            "++",
	TokenMinusMinus:          "--",
	TokenEqualEqual:          "==",
	TokenBangEqual:           "!=",
	TokenLessEqual:           "<=",
	TokenGreaterEqual:        ">=",
	TokenAmpAmp:              "&&",
	TokenPipePipe:            "||",
	TokenLessLess:            "<<",
	TokenGreaterGreater:      ">>",
	TokenPlusEqual:           "+=",
	TokenMinusEqual:          "-=",
	TokenStarEqual:           "*=",
	TokenSlashEqual:          "/=",
	TokenPercentEqual:        "%=",
	TokenAmpEqual:            "&=",
	TokenPipeEqual:           "|=",
	TokenCaretEqual:          "^=",
	TokenLessLessEqual:       "<<=",
	TokenGreaterGreaterEqual: ">>=",

	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenLeftBrace:    "{",
	TokenRightBrace:   "}",
	TokenLeftBracket:  "[",
	TokenRightBracket: "]",

	TokenAlias:       "alias",
	TokenBreak:       "break",
	TokenCase:        "case",
	TokenConst:       "const",
	TokenConstAssert: "const_assert",
	TokenContinue:    "continue",
	TokenContinuing:  "continuing",
	TokenDefault:     "default",
	TokenDiagnostic:  "diagnostic",
	TokenDiscard:     "discard",
	TokenElse:        "else",
	TokenEnable:      "enable",
	TokenFn:          "fn",
	TokenFor:         "for",
	TokenIf:          "if",
	TokenLet:         "let",
	TokenLoop:        "loop",
	TokenOverride:    "override",
	TokenReturn:      "return",
	TokenStruct:      "struct",
	TokenSwitch:      "switch",
	TokenVar:         "var",
	TokenWhile:       "while",

	TokenNull:  "null",
	TokenSelf:  "self",
	TokenSuper: "super",
	TokenTrait: "trait",
	TokenType:  "type",
	TokenUsing: "using",
}

// String returns the source spelling of the token kind, or a description
// for literal and identifier classes.
func (k TokenKind) String() string {
	if k < tokenCount && tokenNames[k] != "" {
		return tokenNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", k)
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Column int
	Offset int
}

// Pos returns the position of the first character of the token.
func (t Token) Pos() Position {
	return Position{Line: t.Line, Column: t.Column, Offset: t.Offset}
}

// End returns the position just past the last character of the token.
func (t Token) End() Position {
	return Position{Line: t.Line, Column: t.Column + len(t.Lexeme), Offset: t.Offset + len(t.Lexeme)}
}

// Span represents a source code location span.
type Span struct {
	Start  Position
	End    Position
	Source string // Source file name or identifier
}

// String formats the span as file:line:column.
func (s Span) String() string {
	if s.Source == "" {
		return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
	}
	return fmt.Sprintf("%s:%d:%d", s.Source, s.Start.Line, s.Start.Column)
}

// Pos returns s. AST nodes embed their Span, which makes them Nodes.
func (s Span) Pos() Span { return s }

// IsValid reports whether the span points at a real source location.
func (s Span) IsValid() bool {
	return s.Start.Line > 0
}

// Position represents a position in source code.
type Position struct {
	Line   int
	Column int
	Offset int
}
