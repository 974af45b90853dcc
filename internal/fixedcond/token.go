package fixedcond

import (
	"errors"
	"strings"
)

// Sentinel errors
var (
	ErrUnterminatedString  = errors.New("unterminated string literal")
	ErrUnterminatedComment = errors.New("unterminated block comment")
)

// TokenType represents the type of a token
type TokenType int

const (
	EOF TokenType = iota
	WHITESPACE
	WORD          // identifiers, keywords, numbers
	QUOTE         // 'text' or "text"
	ALIAS         // $$foreignAlias$$, $$localAlias$$, ...
	DOT           // .
	OPERATOR      // =, <>, !=, <, >, <=, >=
	OPENED_PARENS // (
	CLOSED_PARENS // )
	BLOCK_COMMENT // /* ... */
	OTHER
)

// String returns the string representation of TokenType
func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case WHITESPACE:
		return "WHITESPACE"
	case WORD:
		return "WORD"
	case QUOTE:
		return "QUOTE"
	case ALIAS:
		return "ALIAS"
	case DOT:
		return "DOT"
	case OPERATOR:
		return "OPERATOR"
	case OPENED_PARENS:
		return "OPENED_PARENS"
	case CLOSED_PARENS:
		return "CLOSED_PARENS"
	case BLOCK_COMMENT:
		return "BLOCK_COMMENT"
	case OTHER:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// Well-known alias markers of fixed conditions.
const (
	ForeignAlias = "foreignAlias"
	LocalAlias   = "localAlias"
	LocationBase = "locationBase"
)

// Position represents a position in the condition text
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token represents a token. Concatenating the values of all tokens of a text
// yields the text again.
type Token struct {
	Type     TokenType
	Value    string
	Position Position
}

// String returns the string representation of Token
func (t Token) String() string {
	return t.Type.String() + ": " + t.Value
}

// AliasName returns the name between the $$ markers of an ALIAS token.
func (t Token) AliasName() string {
	if t.Type != ALIAS || len(t.Value) < 4 {
		return ""
	}
	return t.Value[2 : len(t.Value)-2]
}

// CommentBody returns the trimmed text between the markers of a
// BLOCK_COMMENT token.
func (t Token) CommentBody() string {
	if t.Type != BLOCK_COMMENT || len(t.Value) < 4 {
		return ""
	}
	return strings.TrimSpace(t.Value[2 : len(t.Value)-2])
}
