package fixedcond

import (
	"fmt"
	"iter"
	"unicode"
	"unicode/utf8"
)

// TokenIterator yields the tokens of a condition text.
type TokenIterator iter.Seq2[Token, error]

// Lexer splits a fixed condition into tokens. Only the few shapes the
// analyzer cares about are told apart; everything else becomes WORD or OTHER.
type Lexer struct {
	input string
}

// NewLexer creates a Lexer over input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokens returns an iterator of tokens. The last token is EOF unless an
// error stops the scan.
func (l *Lexer) Tokens() TokenIterator {
	return func(yield func(Token, error) bool) {
		s := &scanner{input: l.input, line: 1, column: 1}
		s.readChar()
		for {
			token, err := s.nextToken()
			if err != nil {
				yield(Token{}, err)
				return
			}
			if !yield(token, nil) || token.Type == EOF {
				return
			}
		}
	}
}

// AllTokens gets all tokens as a slice, EOF included.
func (l *Lexer) AllTokens() ([]Token, error) {
	tokens := make([]Token, 0, 16)
	for token, err := range l.Tokens() {
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// Tokenize is shorthand for NewLexer(input).AllTokens().
func Tokenize(input string) ([]Token, error) {
	return NewLexer(input).AllTokens()
}

type scanner struct {
	input string
	// offset of current
	offset int
	// offset of the rune after current
	next    int
	line    int
	column  int
	current rune
}

func (s *scanner) readChar() {
	if s.next >= len(s.input) {
		s.offset = len(s.input)
		s.current = 0
		return
	}
	if s.current == '\n' {
		s.line++
		s.column = 1
	} else if s.next > 0 {
		s.column++
	}
	r, size := utf8.DecodeRuneInString(s.input[s.next:])
	s.offset = s.next
	s.next += size
	s.current = r
}

func (s *scanner) peekChar() rune {
	if s.next >= len(s.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.input[s.next:])
	return r
}

func (s *scanner) peekString(prefix string) bool {
	rest := s.input[s.offset:]
	return len(rest) >= len(prefix) && rest[:len(prefix)] == prefix
}

func (s *scanner) position() Position {
	return Position{Line: s.line, Column: s.column, Offset: s.offset}
}

func (s *scanner) eof() bool {
	return s.offset >= len(s.input)
}

func (s *scanner) token(typ TokenType, start Position) Token {
	return Token{Type: typ, Value: s.input[start.Offset:s.offset], Position: start}
}

func (s *scanner) nextToken() (Token, error) {
	start := s.position()
	if s.eof() {
		return Token{Type: EOF, Position: start}, nil
	}
	switch c := s.current; {
	case unicode.IsSpace(c):
		for !s.eof() && unicode.IsSpace(s.current) {
			s.readChar()
		}
		return s.token(WHITESPACE, start), nil
	case c == '/' && s.peekChar() == '*':
		return s.readBlockComment(start)
	case c == '\'' || c == '"':
		return s.readString(start, c)
	case c == '$' && s.peekChar() == '$':
		return s.readAlias(start), nil
	case c == '.':
		s.readChar()
		return s.token(DOT, start), nil
	case c == '(':
		s.readChar()
		return s.token(OPENED_PARENS, start), nil
	case c == ')':
		s.readChar()
		return s.token(CLOSED_PARENS, start), nil
	case c == '=':
		s.readChar()
		return s.token(OPERATOR, start), nil
	case c == '<' || c == '>' || c == '!':
		s.readChar()
		if s.current == '=' || (c == '<' && s.current == '>') {
			s.readChar()
		} else if c == '!' {
			return s.token(OTHER, start), nil
		}
		return s.token(OPERATOR, start), nil
	case isWordChar(c):
		for !s.eof() && isWordChar(s.current) {
			s.readChar()
		}
		return s.token(WORD, start), nil
	default:
		s.readChar()
		return s.token(OTHER, start), nil
	}
}

func (s *scanner) readBlockComment(start Position) (Token, error) {
	s.readChar()
	s.readChar()
	for !s.eof() {
		if s.current == '*' && s.peekChar() == '/' {
			s.readChar()
			s.readChar()
			return s.token(BLOCK_COMMENT, start), nil
		}
		s.readChar()
	}
	return Token{}, fmt.Errorf("%w at line %d, column %d", ErrUnterminatedComment, start.Line, start.Column)
}

// readString reads a quoted literal. A doubled delimiter is an escaped one.
func (s *scanner) readString(start Position, delimiter rune) (Token, error) {
	s.readChar()
	for !s.eof() {
		if s.current == delimiter {
			s.readChar()
			if s.current == delimiter && !s.eof() {
				s.readChar()
				continue
			}
			return s.token(QUOTE, start), nil
		}
		s.readChar()
	}
	return Token{}, fmt.Errorf("%w: %c at line %d, column %d", ErrUnterminatedString, delimiter, start.Line, start.Column)
}

// readAlias reads $$name$$. Without the closing marker only the leading "$$"
// is consumed, as OTHER.
func (s *scanner) readAlias(start Position) Token {
	s.readChar()
	s.readChar()
	mark := *s
	for !s.eof() && isWordChar(s.current) {
		s.readChar()
	}
	if s.offset > mark.offset && s.peekString("$$") {
		s.readChar()
		s.readChar()
		return s.token(ALIAS, start)
	}
	*s = mark
	return s.token(OTHER, start)
}

func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
