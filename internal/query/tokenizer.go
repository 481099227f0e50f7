package query

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenString
	TokenNumber
	TokenBoolean
	TokenNull
	TokenDate
	TokenDuration
	TokenGUID
	TokenIdentifier
	TokenOperator
	TokenFunction
	TokenLParen
	TokenRParen
	TokenComma
	TokenListOpen
	TokenListClose
)

var tokenTypeNames = [...]string{
	TokenEOF:        "end of input",
	TokenString:     "string",
	TokenNumber:     "number",
	TokenBoolean:    "boolean",
	TokenNull:       "null",
	TokenDate:       "date",
	TokenDuration:   "duration",
	TokenGUID:       "guid",
	TokenIdentifier: "identifier",
	TokenOperator:   "operator",
	TokenFunction:   "function",
	TokenLParen:     "(",
	TokenRParen:     ")",
	TokenComma:      ",",
	TokenListOpen:   "[",
	TokenListClose:  "]",
}

func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "unknown"
}

// Token represents a single token in the filter expression. Value holds the raw
// lexeme, except for string and duration literals where it holds the unescaped content.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// IsLiteral reports whether the token starts a literal value.
func (t *Token) IsLiteral() bool {
	switch t.Type {
	case TokenString, TokenNumber, TokenBoolean, TokenNull, TokenDate, TokenDuration, TokenGUID:
		return true
	}
	return false
}

var (
	guidPattern = regexp.MustCompile(`^[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:\d{2})?)?`)
)

const durationPrefix = "duration'"

// Tokenizer tokenizes OData filter expressions
type Tokenizer struct {
	input    string
	pos      int
	ch       byte
	registry *Registry
}

// NewTokenizer creates a new tokenizer
func NewTokenizer(input string) *Tokenizer {
	t := &Tokenizer{
		input:    input,
		pos:      0,
		registry: defaultRegistry,
	}
	if len(input) > 0 {
		t.ch = input[0]
	}
	return t
}

// Tokenize returns all tokens of input, terminated by a TokenEOF.
func Tokenize(input string) ([]*Token, error) {
	return NewTokenizer(input).TokenizeAll()
}

// advance moves to the next character
func (t *Tokenizer) advance() {
	t.seek(t.pos + 1)
}

func (t *Tokenizer) seek(pos int) {
	t.pos = pos
	if t.pos >= len(t.input) {
		t.ch = 0 // EOF
	} else {
		t.ch = t.input[t.pos]
	}
}

// peek looks ahead without advancing
func (t *Tokenizer) peek() byte {
	if t.pos+1 >= len(t.input) {
		return 0
	}
	return t.input[t.pos+1]
}

func (t *Tokenizer) atEnd() bool {
	return t.pos >= len(t.input)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentStart(ch byte) bool {
	return isLetter(ch) || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// skipWhitespace skips whitespace characters
func (t *Tokenizer) skipWhitespace() {
	for t.ch == ' ' || t.ch == '\t' || t.ch == '\n' || t.ch == '\r' {
		t.advance()
	}
}

// readQuoted reads a single-quoted literal starting at the current quote.
// A doubled quote is an escaped quote.
func (t *Tokenizer) readQuoted(start int) (string, error) {
	t.advance() // skip opening quote

	var result strings.Builder
	for !t.atEnd() {
		if t.ch == '\'' {
			if t.peek() == '\'' {
				result.WriteByte('\'')
				t.advance()
				t.advance()
				continue
			}
			t.advance() // skip closing quote
			return result.String(), nil
		}
		result.WriteByte(t.ch)
		t.advance()
	}

	return "", newError(ErrUnterminatedLiteral, start)
}

// readNumber reads a number
func (t *Tokenizer) readNumber() string {
	start := t.pos

	if t.ch == '-' {
		t.advance()
	}

	for isDigit(t.ch) {
		t.advance()
	}

	if t.ch == '.' && isDigit(t.peek()) {
		t.advance()
		for isDigit(t.ch) {
			t.advance()
		}
	}

	if t.ch == 'e' || t.ch == 'E' {
		mark := t.pos
		t.advance()
		if t.ch == '+' || t.ch == '-' {
			t.advance()
		}
		if !isDigit(t.ch) {
			// Not an exponent; leave the letter for the next token.
			t.seek(mark)
		}
		for isDigit(t.ch) {
			t.advance()
		}
	}

	return t.input[start:t.pos]
}

// readIdentifier reads an identifier including '/' path separators
func (t *Tokenizer) readIdentifier() string {
	start := t.pos
	for isIdentPart(t.ch) || t.ch == '/' {
		t.advance()
	}
	return t.input[start:t.pos]
}

// NextToken returns the next token
func (t *Tokenizer) NextToken() (*Token, error) {
	t.skipWhitespace()

	if t.atEnd() {
		return &Token{Type: TokenEOF, Pos: t.pos}, nil
	}

	pos := t.pos

	if t.ch == '\'' {
		value, err := t.readQuoted(pos)
		if err != nil {
			return nil, err
		}
		return &Token{Type: TokenString, Value: value, Pos: pos}, nil
	}

	if token, err := t.tokenizeDuration(pos); token != nil || err != nil {
		return token, err
	}

	if token := t.tokenizePattern(pos, guidPattern, TokenGUID); token != nil {
		return token, nil
	}

	if token := t.tokenizePattern(pos, datePattern, TokenDate); token != nil {
		return token, nil
	}

	if isDigit(t.ch) || (t.ch == '-' && isDigit(t.peek())) {
		return &Token{Type: TokenNumber, Value: t.readNumber(), Pos: pos}, nil
	}

	if token := t.tokenizeSpecialChar(pos); token != nil {
		return token, nil
	}

	if isIdentStart(t.ch) {
		return t.tokenizeIdentifierOrKeyword(pos), nil
	}

	err := newError(ErrUnrecognizedCharacter, pos)
	r, _ := utf8.DecodeRuneInString(t.input[pos:])
	err.Token = string(r)
	return nil, err
}

// tokenizeDuration recognizes duration'P...' literals.
func (t *Tokenizer) tokenizeDuration(pos int) (*Token, error) {
	if t.ch != 'd' || !strings.HasPrefix(t.input[pos:], durationPrefix) {
		return nil, nil
	}
	t.seek(pos + len(durationPrefix) - 1)
	value, err := t.readQuoted(pos)
	if err != nil {
		return nil, err
	}
	return &Token{Type: TokenDuration, Value: value, Pos: pos}, nil
}

// tokenizePattern matches an anchored literal pattern that must not run into an identifier.
func (t *Tokenizer) tokenizePattern(pos int, pattern *regexp.Regexp, typ TokenType) *Token {
	if !isHexDigit(t.ch) {
		return nil
	}
	match := pattern.FindString(t.input[pos:])
	if match == "" {
		return nil
	}
	end := pos + len(match)
	if end < len(t.input) && (isIdentPart(t.input[end]) || t.input[end] == '/') {
		return nil
	}
	t.seek(end)
	return &Token{Type: typ, Value: match, Pos: pos}
}

// tokenizeSpecialChar tokenizes punctuation
func (t *Tokenizer) tokenizeSpecialChar(pos int) *Token {
	var typ TokenType
	switch t.ch {
	case '(':
		typ = TokenLParen
	case ')':
		typ = TokenRParen
	case ',':
		typ = TokenComma
	case '[':
		typ = TokenListOpen
	case ']':
		typ = TokenListClose
	default:
		return nil
	}
	value := string(t.ch)
	t.advance()
	return &Token{Type: typ, Value: value, Pos: pos}
}

// tokenizeIdentifierOrKeyword tokenizes identifiers, keywords and function names.
// Keywords match exactly; "Eq" is an identifier.
func (t *Tokenizer) tokenizeIdentifierOrKeyword(pos int) *Token {
	value := t.readIdentifier()

	switch {
	case value == "true" || value == "false":
		return &Token{Type: TokenBoolean, Value: value, Pos: pos}
	case value == "null":
		return &Token{Type: TokenNull, Value: value, Pos: pos}
	case t.registry.IsOperator(value):
		return &Token{Type: TokenOperator, Value: value, Pos: pos}
	case t.ch == '(' && t.registry.IsFunction(value):
		return &Token{Type: TokenFunction, Value: value, Pos: pos}
	}

	return &Token{Type: TokenIdentifier, Value: value, Pos: pos}
}

// TokenizeAll returns all tokens from the input
func (t *Tokenizer) TokenizeAll() ([]*Token, error) {
	var tokens []*Token

	for {
		token, err := t.NextToken()
		if err != nil {
			return nil, err
		}

		tokens = append(tokens, token)

		if token.Type == TokenEOF {
			break
		}
	}

	return tokens, nil
}
