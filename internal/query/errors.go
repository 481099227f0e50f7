package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind identifies the cause of a tokenize, parse, assemble or translate failure.
// Every kind is itself an error so callers can branch with errors.Is:
//
//	if errors.Is(err, query.ErrNoPositiveValue) { ... }
type ErrorKind int

const (
	// Lexical
	ErrUnterminatedLiteral ErrorKind = iota + 1
	ErrUnrecognizedCharacter

	// Structural
	ErrUnexpectedToken
	ErrUnexpectedEndOfExpression
	ErrOpeningParenthesisExpected
	ErrMissingClosingParenthesis
	ErrCommaOrClosingParenthesisExpected

	// Semantic and validation
	ErrUnknownOperator
	ErrUnknownFunction
	ErrUnexpectedNumberOfArguments
	ErrUnexpectedEmptyArguments
	ErrUnexpectedNullIdentifier
	ErrUnexpectedNullLiteral
	ErrUnexpectedNullList
	ErrUnexpectedNullOperand
	ErrUnexpectedNullNodeType
	ErrUnexpectedNullFilters
	ErrUnexpectedNullFunctionName
	ErrNoNumericValue
	ErrNoPositiveValue
	ErrInvalidOrderDirection
	ErrUnsupportedFormat
	ErrInvalidCount
	ErrUnsupportedOption
	ErrInvalidQuery

	// Translation
	ErrUnknownNodeType
	ErrOperatorNotSupported
	ErrUnresolvablePath
)

var kindNames = map[ErrorKind]string{
	ErrUnterminatedLiteral:               "unterminated literal",
	ErrUnrecognizedCharacter:             "unrecognized character",
	ErrUnexpectedToken:                   "unexpected token",
	ErrUnexpectedEndOfExpression:         "unexpected end of expression",
	ErrOpeningParenthesisExpected:        "opening parenthesis expected",
	ErrMissingClosingParenthesis:         "missing closing parenthesis",
	ErrCommaOrClosingParenthesisExpected: "comma or closing parenthesis expected",
	ErrUnknownOperator:                   "unknown operator",
	ErrUnknownFunction:                   "unknown function",
	ErrUnexpectedNumberOfArguments:       "unexpected number of arguments",
	ErrUnexpectedEmptyArguments:          "unexpected empty arguments",
	ErrUnexpectedNullIdentifier:          "unexpected null identifier",
	ErrUnexpectedNullLiteral:             "unexpected null literal",
	ErrUnexpectedNullList:                "unexpected null list",
	ErrUnexpectedNullOperand:             "unexpected null operand",
	ErrUnexpectedNullNodeType:            "unexpected null node type",
	ErrUnexpectedNullFilters:             "unexpected null filters",
	ErrUnexpectedNullFunctionName:        "unexpected null function name",
	ErrNoNumericValue:                    "no numeric value",
	ErrNoPositiveValue:                   "no positive value",
	ErrInvalidOrderDirection:             "invalid order direction",
	ErrUnsupportedFormat:                 "unsupported format",
	ErrInvalidCount:                      "invalid count",
	ErrUnsupportedOption:                 "unsupported option",
	ErrInvalidQuery:                      "invalid query",
	ErrUnknownNodeType:                   "unknown node type",
	ErrOperatorNotSupported:              "operator not supported",
	ErrUnresolvablePath:                  "unresolvable path",
}

// String returns the human readable name of the kind.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error kind %d", int(k))
}

func (k ErrorKind) Error() string {
	return "odata: " + k.String()
}

// Error is the single error type raised by every stage. Only the fields that make
// sense for the kind are populated; Pos is -1 when no source offset applies.
type Error struct {
	Kind ErrorKind
	// Pos is the byte offset into the filter text.
	Pos int
	// Token is the offending lexeme or character.
	Token string
	// Name is the operator or function involved.
	Name string
	// Option is the query option ($filter, $top, ...) the error belongs to.
	Option string
	// Backend is the translation variant that rejected the input.
	Backend string
	// Expected and Actual carry argument counts for ErrUnexpectedNumberOfArguments.
	Expected int
	Actual   int
	// Detail is a free-form addition to the message.
	Detail string
}

func newError(kind ErrorKind, pos int) *Error {
	return &Error{Kind: kind, Pos: pos}
}

// NewError returns an error of the given kind with no source position.
// Backends use it together with the With* helpers.
func NewError(kind ErrorKind) *Error {
	return &Error{Kind: kind, Pos: -1}
}

func (e *Error) withKind(kind ErrorKind) *Error {
	c := *e
	c.Kind = kind
	return &c
}

// WithName returns a copy of e naming the operator or function.
func (e *Error) WithName(name string) *Error {
	c := *e
	c.Name = name
	return &c
}

// WithBackend returns a copy of e attributed to a backend variant.
func (e *Error) WithBackend(backend string) *Error {
	c := *e
	c.Backend = backend
	return &c
}

// WithOption returns a copy of e attributed to a query option.
func (e *Error) WithOption(option string) *Error {
	c := *e
	c.Option = option
	return &c
}

// WithDetail returns a copy of e with an additional message.
func (e *Error) WithDetail(format string, args ...interface{}) *Error {
	c := *e
	c.Detail = fmt.Sprintf(format, args...)
	return &c
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("odata: ")
	if e.Option != "" {
		b.WriteString("invalid ")
		b.WriteString(e.Option)
		b.WriteString(": ")
	}
	if e.Backend != "" {
		b.WriteString(e.Backend)
		b.WriteString(" backend: ")
	}
	b.WriteString(e.Kind.String())

	switch e.Kind {
	case ErrUnexpectedNumberOfArguments:
		fmt.Fprintf(&b, " for function %q: expected %d, got %d", e.Name, e.Expected, e.Actual)
	default:
		if e.Name != "" {
			fmt.Fprintf(&b, " %q", e.Name)
		}
		if e.Token != "" {
			fmt.Fprintf(&b, " %q", e.Token)
		}
	}
	if e.Pos >= 0 {
		fmt.Fprintf(&b, " at position %d", e.Pos)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
