package odata

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nlstn/go-odata-query/internal/query"
)

// Error is the error type returned by parsing and translation. Use errors.Is with
// an ErrorKind to branch on the kind and errors.As (or AsError) for the details.
type Error = query.Error

// ErrorKind is the closed set of failure kinds.
type ErrorKind = query.ErrorKind

// Error kinds. Each kind is itself an error:
//
//	if errors.Is(err, odata.ErrUnknownFunction) { ... }
const (
	ErrUnterminatedLiteral               = query.ErrUnterminatedLiteral
	ErrUnrecognizedCharacter             = query.ErrUnrecognizedCharacter
	ErrUnexpectedToken                   = query.ErrUnexpectedToken
	ErrUnexpectedEndOfExpression         = query.ErrUnexpectedEndOfExpression
	ErrOpeningParenthesisExpected        = query.ErrOpeningParenthesisExpected
	ErrMissingClosingParenthesis         = query.ErrMissingClosingParenthesis
	ErrCommaOrClosingParenthesisExpected = query.ErrCommaOrClosingParenthesisExpected
	ErrUnknownOperator                   = query.ErrUnknownOperator
	ErrUnknownFunction                   = query.ErrUnknownFunction
	ErrUnexpectedNumberOfArguments       = query.ErrUnexpectedNumberOfArguments
	ErrUnexpectedEmptyArguments          = query.ErrUnexpectedEmptyArguments
	ErrUnexpectedNullIdentifier          = query.ErrUnexpectedNullIdentifier
	ErrUnexpectedNullLiteral             = query.ErrUnexpectedNullLiteral
	ErrUnexpectedNullList                = query.ErrUnexpectedNullList
	ErrUnexpectedNullOperand             = query.ErrUnexpectedNullOperand
	ErrUnexpectedNullNodeType            = query.ErrUnexpectedNullNodeType
	ErrUnexpectedNullFilters             = query.ErrUnexpectedNullFilters
	ErrUnexpectedNullFunctionName        = query.ErrUnexpectedNullFunctionName
	ErrNoNumericValue                    = query.ErrNoNumericValue
	ErrNoPositiveValue                   = query.ErrNoPositiveValue
	ErrInvalidOrderDirection             = query.ErrInvalidOrderDirection
	ErrUnsupportedFormat                 = query.ErrUnsupportedFormat
	ErrInvalidCount                      = query.ErrInvalidCount
	ErrUnsupportedOption                 = query.ErrUnsupportedOption
	ErrInvalidQuery                      = query.ErrInvalidQuery
	ErrUnknownNodeType                   = query.ErrUnknownNodeType
	ErrOperatorNotSupported              = query.ErrOperatorNotSupported
	ErrUnresolvablePath                  = query.ErrUnresolvablePath
)

// AsError returns the *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var qerr *Error
	if errors.As(err, &qerr) {
		return qerr, true
	}
	return nil, false
}

// ErrorCode represents standard OData error codes.
type ErrorCode string

const (
	ErrorCodeBadRequest          ErrorCode = "BadRequest"
	ErrorCodeNotImplemented      ErrorCode = "NotImplemented"
	ErrorCodeInternalServerError ErrorCode = "InternalServerError"
)

// ODataError is the HTTP rendering of a failure: a status code plus the body of
// an OData JSON error response.
type ODataError struct {
	StatusCode int
	Code       ErrorCode
	Message    string

	// Target is the query option that caused the error, e.g. "$filter".
	Target  string
	Details []ErrorDetail

	Err error
}

// ErrorDetail represents additional error information in an OData error response.
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Target  string `json:"target,omitempty"`
	Message string `json:"message"`
}

func (e *ODataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ODataError) Unwrap() error {
	return e.Err
}

// NewODataError maps err onto an ODataError. Malformed input is a 400, an
// operator or function the backend cannot express is a 501, and anything else
// is a 500.
func NewODataError(err error) *ODataError {
	var odataErr *ODataError
	if errors.As(err, &odataErr) {
		return odataErr
	}

	qerr, ok := AsError(err)
	if !ok {
		return &ODataError{
			StatusCode: http.StatusInternalServerError,
			Code:       ErrorCodeInternalServerError,
			Message:    "internal error",
			Err:        err,
		}
	}

	e := &ODataError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeBadRequest,
		Message:    qerr.Error(),
		Target:     qerr.Option,
		Details:    []ErrorDetail{{Code: qerr.Kind.String(), Target: qerr.Option, Message: qerr.Kind.Error()}},
		Err:        err,
	}
	if qerr.Backend != "" && (qerr.Kind == ErrOperatorNotSupported || qerr.Kind == ErrUnknownFunction) {
		e.StatusCode = http.StatusNotImplemented
		e.Code = ErrorCodeNotImplemented
	}
	return e
}

// MapErrorToHTTPStatus returns the HTTP status code for err.
func MapErrorToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return NewODataError(err).StatusCode
}

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    ErrorCode     `json:"code"`
	Message string        `json:"message"`
	Target  string        `json:"target,omitempty"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// WriteError writes err as an OData V4 JSON error response.
func WriteError(w http.ResponseWriter, err error) error {
	e := NewODataError(err)

	w.Header().Set("Content-Type", "application/json;odata.metadata=minimal")
	w.Header().Set("OData-Version", "4.0")
	w.WriteHeader(e.StatusCode)

	return json.NewEncoder(w).Encode(errorBody{Error: errorPayload{
		Code:    e.Code,
		Message: e.Message,
		Target:  e.Target,
		Details: e.Details,
	}})
}
