package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidParameter Code = "INVALID_PARAMETER"
	CodeMethodNotAllowed Code = "METHOD_NOT_ALLOWED"
	CodeNotFound         Code = "NOT_FOUND"
	CodeUpstream         Code = "UPSTREAM_ERROR"
	CodeTransport        Code = "TRANSPORT_ERROR"
	CodeInternal         Code = "INTERNAL_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeInvalidParameter: {
		HTTPStatus:     http.StatusBadRequest,
		Retryable:      false,
		PublicMessage:  "Invalid parameter",
		DetailsAllowed: true,
	},
	CodeMethodNotAllowed: {
		HTTPStatus:     http.StatusMethodNotAllowed,
		Retryable:      false,
		PublicMessage:  "Method not allowed",
		DetailsAllowed: false,
	},
	CodeNotFound: {
		HTTPStatus:     http.StatusNotFound,
		Retryable:      false,
		PublicMessage:  "Not found",
		DetailsAllowed: false,
	},
	CodeUpstream: {
		HTTPStatus:     http.StatusBadGateway,
		Retryable:      false,
		PublicMessage:  "Upstream error",
		DetailsAllowed: true,
	},
	CodeTransport: {
		HTTPStatus:     http.StatusBadGateway,
		Retryable:      true,
		PublicMessage:  "Failed to reach upstream",
		DetailsAllowed: true,
	},
	CodeInternal: {
		HTTPStatus:     http.StatusInternalServerError,
		Retryable:      true,
		PublicMessage:  "Internal server error",
		DetailsAllowed: false,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is the typed error every component below the HTTP boundary returns.
// Details is the human readable text surfaced to clients when the code allows it.
type Error struct {
	code    Code
	message string
	details string
	status  int
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

// InvalidParameter builds the client-caused validation failure.
func InvalidParameter(format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return New(CodeInvalidParameter, msg).WithDetails(msg)
}

// Upstream records a failed upstream response with its status and a body excerpt.
func Upstream(status int, body string) *Error {
	return New(CodeUpstream, fmt.Sprintf("upstream responded with status %d", status)).
		WithStatus(status).
		WithDetails(body)
}

// Transport records a network level failure reaching the upstream.
func Transport(err error) *Error {
	e := Wrap(CodeTransport, err, "upstream request failed")
	if err != nil {
		e.details = err.Error()
	}
	return e
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() string {
	if e == nil {
		return ""
	}
	return e.details
}

func (e *Error) WithDetails(details string) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

// Status is the HTTP status reported by the upstream, zero when not applicable.
func (e *Error) Status() int {
	if e == nil {
		return 0
	}
	return e.status
}

func (e *Error) WithStatus(status int) *Error {
	if e == nil {
		return nil
	}
	e.status = status
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
