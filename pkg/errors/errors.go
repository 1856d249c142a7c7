package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code classifies a failure for the HTTP layer and for retry decisions.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	// CodeConflict is a duplicate write, e.g. a second design for one order line.
	CodeConflict Code = "CONFLICT"
	// CodeStateConflict carries design rule violations that block finalize.
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// CodeInvalidConfiguration marks catalog data an admin must fix before the
	// product can be priced. Shoppers only ever see the public message.
	CodeInvalidConfiguration Code = "INVALID_CONFIGURATION"
	CodeMissingConfig        Code = "MISSING_PRODUCT_CONFIG"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:           {http.StatusBadRequest, false, "validation failed", true},
	CodeUnauthorized:         {http.StatusUnauthorized, false, "authentication required", false},
	CodeForbidden:            {http.StatusForbidden, false, "access denied", false},
	CodeNotFound:             {http.StatusNotFound, false, "resource not found", false},
	CodeConflict:             {http.StatusConflict, false, "order line already has a design", false},
	CodeStateConflict:        {http.StatusUnprocessableEntity, false, "design cannot be ordered", true},
	CodeIdempotency:          {http.StatusConflict, false, "idempotency key reused", true},
	CodeRateLimit:            {http.StatusTooManyRequests, true, "rate limit exceeded", false},
	CodeInternal:             {http.StatusInternalServerError, true, "internal server error", false},
	CodeDependency:           {http.StatusServiceUnavailable, true, "dependency unavailable", true},
	CodeInvalidConfiguration: {http.StatusInternalServerError, false, "product configuration is invalid", false},
	CodeMissingConfig:        {http.StatusNotFound, false, "product design configuration not found", false},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// ClientMessage is what the HTTP layer shows. Client errors (4xx) echo the
// service's message; server-side failures only ever show the public text.
func ClientMessage(e *Error) string {
	meta := MetadataFor(e.Code())
	if meta.HTTPStatus < http.StatusInternalServerError && e.Message() != "" {
		return e.Message()
	}
	return meta.PublicMessage
}

// Error is the typed error returned by services. The message is meant for
// logs and admin tooling; shoppers see Metadata.PublicMessage unless the
// code allows details.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func Wrapf(code Code, err error, format string, args ...any) *Error {
	return Wrap(code, err, fmt.Sprintf(format, args...))
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

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches a payload, typically a violations list, and returns e.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return string(e.code) + ": " + e.message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// As returns the outermost *Error in the chain, or nil.
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
