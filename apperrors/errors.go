package apperrors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code classifies an error for the HTTP boundary.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeNotFound      Code = "NOT_FOUND"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeConfiguration Code = "CONFIGURATION_ERROR"
	CodeInternal      Code = "INTERNAL_ERROR"
)

// Metadata describes how a code is surfaced to callers.
type Metadata struct {
	HTTPStatus    int
	PublicMessage string
	// ExposeMessage reports whether the error's own message may be shown to the caller.
	ExposeMessage bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "validation failed",
		ExposeMessage: true,
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
		ExposeMessage: true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "Unauthorized",
		ExposeMessage: true,
	},
	CodeConfiguration: {
		HTTPStatus:    http.StatusServiceUnavailable,
		PublicMessage: "service not configured",
		ExposeMessage: true,
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "internal server error",
		ExposeMessage: false,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
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

// Validation, NotFound and Internal are shorthands for the common codes.
func Validation(message string) *Error { return New(CodeValidation, message) }

func NotFound(message string) *Error { return New(CodeNotFound, message) }

func Internal(err error, message string) *Error { return Wrap(CodeInternal, err, message) }

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

// As extracts the typed error from a chain, or nil.
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

// CodeOf returns the code carried by err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
