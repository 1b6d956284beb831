package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeNotFound         Code = "NOT_FOUND"
	CodePersistenceRead  Code = "PERSISTENCE_READ_ERROR"
	CodePersistenceWrite Code = "PERSISTENCE_WRITE_ERROR"
	CodeDependency       Code = "DEPENDENCY_ERROR"
	CodeInternal         Code = "INTERNAL_ERROR"
)

// Metadata describes how a class of error should be treated by callers.
type Metadata struct {
	Retryable     bool
	UserVisible   bool
	PublicMessage string
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Retryable:     false,
		UserVisible:   true,
		PublicMessage: "validation failed",
	},
	CodeUnauthorized: {
		Retryable:     false,
		UserVisible:   true,
		PublicMessage: "authentication required",
	},
	CodeNotFound: {
		Retryable:     false,
		UserVisible:   true,
		PublicMessage: "resource not found",
	},
	CodePersistenceRead: {
		Retryable:     false,
		UserVisible:   false,
		PublicMessage: "local storage unreadable",
	},
	CodePersistenceWrite: {
		Retryable:     true,
		UserVisible:   false,
		PublicMessage: "local storage write failed",
	},
	CodeDependency: {
		Retryable:     true,
		UserVisible:   true,
		PublicMessage: "service unavailable",
	},
	CodeInternal: {
		Retryable:     true,
		UserVisible:   false,
		PublicMessage: "internal error",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// CodeFromHTTPStatus maps an upstream API status to the local taxonomy.
func CodeFromHTTPStatus(status int) Code {
	switch {
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusNotFound:
		return CodeNotFound
	case status >= 400 && status < 500:
		return CodeValidation
	case status >= 500:
		return CodeDependency
	default:
		return CodeInternal
	}
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

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
