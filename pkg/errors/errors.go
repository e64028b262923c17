package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeTransport    Code = "TRANSPORT_ERROR"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// Metadata describes how a code should surface to the operator.
type Metadata struct {
	Retryable     bool
	PublicMessage string
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Retryable:     false,
		PublicMessage: "datos inválidos",
	},
	CodeUnauthorized: {
		Retryable:     false,
		PublicMessage: "sesión no autorizada",
	},
	CodeNotFound: {
		Retryable:     false,
		PublicMessage: "sin datos para la consulta",
	},
	CodeConflict: {
		Retryable:     true,
		PublicMessage: "el servidor rechazó la operación",
	},
	CodeTransport: {
		Retryable:     true,
		PublicMessage: "no se pudo contactar al servidor",
	},
	CodeInternal: {
		Retryable:     true,
		PublicMessage: "error interno",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// CodeFromStatus maps a backend HTTP status to the client taxonomy.
func CodeFromStatus(status int) Code {
	switch {
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CodeUnauthorized
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return CodeConflict
	case status >= 400 && status < 500:
		return CodeValidation
	default:
		return CodeTransport
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

// IsNoData reports whether the error is the soft "no data" condition the
// backend signals with a 404 on read-style endpoints.
func IsNoData(err error) bool {
	typed := As(err)
	return typed != nil && typed.Code() == CodeNotFound
}

// PublicMessage returns the server-provided message when present, falling
// back to the code's canned text.
func PublicMessage(err error) string {
	typed := As(err)
	if typed == nil {
		return MetadataFor(CodeInternal).PublicMessage
	}
	if typed.Message() != "" {
		return typed.Message()
	}
	return MetadataFor(typed.Code()).PublicMessage
}
