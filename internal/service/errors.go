package service

import (
	"fmt"
)

// Kind classifies a use-case failure so the transport layer can choose a
// response without inspecting error codes.
type Kind int

const (
	// KindInvalid marks client-caused input errors.
	KindInvalid Kind = iota
	// KindNotFound marks lookups of readings that do not exist.
	KindNotFound
	// KindConflict marks duplicate submissions and duplicate confirmations.
	KindConflict
	// KindInternal marks provider, staging and persistence failures. Internal
	// detail stays in the wrapped cause and is never shown to the client.
	KindInternal
)

// Error codes surfaced to API clients.
const (
	CodeInvalidData      = "INVALID_DATA"
	CodeInvalidType      = "INVALID_TYPE"
	CodeDoubleReport     = "DOUBLE_REPORT"
	CodeMeasureNotFound  = "MEASURE_NOT_FOUND"
	CodeMeasuresNotFound = "MEASURES_NOT_FOUND"
	CodeConfirmationDup  = "CONFIRMATION_DUPLICATE"
	CodeInternalError    = "INTERNAL_ERROR"

	descInternalError = "failed to process the request"
)

// Error is a typed use-case failure with a machine-readable code and a
// human description safe to return to the client.
type Error struct {
	Kind        Kind
	Code        string
	Description string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalidData(description string) *Error {
	return &Error{Kind: KindInvalid, Code: CodeInvalidData, Description: description}
}

func invalidType(description string) *Error {
	return &Error{Kind: KindInvalid, Code: CodeInvalidType, Description: description}
}

func conflict(code, description string) *Error {
	return &Error{Kind: KindConflict, Code: code, Description: description}
}

func notFound(code, description string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Description: description}
}

func internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternalError, Description: descInternalError, Err: err}
}
