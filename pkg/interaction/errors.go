package interaction

import (
	"errors"

	"github.com/morezero/interaction-router/pkg/embed"
)

// Error codes.
const (
	CodeConflict           = "CONFLICT"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidArgument    = "INVALID_ARGUMENT"
	CodeInvalidState       = "INVALID_STATE"
	CodePaginationOverflow = "PAGINATION_OVERFLOW"
	CodeUserFacing         = "USER_FACING"
	CodeInternal           = "INTERNAL_ERROR"
)

// DefaultFailureMessage is shown for user-facing errors without a message.
const DefaultFailureMessage = "Failed"

// Error is a structured error raised by the router or by Actions.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// NewError creates a new Error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// UserError is returned by an Action to show msg verbatim to the end user.
// An empty msg is shown as DefaultFailureMessage.
func UserError(msg string) *Error {
	return &Error{Code: CodeUserFacing, Message: msg}
}

// CodeOf returns the code of the first *Error in err's chain, or
// CodeInternal when there is none. embed.ErrPaginationOverflow maps to
// CodePaginationOverflow.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, embed.ErrPaginationOverflow) {
		return CodePaginationOverflow
	}
	return CodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
