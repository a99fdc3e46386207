// Package apperr defines the structured failures returned at the request
// boundary. Every failure carries a machine-readable code and a short
// player-facing message; none of them is fatal to a session.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Turn errors
	CodeInvalidPhaseForAction Code = "INVALID_PHASE_FOR_ACTION"
	CodeUnresolvableChoice    Code = "UNRESOLVABLE_CHOICE"
	CodeMissingLiveState      Code = "MISSING_LIVE_STATE"
	CodePreconditionNotMet    Code = "PRECONDITION_NOT_MET"
	CodeUnknownActionCategory Code = "UNKNOWN_ACTION_CATEGORY"

	// Service errors
	CodeSessionNotFound Code = "SESSION_NOT_FOUND"
	CodeCorruptState    Code = "CORRUPT_STATE"
	CodeInternal        Code = "INTERNAL"
)

// Error is a domain failure.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, cause error, message string) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// With adds a metadata entry and returns the same error.
func (e *Error) With(key, value string) *Error {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeUnresolvableChoice, CodeUnknownActionCategory:
		return codes.InvalidArgument
	case CodeInvalidPhaseForAction, CodePreconditionNotMet:
		return codes.FailedPrecondition
	case CodeMissingLiveState:
		return codes.Aborted
	case CodeSessionNotFound:
		return codes.NotFound
	case CodeCorruptState:
		return codes.DataLoss
	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c.GRPCCode() {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition, codes.Aborted:
		return http.StatusConflict
	case codes.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// GRPCStatus lets status.FromError recognise domain errors.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Code.GRPCCode(), e.Message)
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// Message returns the player-facing message of a domain error, or a generic
// one for anything else.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "an unexpected error occurred"
}
